package blackboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Client publishes a game's display events to Redis and reads them back for
// spectators. All keys and channels are namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new feed client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: game instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// InstanceName returns the namespace this client publishes under.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// PublishEvent publishes e on setgame:{instance}:events.
// Score events also update the scores hash so late spectators can catch up.
func (c *Client) PublishEvent(ctx context.Context, e *Event) error {
	data, err := EncodeEvent(e)
	if err != nil {
		return err
	}

	if e.Type == EventScore {
		key := ScoresKey(c.instanceName)
		if err := c.rdb.HSet(ctx, key, strconv.Itoa(e.AgentID), e.Score).Err(); err != nil {
			return fmt.Errorf("failed to write score to Redis: %w", err)
		}
	}

	if e.Type == EventWinners {
		winners, err := json.Marshal(e.Winners)
		if err != nil {
			return fmt.Errorf("failed to marshal winners: %w", err)
		}
		if err := c.rdb.Set(ctx, WinnersKey(c.instanceName), winners, 0).Err(); err != nil {
			return fmt.Errorf("failed to write winners to Redis: %w", err)
		}
	}

	if err := c.rdb.Publish(ctx, EventsChannel(c.instanceName), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// GetScores returns the last published score of every agent.
// Returns an empty map if no score has been published yet.
func (c *Client) GetScores(ctx context.Context) (map[int]int, error) {
	hash, err := c.rdb.HGetAll(ctx, ScoresKey(c.instanceName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scores from Redis: %w", err)
	}
	return HashToScores(hash)
}

// GetWinners returns the announced winners.
// Returns (nil, redis.Nil) if the game has not finished.
func (c *Client) GetWinners(ctx context.Context) ([]int, error) {
	data, err := c.rdb.Get(ctx, WinnersKey(c.instanceName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read winners from Redis: %w", err)
	}

	var winners []int
	if err := json.Unmarshal(data, &winners); err != nil {
		return nil, fmt.Errorf("failed to unmarshal winners: %w", err)
	}
	return winners, nil
}

// ResetScores deletes the scores hash and winner list, so a new game under the
// same instance name starts clean.
func (c *Client) ResetScores(ctx context.Context) error {
	if err := c.rdb.Del(ctx, ScoresKey(c.instanceName), WinnersKey(c.instanceName)).Err(); err != nil {
		return fmt.Errorf("failed to reset scores: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to display events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of display events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - malformed messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEvents subscribes to display events for this instance.
// The subscription is confirmed before returning, so events published after
// SubscribeEvents returns are not missed.
//
// Events are delivered on a buffered channel (size 64). Redis Pub/Sub is
// at-most-once, so a subscriber that falls far behind may lose events.
func (c *Client) SubscribeEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, EventsChannel(c.instanceName))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	eventsChan := make(chan *Event, 64)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				event, err := DecodeEvent([]byte(msg.Payload))
				if err != nil {
					select {
					case errorsChan <- err:
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
