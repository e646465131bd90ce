package display

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyluth/setgame/pkg/blackboard"
)

// Feed publishes display events to Redis for spectators. Calls never block the
// game: events are queued and a background goroutine publishes them. When the
// queue is full new events are dropped and counted.
type Feed struct {
	EventFunc

	client *blackboard.Client
	queue  chan blackboard.Event

	mu     sync.RWMutex // guards closed against concurrent enqueue
	closed bool

	dropped atomic.Int64
	started atomic.Bool
	done    chan struct{}
}

// NewFeed creates a feed that queues up to buffer events.
// Call Start before the game begins and Close after it ends.
func NewFeed(client *blackboard.Client, buffer int) *Feed {
	f := &Feed{
		client: client,
		queue:  make(chan blackboard.Event, buffer),
		done:   make(chan struct{}),
	}
	f.EventFunc = f.enqueue
	return f
}

func (f *Feed) enqueue(e blackboard.Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.queue <- e:
	default:
		if f.dropped.Add(1) == 1 {
			log.Printf("[Feed] Queue full, dropping events for instance '%s'", f.client.InstanceName())
		}
	}
}

// Start launches the publisher goroutine. Publishing stops when Close is called
// and the queue is drained, or when ctx is cancelled.
func (f *Feed) Start(ctx context.Context) {
	if f.started.CompareAndSwap(false, true) {
		go f.run(ctx)
	}
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-f.queue:
			if !ok {
				return
			}
			pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := f.client.PublishEvent(pubCtx, &e); err != nil {
				log.Printf("[Feed] Failed to publish %s event: %v", e.Type, err)
			}
			cancel()
		}
	}
}

// Close stops accepting events and waits for queued ones to be published.
// Safe to call multiple times.
func (f *Feed) Close() error {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()
	if f.started.Load() {
		<-f.done
	}
	return nil
}

// Dropped returns how many events were discarded because the queue was full.
func (f *Feed) Dropped() int64 {
	return f.dropped.Load()
}
