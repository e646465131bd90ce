package commands

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/dyluth/setgame/internal/agent"
	"github.com/dyluth/setgame/internal/arbitrator"
	"github.com/dyluth/setgame/internal/cards"
	"github.com/dyluth/setgame/internal/config"
	"github.com/dyluth/setgame/internal/display"
	"github.com/dyluth/setgame/internal/keyboard"
	"github.com/dyluth/setgame/pkg/blackboard"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// session is one fully wired game: board, arbitrator, agents, and every
// display the configuration asks for.
type session struct {
	cfg      *config.SetGameConfig
	instance string

	board  *blackboard.Board
	arb    *arbitrator.Arbitrator
	agents []*agent.Agent
	keys   *keyboard.Reader

	client *blackboard.Client
	feed   *display.Feed
}

// newSession wires a game. extra displays are added after the console and feed.
func newSession(ctx context.Context, cfg *config.SetGameConfig, out io.Writer, verbose bool, extra ...display.Display) (*session, error) {
	s := &session{cfg: cfg, instance: cfg.Feed.Instance}
	if s.instance == "" {
		s.instance = uuid.New().String()[:8]
	}

	displays := []display.Display{display.NewConsole(out, verbose)}
	if cfg.Feed.Enabled {
		if err := s.connectFeed(ctx); err != nil {
			return nil, err
		}
		displays = append(displays, s.feed)
	}
	disp := display.Multi(append(displays, extra...)...)

	game := cfg.Game
	rules := cards.Rules{FeatureCount: game.FeatureCount, FeatureValues: game.FeatureValues}
	s.board = blackboard.NewBoard(game.BoardSize, game.DeckSize, disp)
	arbOpts := []arbitrator.Option{arbitrator.WithInstance(s.instance)}
	if game.Seed != 0 {
		arbOpts = append(arbOpts, arbitrator.WithSeed(game.Seed))
	}
	s.arb = arbitrator.New(game, s.board, rules, disp, arbOpts...)

	var humans []keyboard.Offerer
	for id := 0; id < cfg.Players.Total(); id++ {
		var opts []agent.Option
		if id >= cfg.Players.Human {
			opts = append(opts, agent.WithGenerator(cfg.Players.ComputerInterval))
		}
		a := agent.New(id, s.arb, s.board, s.arb.Gate(), game, disp, opts...)
		s.agents = append(s.agents, a)
		s.arb.Register(a)
		if id < cfg.Players.Human {
			humans = append(humans, a)
		}
	}

	if len(humans) > 0 {
		keys, err := keyboard.New(game.BoardSize, cfg.Players.Keys, humans)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("failed to bind keys: %w", err)
		}
		s.keys = keys
	}

	return s, nil
}

func (s *session) connectFeed(ctx context.Context) error {
	redisOpts, err := redis.ParseURL(s.cfg.Feed.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client, err := blackboard.NewClient(redisOpts, s.instance)
	if err != nil {
		return fmt.Errorf("failed to create feed client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return fmt.Errorf("feed Redis not reachable at %s: %w", s.cfg.Feed.RedisURL, err)
	}
	if err := client.ResetScores(ctx); err != nil {
		client.Close()
		return err
	}

	s.client = client
	s.feed = display.NewFeed(client, s.cfg.Feed.Buffer)
	return nil
}

// run plays the game to the end, reading human keys from in when there are
// human players. Cancelling ctx ends the game early; winners are still
// announced.
func (s *session) run(ctx context.Context, in io.Reader) ([]int, error) {
	defer s.close()

	if s.feed != nil {
		// The feed must outlive ctx so the winners still go out.
		s.feed.Start(context.WithoutCancel(ctx))
	}

	keyCtx, stopKeys := context.WithCancel(ctx)
	defer stopKeys()
	if s.keys != nil && in != nil {
		go func() {
			if err := s.keys.Run(keyCtx, in); err != nil {
				log.Printf("[Keyboard] %v", err)
			}
		}()
	}

	log.Printf("[Session] Instance '%s': %d human and %d computer players", s.instance, s.cfg.Players.Human, s.cfg.Players.Computer)
	return s.arb.RunGame(ctx)
}

func (s *session) close() {
	if s.feed != nil {
		_ = s.feed.Close()
		if dropped := s.feed.Dropped(); dropped > 0 {
			log.Printf("[Feed] %d events dropped", dropped)
		}
	}
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}
