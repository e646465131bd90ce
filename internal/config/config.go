package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a configuration file.
const DefaultPath = "setgame.yml"

// GameConfig holds the timing and sizing of a game. Immutable once a game starts.
type GameConfig struct {
	DeckSize           int           `yaml:"deck_size,omitempty"`
	BoardSize          int           `yaml:"board_size,omitempty"`
	FeatureCount       int           `yaml:"feature_count,omitempty"`
	FeatureValues      int           `yaml:"feature_values,omitempty"`
	TurnTimeout        time.Duration `yaml:"turn_timeout,omitempty"`         // Countdown length of a round
	TurnTimeoutWarning time.Duration `yaml:"turn_timeout_warning,omitempty"` // Countdown switches to warning mode below this
	PointFreeze        time.Duration `yaml:"point_freeze,omitempty"`         // Pause after a reward
	PenaltyFreeze      time.Duration `yaml:"penalty_freeze,omitempty"`       // Pause after a penalty
	EndGamePause       time.Duration `yaml:"end_game_pause,omitempty"`       // Pause after winners are announced
	TickInterval       time.Duration `yaml:"tick_interval,omitempty"`        // Countdown refresh period outside warning mode
	Seed               uint64        `yaml:"seed,omitempty"`                 // Fixed shuffle seed; 0 shuffles randomly
}

// PlayersConfig describes who plays.
type PlayersConfig struct {
	Human            int           `yaml:"human"`
	Computer         int           `yaml:"computer"`
	ComputerInterval time.Duration `yaml:"computer_interval,omitempty"` // Pacing between generated inputs
	Keys             []string      `yaml:"keys,omitempty"`              // One layout per human player, one rune per slot
}

// Total returns the number of agents.
func (p *PlayersConfig) Total() int {
	return p.Human + p.Computer
}

// FeedConfig enables the Redis spectator feed.
type FeedConfig struct {
	Enabled  bool   `yaml:"enabled"`
	RedisURL string `yaml:"redis_url,omitempty"`
	Instance string `yaml:"instance,omitempty"` // Namespace for keys and channels; generated when empty
	Buffer   int    `yaml:"buffer,omitempty"`   // Events queued before the feed starts dropping
}

// SetGameConfig represents the top-level setgame.yml configuration
type SetGameConfig struct {
	Version string         `yaml:"version"`
	Game    *GameConfig    `yaml:"game,omitempty"`
	Players *PlayersConfig `yaml:"players,omitempty"`
	Feed    *FeedConfig    `yaml:"feed,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *SetGameConfig {
	cfg := &SetGameConfig{Version: "1.0"}
	// Validate only fills defaults here; the zero config always passes.
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

func defaultKeys() []string {
	return []string{"qwerasdfzxcv", "uiopjkl;m,./"}
}

// applyDefaults fills every zero field.
func (c *SetGameConfig) applyDefaults() {
	if c.Game == nil {
		c.Game = &GameConfig{}
	}
	g := c.Game
	if g.FeatureCount == 0 {
		g.FeatureCount = 4
	}
	if g.FeatureValues == 0 {
		g.FeatureValues = 3
	}
	if g.DeckSize == 0 {
		g.DeckSize = pow(g.FeatureValues, g.FeatureCount)
	}
	if g.BoardSize == 0 {
		g.BoardSize = 12
	}
	if g.TurnTimeout == 0 {
		g.TurnTimeout = 60 * time.Second
	}
	if g.TurnTimeoutWarning == 0 {
		g.TurnTimeoutWarning = 5 * time.Second
	}
	if g.PointFreeze == 0 {
		g.PointFreeze = time.Second
	}
	if g.PenaltyFreeze == 0 {
		g.PenaltyFreeze = 3 * time.Second
	}
	if g.EndGamePause == 0 {
		g.EndGamePause = 5 * time.Second
	}
	if g.TickInterval == 0 {
		g.TickInterval = 250 * time.Millisecond
	}

	if c.Players == nil {
		c.Players = &PlayersConfig{Human: 2}
	}
	p := c.Players
	if p.ComputerInterval == 0 {
		p.ComputerInterval = 10 * time.Millisecond
	}
	if len(p.Keys) == 0 && p.Human > 0 {
		p.Keys = defaultKeys()
	}

	if c.Feed == nil {
		c.Feed = &FeedConfig{}
	}
	if c.Feed.RedisURL == "" {
		c.Feed.RedisURL = "redis://localhost:6379"
	}
	if c.Feed.Buffer == 0 {
		c.Feed.Buffer = 256
	}
}

// Validate applies defaults, then performs strict validation on the configuration
func (c *SetGameConfig) Validate() error {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	c.applyDefaults()

	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if err := c.Players.Validate(c.Game.BoardSize); err != nil {
		return fmt.Errorf("players: %w", err)
	}
	if c.Feed.Buffer < 1 {
		return fmt.Errorf("feed: buffer must be >= 1, got %d", c.Feed.Buffer)
	}

	return nil
}

// Validate checks sizes and durations of a game.
func (g *GameConfig) Validate() error {
	if g.FeatureCount < 1 {
		return fmt.Errorf("feature_count must be >= 1, got %d", g.FeatureCount)
	}
	if g.FeatureValues < 2 {
		return fmt.Errorf("feature_values must be >= 2, got %d", g.FeatureValues)
	}
	if limit := pow(g.FeatureValues, g.FeatureCount); g.DeckSize < 1 || g.DeckSize > limit {
		return fmt.Errorf("deck_size must be between 1 and %d, got %d", limit, g.DeckSize)
	}
	if g.BoardSize < 3 {
		return fmt.Errorf("board_size must be >= 3, got %d", g.BoardSize)
	}
	if g.TurnTimeout < 0 || g.PointFreeze < 0 || g.PenaltyFreeze < 0 || g.EndGamePause < 0 || g.TickInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if g.TurnTimeoutWarning >= g.TurnTimeout {
		return fmt.Errorf("turn_timeout_warning (%s) must be shorter than turn_timeout (%s)", g.TurnTimeoutWarning, g.TurnTimeout)
	}
	return nil
}

// Validate checks player counts and key layouts against the board size.
func (p *PlayersConfig) Validate(boardSize int) error {
	if p.Human < 0 || p.Computer < 0 {
		return fmt.Errorf("player counts must not be negative")
	}
	if p.Total() == 0 {
		return fmt.Errorf("at least one player is required")
	}
	if len(p.Keys) < p.Human {
		return fmt.Errorf("%d human players but only %d key layouts", p.Human, len(p.Keys))
	}

	used := make(map[rune]int)
	for i, layout := range p.Keys[:p.Human] {
		runes := []rune(layout)
		if len(runes) != boardSize {
			return fmt.Errorf("key layout %d has %d keys, board has %d slots", i, len(runes), boardSize)
		}
		for _, r := range runes {
			if owner, dup := used[r]; dup {
				return fmt.Errorf("key %q is bound twice (layouts %d and %d)", r, owner, i)
			}
			used[r] = i
		}
	}
	return nil
}

// ApplyEnv overrides feed settings from SETGAME_REDIS_URL and SETGAME_INSTANCE_NAME.
func (c *SetGameConfig) ApplyEnv() {
	if c.Feed == nil {
		c.Feed = &FeedConfig{}
	}
	if url := os.Getenv("SETGAME_REDIS_URL"); url != "" {
		c.Feed.RedisURL = url
		c.Feed.Enabled = true
	}
	if name := os.Getenv("SETGAME_INSTANCE_NAME"); name != "" {
		c.Feed.Instance = name
	}
}

// Load reads and validates setgame.yml from the specified path
func Load(path string) (*SetGameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config SetGameConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file does not exist.
func LoadOrDefault(path string) (*SetGameConfig, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func pow(base, exp int) int {
	n := 1
	for i := 0; i < exp; i++ {
		n *= base
	}
	return n
}
