package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/setgame/internal/config"
	"github.com/dyluth/setgame/internal/printer"
	"github.com/spf13/cobra"
)

var (
	playConfigPath string
	playHumans     int
	playComputers  int
	playFeed       bool
	playInstance   string
	playVerbose    bool
	playLogFile    string
	playSeed       uint64
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a game",
	Long: `Play a game of Set in this terminal.

Each human player owns one row of keys (see players.keys in setgame.yml); a
key press toggles that player's token on the matching slot. Three tokens make
a claim. Computer players join with --computers.

The game ends when no set is left in the deck, or on Ctrl+C.

Examples:
  # Two players on the default key layout
  setgame play

  # Watch three computer players
  setgame play --humans 0 --computers 3

  # Replay the same deals
  setgame play --seed 42

  # Publish the game for spectators (see 'setgame feed up')
  setgame play --feed --instance friday`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&playConfigPath, "config", "c", config.DefaultPath, "Configuration file")
	playCmd.Flags().IntVar(&playHumans, "humans", 0, "Number of keyboard players (overrides config)")
	playCmd.Flags().IntVar(&playComputers, "computers", 0, "Number of computer players (overrides config)")
	playCmd.Flags().BoolVar(&playFeed, "feed", false, "Publish events to the Redis spectator feed")
	playCmd.Flags().StringVarP(&playInstance, "instance", "n", "", "Feed instance name (generated if omitted)")
	playCmd.Flags().BoolVarP(&playVerbose, "verbose", "v", false, "Print every card and token change")
	playCmd.Flags().Uint64Var(&playSeed, "seed", 0, "Shuffle seed, to replay the same deals (overrides config)")
	playCmd.Flags().StringVar(&playLogFile, "log-file", "", "Write engine logs to this file instead of stderr")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadPlayConfig(cmd)
	if err != nil {
		return err
	}

	if playLogFile != "" {
		f, err := os.OpenFile(playLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cfg, cmd.OutOrStdout(), playVerbose)
	if err != nil {
		return printer.ErrorWithContext(
			"failed to start game",
			err.Error(),
			map[string]string{
				"Config": playConfigPath,
				"Feed":   cfg.Feed.RedisURL,
			},
			[]string{"Start a local feed first:\n  setgame feed up", "Or play without the feed:\n  setgame play"},
		)
	}

	if cfg.Feed.Enabled {
		printer.Step("Publishing to feed '%s' (follow with: setgame watch --instance %s)\n", s.instance, s.instance)
	}

	winners, err := s.run(ctx, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("game failed: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), printer.Scoreboard(s.arb.Scores(), winners))
	stats := s.arb.Stats()
	printer.Info("%d sets found in %d rounds\n", stats.SetsFound, stats.Rounds)
	return nil
}

// loadPlayConfig reads the config file (defaults when it is missing), applies
// environment and flag overrides, and validates the result.
func loadPlayConfig(cmd *cobra.Command) (*config.SetGameConfig, error) {
	cfg, err := config.LoadOrDefault(playConfigPath)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, printer.Error("cannot read configuration", err.Error(), []string{"Check the file permissions of " + playConfigPath})
		}
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Config": playConfigPath},
			[]string{"Fix the file, or remove it to play with the defaults"},
		)
	}

	cfg.ApplyEnv()
	flags := cmd.Flags()
	if flags.Changed("humans") {
		cfg.Players.Human = playHumans
	}
	if flags.Changed("computers") {
		cfg.Players.Computer = playComputers
	}
	if flags.Changed("seed") {
		cfg.Game.Seed = playSeed
	}
	if flags.Changed("feed") {
		cfg.Feed.Enabled = playFeed
	}
	if playInstance != "" {
		cfg.Feed.Instance = playInstance
	}

	if err := cfg.Validate(); err != nil {
		return nil, printer.Error("invalid players", err.Error(), []string{"Check --humans, --computers and players.keys"})
	}
	return cfg, nil
}
