package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/setgame/internal/config"
	"github.com/dyluth/setgame/internal/printer"
	"github.com/dyluth/setgame/internal/watch"
	"github.com/dyluth/setgame/pkg/blackboard"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	watchInstanceName string
	watchOutputFormat string
	watchRedisURL     string
	watchVerbose      bool
	watchUntilEnd     bool
	watchScoresOnly   bool
	watchTimeout      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a game from another terminal",
	Long: `Follow a running game through its Redis feed.

Streams countdown, scores, freezes and the final result as they happen.
The game must have been started with --feed.

Output Formats:
  default - Human-readable output, as printed by the game itself
  jsonl   - Line-delimited JSON for programmatic processing

Examples:
  # Follow a game
  setgame watch --instance friday

  # Print only the final scoreboard once the game ends
  setgame watch --instance friday --scores-only --timeout 30m

  # Record every event
  setgame watch --instance friday --output=jsonl > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchInstanceName, "instance", "n", "", "Feed instance name (required)")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	watchCmd.Flags().StringVar(&watchRedisURL, "redis-url", "", "Feed Redis URL (default from config or SETGAME_REDIS_URL)")
	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Include card and token changes")
	watchCmd.Flags().BoolVar(&watchUntilEnd, "until-end", true, "Exit once the winners are announced")
	watchCmd.Flags().BoolVar(&watchScoresOnly, "scores-only", false, "Skip the event stream and print the scoreboard when the game ends")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", time.Hour, "How long --scores-only waits for the game to end")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := watch.ParseFormat(watchOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			err.Error(),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	cfg, err := config.LoadOrDefault(config.DefaultPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()

	instanceName := watchInstanceName
	if instanceName == "" {
		instanceName = cfg.Feed.Instance
	}
	if instanceName == "" {
		return printer.Error(
			"no instance given",
			"Each game publishes under its own instance name.",
			[]string{"Pass the name printed by 'setgame play --feed':\n  setgame watch --instance <name>"},
		)
	}

	redisURL := watchRedisURL
	if redisURL == "" {
		redisURL = cfg.Feed.RedisURL
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	bbClient, err := blackboard.NewClient(redisOpts, instanceName)
	if err != nil {
		return fmt.Errorf("failed to create feed client: %w", err)
	}
	defer bbClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bbClient.Ping(ctx); err != nil {
		return printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", redisURL),
			map[string]string{"Instance": instanceName},
			[]string{"Start a local feed:\n  setgame feed up"},
		)
	}

	if watchScoresOnly {
		printer.Step("Waiting for game '%s' to finish...\n", instanceName)
		return awaitScoreboard(ctx, bbClient, watchTimeout, cmd.OutOrStdout())
	}

	// A finished game can be reported without waiting on the stream.
	if watchUntilEnd {
		if winners, err := bbClient.GetWinners(ctx); err == nil {
			printer.Info("Game '%s' already finished.\n", instanceName)
			fmt.Fprint(cmd.OutOrStdout(), printer.Scoreboard(scoresSlice(ctx, bbClient), winners))
			return nil
		} else if !blackboard.IsNotFound(err) {
			return err
		}
	}

	return watch.StreamEvents(ctx, bbClient, watch.Options{
		Format:        format,
		Verbose:       watchVerbose,
		ExitOnWinners: watchUntilEnd,
	}, cmd.OutOrStdout())
}

// awaitScoreboard polls until the game has announced its winners, then prints
// the final scoreboard to w.
func awaitScoreboard(ctx context.Context, client *blackboard.Client, timeout time.Duration, w io.Writer) error {
	winners, err := watch.PollForWinners(ctx, client, timeout)
	if err != nil {
		return fmt.Errorf("game '%s' did not finish: %w", client.InstanceName(), err)
	}
	fmt.Fprint(w, printer.Scoreboard(scoresSlice(ctx, client), winners))
	return nil
}

// scoresSlice reads the published scores as a slice indexed by player id.
func scoresSlice(ctx context.Context, client *blackboard.Client) []int {
	scores, err := client.GetScores(ctx)
	if err != nil || len(scores) == 0 {
		return nil
	}
	ids := blackboard.SortedAgentIDs(scores)
	out := make([]int, ids[len(ids)-1]+1)
	for id, score := range scores {
		out[id] = score
	}
	return out
}
