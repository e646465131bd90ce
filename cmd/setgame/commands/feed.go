package commands

import (
	"context"
	"fmt"
	"time"

	dockerpkg "github.com/dyluth/setgame/internal/docker"
	"github.com/dyluth/setgame/internal/printer"
	"github.com/dyluth/setgame/pkg/blackboard"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	feedName  string
	feedPort  int
	feedImage string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Manage the local Redis spectator feed",
	Long: `Manage a local Redis container that carries spectator feeds.

Games started with 'setgame play --feed' publish to it, and 'setgame watch'
reads from it.`,
}

var feedUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the feed container",
	Long: `Start a labelled Redis container bound to 127.0.0.1.

Examples:
  setgame feed up
  setgame feed up --port 6400

Without --port the first free port from 6379 upwards is used.`,
	RunE: runFeedUp,
}

var feedDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the feed container",
	RunE:  runFeedDown,
}

func init() {
	feedCmd.PersistentFlags().StringVar(&feedName, "name", "default", "Feed container name suffix")
	feedUpCmd.Flags().IntVar(&feedPort, "port", 0, "Host port for Redis (first free port from 6379 if omitted)")
	feedUpCmd.Flags().StringVar(&feedImage, "image", dockerpkg.DefaultRedisImage, "Redis image")
	feedCmd.AddCommand(feedUpCmd, feedDownCmd)
	rootCmd.AddCommand(feedCmd)
}

func runFeedUp(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	if feedPort == 0 {
		if feedPort, err = dockerpkg.FindFeedPort(ctx, cli); err != nil {
			return err
		}
	}

	spec := dockerpkg.RedisSpec{
		Instance: feedName,
		RunID:    dockerpkg.GenerateRunID(),
		Image:    feedImage,
		HostPort: feedPort,
	}

	printer.Step("Starting %s...\n", dockerpkg.RedisContainerName(feedName))
	if _, err := dockerpkg.StartRedis(ctx, cli, spec); err != nil {
		return printer.ErrorWithContext(
			"failed to start feed",
			err.Error(),
			map[string]string{"Container": dockerpkg.RedisContainerName(feedName), "Port": fmt.Sprintf("%d", feedPort)},
			[]string{
				"Remove a previous feed:\n  setgame feed down",
				"Pick another port:\n  setgame feed up --port 6400",
			},
		)
	}

	redisURL := fmt.Sprintf("redis://localhost:%d", feedPort)
	if err := waitForRedis(ctx, redisURL, 10*time.Second); err != nil {
		printer.Warning("feed started but Redis is not answering yet: %v\n", err)
	}

	printer.Success("Feed ready at %s\n", redisURL)
	printer.Info("\nPlay with:\n  SETGAME_REDIS_URL=%s setgame play --feed\n", redisURL)
	return nil
}

func runFeedDown(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	removed, err := dockerpkg.StopRedis(ctx, cli, feedName)
	if err != nil {
		return fmt.Errorf("failed to stop feed: %w", err)
	}
	if len(removed) == 0 {
		return printer.Error(
			fmt.Sprintf("feed '%s' not found", feedName),
			"No feed containers carry that name.",
			[]string{"Start one with:\n  setgame feed up"},
		)
	}

	for _, name := range removed {
		printer.Step("Removed %s\n", name)
	}
	printer.Success("Feed '%s' stopped\n", feedName)
	return nil
}

// waitForRedis pings redisURL until it answers or timeout passes.
func waitForRedis(ctx context.Context, redisURL string, timeout time.Duration) error {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client, err := blackboard.NewClient(redisOpts, "probe")
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := client.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
