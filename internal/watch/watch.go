// Package watch follows a game from the outside through its Redis feed.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/setgame/internal/display"
	"github.com/dyluth/setgame/pkg/blackboard"
)

// OutputFormat selects how streamed events are rendered.
type OutputFormat string

const (
	FormatDefault OutputFormat = "default"
	FormatJSONL   OutputFormat = "jsonl"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatDefault:
		return FormatDefault, nil
	case FormatJSONL:
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want %q or %q)", s, FormatDefault, FormatJSONL)
	}
}

type formatter interface {
	FormatEvent(e *blackboard.Event) error
}

// defaultFormatter renders events the way a local game prints them.
type defaultFormatter struct {
	console *display.Console
}

func (f *defaultFormatter) FormatEvent(e *blackboard.Event) error {
	if !display.Replay(f.console, e) {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// jsonFormatter writes one JSON object per line.
type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) FormatEvent(e *blackboard.Event) error {
	return json.NewEncoder(f.writer).Encode(e)
}

func newFormatter(format OutputFormat, w io.Writer, verbose bool) formatter {
	if format == FormatJSONL {
		return &jsonFormatter{writer: w}
	}
	return &defaultFormatter{console: display.NewConsole(w, verbose)}
}

// Options controls StreamEvents.
type Options struct {
	Format        OutputFormat
	Verbose       bool // Include board mutations in the default format
	ExitOnWinners bool // Return once the winners are announced
}

// StreamEvents renders feed events to w until ctx is done, the subscription
// closes, or (with ExitOnWinners) the game ends.
func StreamEvents(ctx context.Context, client *blackboard.Client, opts Options, w io.Writer) error {
	sub, err := client.SubscribeEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}
	defer sub.Close()

	f := newFormatter(opts.Format, w, opts.Verbose)

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := f.FormatEvent(e); err != nil {
				fmt.Fprintf(w, "skipping event: %v\n", err)
				continue
			}
			if opts.ExitOnWinners && e.Type == blackboard.EventWinners {
				return nil
			}

		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			// Malformed messages are reported and skipped.
			fmt.Fprintf(w, "feed error: %v\n", err)
		}
	}
}

// PollForWinners polls the winners key until a finished game has written it.
// Polls every 200ms for the specified timeout duration.
func PollForWinners(ctx context.Context, client *blackboard.Client, timeout time.Duration) ([]int, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for winners after %v", timeout)

		case <-ticker.C:
			winners, err := client.GetWinners(ctx)
			if err != nil {
				if blackboard.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to query winners: %w", err)
			}
			return winners, nil
		}
	}
}
