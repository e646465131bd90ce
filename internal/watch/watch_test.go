package watch

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/setgame/pkg/blackboard"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *blackboard.Client {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := blackboard.NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatDefault},
		{in: "default", want: FormatDefault},
		{in: "jsonl", want: FormatJSONL},
		{in: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatters(t *testing.T) {
	color.NoColor = true

	t.Run("defaultFormatter formats score events", func(t *testing.T) {
		var buf bytes.Buffer
		f := newFormatter(FormatDefault, &buf, false)

		require.NoError(t, f.FormatEvent(&blackboard.Event{Type: blackboard.EventScore, AgentID: 1, Score: 4}))
		assert.Contains(t, buf.String(), "Player 1 scores (total 4)")
	})

	t.Run("defaultFormatter hides board events unless verbose", func(t *testing.T) {
		var quiet, verbose bytes.Buffer
		e := &blackboard.Event{Type: blackboard.EventCardPlaced, Slot: 2, Card: 17}

		require.NoError(t, newFormatter(FormatDefault, &quiet, false).FormatEvent(e))
		require.NoError(t, newFormatter(FormatDefault, &verbose, true).FormatEvent(e))

		assert.Empty(t, quiet.String())
		assert.Contains(t, verbose.String(), "card 17")
	})

	t.Run("defaultFormatter rejects unknown events", func(t *testing.T) {
		var buf bytes.Buffer
		err := newFormatter(FormatDefault, &buf, false).FormatEvent(&blackboard.Event{Type: "mystery"})
		assert.Error(t, err)
	})

	t.Run("jsonFormatter writes one object per line", func(t *testing.T) {
		var buf bytes.Buffer
		f := newFormatter(FormatJSONL, &buf, false)

		require.NoError(t, f.FormatEvent(&blackboard.Event{Type: blackboard.EventWinners, Winners: []int{0, 2}}))
		require.NoError(t, f.FormatEvent(&blackboard.Event{Type: blackboard.EventScore, AgentID: 3, Score: 1}))

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)
		assert.Contains(t, string(lines[0]), `"type":"winners"`)
		assert.Contains(t, string(lines[0]), `"winners":[0,2]`)
		assert.Contains(t, string(lines[1]), `"agent_id":3`)
	})
}

// syncBuffer is a bytes.Buffer safe to read while StreamEvents writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStreamEvents(t *testing.T) {
	color.NoColor = true
	client := newTestClient(t)
	ctx := context.Background()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- StreamEvents(ctx, client, Options{Format: FormatDefault, ExitOnWinners: true}, &out)
	}()

	// The subscription is set up inside StreamEvents; keep publishing until
	// the stream has seen the winners and returned.
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Contains(t, out.String(), "Player 1 wins!")
			return
		case <-ticker.C:
			require.NoError(t, client.PublishEvent(ctx, &blackboard.Event{Type: blackboard.EventScore, AgentID: 1, Score: 1}))
			require.NoError(t, client.PublishEvent(ctx, &blackboard.Event{Type: blackboard.EventWinners, Winners: []int{1}}))
		case <-timeout:
			t.Fatal("StreamEvents did not return after the winners event")
		}
	}
}

func TestStreamEvents_StopsOnCancel(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- StreamEvents(ctx, client, Options{Format: FormatJSONL}, &syncBuffer{})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("StreamEvents did not stop")
	}
}

func TestPollForWinners(t *testing.T) {
	ctx := context.Background()

	t.Run("returns winners once written", func(t *testing.T) {
		client := newTestClient(t)
		go func() {
			time.Sleep(300 * time.Millisecond)
			_ = client.PublishEvent(ctx, &blackboard.Event{Type: blackboard.EventWinners, Winners: []int{0, 1}})
		}()

		winners, err := PollForWinners(ctx, client, 2*time.Second)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, winners)
	})

	t.Run("times out when no game finishes", func(t *testing.T) {
		client := newTestClient(t)
		_, err := PollForWinners(ctx, client, 500*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout waiting for winners")
	})
}
