package arbitrator

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/dyluth/setgame/internal/agent"
	"github.com/dyluth/setgame/internal/cards"
	"github.com/dyluth/setgame/internal/display"
	"github.com/dyluth/setgame/pkg/blackboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGame_ComputerPlayers runs a real game between generator-driven agents and
// checks the bookkeeping holds together at the end.
func TestGame_ComputerPlayers(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 300 * time.Millisecond
	cfg.TurnTimeoutWarning = 50 * time.Millisecond
	cfg.PointFreeze = 5 * time.Millisecond
	cfg.PenaltyFreeze = 10 * time.Millisecond

	rec := display.NewRecorder()
	board := blackboard.NewBoard(cfg.BoardSize, cfg.DeckSize, rec)

	arb := New(cfg, board, cards.Standard(), rec, WithSeed(42))
	agents := make([]*agent.Agent, 3)
	for i := range agents {
		agents[i] = agent.New(i, arb, board, arb.Gate(), cfg, rec, agent.WithGenerator(time.Millisecond))
		arb.Register(agents[i])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan []int, 1)
	go func() {
		winners, err := arb.RunGame(ctx)
		assert.NoError(t, err)
		done <- winners
	}()

	// Sample the per-agent token cap while the game runs.
	stopAt := time.Now().Add(time.Second)
	for time.Now().Before(stopAt) {
		for _, a := range agents {
			assert.LessOrEqual(t, board.TokenCount(a.ID()), blackboard.MaxTokens)
		}
		time.Sleep(5 * time.Millisecond)
	}
	arb.RequestTermination()

	var winners []int
	select {
	case winners = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("game did not stop")
	}

	for _, a := range agents {
		select {
		case <-a.Done():
		default:
			t.Fatalf("agent %d still running after the game", a.ID())
		}
	}

	scores := arb.Scores()
	total := 0
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0)
		total += s
	}
	assert.Equal(t, arb.Stats().SetsFound, total)
	require.NotEmpty(t, winners)
	for _, w := range winners {
		assert.Equal(t, slices.Max(scores), scores[w])
	}
	assert.Equal(t, winners, rec.Winners())
	assert.Equal(t, 0, board.CountCards())
}
