package blackboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "none", OutcomeNone.String())
	assert.Equal(t, "reward", OutcomeReward.String())
	assert.Equal(t, "penalty", OutcomePenalty.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}

func TestNewClaim(t *testing.T) {
	claim := NewClaim(2, [3]int{0, 1, 2}, [3]int{10, 11, 12})

	require.NoError(t, claim.Validate())
	assert.Equal(t, 2, claim.AgentID)
	assert.Equal(t, [3]int{0, 1, 2}, claim.Slots)
	assert.Equal(t, [3]int{10, 11, 12}, claim.Cards)
	assert.WithinDuration(t, time.Now(), claim.SubmittedAt, time.Second)
}

func TestClaimResolve(t *testing.T) {
	t.Run("delivers exactly one verdict", func(t *testing.T) {
		claim := NewClaim(0, [3]int{0, 1, 2}, [3]int{0, 1, 2})

		assert.True(t, claim.Resolve(OutcomePenalty))
		assert.False(t, claim.Resolve(OutcomeReward))

		select {
		case got := <-claim.Verdict():
			assert.Equal(t, OutcomePenalty, got)
		case <-time.After(time.Second):
			t.Fatal("verdict not delivered")
		}

		select {
		case got := <-claim.Verdict():
			t.Fatalf("unexpected second verdict %v", got)
		default:
		}
	})

	t.Run("never blocks the resolver", func(t *testing.T) {
		claim := NewClaim(0, [3]int{0, 1, 2}, [3]int{0, 1, 2})
		done := make(chan struct{})
		go func() {
			claim.Resolve(OutcomeReward)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Resolve blocked with no reader")
		}
	})
}

func TestClaimValidate(t *testing.T) {
	tests := []struct {
		name    string
		claim   *Claim
		wantErr string
	}{
		{
			name:    "bad id",
			claim:   &Claim{ID: "nope", verdict: make(chan Outcome, 1)},
			wantErr: "invalid claim ID",
		},
		{
			name: "negative agent",
			claim: func() *Claim {
				c := NewClaim(0, [3]int{0, 1, 2}, [3]int{})
				c.AgentID = -1
				return c
			}(),
			wantErr: "invalid agent ID",
		},
		{
			name:    "duplicate slot",
			claim:   NewClaim(0, [3]int{4, 4, 2}, [3]int{}),
			wantErr: "duplicate slot",
		},
		{
			name:    "negative slot",
			claim:   NewClaim(0, [3]int{0, -1, 2}, [3]int{}),
			wantErr: "invalid slot",
		},
		{
			name: "no verdict channel",
			claim: func() *Claim {
				c := NewClaim(0, [3]int{0, 1, 2}, [3]int{})
				return &Claim{ID: c.ID, Slots: c.Slots}
			}(),
			wantErr: "no verdict channel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.claim.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEventTypeValidate(t *testing.T) {
	for _, et := range []EventType{
		EventCardPlaced, EventCardRemoved, EventTokenPlaced, EventTokenRemoved,
		EventCountdown, EventScore, EventFreeze, EventWinners,
	} {
		assert.NoError(t, et.Validate(), string(et))
	}
	assert.Error(t, EventType("nope").Validate())
}

func TestEventRemaining(t *testing.T) {
	e := Event{Type: EventCountdown, RemainingMs: 1500}
	assert.Equal(t, 1500*time.Millisecond, e.Remaining())
}
