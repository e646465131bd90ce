package blackboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxTokens is the number of tokens an agent may hold at once, and the size of a set.
const MaxTokens = 3

// Outcome is the arbitrator's resolution of a claim.
type Outcome int

const (
	// OutcomeNone is the neutral verdict given to stale claims.
	OutcomeNone Outcome = iota

	// OutcomeReward means the claim was fresh and formed a valid set.
	OutcomeReward

	// OutcomePenalty means the claim was fresh but did not form a set.
	OutcomePenalty
)

// String returns the lower-case outcome name used in logs and feed events.
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeReward:
		return "reward"
	case OutcomePenalty:
		return "penalty"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Claim is an agent's proposed set. It is immutable once published; only its
// verdict channel changes state, and only once.
type Claim struct {
	ID          string         `json:"id"`           // UUID - unique identifier for this claim
	AgentID     int            `json:"agent_id"`     // Claimant
	Slots       [MaxTokens]int `json:"slots"`        // Slots the tokens were on, in placement order
	Cards       [MaxTokens]int `json:"cards"`        // Cards seen at those slots when the claim was captured
	SubmittedAt time.Time      `json:"submitted_at"` // Capture time

	verdict chan Outcome
	once    sync.Once
}

// NewClaim captures a claim for agentID. slots and cards must line up index by index.
func NewClaim(agentID int, slots, cards [MaxTokens]int) *Claim {
	return &Claim{
		ID:          uuid.New().String(),
		AgentID:     agentID,
		Slots:       slots,
		Cards:       cards,
		SubmittedAt: time.Now(),
		verdict:     make(chan Outcome, 1),
	}
}

// Resolve delivers the verdict. Only the first call has any effect, so a claim
// can never be adjudicated twice.
func (c *Claim) Resolve(o Outcome) bool {
	delivered := false
	c.once.Do(func() {
		c.verdict <- o
		delivered = true
	})
	return delivered
}

// Verdict returns the channel the claimant waits on. It yields exactly one value.
func (c *Claim) Verdict() <-chan Outcome {
	return c.verdict
}

// Validate checks that the claim is well formed.
func (c *Claim) Validate() error {
	if _, err := uuid.Parse(c.ID); err != nil {
		return fmt.Errorf("invalid claim ID: not a valid UUID")
	}

	if c.AgentID < 0 {
		return fmt.Errorf("invalid agent ID: must be >= 0, got %d", c.AgentID)
	}

	seen := make(map[int]bool, MaxTokens)
	for i, slot := range c.Slots {
		if slot < 0 {
			return fmt.Errorf("invalid slot at index %d: %d", i, slot)
		}
		if seen[slot] {
			return fmt.Errorf("duplicate slot %d in claim", slot)
		}
		seen[slot] = true
	}

	if c.verdict == nil {
		return fmt.Errorf("claim has no verdict channel (use NewClaim)")
	}

	return nil
}

// EventType identifies what a feed Event describes.
type EventType string

const (
	EventCardPlaced   EventType = "card_placed"
	EventCardRemoved  EventType = "card_removed"
	EventTokenPlaced  EventType = "token_placed"
	EventTokenRemoved EventType = "token_removed"
	EventCountdown    EventType = "countdown"
	EventScore        EventType = "score"
	EventFreeze       EventType = "freeze"
	EventWinners      EventType = "winners"
)

// Validate checks if the EventType is a known value.
func (et EventType) Validate() error {
	switch et {
	case EventCardPlaced, EventCardRemoved, EventTokenPlaced, EventTokenRemoved,
		EventCountdown, EventScore, EventFreeze, EventWinners:
		return nil
	default:
		return fmt.Errorf("unknown event type: %q", et)
	}
}

// Event is one display update, as published on the spectator feed.
// Fields that do not apply to a given type are left at their zero value.
type Event struct {
	Type        EventType `json:"type"`
	Slot        int       `json:"slot"`
	Card        int       `json:"card"`
	AgentID     int       `json:"agent_id"`
	Score       int       `json:"score"`
	RemainingMs int64     `json:"remaining_ms,omitempty"`
	Warn        bool      `json:"warn,omitempty"`
	Winners     []int     `json:"winners,omitempty"`
	AtMs        int64     `json:"at_ms"` // Unix milliseconds when the event was produced
}

// Remaining returns RemainingMs as a duration.
func (e *Event) Remaining() time.Duration {
	return time.Duration(e.RemainingMs) * time.Millisecond
}

// Snapshot is a point-in-time copy of the board, slot by slot.
type Snapshot struct {
	Cards  []int   `json:"cards"`  // Card per slot, NoCard when empty
	Tokens [][]int `json:"tokens"` // Agent ids per slot, in placement order
}

// NoCard marks an empty slot in a Snapshot.
const NoCard = -1
