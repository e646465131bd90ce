// Package agent implements a player of the game. An Agent owns a bounded queue
// of slot inputs, toggles its tokens on the shared board through the
// arbitrator, publishes a claim when it holds three tokens, and sits out a
// freeze after each verdict that calls for one.
package agent

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyluth/setgame/internal/config"
	"github.com/dyluth/setgame/internal/display"
	"github.com/dyluth/setgame/internal/gate"
	"github.com/dyluth/setgame/pkg/blackboard"
)

// freezeStep is how often a running freeze refreshes the display.
const freezeStep = time.Second

// Arbiter is the part of the arbitrator an agent talks to.
type Arbiter interface {
	SubmitClaim(claim *blackboard.Claim)
	MarkToken(agentID, slot int) bool
	UnmarkToken(agentID, slot int) bool
}

// InputSource produces slot inputs for an agent until ctx is done.
type InputSource interface {
	Run(ctx context.Context)
}

// Option configures an Agent.
type Option func(*Agent)

// WithGenerator gives the agent an autonomous input source that offers a random
// slot every interval while the gate is open.
func WithGenerator(interval time.Duration) Option {
	return func(a *Agent) {
		withInputSource(NewGenerator(a, a.gate, a.board.Size(), interval))(a)
	}
}

// withInputSource attaches src as the agent's input source. The agent starts it
// and waits for it to exit on Terminate.
func withInputSource(src InputSource) Option {
	return func(a *Agent) {
		a.source = src
	}
}

// Agent is one player. Create with New, then Start; Terminate stops it.
type Agent struct {
	id    int
	arb   Arbiter
	board *blackboard.Board
	gate  *gate.Gate
	cfg   *config.GameConfig
	disp  display.Display

	inputs  chan int
	pending atomic.Bool // a claim is out, or its freeze is still running
	source  InputSource

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}
}

// New creates an agent. disp may be nil.
func New(id int, arb Arbiter, board *blackboard.Board, g *gate.Gate, cfg *config.GameConfig, disp display.Display, opts ...Option) *Agent {
	if disp == nil {
		disp = display.Nop{}
	}
	a := &Agent{
		id:     id,
		arb:    arb,
		board:  board,
		gate:   g,
		cfg:    cfg,
		disp:   disp,
		inputs: make(chan int, blackboard.MaxTokens),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the agent's identifier.
func (a *Agent) ID() int {
	return a.id
}

// Pending reports whether the agent is waiting on a verdict or frozen.
func (a *Agent) Pending() bool {
	return a.pending.Load()
}

// Done is closed once the agent's loop and its input source have exited.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

// OfferInput queues slot for the agent. It never blocks: the input is dropped
// and false returned when the gate is closed, a claim is pending, or three
// inputs are already queued.
func (a *Agent) OfferInput(slot int) bool {
	if !a.gate.IsOpen() || a.pending.Load() {
		return false
	}
	select {
	case a.inputs <- slot:
		return true
	default:
		return false
	}
}

// ReceiveVerdict hands the arbitrator's decision on claim back to the agent.
func (a *Agent) ReceiveVerdict(claim *blackboard.Claim, outcome blackboard.Outcome) {
	if claim.AgentID != a.id {
		log.Printf("[Agent %d] Ignoring verdict for claim %s owned by agent %d", a.id, claim.ID, claim.AgentID)
		return
	}
	if !claim.Resolve(outcome) {
		log.Printf("[Agent %d] Duplicate verdict for claim %s dropped", a.id, claim.ID)
	}
}

// Start launches the agent loop and its input source. Calling Start more than
// once has no effect.
func (a *Agent) Start(ctx context.Context) {
	if !a.started.CompareAndSwap(false, true) {
		return
	}
	ctx, a.cancel = context.WithCancel(ctx)

	if a.source != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.source.Run(ctx)
		}()
	}

	go func() {
		defer close(a.done)
		a.run(ctx)
		a.wg.Wait()
		log.Printf("[Agent %d] Stopped", a.id)
	}()
}

// Terminate stops the agent and blocks until its loop and input source have
// exited. It is safe to call more than once, and on an agent never started.
func (a *Agent) Terminate() {
	if !a.started.Load() {
		return
	}
	a.cancel()
	<-a.done
}

func (a *Agent) run(ctx context.Context) {
	log.Printf("[Agent %d] Starting", a.id)

	for {
		if err := a.gate.Wait(ctx); err != nil {
			return
		}

		var slot int
		select {
		case <-ctx.Done():
			return
		case slot = <-a.inputs:
		}

		// The round may have ended between queueing and now.
		if !a.gate.IsOpen() {
			continue
		}

		claim := a.toggle(slot)
		if claim == nil {
			continue
		}

		outcome, ok := a.await(ctx, claim)
		if !ok {
			return
		}
		if !a.settle(ctx, outcome) {
			return
		}
	}
}

// toggle flips the agent's token on slot. It returns the claim it published when
// the flip brought the agent to three tokens.
func (a *Agent) toggle(slot int) *blackboard.Claim {
	if _, ok := a.board.CardAt(slot); !ok {
		return nil
	}

	if a.board.HasToken(a.id, slot) {
		a.arb.UnmarkToken(a.id, slot)
		return nil
	}

	if a.board.TokenCount(a.id) >= blackboard.MaxTokens {
		return nil
	}
	if !a.arb.MarkToken(a.id, slot) {
		return nil
	}

	slots, cards := a.board.MarkedCards(a.id)
	if len(slots) != blackboard.MaxTokens {
		return nil
	}

	var s, c [blackboard.MaxTokens]int
	copy(s[:], slots)
	copy(c[:], cards)
	claim := blackboard.NewClaim(a.id, s, c)

	a.pending.Store(true)
	log.Printf("[Agent %d] Claiming slots %v (cards %v) as %s", a.id, s, c, claim.ID)
	a.arb.SubmitClaim(claim)
	return claim
}

func (a *Agent) await(ctx context.Context, claim *blackboard.Claim) (blackboard.Outcome, bool) {
	select {
	case <-ctx.Done():
		return blackboard.OutcomeNone, false
	case outcome := <-claim.Verdict():
		log.Printf("[Agent %d] Claim %s: %s", a.id, claim.ID, outcome)
		return outcome, true
	}
}

// settle runs the freeze a verdict calls for and clears the pending claim. It
// returns false if the agent was terminated meanwhile.
func (a *Agent) settle(ctx context.Context, outcome blackboard.Outcome) bool {
	var d time.Duration
	switch outcome {
	case blackboard.OutcomeReward:
		d = a.cfg.PointFreeze
	case blackboard.OutcomePenalty:
		d = a.cfg.PenaltyFreeze
	}

	if d > 0 {
		for remaining := range FreezeTicks(ctx, d, freezeStep) {
			a.disp.SetFreeze(a.id, remaining)
		}
		a.disp.SetFreeze(a.id, 0)
	}

	a.pending.Store(false)
	return ctx.Err() == nil
}
