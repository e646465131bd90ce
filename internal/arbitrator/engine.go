// Package arbitrator runs a game: it deals the board, drives the round
// countdown, and resolves the claims agents submit, one at a time and in the
// order they arrive.
package arbitrator

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dyluth/setgame/internal/config"
	"github.com/dyluth/setgame/internal/display"
	"github.com/dyluth/setgame/internal/gate"
	"github.com/dyluth/setgame/pkg/blackboard"
)

// ErrAlreadyRan is returned by RunGame on an Arbitrator that has already run.
var ErrAlreadyRan = errors.New("game already ran")

// Player is anything the arbitrator can start, stop and hand verdicts to.
type Player interface {
	ID() int
	Start(ctx context.Context)
	Terminate()
	ReceiveVerdict(claim *blackboard.Claim, outcome blackboard.Outcome)
}

// Rules decides which triples score and whether a pile of cards still holds one.
type Rules interface {
	IsSet(cards [3]int) bool
	HasSet(cards []int) bool
}

// Stats counts what happened in a game.
type Stats struct {
	Rounds    int `json:"rounds"`
	SetsFound int `json:"sets_found"`
	Penalties int `json:"penalties"`
	Stale     int `json:"stale"`
	Voided    int `json:"voided"` // Claims left unjudged because their round ended
}

// Option configures an Arbitrator.
type Option func(*Arbitrator)

// WithSeed makes the shuffle deterministic.
func WithSeed(seed uint64) Option {
	return func(a *Arbitrator) {
		a.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithInstance names the game in structured log events.
func WithInstance(name string) Option {
	return func(a *Arbitrator) {
		a.instance = name
	}
}

// Arbitrator owns the deck, the countdown, the scores and the claim queue.
// Exactly one goroutine, the one inside RunGame, resolves claims.
type Arbitrator struct {
	cfg      *config.GameConfig
	board    *blackboard.Board
	rules    Rules
	disp     display.Display
	gate     *gate.Gate
	rng      *rand.Rand
	instance string

	players []Player
	index   map[int]int // player id → position in players

	claims   chan *blackboard.Claim
	wake     chan struct{}
	deadline atomic.Int64 // unix nanos at which the current round reshuffles

	mu         sync.Mutex // guards deck, scores, stats and roundStart
	deck       []int
	scores     []int
	stats      Stats
	roundStart time.Time

	ran      atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates an arbitrator for board. The deck holds every card in
// [0, cfg.DeckSize). disp may be nil.
func New(cfg *config.GameConfig, board *blackboard.Board, rules Rules, disp display.Display, opts ...Option) *Arbitrator {
	if disp == nil {
		disp = display.Nop{}
	}

	deck := make([]int, cfg.DeckSize)
	for i := range deck {
		deck[i] = i
	}

	a := &Arbitrator{
		cfg:      cfg,
		board:    board,
		rules:    rules,
		disp:     disp,
		gate:     gate.New(),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		instance: "local",
		index:    make(map[int]int),
		claims:   make(chan *blackboard.Claim, 1),
		wake:     make(chan struct{}, 1),
		deck:     deck,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register adds players to the game. It must be called before RunGame; players
// registered afterwards are ignored.
func (a *Arbitrator) Register(players ...Player) {
	if a.ran.Load() {
		log.Printf("[Arbitrator] Game already running, ignoring %d late players", len(players))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range players {
		if _, dup := a.index[p.ID()]; dup {
			log.Printf("[Arbitrator] Player %d already registered", p.ID())
			continue
		}
		a.index[p.ID()] = len(a.players)
		a.players = append(a.players, p)
		a.scores = append(a.scores, 0)
	}

	// Each player has at most one claim out at a time.
	a.claims = make(chan *blackboard.Claim, max(len(a.players), 1))
}

// Gate returns the permission gate agents wait on.
func (a *Arbitrator) Gate() *gate.Gate {
	return a.gate
}

// RequestTermination asks a running game to stop at its next safe point. It is
// safe to call any number of times, from any goroutine, before or during
// RunGame.
func (a *Arbitrator) RequestTermination() {
	a.stopOnce.Do(func() {
		log.Printf("[Arbitrator] Termination requested")
		close(a.stop)
	})
}

// RunGame plays rounds until the deck holds no set or termination is requested,
// then announces the winners, pauses, and stops every player. It blocks for the
// whole game and returns the winners' ids.
func (a *Arbitrator) RunGame(ctx context.Context) ([]int, error) {
	if !a.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRan
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-a.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Printf("[Arbitrator] Starting game '%s' with %d players", a.instance, len(a.players))

	// Players outlive the game context: they are stopped explicitly, after the
	// winners are announced.
	playerCtx, stopPlayers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopPlayers()
	for _, p := range a.players {
		p.Start(playerCtx)
	}

	reason := "terminated"
	for ctx.Err() == nil {
		if !a.rules.HasSet(a.Deck()) {
			reason = "deck_exhausted"
			break
		}
		a.playRound(ctx)
	}
	a.drainClaims()

	winners := a.Winners()
	a.disp.AnnounceWinners(winners)
	stats := a.Stats()
	a.logEvent("game_over", map[string]interface{}{
		"reason":     reason,
		"winners":    winners,
		"scores":     a.Scores(),
		"rounds":     stats.Rounds,
		"sets_found": stats.SetsFound,
	})

	a.pause(ctx, a.cfg.EndGamePause)
	a.terminatePlayers()

	log.Printf("[Arbitrator] Game '%s' finished", a.instance)
	return winners, nil
}

// playRound deals, opens the gate, runs the countdown and resolves claims
// until the countdown expires, then takes every card back.
func (a *Arbitrator) playRound(ctx context.Context) {
	a.mu.Lock()
	a.roundStart = time.Now()
	a.mu.Unlock()

	a.shuffle()
	a.deal()

	a.mu.Lock()
	a.stats.Rounds++
	round := a.stats.Rounds
	deckLeft := len(a.deck)
	a.mu.Unlock()

	a.resetCountdown()
	a.logEvent("round_started", map[string]interface{}{
		"round":          round,
		"cards_on_board": a.board.CountCards(),
		"deck_remaining": deckLeft,
	})

	a.gate.Open()
	reason := a.timerLoop(ctx)
	a.gate.Close()

	a.clearBoard()
	a.logEvent("round_ended", map[string]interface{}{
		"round":  round,
		"reason": reason,
	})
}

// timerLoop resolves claims until the countdown runs out, no set remains in
// play, or ctx is done. It returns why it stopped.
func (a *Arbitrator) timerLoop(ctx context.Context) string {
	for time.Now().Before(a.Deadline()) {
		if ctx.Err() != nil {
			return "terminated"
		}

		a.sleepUntilWokenOrTimeout(ctx)
		a.updateCountdown()

		if outcome, ok := a.resolveNext(); ok && outcome == blackboard.OutcomeReward {
			a.resetCountdown()
			if !a.setsRemain() {
				return "exhausted"
			}
		}
	}
	return "timeout"
}

// terminatePlayers stops players in reverse id order. Each Terminate blocks
// until that player has fully exited.
func (a *Arbitrator) terminatePlayers() {
	players := slices.Clone(a.players)
	slices.SortFunc(players, func(x, y Player) int { return y.ID() - x.ID() })
	for _, p := range players {
		p.Terminate()
		log.Printf("[Arbitrator] Player %d terminated", p.ID())
	}
}

func (a *Arbitrator) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// logEvent writes a structured JSON log line.
func (a *Arbitrator) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "arbitrator"
	data["event_type"] = eventType
	data["instance"] = a.instance

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Arbitrator] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
