package agent

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/dyluth/setgame/internal/gate"
)

// Offerer accepts slot inputs.
type Offerer interface {
	ID() int
	OfferInput(slot int) bool
}

// Generator is the input source of a computer player: while the gate is open it
// offers a uniformly random slot every interval. Offers the agent refuses are
// simply lost.
type Generator struct {
	target    Offerer
	gate      *gate.Gate
	boardSize int
	interval  time.Duration
}

// NewGenerator creates a generator feeding target.
func NewGenerator(target Offerer, g *gate.Gate, boardSize int, interval time.Duration) *Generator {
	return &Generator{
		target:    target,
		gate:      g,
		boardSize: boardSize,
		interval:  interval,
	}
}

// Run offers inputs until ctx is done.
func (g *Generator) Run(ctx context.Context) {
	if g.boardSize <= 0 || g.interval <= 0 {
		log.Printf("[Agent %d] Generator disabled (board size %d, interval %s)", g.target.ID(), g.boardSize, g.interval)
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		if err := g.gate.Wait(ctx); err != nil {
			return
		}

		g.target.OfferInput(rand.IntN(g.boardSize))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
