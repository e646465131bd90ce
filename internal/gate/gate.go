// Package gate provides the permission gate the arbitrator uses to let agents
// act or hold them back.
package gate

import (
	"context"
	"sync"
	"sync/atomic"
)

// Gate is a broadcast may-act flag with a paired wake signal. One writer opens
// and closes it; any number of readers check it or wait for it to open.
// A new Gate is closed.
type Gate struct {
	open atomic.Bool

	mu     sync.Mutex
	opened chan struct{} // closed while the gate is open
}

// New returns a closed gate.
func New() *Gate {
	return &Gate{opened: make(chan struct{})}
}

// Open lets agents act and wakes every waiter. Opening an open gate is a no-op.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open.Load() {
		return
	}
	g.open.Store(true)
	close(g.opened)
}

// Close forbids agents from acting. Closing a closed gate is a no-op.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open.Load() {
		return
	}
	g.open.Store(false)
	g.opened = make(chan struct{})
}

// IsOpen reports whether agents may act right now.
func (g *Gate) IsOpen() bool {
	return g.open.Load()
}

// Wait blocks until the gate is open or ctx is done. It returns ctx.Err() when
// interrupted. A caller that passes Wait may still observe the gate closing
// again immediately after; re-check IsOpen before acting on shared state.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.opened
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
