package arbitrator

import (
	"context"
	"time"
)

// warnTick is the countdown refresh period once the warning threshold is crossed.
const warnTick = 10 * time.Millisecond

// Deadline returns when the current round's countdown runs out.
func (a *Arbitrator) Deadline() time.Time {
	return time.Unix(0, a.deadline.Load())
}

// resetCountdown restarts the countdown at the full turn timeout.
func (a *Arbitrator) resetCountdown() {
	a.deadline.Store(time.Now().Add(a.cfg.TurnTimeout).UnixNano())
	a.disp.SetCountdown(a.cfg.TurnTimeout, a.cfg.TurnTimeout < a.cfg.TurnTimeoutWarning)
}

// updateCountdown pushes the time left to the display.
func (a *Arbitrator) updateCountdown() {
	remaining := max(time.Until(a.Deadline()), 0)
	a.disp.SetCountdown(remaining, remaining < a.cfg.TurnTimeoutWarning)
}

// sleepUntilWokenOrTimeout waits for a claim, the next countdown tick, or ctx,
// whichever comes first. It never sleeps past the deadline.
func (a *Arbitrator) sleepUntilWokenOrTimeout(ctx context.Context) {
	if len(a.claims) > 0 {
		return
	}

	remaining := time.Until(a.Deadline())
	if remaining <= 0 {
		return
	}

	step := a.cfg.TickInterval
	if remaining < a.cfg.TurnTimeoutWarning || step <= 0 {
		step = warnTick
	}

	timer := time.NewTimer(min(step, remaining))
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-a.wake:
	case <-timer.C:
	}
}
