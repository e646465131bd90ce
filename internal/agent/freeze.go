package agent

import (
	"context"
	"iter"
	"time"
)

// FreezeTicks returns a sequence of the time left in a freeze of length d. The
// first value is d itself; after each value the sequence sleeps for step (or
// whatever is left, if less) before yielding again. It ends when the freeze has
// run out or ctx is done, whichever comes first.
func FreezeTicks(ctx context.Context, d, step time.Duration) iter.Seq[time.Duration] {
	return func(yield func(time.Duration) bool) {
		if d <= 0 || step <= 0 {
			return
		}
		deadline := time.Now().Add(d)

		for remaining := d; remaining > 0; remaining = time.Until(deadline) {
			if ctx.Err() != nil || !yield(remaining) {
				return
			}

			timer := time.NewTimer(min(step, remaining))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
}
