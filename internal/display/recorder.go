package display

import (
	"sync"
	"time"

	"github.com/dyluth/setgame/pkg/blackboard"
)

// Recorder keeps every event in memory. It backs the game summary printed at
// the end of `setgame play` and is what tests assert against.
type Recorder struct {
	EventFunc

	mu     sync.Mutex
	events []blackboard.Event
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.EventFunc = func(e blackboard.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	}
	return r
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []blackboard.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]blackboard.Event(nil), r.events...)
}

// Filter returns the recorded events of type et, oldest first.
func (r *Recorder) Filter(et blackboard.EventType) []blackboard.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []blackboard.Event
	for _, e := range r.events {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of type et were recorded.
func (r *Recorder) Count(et blackboard.EventType) int {
	return len(r.Filter(et))
}

// Winners returns the last announced winner list, or nil.
func (r *Recorder) Winners() []int {
	wins := r.Filter(blackboard.EventWinners)
	if len(wins) == 0 {
		return nil
	}
	return wins[len(wins)-1].Winners
}

// Freezes returns the freeze durations reported for agentID, in order.
func (r *Recorder) Freezes(agentID int) []time.Duration {
	var out []time.Duration
	for _, e := range r.Filter(blackboard.EventFreeze) {
		if e.AgentID == agentID {
			out = append(out, e.Remaining())
		}
	}
	return out
}
