// Package display holds the one-way sinks the game core reports to: countdown,
// scores, freezes, winners, and board mutations. Nothing in the core ever reads
// a display back.
package display

import (
	"time"

	"github.com/dyluth/setgame/pkg/blackboard"
)

// Display receives every user-visible change in a game. Implementations must be
// safe for concurrent use and must not block: board callbacks run while a slot
// is locked.
type Display interface {
	blackboard.Observer

	SetCountdown(remaining time.Duration, warn bool)
	SetScore(agentID, score int)
	SetFreeze(agentID int, remaining time.Duration)
	AnnounceWinners(winners []int)
}

// Nop discards everything.
type Nop struct{}

func (Nop) CardPlaced(slot, card int)                       {}
func (Nop) CardRemoved(slot int)                            {}
func (Nop) TokenPlaced(agentID, slot int)                   {}
func (Nop) TokenRemoved(agentID, slot int)                  {}
func (Nop) SetCountdown(remaining time.Duration, warn bool) {}
func (Nop) SetScore(agentID, score int)                     {}
func (Nop) SetFreeze(agentID int, remaining time.Duration)  {}
func (Nop) AnnounceWinners(winners []int)                   {}

// multi fans every call out to several displays in order.
type multi []Display

// Multi returns a Display that forwards to each of ds. Nil entries are skipped.
func Multi(ds ...Display) Display {
	var m multi
	for _, d := range ds {
		if d != nil {
			m = append(m, d)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multi) CardPlaced(slot, card int) {
	for _, d := range m {
		d.CardPlaced(slot, card)
	}
}

func (m multi) CardRemoved(slot int) {
	for _, d := range m {
		d.CardRemoved(slot)
	}
}

func (m multi) TokenPlaced(agentID, slot int) {
	for _, d := range m {
		d.TokenPlaced(agentID, slot)
	}
}

func (m multi) TokenRemoved(agentID, slot int) {
	for _, d := range m {
		d.TokenRemoved(agentID, slot)
	}
}

func (m multi) SetCountdown(remaining time.Duration, warn bool) {
	for _, d := range m {
		d.SetCountdown(remaining, warn)
	}
}

func (m multi) SetScore(agentID, score int) {
	for _, d := range m {
		d.SetScore(agentID, score)
	}
}

func (m multi) SetFreeze(agentID int, remaining time.Duration) {
	for _, d := range m {
		d.SetFreeze(agentID, remaining)
	}
}

func (m multi) AnnounceWinners(winners []int) {
	for _, d := range m {
		d.AnnounceWinners(winners)
	}
}
