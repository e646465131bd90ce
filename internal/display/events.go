package display

import (
	"time"

	"github.com/dyluth/setgame/pkg/blackboard"
)

// EventFunc adapts a function that consumes feed events into a Display.
// Each Display call becomes one blackboard.Event stamped with the current time.
type EventFunc func(blackboard.Event)

func (f EventFunc) emit(e blackboard.Event) {
	e.AtMs = time.Now().UnixMilli()
	f(e)
}

func (f EventFunc) CardPlaced(slot, card int) {
	f.emit(blackboard.Event{Type: blackboard.EventCardPlaced, Slot: slot, Card: card})
}

func (f EventFunc) CardRemoved(slot int) {
	f.emit(blackboard.Event{Type: blackboard.EventCardRemoved, Slot: slot})
}

func (f EventFunc) TokenPlaced(agentID, slot int) {
	f.emit(blackboard.Event{Type: blackboard.EventTokenPlaced, AgentID: agentID, Slot: slot})
}

func (f EventFunc) TokenRemoved(agentID, slot int) {
	f.emit(blackboard.Event{Type: blackboard.EventTokenRemoved, AgentID: agentID, Slot: slot})
}

func (f EventFunc) SetCountdown(remaining time.Duration, warn bool) {
	f.emit(blackboard.Event{Type: blackboard.EventCountdown, RemainingMs: remaining.Milliseconds(), Warn: warn})
}

func (f EventFunc) SetScore(agentID, score int) {
	f.emit(blackboard.Event{Type: blackboard.EventScore, AgentID: agentID, Score: score})
}

func (f EventFunc) SetFreeze(agentID int, remaining time.Duration) {
	f.emit(blackboard.Event{Type: blackboard.EventFreeze, AgentID: agentID, RemainingMs: remaining.Milliseconds()})
}

func (f EventFunc) AnnounceWinners(winners []int) {
	f.emit(blackboard.Event{Type: blackboard.EventWinners, Winners: append([]int(nil), winners...)})
}

// Replay delivers a feed event to d, undoing what EventFunc did. Events of an
// unknown type are ignored and reported as false.
func Replay(d Display, e *blackboard.Event) bool {
	switch e.Type {
	case blackboard.EventCardPlaced:
		d.CardPlaced(e.Slot, e.Card)
	case blackboard.EventCardRemoved:
		d.CardRemoved(e.Slot)
	case blackboard.EventTokenPlaced:
		d.TokenPlaced(e.AgentID, e.Slot)
	case blackboard.EventTokenRemoved:
		d.TokenRemoved(e.AgentID, e.Slot)
	case blackboard.EventCountdown:
		d.SetCountdown(e.Remaining(), e.Warn)
	case blackboard.EventScore:
		d.SetScore(e.AgentID, e.Score)
	case blackboard.EventFreeze:
		d.SetFreeze(e.AgentID, e.Remaining())
	case blackboard.EventWinners:
		d.AnnounceWinners(e.Winners)
	default:
		return false
	}
	return true
}
