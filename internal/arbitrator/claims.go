package arbitrator

import (
	"log"
	"time"

	"github.com/dyluth/setgame/pkg/blackboard"
)

// SubmitClaim queues claim for resolution and wakes the game loop. It never
// blocks; a claim that finds the queue full is answered with a neutral verdict.
func (a *Arbitrator) SubmitClaim(claim *blackboard.Claim) {
	select {
	case a.claims <- claim:
	default:
		log.Printf("[Arbitrator] Claim queue full, voiding claim %s from player %d", claim.ID, claim.AgentID)
		claim.Resolve(blackboard.OutcomeNone)
		return
	}

	a.logEvent("claim_submitted", map[string]interface{}{
		"claim_id": claim.ID,
		"agent_id": claim.AgentID,
		"slots":    claim.Slots,
		"cards":    claim.Cards,
	})

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// MarkToken places agentID's token on slot.
func (a *Arbitrator) MarkToken(agentID, slot int) bool {
	return a.board.PlaceToken(agentID, slot)
}

// UnmarkToken lifts agentID's token from slot.
func (a *Arbitrator) UnmarkToken(agentID, slot int) bool {
	return a.board.RemoveToken(agentID, slot)
}

// resolveNext takes at most one claim off the queue, judges it and hands the
// verdict back. ok is false when the queue was empty.
func (a *Arbitrator) resolveNext() (outcome blackboard.Outcome, ok bool) {
	var claim *blackboard.Claim
	select {
	case claim = <-a.claims:
	default:
		return blackboard.OutcomeNone, false
	}

	player, known := a.player(claim.AgentID)
	if !known {
		log.Printf("[Arbitrator] Claim %s from unknown player %d voided", claim.ID, claim.AgentID)
		claim.Resolve(blackboard.OutcomeNone)
		return blackboard.OutcomeNone, true
	}

	// Captured before this round's deal: the board it saw is gone.
	if claim.SubmittedAt.Before(a.currentRoundStart()) {
		a.voidClaim(claim, "previous_round")
		return blackboard.OutcomeNone, true
	}

	outcome = a.judge(claim)
	player.ReceiveVerdict(claim, outcome)
	return outcome, true
}

func (a *Arbitrator) currentRoundStart() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.roundStart
}

// judge decides a claim: stale claims are neutral, fresh non-sets are
// penalised, fresh sets score and are replaced on the board.
func (a *Arbitrator) judge(claim *blackboard.Claim) blackboard.Outcome {
	if err := claim.Validate(); err != nil {
		log.Printf("[Arbitrator] Malformed claim %s: %v", claim.ID, err)
		a.countStale()
		return blackboard.OutcomeNone
	}

	if !a.isFresh(claim) {
		a.countStale()
		a.logEvent("claim_stale", map[string]interface{}{
			"claim_id": claim.ID,
			"agent_id": claim.AgentID,
			"slots":    claim.Slots,
		})
		return blackboard.OutcomeNone
	}

	if !a.rules.IsSet(claim.Cards) {
		a.mu.Lock()
		a.stats.Penalties++
		a.mu.Unlock()
		a.logEvent("claim_penalised", map[string]interface{}{
			"claim_id": claim.ID,
			"agent_id": claim.AgentID,
			"cards":    claim.Cards,
		})
		return blackboard.OutcomePenalty
	}

	score := a.award(claim.AgentID)
	a.disp.SetScore(claim.AgentID, score)

	// Hold agents back while the three cards are swapped out.
	a.gate.Close()
	a.removeCards(claim.Slots)
	a.deal()
	a.gate.Open()

	a.logEvent("claim_rewarded", map[string]interface{}{
		"claim_id": claim.ID,
		"agent_id": claim.AgentID,
		"cards":    claim.Cards,
		"score":    score,
	})
	return blackboard.OutcomeReward
}

// isFresh reports whether every claimed card still sits where the claim saw it.
func (a *Arbitrator) isFresh(claim *blackboard.Claim) bool {
	for i, card := range claim.Cards {
		slot, ok := a.board.SlotOf(card)
		if !ok || slot != claim.Slots[i] {
			return false
		}
	}
	return true
}

// drainClaims answers every queued claim with a neutral verdict.
func (a *Arbitrator) drainClaims() {
	for {
		select {
		case claim := <-a.claims:
			a.voidClaim(claim, "round_ended")
		default:
			return
		}
	}
}

// voidClaim answers claim with a neutral verdict without judging it.
func (a *Arbitrator) voidClaim(claim *blackboard.Claim, reason string) {
	a.mu.Lock()
	a.stats.Voided++
	a.mu.Unlock()
	a.logEvent("claim_voided", map[string]interface{}{
		"claim_id": claim.ID,
		"agent_id": claim.AgentID,
		"reason":   reason,
	})
	if p, ok := a.player(claim.AgentID); ok {
		p.ReceiveVerdict(claim, blackboard.OutcomeNone)
	} else {
		claim.Resolve(blackboard.OutcomeNone)
	}
}

func (a *Arbitrator) player(id int) (Player, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.index[id]
	if !ok {
		return nil, false
	}
	return a.players[i], true
}

func (a *Arbitrator) countStale() {
	a.mu.Lock()
	a.stats.Stale++
	a.mu.Unlock()
}
