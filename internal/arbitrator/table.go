package arbitrator

import (
	"log"
	"slices"
)

// Deck returns a copy of the cards not currently on the board, top first.
func (a *Arbitrator) Deck() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.deck)
}

func (a *Arbitrator) shuffle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rng.Shuffle(len(a.deck), func(i, j int) {
		a.deck[i], a.deck[j] = a.deck[j], a.deck[i]
	})
}

// deal fills empty slots from the top of the deck. A short deck leaves the
// remaining slots empty.
func (a *Arbitrator) deal() {
	for _, slot := range a.board.EmptySlots() {
		a.mu.Lock()
		if len(a.deck) == 0 {
			a.mu.Unlock()
			return
		}
		card := a.deck[0]
		a.deck = a.deck[1:]
		a.mu.Unlock()

		if err := a.board.PlaceCard(card, slot); err != nil {
			log.Printf("[Arbitrator] Failed to place card %d on slot %d: %v", card, slot, err)
			a.mu.Lock()
			a.deck = append(a.deck, card)
			a.mu.Unlock()
		}
	}
}

// removeCards discards the cards on slots along with every token on them.
func (a *Arbitrator) removeCards(slots [3]int) {
	for _, slot := range slots {
		card, cleared, ok := a.board.RemoveCard(slot)
		if !ok {
			continue
		}
		if len(cleared) > 0 {
			log.Printf("[Arbitrator] Removed card %d from slot %d, cleared tokens of players %v", card, slot, cleared)
		}
	}
}

// clearBoard returns every card on the board to the deck and voids the claims
// still waiting, since none of them can be fresh any more.
func (a *Arbitrator) clearBoard() {
	for slot := 0; slot < a.board.Size(); slot++ {
		card, _, ok := a.board.RemoveCard(slot)
		if !ok {
			continue
		}
		a.mu.Lock()
		a.deck = append(a.deck, card)
		a.mu.Unlock()
	}
	a.drainClaims()
}

// setsRemain reports whether any set can still be formed from the board and
// the deck together.
func (a *Arbitrator) setsRemain() bool {
	cards := a.Deck()
	for slot := 0; slot < a.board.Size(); slot++ {
		if card, ok := a.board.CardAt(slot); ok {
			cards = append(cards, card)
		}
	}
	return a.rules.HasSet(cards)
}
