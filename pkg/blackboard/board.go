package blackboard

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Sentinel errors returned by Board operations. Use errors.Is to check them.
var (
	ErrSlotOutOfRange = errors.New("slot out of range")
	ErrCardOutOfRange = errors.New("card out of range")
	ErrSlotOccupied   = errors.New("slot already holds a card")
	ErrCardOnBoard    = errors.New("card already on the board")
)

// Observer receives board mutations. Callbacks run while the mutated slot is
// locked, so per-slot event order is preserved; implementations must not block
// and must not call back into the Board.
type Observer interface {
	CardPlaced(slot, card int)
	CardRemoved(slot int)
	TokenPlaced(agentID, slot int)
	TokenRemoved(agentID, slot int)
}

// tokenMark is one ledger entry. seq orders marks across slots.
type tokenMark struct {
	agentID int
	seq     uint64
}

type slotState struct {
	mu     sync.Mutex
	card   int
	tokens []tokenMark
}

// Board is the shared table: slot → card, card → slot, and the per-slot token
// ledger. It is safe for concurrent use. Every operation on a single slot is
// atomic with respect to every other operation on that slot.
type Board struct {
	slots    []*slotState
	cardSlot []atomic.Int32 // card → slot, -1 when the card is not on the board
	seq      atomic.Uint64

	countMu  sync.Mutex // guards perAgent; always taken after a slot lock
	perAgent map[int]int

	obs Observer
}

// NewBoard creates an empty board with size slots for cards in [0, deckSize).
// obs may be nil.
func NewBoard(size, deckSize int, obs Observer) *Board {
	b := &Board{
		slots:    make([]*slotState, size),
		cardSlot: make([]atomic.Int32, deckSize),
		perAgent: make(map[int]int),
		obs:      obs,
	}
	for i := range b.slots {
		b.slots[i] = &slotState{card: NoCard}
	}
	for i := range b.cardSlot {
		b.cardSlot[i].Store(-1)
	}
	return b
}

// Size returns the number of slots.
func (b *Board) Size() int {
	return len(b.slots)
}

// DeckSize returns the number of distinct cards the board accepts.
func (b *Board) DeckSize() int {
	return len(b.cardSlot)
}

func (b *Board) slot(slot int) (*slotState, error) {
	if slot < 0 || slot >= len(b.slots) {
		return nil, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	return b.slots[slot], nil
}

// PlaceCard puts card on an empty slot.
func (b *Board) PlaceCard(card, slot int) error {
	s, err := b.slot(slot)
	if err != nil {
		return err
	}
	if card < 0 || card >= len(b.cardSlot) {
		return fmt.Errorf("%w: %d", ErrCardOutOfRange, card)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.card != NoCard {
		return fmt.Errorf("%w: slot %d has card %d", ErrSlotOccupied, slot, s.card)
	}
	if !b.cardSlot[card].CompareAndSwap(-1, int32(slot)) {
		return fmt.Errorf("%w: card %d", ErrCardOnBoard, card)
	}

	s.card = card
	if b.obs != nil {
		b.obs.CardPlaced(slot, card)
	}
	return nil
}

// RemoveCard takes the card off slot and clears every token on it in the same
// critical section. It returns the removed card and the agents whose tokens were
// cleared, or ok=false if the slot was already empty.
func (b *Board) RemoveCard(slot int) (card int, cleared []int, ok bool) {
	s, err := b.slot(slot)
	if err != nil {
		return NoCard, nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.card == NoCard {
		return NoCard, nil, false
	}

	cleared = make([]int, 0, len(s.tokens))
	for _, mark := range s.tokens {
		b.releaseToken(mark.agentID)
		cleared = append(cleared, mark.agentID)
		if b.obs != nil {
			b.obs.TokenRemoved(mark.agentID, slot)
		}
	}
	s.tokens = nil

	card = s.card
	s.card = NoCard
	b.cardSlot[card].Store(-1)
	if b.obs != nil {
		b.obs.CardRemoved(slot)
	}
	return card, cleared, true
}

// CardAt returns the card on slot, if any.
func (b *Board) CardAt(slot int) (int, bool) {
	s, err := b.slot(slot)
	if err != nil {
		return NoCard, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card, s.card != NoCard
}

// SlotOf returns the slot holding card, if it is on the board.
func (b *Board) SlotOf(card int) (int, bool) {
	if card < 0 || card >= len(b.cardSlot) {
		return -1, false
	}
	slot := int(b.cardSlot[card].Load())
	return slot, slot >= 0
}

// CountCards returns the number of occupied slots.
func (b *Board) CountCards() int {
	n := 0
	for _, s := range b.slots {
		s.mu.Lock()
		if s.card != NoCard {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

// EmptySlots returns the indices of empty slots in ascending order.
func (b *Board) EmptySlots() []int {
	var empty []int
	for i, s := range b.slots {
		s.mu.Lock()
		if s.card == NoCard {
			empty = append(empty, i)
		}
		s.mu.Unlock()
	}
	return empty
}

// PlaceToken marks slot with agentID's token. It fails if the slot is empty,
// the agent already marks it, or the agent already holds MaxTokens tokens.
func (b *Board) PlaceToken(agentID, slot int) bool {
	s, err := b.slot(slot)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.card == NoCard || indexOf(s.tokens, agentID) >= 0 {
		return false
	}

	b.countMu.Lock()
	if b.perAgent[agentID] >= MaxTokens {
		b.countMu.Unlock()
		return false
	}
	b.perAgent[agentID]++
	b.countMu.Unlock()

	s.tokens = append(s.tokens, tokenMark{agentID: agentID, seq: b.seq.Add(1)})
	if b.obs != nil {
		b.obs.TokenPlaced(agentID, slot)
	}
	return true
}

// RemoveToken clears agentID's token from slot. It reports whether there was one.
func (b *Board) RemoveToken(agentID, slot int) bool {
	s, err := b.slot(slot)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.tokens, agentID)
	if i < 0 {
		return false
	}
	s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
	b.releaseToken(agentID)
	if b.obs != nil {
		b.obs.TokenRemoved(agentID, slot)
	}
	return true
}

// HasToken reports whether agentID marks slot.
func (b *Board) HasToken(agentID, slot int) bool {
	s, err := b.slot(slot)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.tokens, agentID) >= 0
}

// Tokens returns the agents marking slot, oldest first.
func (b *Board) Tokens(slot int) []int {
	s, err := b.slot(slot)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, len(s.tokens))
	for i, mark := range s.tokens {
		ids[i] = mark.agentID
	}
	return ids
}

// TokensOf returns the slots agentID marks, in the order the tokens were placed.
func (b *Board) TokensOf(agentID int) []int {
	slots, _ := b.MarkedCards(agentID)
	return slots
}

// MarkedCards returns the slots agentID marks, in placement order, together
// with the card on each. Each slot is read under its lock, so a returned card
// is always the one the token sits on.
func (b *Board) MarkedCards(agentID int) (slots, cards []int) {
	type placed struct {
		slot, card int
		seq        uint64
	}
	var marks []placed
	for i, s := range b.slots {
		s.mu.Lock()
		for _, mark := range s.tokens {
			if mark.agentID == agentID {
				marks = append(marks, placed{slot: i, card: s.card, seq: mark.seq})
			}
		}
		s.mu.Unlock()
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].seq < marks[j].seq })

	slots = make([]int, len(marks))
	cards = make([]int, len(marks))
	for i, m := range marks {
		slots[i], cards[i] = m.slot, m.card
	}
	return slots, cards
}

// TokenCount returns how many tokens agentID currently holds.
func (b *Board) TokenCount(agentID int) int {
	b.countMu.Lock()
	defer b.countMu.Unlock()
	return b.perAgent[agentID]
}

// Snapshot copies the board slot by slot. Each slot is read atomically; the
// snapshot as a whole is not.
func (b *Board) Snapshot() Snapshot {
	snap := Snapshot{
		Cards:  make([]int, len(b.slots)),
		Tokens: make([][]int, len(b.slots)),
	}
	for i, s := range b.slots {
		s.mu.Lock()
		snap.Cards[i] = s.card
		ids := make([]int, len(s.tokens))
		for j, mark := range s.tokens {
			ids[j] = mark.agentID
		}
		snap.Tokens[i] = ids
		s.mu.Unlock()
	}
	return snap
}

// releaseToken decrements agentID's token count. Caller holds the slot lock.
func (b *Board) releaseToken(agentID int) {
	b.countMu.Lock()
	if b.perAgent[agentID] > 0 {
		b.perAgent[agentID]--
	}
	b.countMu.Unlock()
}

func indexOf(marks []tokenMark, agentID int) int {
	for i, mark := range marks {
		if mark.agentID == agentID {
			return i
		}
	}
	return -1
}
