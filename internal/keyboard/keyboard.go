// Package keyboard turns key presses into slot inputs for human players. Each
// player owns a layout: one rune per board slot, in slot order.
package keyboard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
)

// Offerer accepts slot inputs.
type Offerer interface {
	ID() int
	OfferInput(slot int) bool
}

type binding struct {
	player Offerer
	slot   int
}

// Reader maps runes to (player, slot) and forwards them.
type Reader struct {
	keys map[rune]binding
}

// New binds layouts[i] to players[i]. Every layout must have exactly boardSize
// runes and no rune may appear twice across all layouts.
func New(boardSize int, layouts []string, players []Offerer) (*Reader, error) {
	if len(layouts) < len(players) {
		return nil, fmt.Errorf("need %d key layouts, got %d", len(players), len(layouts))
	}

	r := &Reader{keys: make(map[rune]binding)}
	for i, p := range players {
		runes := []rune(layouts[i])
		if len(runes) != boardSize {
			return nil, fmt.Errorf("layout %q for player %d has %d keys, board has %d slots", layouts[i], p.ID(), len(runes), boardSize)
		}
		for slot, key := range runes {
			if prev, taken := r.keys[key]; taken {
				return nil, fmt.Errorf("key %q bound to both player %d and player %d", key, prev.player.ID(), p.ID())
			}
			r.keys[key] = binding{player: p, slot: slot}
		}
	}
	return r, nil
}

// Press handles one key. It reports whether the key was bound and its input
// accepted.
func (r *Reader) Press(key rune) bool {
	b, ok := r.keys[key]
	if !ok {
		return false
	}
	return b.player.OfferInput(b.slot)
}

// Run reads runes from in until it is exhausted or ctx is done. A read blocked
// on in when ctx ends is abandoned; it finishes whenever in next yields.
func (r *Reader) Run(ctx context.Context, in io.Reader) error {
	keys := make(chan rune)
	errs := make(chan error, 1)

	go func() {
		br := bufio.NewReader(in)
		for {
			key, _, err := br.ReadRune()
			if err != nil {
				errs <- err
				return
			}
			select {
			case keys <- key:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case key := <-keys:
			r.Press(key)
		case err := <-errs:
			if errors.Is(err, io.EOF) {
				log.Printf("[Keyboard] Input closed")
				return nil
			}
			return fmt.Errorf("failed to read keys: %w", err)
		}
	}
}
