// Package cards encodes card features and decides which triples form a set.
//
// A card id is read as FeatureCount digits in base FeatureValues; digit i is the
// value of feature i. Three cards form a set when, for every feature, their
// values are either all equal or all different.
package cards

import "fmt"

// Rules is the set-validity predicate and the deck-exhaustion check.
// The zero value is not usable; use Standard or construct with both fields.
type Rules struct {
	FeatureCount  int
	FeatureValues int
}

// Standard returns the classic 4-feature, 3-value rules (81 cards).
func Standard() Rules {
	return Rules{FeatureCount: 4, FeatureValues: 3}
}

// DeckSize returns the number of distinct cards the rules describe.
func (r Rules) DeckSize() int {
	n := 1
	for i := 0; i < r.FeatureCount; i++ {
		n *= r.FeatureValues
	}
	return n
}

// Validate checks that the rules describe a playable deck.
func (r Rules) Validate() error {
	if r.FeatureCount < 1 {
		return fmt.Errorf("feature count must be >= 1, got %d", r.FeatureCount)
	}
	if r.FeatureValues < 2 {
		return fmt.Errorf("feature values must be >= 2, got %d", r.FeatureValues)
	}
	return nil
}

// Features returns the feature values of card, least significant feature first.
func (r Rules) Features(card int) []int {
	features := make([]int, r.FeatureCount)
	for i := range features {
		features[i] = card % r.FeatureValues
		card /= r.FeatureValues
	}
	return features
}

// IsSet reports whether the three cards form a valid set. Repeated cards never do.
func (r Rules) IsSet(triple [3]int) bool {
	if triple[0] == triple[1] || triple[1] == triple[2] || triple[0] == triple[2] {
		return false
	}
	a, b, c := r.Features(triple[0]), r.Features(triple[1]), r.Features(triple[2])
	for i := range a {
		x, y, z := a[i], b[i], c[i]
		allSame := x == y && y == z
		allDifferent := x != y && y != z && x != z
		if !allSame && !allDifferent {
			return false
		}
	}
	return true
}

// FindSets returns up to limit sets found among cards, in a deterministic order.
// A limit <= 0 means no limit.
func (r Rules) FindSets(cards []int, limit int) [][3]int {
	var sets [][3]int
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			for k := j + 1; k < len(cards); k++ {
				triple := [3]int{cards[i], cards[j], cards[k]}
				if r.IsSet(triple) {
					sets = append(sets, triple)
					if limit > 0 && len(sets) >= limit {
						return sets
					}
				}
			}
		}
	}
	return sets
}

// HasSet reports whether any set exists among cards.
func (r Rules) HasSet(cards []int) bool {
	if r.FeatureValues != 3 {
		return len(r.FindSets(cards, 1)) > 0
	}

	// With three values per feature any two cards determine the third.
	present := make(map[int]bool, len(cards))
	for _, c := range cards {
		present[c] = true
	}
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			third := r.complete(cards[i], cards[j])
			if third != cards[i] && third != cards[j] && present[third] {
				return true
			}
		}
	}
	return false
}

// complete returns the card that forms a set with a and b. Only valid for
// three-valued features.
func (r Rules) complete(a, b int) int {
	card, place := 0, 1
	for i := 0; i < r.FeatureCount; i++ {
		x, y := a%3, b%3
		card += ((6 - x - y) % 3) * place
		a, b = a/3, b/3
		place *= 3
	}
	return card
}
