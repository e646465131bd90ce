package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardDeckSize(t *testing.T) {
	r := Standard()
	require.NoError(t, r.Validate())
	assert.Equal(t, 81, r.DeckSize())
}

func TestValidate(t *testing.T) {
	assert.Error(t, Rules{FeatureCount: 0, FeatureValues: 3}.Validate())
	assert.Error(t, Rules{FeatureCount: 4, FeatureValues: 1}.Validate())
}

func TestFeatures(t *testing.T) {
	r := Standard()
	// 5 = 2 + 1*3 in base 3
	assert.Equal(t, []int{2, 1, 0, 0}, r.Features(5))
	assert.Equal(t, []int{2, 2, 2, 2}, r.Features(80))
}

func TestIsSet(t *testing.T) {
	r := Standard()

	tests := []struct {
		name   string
		triple [3]int
		want   bool
	}{
		{"all features differ", [3]int{0, 40, 80}, true},
		{"one feature differs, rest equal", [3]int{0, 1, 2}, true},
		{"mixed equal and different", [3]int{0, 4, 8}, true},
		{"two equal one different", [3]int{0, 0 + 1, 0 + 3}, false},
		{"repeated card", [3]int{7, 7, 7}, false},
		{"order does not matter", [3]int{80, 0, 40}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsSet(tt.triple))
		})
	}
}

func TestFindSets(t *testing.T) {
	r := Standard()

	all := make([]int, r.DeckSize())
	for i := range all {
		all[i] = i
	}

	t.Run("full deck has 1080 sets", func(t *testing.T) {
		assert.Len(t, r.FindSets(all, 0), 1080)
	})

	t.Run("limit is honoured", func(t *testing.T) {
		assert.Len(t, r.FindSets(all, 1), 1)
	})

	t.Run("every result is a set", func(t *testing.T) {
		for _, s := range r.FindSets(all[:20], 0) {
			assert.True(t, r.IsSet(s))
		}
	})
}

func TestHasSet(t *testing.T) {
	r := Standard()

	assert.True(t, r.HasSet([]int{0, 1, 2}))
	assert.False(t, r.HasSet([]int{0, 1, 3}))
	assert.False(t, r.HasSet(nil))
	assert.False(t, r.HasSet([]int{5, 5}))

	// Cards 0,1,3,4 share the last two features and pairwise-complete outside the list.
	assert.False(t, r.HasSet([]int{0, 1, 3, 4}))
	assert.True(t, r.HasSet([]int{0, 1, 3, 4, 8}))

	t.Run("agrees with brute force on non-ternary rules", func(t *testing.T) {
		quad := Rules{FeatureCount: 2, FeatureValues: 4}
		cards := []int{0, 5, 10}
		assert.Equal(t, len(quad.FindSets(cards, 1)) > 0, quad.HasSet(cards))
	})
}
