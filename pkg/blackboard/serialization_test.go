package blackboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEvent(t *testing.T) {
	t.Run("keeps zero slot and agent ids", func(t *testing.T) {
		data, err := EncodeEvent(&Event{Type: EventTokenPlaced, Slot: 0, AgentID: 0, AtMs: 42})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"slot":0`)
		assert.Contains(t, string(data), `"agent_id":0`)

		decoded, err := DecodeEvent(data)
		require.NoError(t, err)
		assert.Equal(t, EventTokenPlaced, decoded.Type)
		assert.Equal(t, int64(42), decoded.AtMs)
	})

	t.Run("rejects unknown type on encode", func(t *testing.T) {
		_, err := EncodeEvent(&Event{Type: "bogus"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid event")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := DecodeEvent([]byte("{not json"))
		assert.Error(t, err)
	})

	t.Run("rejects unknown type on decode", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"type":"bogus"}`))
		assert.Error(t, err)
	})
}

func TestHashToScores(t *testing.T) {
	t.Run("parses fields", func(t *testing.T) {
		scores, err := HashToScores(map[string]string{"0": "3", "2": "1"})
		require.NoError(t, err)
		assert.Equal(t, map[int]int{0: 3, 2: 1}, scores)
		assert.Equal(t, []int{0, 2}, SortedAgentIDs(scores))
	})

	t.Run("rejects bad agent id", func(t *testing.T) {
		_, err := HashToScores(map[string]string{"x": "3"})
		assert.Error(t, err)
	})

	t.Run("rejects bad score", func(t *testing.T) {
		_, err := HashToScores(map[string]string{"1": "many"})
		assert.Error(t, err)
	})
}
