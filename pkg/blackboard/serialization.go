package blackboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Serialization helpers for the Redis feed.
//
// Events travel as JSON on the events channel. Scores are a Redis hash keyed by
// agent id, which keeps HINCRBY-style updates and HGETALL reads trivial.

// EncodeEvent validates and marshals an event for publishing.
func EncodeEvent(e *Event) ([]byte, error) {
	if err := e.Type.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// DecodeEvent unmarshals and validates an event received from the feed.
func DecodeEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if err := e.Type.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return &e, nil
}

// HashToScores converts the scores hash into a map of agent id to score.
// Fields that are not integers are rejected.
func HashToScores(hash map[string]string) (map[int]int, error) {
	scores := make(map[int]int, len(hash))
	for field, value := range hash {
		id, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid agent id field %q: %w", field, err)
		}
		score, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid score for agent %d: %w", id, err)
		}
		scores[id] = score
	}
	return scores, nil
}

// SortedAgentIDs returns the keys of a scores map in ascending order.
func SortedAgentIDs(scores map[int]int) []int {
	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
