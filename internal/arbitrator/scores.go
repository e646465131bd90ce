package arbitrator

import "slices"

// Scores returns every player's score in registration order.
func (a *Arbitrator) Scores() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.scores)
}

// Score returns one player's score.
func (a *Arbitrator) Score(agentID int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i, ok := a.index[agentID]; ok {
		return a.scores[i]
	}
	return 0
}

// Stats returns the game counters so far.
func (a *Arbitrator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Winners returns the ids of every player holding the top score, in
// registration order. Ties produce more than one winner.
func (a *Arbitrator) Winners() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.players) == 0 {
		return []int{}
	}
	top := slices.Max(a.scores)

	winners := make([]int, 0, 1)
	for i, p := range a.players {
		if a.scores[i] == top {
			winners = append(winners, p.ID())
		}
	}
	return winners
}

// award adds a point for agentID and returns the new score.
func (a *Arbitrator) award(agentID int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.SetsFound++
	i := a.index[agentID]
	a.scores[i]++
	return a.scores[i]
}
