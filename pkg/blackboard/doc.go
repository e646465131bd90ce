// Package blackboard provides the shared state of a setgame table and the Redis
// schema used to mirror that state to spectators.
//
// # Overview
//
// The blackboard is the one piece of mutable state that every actor in a game
// touches. The arbitrator deals and clears cards; agents mark and unmark their
// tokens. All of that is funnelled through the Board type, whose operations are
// atomic per slot.
//
// # Core Concepts
//
// A Board has a fixed number of slots. Each slot holds at most one card and a
// FIFO ledger of the agents that currently mark it with a token. The ledger is
// the single source of truth for token placement: an agent never keeps its own
// copy of its marks, it asks the board via TokensOf.
//
// A Claim is the triple of cards an agent proposes as a set, captured when its
// third token lands. Claims carry a one-shot verdict channel: the arbitrator
// writes exactly one Outcome, the claimant reads it exactly once.
//
// Events describe board, countdown, score, freeze and winner changes. They are
// what the Redis feed publishes for the watch command.
//
// # Invariants
//
//   - A slot holds at most one card, and a card occupies at most one slot.
//   - An agent marks a given slot at most once.
//   - An agent holds at most MaxTokens tokens across the whole board.
//   - Removing a card clears every token on its slot in the same critical section.
//
// # Redis Schema
//
// The feed is namespaced by instance name so several games can share a server.
//
//	Events channel: setgame:{instance}:events
//	Scores hash:    setgame:{instance}:scores   (field = agent id, value = score)
//	Winners key:    setgame:{instance}:winners  (JSON array of agent ids)
//
// # Usage Example
//
//	board := blackboard.NewBoard(12, 81, nil)
//	if err := board.PlaceCard(5, 0); err != nil {
//		log.Fatal(err)
//	}
//	board.PlaceToken(0, 0)
//	slots := board.TokensOf(0) // [0]
package blackboard
