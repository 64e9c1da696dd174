// Package scraper drives scrape invocations: it enumerates the search
// space, processes one window of it per invocation and reports a cursor
// for the caller to resume from.
//
// Each invocation moves through:
//
//	IDLE ──► RUNNING ──► DONE
//	  │                   ▲
//	  └───────────────────┘  (empty window)
//
// DONE is terminal; the next invocation starts a fresh machine.
package scraper

import "github.com/cockroachdb/errors"

// State of a single invocation.
type State string

const (
	StateIdle    State = "IDLE"
	StateRunning State = "RUNNING"
	StateDone    State = "DONE"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[State][]State{
	StateIdle:    {StateRunning, StateDone},
	StateRunning: {StateDone},
	// DONE is terminal
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// machine tracks one invocation's state.
type machine struct {
	state State
}

func (m *machine) to(next State) error {
	if !IsTransitionAllowed(m.state, next) {
		return errors.Newf("illegal batch transition %s → %s", m.state, next)
	}
	m.state = next
	return nil
}
