package strategy_test

import "github.com/cory-johannsen/goap/internal/goap"

// fakeNav teleports along a straight line when stepped.
type fakeNav struct {
	pos         goap.Position
	dest        goap.Position
	hasPath     bool
	pending     bool
	unreachable func(goap.Position) bool
	sets        int
	resets      int
}

func (n *fakeNav) Position() goap.Position { return n.pos }
func (n *fakeNav) HasPath() bool           { return n.hasPath }
func (n *fakeNav) PathPending() bool       { return n.pending }

func (n *fakeNav) RemainingDistance() float64 {
	if !n.hasPath {
		return 0
	}
	return n.pos.Distance(n.dest)
}

func (n *fakeNav) SetDestination(p goap.Position) bool {
	n.sets++
	if n.unreachable != nil && n.unreachable(p) {
		return false
	}
	n.dest = p
	n.hasPath = true
	return true
}

func (n *fakeNav) Place(p goap.Position) { n.pos = p }

func (n *fakeNav) ResetPath() {
	n.resets++
	n.hasPath = false
}

// arrive moves the agent onto its destination.
func (n *fakeNav) arrive() {
	if n.hasPath {
		n.pos = n.dest
	}
}
