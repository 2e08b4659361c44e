package goap

import "errors"

var (
	// ErrNoPlan is returned by Planner.Plan when no candidate goal is currently
	// achievable. It is an expected outcome, not a fault.
	ErrNoPlan = errors.New("goap: no plan found")

	// ErrPreconditionStale reports that a dispatched action's preconditions no
	// longer hold.
	ErrPreconditionStale = errors.New("goap: action preconditions are stale")

	// ErrMisconfiguredAction reports an action driven without a bound strategy.
	ErrMisconfiguredAction = errors.New("goap: action has no strategy")

	// ErrSearchLimit reports that a goal's search exceeded the node budget.
	ErrSearchLimit = errors.New("goap: search limit exceeded")
)
