package goap

// Sensor is the sensing collaborator: a tracked target, whether it is in
// range, and a notification fired when the target appears, disappears, or
// changes identity.
type Sensor interface {
	TargetInRange() bool
	TargetPosition() Position
	// OnTargetChanged registers fn and returns a func that unregisters it.
	OnTargetChanged(fn func()) (cancel func())
}

// Navigator is the locomotion collaborator used by strategies. The planner
// never calls it.
type Navigator interface {
	Position() Position
	HasPath() bool
	RemainingDistance() float64
	PathPending() bool
	// SetDestination requests a path to p and reports whether p is reachable.
	SetDestination(p Position) bool
	ResetPath()
}

// BehaviorProvider supplies an agent's initial beliefs, actions, and goals.
// Actions and goals reference beliefs from the map returned by ProvideBeliefs.
type BehaviorProvider interface {
	ProvideBeliefs() (map[string]*Belief, error)
	ProvideActions(beliefs map[string]*Belief) ([]*Action, error)
	ProvideGoals(beliefs map[string]*Belief) ([]*Goal, error)
}
