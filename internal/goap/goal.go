package goap

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// GoalConfig describes a Goal at construction time.
//
// Precondition: Name must be non-empty and DesiredEffects must not be empty.
type GoalConfig struct {
	Name           string
	Priority       float64
	DesiredEffects []*Belief
}

// Goal is a prioritized set of desired-true beliefs.
//
// Invariant: name, priority, and desired effects are fixed after construction;
// only the enabled flag changes at runtime.
type Goal struct {
	name     string
	priority float64
	desired  beliefSet
	disabled atomic.Bool
}

// NewGoal constructs an enabled Goal from cfg.
func NewGoal(cfg GoalConfig) (*Goal, error) {
	if cfg.Name == "" {
		return nil, errors.New("goap.NewGoal: name must not be empty")
	}
	desired := newBeliefSet(cfg.DesiredEffects...)
	if len(desired) == 0 {
		return nil, fmt.Errorf("goap.NewGoal %q: desired effects must not be empty", cfg.Name)
	}
	return &Goal{name: cfg.Name, priority: cfg.Priority, desired: desired}, nil
}

// MustGoal is NewGoal that panics on error.
func MustGoal(cfg GoalConfig) *Goal {
	g, err := NewGoal(cfg)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Goal) Name() string      { return g.name }
func (g *Goal) Priority() float64 { return g.priority }
func (g *Goal) String() string    { return g.name }

// DesiredEffects returns a copy of the desired beliefs, sorted by name.
func (g *Goal) DesiredEffects() []*Belief { return g.desired.slice() }

// Enabled reports whether the goal may be planned for.
func (g *Goal) Enabled() bool { return !g.disabled.Load() }

// SetEnabled toggles whether the goal may be planned for.
func (g *Goal) SetEnabled(enabled bool) { g.disabled.Store(!enabled) }

// Satisfied reports whether every desired effect currently holds.
func (g *Goal) Satisfied() bool { return len(g.desired.unmet()) == 0 }
