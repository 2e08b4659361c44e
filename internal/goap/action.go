package goap

import (
	"errors"
	"fmt"
	"time"
)

// DefaultActionCost is applied when ActionConfig.Cost is nil.
const DefaultActionCost = 1.0

// Cost returns a pointer to c for ActionConfig.Cost.
func Cost(c float64) *float64 { return &c }

// ActionConfig describes an Action at construction time.
//
// Precondition: Name must be non-empty, Cost must be nil or >= 0, Strategy
// must be non-nil.
type ActionConfig struct {
	Name string
	// Cost defaults to DefaultActionCost when nil. An explicit zero is kept.
	Cost          *float64
	Preconditions []*Belief
	Effects       []*Belief
	Strategy      Strategy
}

// Action is a costed operation with preconditions, effects, and a bound Strategy.
//
// Invariant: Preconditions, Effects, and Strategy are fixed after construction.
// A zero Action reports ErrMisconfiguredAction from Start, Update, and Stop.
type Action struct {
	name          string
	cost          float64
	preconditions beliefSet
	effects       beliefSet
	strategy      Strategy
}

// NewAction constructs an Action from cfg.
//
// Postcondition: returns a non-nil Action or an error naming the invalid field.
func NewAction(cfg ActionConfig) (*Action, error) {
	if cfg.Name == "" {
		return nil, errors.New("goap.NewAction: name must not be empty")
	}
	cost := DefaultActionCost
	if cfg.Cost != nil {
		cost = *cfg.Cost
	}
	if cost < 0 {
		return nil, fmt.Errorf("goap.NewAction %q: cost must be >= 0, got %v", cfg.Name, cost)
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("goap.NewAction %q: %w", cfg.Name, ErrMisconfiguredAction)
	}
	return &Action{
		name:          cfg.Name,
		cost:          cost,
		preconditions: newBeliefSet(cfg.Preconditions...),
		effects:       newBeliefSet(cfg.Effects...),
		strategy:      cfg.Strategy,
	}, nil
}

// MustAction is NewAction that panics on error.
func MustAction(cfg ActionConfig) *Action {
	a, err := NewAction(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Action) Name() string  { return a.name }
func (a *Action) Cost() float64 { return a.cost }
func (a *Action) String() string {
	return a.name
}

// Preconditions returns a copy of the precondition beliefs, sorted by name.
func (a *Action) Preconditions() []*Belief { return a.preconditions.slice() }

// Effects returns a copy of the effect beliefs, sorted by name.
func (a *Action) Effects() []*Belief { return a.effects.slice() }

// PreconditionsMet re-evaluates every precondition against live state.
func (a *Action) PreconditionsMet() bool {
	return len(a.preconditions.unmet()) == 0
}

// Complete forwards the strategy's completion flag. False without a strategy.
func (a *Action) Complete() bool {
	return a.strategy != nil && a.strategy.Complete()
}

// Aborted reports whether the strategy gave up on its current run.
func (a *Action) Aborted() bool {
	ab, ok := a.strategy.(Aborter)
	return ok && ab.Aborted()
}

// Start begins a run of the bound strategy.
func (a *Action) Start() error {
	if a.strategy == nil {
		return a.misconfigured("Start")
	}
	a.strategy.Start()
	return nil
}

// Update ticks the strategy when it reports CanPerform.
func (a *Action) Update(dt time.Duration) error {
	if a.strategy == nil {
		return a.misconfigured("Update")
	}
	if a.strategy.CanPerform() {
		a.strategy.Update(dt)
	}
	return nil
}

// Stop ends the current run of the strategy.
func (a *Action) Stop() error {
	if a.strategy == nil {
		return a.misconfigured("Stop")
	}
	a.strategy.Stop()
	return nil
}

// ApplyEffects evaluates every effect against live state and returns the names
// of effects that do not hold yet. Effects are predicates over the world, so
// applying them asserts the strategy's side effects rather than writing state.
func (a *Action) ApplyEffects() []string {
	var pending []string
	for _, e := range a.effects {
		if !e.Evaluate() {
			pending = append(pending, e.name)
		}
	}
	return pending
}

func (a *Action) misconfigured(op string) error {
	return fmt.Errorf("goap.Action.%s %q: %w", op, a.name, ErrMisconfiguredAction)
}
