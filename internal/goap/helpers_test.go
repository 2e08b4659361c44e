package goap_test

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/goap"
)

// facts is a mutable boolean world that beliefs read live.
type facts map[string]bool

func (f facts) belief(name string) *goap.Belief {
	return goap.MustBelief(goap.BeliefConfig{
		Name:      name,
		Condition: func() bool { return f[name] },
	})
}

// stubStrategy counts lifecycle calls and completes after doneAfter updates.
type stubStrategy struct {
	starts, updates, stops int
	doneAfter              int
	blocked                bool
}

func (s *stubStrategy) CanPerform() bool        { return !s.blocked }
func (s *stubStrategy) Complete() bool          { return s.doneAfter > 0 && s.updates >= s.doneAfter }
func (s *stubStrategy) Start()                  { s.starts++; s.updates = 0 }
func (s *stubStrategy) Update(dt time.Duration) { s.updates++ }
func (s *stubStrategy) Stop()                   { s.stops++ }

func action(name string, cost float64, pre, eff []*goap.Belief) *goap.Action {
	return goap.MustAction(goap.ActionConfig{
		Name:          name,
		Cost:          goap.Cost(cost),
		Preconditions: pre,
		Effects:       eff,
		Strategy:      &stubStrategy{doneAfter: 1},
	})
}

func goal(name string, priority float64, desired ...*goap.Belief) *goap.Goal {
	return goap.MustGoal(goap.GoalConfig{Name: name, Priority: priority, DesiredEffects: desired})
}

func newPlanner(opts goap.Options) *goap.Planner {
	return goap.NewPlanner(opts, zap.NewNop())
}

func beliefs(bs ...*goap.Belief) []*goap.Belief { return bs }
