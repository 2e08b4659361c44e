package agent_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/goap/internal/agent"
	"github.com/cory-johannsen/goap/internal/goap"
)

// world is a mutable fact store that beliefs read live.
type world map[string]bool

func (w world) belief(name string) *goap.Belief {
	return goap.MustBelief(goap.BeliefConfig{Name: name, Condition: func() bool { return w[name] }})
}

// counting records lifecycle calls; it completes after doneAfter updates and
// then sets its effect fact.
type counting struct {
	w                      world
	effect                 string
	starts, updates, stops int
	doneAfter              int
}

func (s *counting) CanPerform() bool { return true }
func (s *counting) Complete() bool   { return s.doneAfter > 0 && s.updates >= s.doneAfter }
func (s *counting) Start()           { s.starts++; s.updates = 0 }
func (s *counting) Stop()            { s.stops++ }

func (s *counting) Update(time.Duration) {
	s.updates++
	if s.Complete() && s.effect != "" {
		s.w[s.effect] = true
	}
}

type provider struct {
	beliefs map[string]*goap.Belief
	actions []*goap.Action
	goals   []*goap.Goal
}

func (p *provider) ProvideBeliefs() (map[string]*goap.Belief, error) { return p.beliefs, nil }
func (p *provider) ProvideActions(map[string]*goap.Belief) ([]*goap.Action, error) {
	return p.actions, nil
}
func (p *provider) ProvideGoals(map[string]*goap.Belief) ([]*goap.Goal, error) {
	return p.goals, nil
}

// countingPlanner wraps a planner and counts calls.
type countingPlanner struct {
	inner agent.Planner
	calls int
}

func (c *countingPlanner) Plan(actions []*goap.Action, goals []*goap.Goal, recent *goap.Goal) (*goap.Plan, error) {
	c.calls++
	return c.inner.Plan(actions, goals, recent)
}

// fixedPlanner hands out a prepared plan once, then reports no plan.
type fixedPlanner struct{ plan *goap.Plan }

func (f *fixedPlanner) Plan([]*goap.Action, []*goap.Goal, *goap.Goal) (*goap.Plan, error) {
	p := f.plan
	f.plan = nil
	if p == nil {
		return nil, goap.ErrNoPlan
	}
	return p, nil
}

func act(name string, cost float64, s goap.Strategy, pre, eff []*goap.Belief) *goap.Action {
	return goap.MustAction(goap.ActionConfig{Name: name, Cost: goap.Cost(cost), Strategy: s, Preconditions: pre, Effects: eff})
}

func goalOf(name string, priority float64, desired ...*goap.Belief) *goap.Goal {
	return goap.MustGoal(goap.GoalConfig{Name: name, Priority: priority, DesiredEffects: desired})
}

func bs(b ...*goap.Belief) []*goap.Belief { return b }

func newAgent(t *testing.T, p *provider, planner agent.Planner) (*agent.Agent, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	if planner == nil {
		planner = goap.NewPlanner(goap.DefaultOptions(), zap.NewNop())
	}
	a, err := agent.New(agent.Config{ID: "test", Provider: p, Planner: planner, Logger: zap.New(core)})
	require.NoError(t, err)
	return a, logs
}
