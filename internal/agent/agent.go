// Package agent drives plan execution for a single autonomous agent: it asks
// the planner for a plan when idle, dispatches the plan's actions one at a
// time, re-validates preconditions at dispatch, and replans on interruption.
package agent

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/goap"
	"github.com/cory-johannsen/goap/internal/observability"
)

// Planner selects a plan for the highest-priority achievable goal.
// *goap.Planner satisfies it.
type Planner interface {
	Plan(actions []*goap.Action, goals []*goap.Goal, mostRecent *goap.Goal) (*goap.Plan, error)
}

// Config wires an Agent's collaborators.
//
// Precondition: Provider, Planner, and Logger must not be nil.
type Config struct {
	// ID identifies the agent in logs; a random UUID when empty.
	ID       string
	Provider goap.BehaviorProvider
	Planner  Planner
	Logger   *zap.Logger
	// Navigator, when set, has its path reset whenever a new plan is adopted.
	Navigator goap.Navigator
}

// Agent is the execution controller for one agent.
//
// Invariant: currentAction != nil implies plan != nil and currentGoal != nil.
// Beliefs, actions, and goals belong to this agent alone.
//
// All exported methods are safe for concurrent use.
type Agent struct {
	id      string
	logger  *zap.Logger
	planner Planner
	nav     goap.Navigator

	beliefs map[string]*goap.Belief
	actions []*goap.Action
	goals   []*goap.Goal

	mu            sync.Mutex
	active        bool
	currentGoal   *goap.Goal
	currentAction *goap.Action
	plan          *goap.Plan
	lastGoal      *goap.Goal
	noPlanLogged  bool
	phase         *phaseTracker
}

// New builds an active Agent from cfg, loading its beliefs, actions, and goals
// from cfg.Provider.
func New(cfg Config) (*Agent, error) {
	if cfg.Provider == nil || cfg.Planner == nil || cfg.Logger == nil {
		panic("agent.New: Provider, Planner, and Logger must not be nil")
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := observability.ForAgent(cfg.Logger, id)

	beliefs, err := cfg.Provider.ProvideBeliefs()
	if err != nil {
		return nil, fmt.Errorf("agent.New %s: beliefs: %w", id, err)
	}
	actions, err := cfg.Provider.ProvideActions(beliefs)
	if err != nil {
		return nil, fmt.Errorf("agent.New %s: actions: %w", id, err)
	}
	goals, err := cfg.Provider.ProvideGoals(beliefs)
	if err != nil {
		return nil, fmt.Errorf("agent.New %s: goals: %w", id, err)
	}
	phase, err := newPhaseTracker(logger)
	if err != nil {
		return nil, fmt.Errorf("agent.New %s: %w", id, err)
	}

	logger.Debug("agent: created",
		zap.Int("beliefs", len(beliefs)),
		zap.Int("actions", len(actions)),
		zap.Int("goals", len(goals)),
	)
	return &Agent{
		id:      id,
		logger:  logger,
		planner: cfg.Planner,
		nav:     cfg.Navigator,
		beliefs: beliefs,
		actions: actions,
		goals:   goals,
		active:  true,
		phase:   phase,
	}, nil
}

func (a *Agent) ID() string { return a.id }

// Tick advances the agent by dt. When no action is running it plans and
// dispatches; then it updates the current action and handles its completion.
//
// Postcondition: the only error returned wraps goap.ErrMisconfiguredAction;
// on error all plan state has been cleared.
func (a *Agent) Tick(dt time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return nil
	}
	if a.currentAction == nil {
		if err := a.planAndDispatch(); err != nil {
			return err
		}
	}
	if a.currentAction == nil {
		return nil
	}
	return a.execute(dt)
}

// planAndDispatch runs the planner over the candidate goals and dispatches the
// next action of the adopted plan, or of the held plan when nothing better was
// found.
func (a *Agent) planAndDispatch() error {
	a.phase.send(evPlan)
	plan, err := a.planner.Plan(a.actions, a.candidateGoals(), a.lastGoal)
	switch {
	case err == nil:
		a.adopt(plan)
	case a.plan != nil && a.plan.Remaining() > 0:
		// Nothing outranks the plan in hand; keep going.
	default:
		a.reportNoPlan(err)
		a.phase.send(evNoPlan)
		return nil
	}
	return a.dispatch()
}

// candidateGoals returns every goal when no goal is current, otherwise only
// goals that strictly outrank it.
func (a *Agent) candidateGoals() []*goap.Goal {
	if a.currentGoal == nil {
		return a.goals
	}
	floor := a.currentGoal.Priority()
	var out []*goap.Goal
	for _, g := range a.goals {
		if g.Priority() > floor {
			out = append(out, g)
		}
	}
	return out
}

func (a *Agent) adopt(plan *goap.Plan) {
	if a.nav != nil {
		a.nav.ResetPath()
	}
	a.plan = plan
	a.currentGoal = plan.Goal()
	a.noPlanLogged = false
	a.logger.Info("agent: plan adopted",
		zap.String("goal", plan.Goal().Name()),
		zap.Strings("actions", plan.ActionNames()),
		zap.Float64("cost", plan.Cost()),
	)
}

func (a *Agent) reportNoPlan(err error) {
	if !errors.Is(err, goap.ErrNoPlan) {
		a.logger.Warn("agent: planner failed", zap.Error(err))
		return
	}
	if a.noPlanLogged {
		return
	}
	a.noPlanLogged = true
	a.logger.Info("agent: no plan", zap.Int("goals", len(a.candidateGoals())))
}

// dispatch pops the plan's next action and starts it if its preconditions
// still hold. A stale action clears the action, goal, and plan.
func (a *Agent) dispatch() error {
	next, ok := a.plan.Next()
	if !ok {
		a.clear()
		a.phase.send(evNoPlan)
		return nil
	}
	a.phase.send(evAdopt)
	if !next.PreconditionsMet() {
		a.logger.Info("agent: action discarded",
			zap.String("action", next.Name()),
			zap.String("goal", a.currentGoal.Name()),
			zap.Error(goap.ErrPreconditionStale),
		)
		a.clear()
		a.phase.send(evStale)
		return nil
	}
	if err := next.Start(); err != nil {
		return a.fail(next, err)
	}
	a.currentAction = next
	a.phase.send(evStart)
	a.logger.Debug("agent: action started", zap.String("action", next.Name()))
	return nil
}

func (a *Agent) execute(dt time.Duration) error {
	act := a.currentAction
	if err := act.Update(dt); err != nil {
		return a.fail(act, err)
	}
	if !act.Complete() {
		return nil
	}
	if act.Aborted() {
		a.logger.Info("agent: action aborted", zap.String("action", act.Name()))
		a.interrupt()
		return nil
	}
	if err := act.Stop(); err != nil {
		return a.fail(act, err)
	}
	a.logger.Debug("agent: action complete",
		zap.String("action", act.Name()),
		zap.Strings("pending_effects", act.ApplyEffects()),
	)
	a.currentAction = nil
	if a.plan.Remaining() > 0 {
		a.phase.send(evFinish)
		return nil
	}
	a.logger.Info("agent: goal complete", zap.String("goal", a.currentGoal.Name()))
	a.lastGoal = a.currentGoal
	a.currentGoal = nil
	a.plan = nil
	a.phase.send(evComplete)
	return nil
}

func (a *Agent) fail(act *goap.Action, err error) error {
	a.logger.Error("agent: misconfigured action", zap.String("action", act.Name()), zap.Error(err))
	a.currentAction = nil
	a.clear()
	a.phase.send(evInterrupt)
	return fmt.Errorf("agent %s: %w", a.id, err)
}

// clear drops the current action, goal, and plan.
func (a *Agent) clear() {
	a.currentAction = nil
	a.currentGoal = nil
	a.plan = nil
}

// interrupt stops the running strategy and drops all plan state, including
// the last completed goal.
func (a *Agent) interrupt() {
	if a.currentAction != nil {
		if err := a.currentAction.Stop(); err != nil {
			a.logger.Error("agent: stopping action", zap.Error(err))
		}
	}
	a.clear()
	a.lastGoal = nil
	a.phase.send(evInterrupt)
}

// ClearCurrentAction stops the current strategy, clears all plan state, and
// immediately replans if the agent is active.
func (a *Agent) ClearCurrentAction() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interrupt()
	if !a.active {
		return nil
	}
	return a.planAndDispatch()
}

// HandleTargetChanged is the sensor notification handler.
func (a *Agent) HandleTargetChanged() {
	a.logger.Info("agent: target changed, replanning")
	if err := a.ClearCurrentAction(); err != nil {
		a.logger.Error("agent: replanning after target change", zap.Error(err))
	}
}

// Subscribe routes s's target-change notifications to HandleTargetChanged
// and returns the unsubscribe func.
func (a *Agent) Subscribe(s goap.Sensor) func() {
	return s.OnTargetChanged(a.HandleTargetChanged)
}

// EnableOnlyThisGoal disables every other goal, pins g as the current goal,
// and plans for it immediately. When no plan results the pin is released so
// later ticks retry g. An inactive agent only disables the other goals; its
// first tick after SetActive(true) plans for g.
//
// Precondition: g must be one of the agent's goals.
func (a *Agent) EnableOnlyThisGoal(g *goap.Goal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.owns(g) {
		return fmt.Errorf("agent.EnableOnlyThisGoal %s: unknown goal %v", a.id, g)
	}
	for _, other := range a.goals {
		other.SetEnabled(other == g)
	}
	a.interrupt()
	if !a.active {
		a.logger.Info("agent: goal pinned while inactive", zap.String("goal", g.Name()))
		return nil
	}
	a.currentGoal = g
	a.logger.Info("agent: goal pinned", zap.String("goal", g.Name()))

	a.phase.send(evPlan)
	plan, err := a.planner.Plan(a.actions, []*goap.Goal{g}, a.lastGoal)
	if err != nil {
		a.currentGoal = nil
		a.reportNoPlan(err)
		a.phase.send(evNoPlan)
		return nil
	}
	a.adopt(plan)
	return a.dispatch()
}

// EnableAllGoals re-enables every goal.
func (a *Agent) EnableAllGoals() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, g := range a.goals {
		g.SetEnabled(true)
	}
}

func (a *Agent) owns(g *goap.Goal) bool {
	for _, own := range a.goals {
		if own == g {
			return true
		}
	}
	return false
}

// SetActive toggles ticking. Deactivating stops the current strategy and
// clears all plan state.
func (a *Agent) SetActive(active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == active {
		return
	}
	a.active = active
	if !active {
		a.interrupt()
	}
}

func (a *Agent) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Phase returns the controller's current phase.
func (a *Agent) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase.current()
}

func (a *Agent) CurrentGoal() *goap.Goal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentGoal
}

func (a *Agent) CurrentAction() *goap.Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentAction
}

// CurrentPlan returns the plan in hand; its Remaining count excludes the
// current action.
func (a *Agent) CurrentPlan() *goap.Plan {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan
}

// LastGoal returns the most recently completed goal.
func (a *Agent) LastGoal() *goap.Goal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastGoal
}

// Goals returns a copy of the agent's goals.
func (a *Agent) Goals() []*goap.Goal {
	out := make([]*goap.Goal, len(a.goals))
	copy(out, a.goals)
	return out
}

// Actions returns a copy of the agent's actions.
func (a *Agent) Actions() []*goap.Action {
	out := make([]*goap.Action, len(a.actions))
	copy(out, a.actions)
	return out
}

// Beliefs returns a copy of the agent's belief map.
func (a *Agent) Beliefs() map[string]*goap.Belief {
	out := make(map[string]*goap.Belief, len(a.beliefs))
	for k, v := range a.beliefs {
		out[k] = v
	}
	return out
}

func (a *Agent) Belief(name string) (*goap.Belief, bool) {
	b, ok := a.beliefs[name]
	return b, ok
}

func (a *Agent) Goal(name string) (*goap.Goal, bool) {
	for _, g := range a.goals {
		if g.Name() == name {
			return g, true
		}
	}
	return nil, false
}
