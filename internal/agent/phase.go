package agent

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
	"go.uber.org/zap"
)

// Phase is the controller's position in its execution cycle.
type Phase string

const (
	// PhaseIdle: no current action and no plan in hand.
	PhaseIdle Phase = "idle"
	// PhasePlanning: the planner is running for this tick.
	PhasePlanning Phase = "planning"
	// PhasePending: a plan is held and its next action has not started.
	PhasePending Phase = "pending"
	// PhaseExecuting: the current action's strategy is running.
	PhaseExecuting Phase = "executing"
	// PhaseComplete: the last plan ran to completion.
	PhaseComplete Phase = "complete"
)

const (
	evPlan      = "PLAN"
	evAdopt     = "ADOPT"
	evNoPlan    = "NO_PLAN"
	evStart     = "START"
	evStale     = "STALE"
	evFinish    = "FINISH"
	evComplete  = "COMPLETE"
	evInterrupt = "INTERRUPT"
)

const (
	stateIdle      = statekit.StateID(PhaseIdle)
	statePlanning  = statekit.StateID(PhasePlanning)
	statePending   = statekit.StateID(PhasePending)
	stateExecuting = statekit.StateID(PhaseExecuting)
	stateComplete  = statekit.StateID(PhaseComplete)
)

// phaseContext is the statekit machine context.
type phaseContext struct {
	logger *zap.Logger
}

func tracePhase(ctx **phaseContext, ev statekit.Event) {
	(*ctx).logger.Debug("agent: phase event", zap.String("event", string(ev.Type)))
}

// newPhaseMachine builds the controller statechart. Every event the agent
// sends has a transition from every state it is sent in.
func newPhaseMachine(ctx *phaseContext) (*statekit.MachineConfig[*phaseContext], error) {
	return statekit.NewMachine[*phaseContext]("agent").
		WithInitial(stateIdle).
		WithContext(ctx).
		WithAction("trace", tracePhase).
		State(stateIdle).
		On(evPlan).Target(statePlanning).Do("trace").
		On(evInterrupt).Target(stateIdle).Do("trace").
		Done().
		State(statePlanning).
		On(evAdopt).Target(statePending).Do("trace").
		On(evNoPlan).Target(stateIdle).Do("trace").
		On(evInterrupt).Target(stateIdle).Do("trace").
		Done().
		State(statePending).
		On(evStart).Target(stateExecuting).Do("trace").
		On(evStale).Target(stateIdle).Do("trace").
		On(evPlan).Target(statePlanning).Do("trace").
		On(evInterrupt).Target(stateIdle).Do("trace").
		Done().
		State(stateExecuting).
		On(evFinish).Target(statePending).Do("trace").
		On(evComplete).Target(stateComplete).Do("trace").
		On(evInterrupt).Target(stateIdle).Do("trace").
		Done().
		State(stateComplete).
		On(evPlan).Target(statePlanning).Do("trace").
		On(evInterrupt).Target(stateIdle).Do("trace").
		Done().
		Build()
}

// phaseTracker owns the running interpreter.
type phaseTracker struct {
	interp *statekit.Interpreter[*phaseContext]
}

func newPhaseTracker(logger *zap.Logger) (*phaseTracker, error) {
	machine, err := newPhaseMachine(&phaseContext{logger: logger})
	if err != nil {
		return nil, fmt.Errorf("agent: building phase machine: %w", err)
	}
	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &phaseTracker{interp: interp}, nil
}

func (p *phaseTracker) send(ev string) {
	p.interp.Send(statekit.Event{Type: statekit.EventType(ev)})
}

func (p *phaseTracker) current() Phase {
	return Phase(p.interp.State().Value)
}
