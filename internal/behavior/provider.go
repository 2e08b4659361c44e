package behavior

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/dice"
	"github.com/cory-johannsen/goap/internal/goap"
	"github.com/cory-johannsen/goap/internal/strategy"
)

// FactHits is incremented on the fact store each time an attack lands.
const FactHits = "hits"

// HookCaller invokes Lua hooks in a named scope.
type HookCaller interface {
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// Environment is everything a Document is resolved against for one agent.
type Environment struct {
	// Navigator is required.
	Navigator goap.Navigator
	// Sensors and Locations are looked up by name.
	Sensors   map[string]goap.Sensor
	Locations map[string]goap.Position
	// Scripts and Scope serve script beliefs and strategy hooks. May be nil
	// when the document uses neither.
	Scripts HookCaller
	Scope   string
	// Source drives wander strategies. May be nil when none are declared.
	Source dice.Source
	// Facts backs fact and expr beliefs and hit counting. May be nil.
	Facts FactStore
}

// Provider implements goap.BehaviorProvider for a Document.
type Provider struct {
	doc    *Document
	env    Environment
	logger *zap.Logger
}

var _ goap.BehaviorProvider = (*Provider)(nil)

// NewProvider binds doc to env.
//
// Precondition: logger must not be nil.
// Postcondition: returns an error if doc is invalid or env lacks a navigator.
func NewProvider(doc *Document, env Environment, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		panic("behavior.NewProvider: logger must not be nil")
	}
	if doc == nil {
		return nil, errors.New("behavior.NewProvider: document must not be nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if env.Navigator == nil {
		return nil, fmt.Errorf("behavior.NewProvider %q: navigator must not be nil", doc.ID)
	}
	return &Provider{
		doc:    doc,
		env:    env,
		logger: logger.With(zap.String("behavior", doc.ID)),
	}, nil
}

// Document returns the bound document.
func (p *Provider) Document() *Document { return p.doc }

// ProvideBeliefs builds every declared belief.
//
// Postcondition: the map contains one entry per BeliefSpec, or an error names
// the first belief whose collaborator is missing from the environment.
func (p *Provider) ProvideBeliefs() (map[string]*goap.Belief, error) {
	out := make(map[string]*goap.Belief, len(p.doc.Beliefs))
	for _, spec := range p.doc.Beliefs {
		b, err := p.belief(spec)
		if err != nil {
			return nil, fmt.Errorf("belief %q: %w", spec.Name, err)
		}
		out[spec.Name] = b
	}
	return out, nil
}

func (p *Provider) belief(spec *BeliefSpec) (*goap.Belief, error) {
	nav := p.env.Navigator
	switch spec.Kind {
	case BeliefConstant:
		return goap.ConstantBelief(spec.Name, spec.Value), nil
	case BeliefMoving:
		return goap.NewBelief(goap.BeliefConfig{Name: spec.Name, Condition: nav.HasPath, BackedBy: "navigator"})
	case BeliefIdle:
		return goap.NewBelief(goap.BeliefConfig{
			Name:      spec.Name,
			Condition: func() bool { return !nav.HasPath() },
			BackedBy:  "navigator",
		})
	case BeliefSensor:
		s, ok := p.env.Sensors[spec.Sensor]
		if !ok || s == nil {
			return nil, fmt.Errorf("unknown sensor %q", spec.Sensor)
		}
		return goap.SensorBelief(spec.Name, spec.Sensor, s), nil
	case BeliefLocation:
		pos, err := p.position(spec.Location, spec.Position)
		if err != nil {
			return nil, err
		}
		return goap.LocationBelief(spec.Name, nav, pos, spec.Radius), nil
	case BeliefFact:
		if p.env.Facts == nil {
			return nil, errors.New("fact belief requires a fact store")
		}
		facts, name := p.env.Facts, spec.Fact
		return goap.NewBelief(goap.BeliefConfig{
			Name:      spec.Name,
			Condition: func() bool { v, _ := facts.Fact(name); return truthy(v) },
			BackedBy:  "fact:" + name,
		})
	case BeliefExpr:
		if p.env.Facts == nil {
			return nil, errors.New("expr belief requires a fact store")
		}
		program, err := compileCondition(spec.Expr)
		if err != nil {
			return nil, err
		}
		facts, name := p.env.Facts, spec.Name
		return goap.NewBelief(goap.BeliefConfig{
			Name: spec.Name,
			Condition: func() bool {
				ok, err := evalCondition(program, facts)
				if err != nil {
					p.logger.Debug("behavior: expr belief failed", zap.String("belief", name), zap.Error(err))
					return false
				}
				return ok
			},
			BackedBy: "expr",
		})
	case BeliefScript:
		if p.env.Scripts == nil {
			return nil, errors.New("script belief requires a script caller")
		}
		hook := spec.Hook
		return goap.NewBelief(goap.BeliefConfig{
			Name:      spec.Name,
			Condition: func() bool { return lua.LVAsBool(p.call(hook)) },
			BackedBy:  "script:" + hook,
		})
	}
	return nil, fmt.Errorf("unknown belief kind %q", spec.Kind)
}

// ProvideActions builds every declared action with a fresh strategy.
//
// Precondition: beliefs must come from ProvideBeliefs.
func (p *Provider) ProvideActions(beliefs map[string]*goap.Belief) ([]*goap.Action, error) {
	out := make([]*goap.Action, 0, len(p.doc.Actions))
	for _, spec := range p.doc.Actions {
		pre, err := lookup(beliefs, spec.Preconditions)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", spec.Name, err)
		}
		eff, err := lookup(beliefs, spec.Effects)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", spec.Name, err)
		}
		s, err := p.strategy(&spec.Strategy, beliefs)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", spec.Name, err)
		}
		a, err := goap.NewAction(goap.ActionConfig{
			Name:          spec.Name,
			Cost:          spec.Cost,
			Preconditions: pre,
			Effects:       eff,
			Strategy:      s,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (p *Provider) strategy(spec *StrategySpec, beliefs map[string]*goap.Belief) (goap.Strategy, error) {
	d, err := spec.duration()
	if err != nil {
		return nil, err
	}
	nav := p.env.Navigator
	switch spec.Kind {
	case StrategyInstant:
		return strategy.NewInstant(p.hookFn(spec.Hook)), nil
	case StrategyIdle:
		return strategy.NewIdle(d), nil
	case StrategyMove:
		if spec.Belief != "" {
			b, ok := beliefs[spec.Belief]
			if !ok {
				return nil, fmt.Errorf("unknown belief %q", spec.Belief)
			}
			return strategy.NewMove(nav, b.Location, spec.Arrive), nil
		}
		pos, err := p.position(spec.Location, spec.Position)
		if err != nil {
			return nil, err
		}
		return strategy.NewMove(nav, func() goap.Position { return pos }, spec.Arrive), nil
	case StrategyWander:
		if p.env.Source == nil {
			return nil, errors.New("wander strategy requires a dice source")
		}
		return strategy.NewWander(nav, spec.Radius, p.env.Source), nil
	case StrategyAttack:
		s, ok := p.env.Sensors[spec.Sensor]
		if !ok || s == nil {
			return nil, fmt.Errorf("unknown sensor %q", spec.Sensor)
		}
		hook := p.hookFn(spec.Hook)
		return strategy.NewAttack(strategy.AttackConfig{
			Nav:     nav,
			Windup:  d,
			InRange: s.TargetInRange,
			OnHit: func() {
				p.countHit()
				if hook != nil {
					hook()
				}
			},
		}), nil
	case StrategyChannel:
		pos, err := p.position(spec.Location, spec.Position)
		if err != nil {
			return nil, err
		}
		return strategy.NewChannel(strategy.ChannelConfig{
			Nav:      nav,
			At:       pos,
			Within:   spec.Within,
			Duration: d,
			OnFinish: p.hookFn(spec.Hook),
		}), nil
	case StrategyCast:
		delay, err := spec.delay()
		if err != nil {
			return nil, err
		}
		cfg := strategy.CastConfig{Nav: nav, Duration: d, Delay: delay}
		if spec.Sensor != "" {
			s, ok := p.env.Sensors[spec.Sensor]
			if !ok || s == nil {
				return nil, fmt.Errorf("unknown sensor %q", spec.Sensor)
			}
			cfg.Target = s.TargetPosition
		}
		if spec.Hook != "" {
			hook := spec.Hook
			cfg.OnCast = func(at goap.Position) {
				p.call(hook, lua.LNumber(at.X), lua.LNumber(at.Y), lua.LNumber(at.Z))
			}
		}
		return strategy.NewCast(cfg), nil
	case StrategyDrop:
		body, ok := nav.(strategy.Placer)
		if !ok {
			return nil, errors.New("drop strategy requires a navigator that can be placed")
		}
		pos, err := p.position(spec.Location, spec.Position)
		if err != nil {
			return nil, err
		}
		return strategy.NewDrop(body, pos, spec.Speed, spec.Within), nil
	}
	return nil, fmt.Errorf("unknown strategy kind %q", spec.Kind)
}

// ProvideGoals builds every declared goal, enabled.
//
// Precondition: beliefs must come from ProvideBeliefs.
func (p *Provider) ProvideGoals(beliefs map[string]*goap.Belief) ([]*goap.Goal, error) {
	out := make([]*goap.Goal, 0, len(p.doc.Goals))
	for _, spec := range p.doc.Goals {
		desired, err := lookup(beliefs, spec.Desired)
		if err != nil {
			return nil, fmt.Errorf("goal %q: %w", spec.Name, err)
		}
		g, err := goap.NewGoal(goap.GoalConfig{Name: spec.Name, Priority: spec.Priority, DesiredEffects: desired})
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (p *Provider) position(name string, inline *goap.Position) (goap.Position, error) {
	if inline != nil {
		return *inline, nil
	}
	pos, ok := p.env.Locations[name]
	if !ok {
		return goap.Position{}, fmt.Errorf("unknown location %q", name)
	}
	return pos, nil
}

// hookFn returns a func calling hook, or nil when hook is empty.
func (p *Provider) hookFn(hook string) func() {
	if hook == "" {
		return nil
	}
	return func() { p.call(hook) }
}

func (p *Provider) call(hook string, args ...lua.LValue) lua.LValue {
	if p.env.Scripts == nil {
		p.logger.Warn("behavior: no script caller", zap.String("hook", hook))
		return lua.LNil
	}
	v, err := p.env.Scripts.CallHook(p.env.Scope, hook, args...)
	if err != nil {
		p.logger.Warn("behavior: hook failed", zap.String("hook", hook), zap.Error(err))
		return lua.LNil
	}
	return v
}

func (p *Provider) countHit() {
	if p.env.Facts == nil {
		return
	}
	v, _ := p.env.Facts.Fact(FactHits)
	n, _ := v.(float64)
	p.env.Facts.SetFact(FactHits, n+1)
}

func lookup(beliefs map[string]*goap.Belief, names []string) ([]*goap.Belief, error) {
	out := make([]*goap.Belief, 0, len(names))
	for _, n := range names {
		b, ok := beliefs[n]
		if !ok {
			return nil, fmt.Errorf("unknown belief %q", n)
		}
		out = append(out, b)
	}
	return out, nil
}

// truthy reports whether a fact value counts as true: a true bool, a non-zero
// number, or a non-empty string.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		return t != ""
	}
	return false
}
