// Package sim is a minimal headless world for running agents without a game
// engine: a kinematic body, a wandering target, range sensors, and a fact
// blackboard with periodic health drift.
package sim

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/dice"
	"github.com/cory-johannsen/goap/internal/goap"
	"github.com/cory-johannsen/goap/internal/strategy"
)

// Fact names maintained by World.
const (
	FactHealth = "health"
	FactHits   = "hits"
)

// Health bounds and drift steps.
const (
	MaxHealth   = 75.0
	RestGain    = 20.0
	ExposedLoss = 10.0
)

// Sensor names registered by World.
const (
	SensorChase  = "chase"
	SensorAttack = "attack"
)

// Location names registered by World.
const (
	LocationRest   = "rest"
	LocationHiding = "hiding"
)

// WorldConfig configures a World. Zero fields take the defaults noted.
type WorldConfig struct {
	// Bounds is the arena half-extent (default 50).
	Bounds float64
	// BodySpeed in units per second (default 5).
	BodySpeed float64
	// TargetSpeed in units per second (default 2).
	TargetSpeed float64
	// ChaseRadius and AttackRadius size the two sensors (defaults 20 and 3).
	ChaseRadius  float64
	AttackRadius float64
	// RestRadius is how close to the rest location counts as resting (default 3).
	RestRadius float64
	Rest       goap.Position
	Hiding     goap.Position
	// StatsInterval is the health drift period (default 2s).
	StatsInterval time.Duration
	// Source drives the target's walk; required.
	Source dice.Source
}

func (c *WorldConfig) applyDefaults() {
	def := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	def(&c.Bounds, 50)
	def(&c.BodySpeed, 5)
	def(&c.TargetSpeed, 2)
	def(&c.ChaseRadius, 20)
	def(&c.AttackRadius, 3)
	def(&c.RestRadius, 3)
	if c.StatsInterval <= 0 {
		c.StatsInterval = 2 * time.Second
	}
}

// World owns one agent's surroundings. It is stepped by the scheduler before
// the agent ticks and is not safe for concurrent Step calls.
type World struct {
	cfg     WorldConfig
	facts   *Blackboard
	body    *Body
	target  *Target
	sensors map[string]*RangeSensor
	stats   *strategy.CountdownTimer
	logger  *zap.Logger
}

// NewWorld builds a World with the body at the origin and full health.
//
// Precondition: cfg.Source and logger must not be nil.
func NewWorld(cfg WorldConfig, logger *zap.Logger) *World {
	if cfg.Source == nil || logger == nil {
		panic("sim.NewWorld: Source and logger must not be nil")
	}
	cfg.applyDefaults()
	body := NewBody(goap.Position{}, cfg.BodySpeed, cfg.Bounds)
	target := NewTarget(goap.Position{X: cfg.Bounds / 2, Y: cfg.Bounds / 2}, cfg.TargetSpeed, cfg.Bounds, cfg.Source)
	w := &World{
		cfg:    cfg,
		facts:  NewBlackboard(),
		body:   body,
		target: target,
		sensors: map[string]*RangeSensor{
			SensorChase:  NewRangeSensor(SensorChase, cfg.ChaseRadius, body, target),
			SensorAttack: NewRangeSensor(SensorAttack, cfg.AttackRadius, body, target),
		},
		stats:  strategy.NewCountdownTimer(cfg.StatsInterval),
		logger: logger,
	}
	w.facts.SetFact(FactHealth, MaxHealth)
	w.facts.SetFact(FactHits, 0.0)
	w.stats.Start()
	return w
}

func (w *World) Facts() *Blackboard { return w.facts }
func (w *World) Body() *Body        { return w.body }
func (w *World) Target() *Target    { return w.target }

// Sensors returns the named sensors as goap.Sensor values.
func (w *World) Sensors() map[string]goap.Sensor {
	out := make(map[string]goap.Sensor, len(w.sensors))
	for k, v := range w.sensors {
		out[k] = v
	}
	return out
}

// Sensor returns a sensor by name.
func (w *World) Sensor(name string) (*RangeSensor, bool) {
	s, ok := w.sensors[name]
	return s, ok
}

// Locations returns the named points of interest.
func (w *World) Locations() map[string]goap.Position {
	return map[string]goap.Position{
		LocationRest:   w.cfg.Rest,
		LocationHiding: w.cfg.Hiding,
	}
}

// Health returns the current health fact.
func (w *World) Health() float64 { return w.facts.Number(FactHealth) }

// Step advances motion, re-measures the sensors (firing change callbacks),
// and applies health drift when the stats timer lapses.
func (w *World) Step(dt time.Duration) {
	w.body.Step(dt)
	w.target.Step(dt)
	for _, name := range []string{SensorChase, SensorAttack} {
		if w.sensors[name].Update() {
			w.logger.Debug("sim: sensor changed",
				zap.String("sensor", name),
				zap.Bool("in_range", w.sensors[name].TargetInRange()),
			)
		}
	}
	w.stats.Tick(dt)
	if w.stats.Finished() {
		w.driftHealth()
		w.stats.Start()
	}
}

// driftHealth heals at the rest location and drains elsewhere.
func (w *World) driftHealth() {
	delta := -ExposedLoss
	if w.body.Position().Distance(w.cfg.Rest) <= w.cfg.RestRadius {
		delta = RestGain
	}
	h := math.Max(0, math.Min(MaxHealth, w.Health()+delta))
	w.facts.SetFact(FactHealth, h)
}
