package sim

import (
	"math"
	"time"

	"github.com/cory-johannsen/goap/internal/dice"
	"github.com/cory-johannsen/goap/internal/goap"
)

// Target is a random-walking entity the agent senses and attacks. It picks a
// new heading whenever it reaches its waypoint.
type Target struct {
	pos      goap.Position
	waypoint goap.Position
	speed    float64
	bounds   float64
	src      dice.Source
}

// NewTarget returns a Target at start.
//
// Precondition: src must not be nil; speed >= 0; bounds > 0.
func NewTarget(start goap.Position, speed, bounds float64, src dice.Source) *Target {
	if src == nil {
		panic("sim.NewTarget: src must not be nil")
	}
	t := &Target{pos: start, speed: speed, bounds: bounds, src: src}
	t.waypoint = t.pick()
	return t
}

func (t *Target) Position() goap.Position { return t.pos }

// Teleport moves the target to p, clamped to the arena.
func (t *Target) Teleport(p goap.Position) {
	t.pos = t.clamp(p)
	t.waypoint = t.pos
}

// Step advances the target for dt.
func (t *Target) Step(dt time.Duration) {
	if t.speed == 0 {
		return
	}
	if t.pos == t.waypoint {
		t.waypoint = t.pick()
	}
	t.pos = t.pos.MoveToward(t.waypoint, t.speed*dt.Seconds())
}

func (t *Target) pick() goap.Position {
	return goap.Position{
		X: (dice.Fraction(t.src)*2 - 1) * t.bounds,
		Y: (dice.Fraction(t.src)*2 - 1) * t.bounds,
	}
}

func (t *Target) clamp(p goap.Position) goap.Position {
	p.X = math.Max(-t.bounds, math.Min(t.bounds, p.X))
	p.Y = math.Max(-t.bounds, math.Min(t.bounds, p.Y))
	return p
}
