package sim

import (
	"math"
	"time"

	"github.com/cory-johannsen/goap/internal/goap"
)

// Body is a kinematic agent body moving in straight lines at a fixed speed
// inside a square arena. It implements goap.Navigator.
//
// A path requested by SetDestination stays pending until the next Step.
type Body struct {
	pos     goap.Position
	dest    goap.Position
	speed   float64
	bounds  float64
	hasPath bool
	pending bool
}

// NewBody returns a Body at start moving at speed units per second within
// [-bounds, bounds] on X and Y.
//
// Precondition: speed > 0 and bounds > 0.
func NewBody(start goap.Position, speed, bounds float64) *Body {
	if speed <= 0 || bounds <= 0 {
		panic("sim.NewBody: speed and bounds must be > 0")
	}
	return &Body{pos: start, speed: speed, bounds: bounds}
}

func (b *Body) Position() goap.Position { return b.pos }
func (b *Body) HasPath() bool           { return b.hasPath }
func (b *Body) PathPending() bool       { return b.pending }

// RemainingDistance is the straight-line distance to the destination, or 0
// without a path.
func (b *Body) RemainingDistance() float64 {
	if !b.hasPath {
		return 0
	}
	return b.pos.Distance(b.dest)
}

// SetDestination starts a path to p. Points outside the arena are unreachable.
func (b *Body) SetDestination(p goap.Position) bool {
	if math.Abs(p.X) > b.bounds || math.Abs(p.Y) > b.bounds {
		return false
	}
	b.dest = p
	b.hasPath = true
	b.pending = true
	return true
}

// Place puts the body at p directly, bypassing path finding. Any path is kept.
func (b *Body) Place(p goap.Position) { b.pos = p }

func (b *Body) ResetPath() {
	b.hasPath = false
	b.pending = false
}

// Step moves the body toward its destination for dt. Arrival clears the path.
func (b *Body) Step(dt time.Duration) {
	if !b.hasPath {
		return
	}
	if b.pending {
		b.pending = false
		return
	}
	b.pos = b.pos.MoveToward(b.dest, b.speed*dt.Seconds())
	if b.pos == b.dest {
		b.hasPath = false
	}
}

var _ goap.Navigator = (*Body)(nil)
