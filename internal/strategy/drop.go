package strategy

import (
	"time"

	"github.com/cory-johannsen/goap/internal/goap"
)

const (
	// DefaultDropSpeed is the Drop approach speed in units per second.
	DefaultDropSpeed = 7.0
	// DefaultDropWithin is the landing distance for Drop.
	DefaultDropWithin = 0.2
)

// Placer is a body that can be repositioned directly.
type Placer interface {
	Position() goap.Position
	Place(p goap.Position)
}

// Drop moves a body straight toward a point at a fixed speed, ignoring
// navigation, and completes once it is within landing distance.
type Drop struct {
	body     Placer
	to       goap.Position
	speed    float64
	within   float64
	complete bool
}

// NewDrop returns a Drop strategy. speed <= 0 uses DefaultDropSpeed and
// within <= 0 uses DefaultDropWithin.
//
// Precondition: body must not be nil.
func NewDrop(body Placer, to goap.Position, speed, within float64) *Drop {
	if body == nil {
		panic("strategy.NewDrop: body must not be nil")
	}
	if speed <= 0 {
		speed = DefaultDropSpeed
	}
	if within <= 0 {
		within = DefaultDropWithin
	}
	return &Drop{body: body, to: to, speed: speed, within: within}
}

func (s *Drop) CanPerform() bool { return true }
func (s *Drop) Complete() bool   { return s.complete }
func (s *Drop) Start()           { s.complete = false }
func (s *Drop) Stop()            {}

func (s *Drop) Update(dt time.Duration) {
	if s.complete {
		return
	}
	pos := s.body.Position().MoveToward(s.to, s.speed*dt.Seconds())
	s.body.Place(pos)
	if pos.Distance(s.to) < s.within {
		s.complete = true
	}
}

var _ goap.Strategy = (*Drop)(nil)
