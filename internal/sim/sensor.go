package sim

import (
	"sync"

	"github.com/cory-johannsen/goap/internal/goap"
)

// RangeSensor tracks whether a Target is within radius of a Body and fires
// change callbacks when the target enters or leaves range. It implements
// goap.Sensor.
type RangeSensor struct {
	name   string
	radius float64
	body   *Body
	target *Target

	inRange bool

	mu        sync.Mutex
	nextID    int
	callbacks map[int]func()
}

// NewRangeSensor returns a sensor of the given radius.
//
// Precondition: body and target must not be nil; radius > 0.
func NewRangeSensor(name string, radius float64, body *Body, target *Target) *RangeSensor {
	if body == nil || target == nil {
		panic("sim.NewRangeSensor: body and target must not be nil")
	}
	if radius <= 0 {
		panic("sim.NewRangeSensor: radius must be > 0")
	}
	return &RangeSensor{name: name, radius: radius, body: body, target: target, callbacks: make(map[int]func())}
}

func (s *RangeSensor) Name() string                  { return s.name }
func (s *RangeSensor) Radius() float64               { return s.radius }
func (s *RangeSensor) TargetInRange() bool           { return s.inRange }
func (s *RangeSensor) TargetPosition() goap.Position { return s.target.Position() }

// OnTargetChanged registers fn and returns a func that unregisters it.
func (s *RangeSensor) OnTargetChanged(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.callbacks[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.callbacks, id)
	}
}

// Update re-measures the target and fires the callbacks when range status
// flips. Callbacks run after the sensor's state is updated.
func (s *RangeSensor) Update() bool {
	now := s.body.Position().Distance(s.target.Position()) <= s.radius
	if now == s.inRange {
		return false
	}
	s.inRange = now

	s.mu.Lock()
	fns := make([]func(), 0, len(s.callbacks))
	for _, fn := range s.callbacks {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return true
}

var _ goap.Sensor = (*RangeSensor)(nil)
