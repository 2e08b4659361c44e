package strategy

import (
	"time"

	"github.com/cory-johannsen/goap/internal/goap"
)

// Instant runs fn once on its first update and completes.
type Instant struct {
	fn   func()
	done bool
}

// NewInstant returns an Instant strategy. fn may be nil.
func NewInstant(fn func()) *Instant { return &Instant{fn: fn} }

func (s *Instant) CanPerform() bool { return !s.done }
func (s *Instant) Complete() bool   { return s.done }
func (s *Instant) Start()           { s.done = false }
func (s *Instant) Stop()            {}

func (s *Instant) Update(time.Duration) {
	if s.done {
		return
	}
	if s.fn != nil {
		s.fn()
	}
	s.done = true
}

// Idle waits out a fixed duration.
type Idle struct {
	timer *CountdownTimer
}

// NewIdle returns an Idle strategy lasting d.
func NewIdle(d time.Duration) *Idle { return &Idle{timer: NewCountdownTimer(d)} }

func (s *Idle) CanPerform() bool        { return true }
func (s *Idle) Complete() bool          { return s.timer.Finished() }
func (s *Idle) Start()                  { s.timer.Start() }
func (s *Idle) Update(dt time.Duration) { s.timer.Tick(dt) }
func (s *Idle) Stop()                   { s.timer.Stop() }
func (s *Idle) Timer() *CountdownTimer  { return s.timer }

var (
	_ goap.Strategy = (*Instant)(nil)
	_ goap.Strategy = (*Idle)(nil)
)
