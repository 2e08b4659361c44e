package strategy

import (
	"time"

	"github.com/cory-johannsen/goap/internal/goap"
)

// ChannelConfig configures a Channel strategy.
type ChannelConfig struct {
	// Nav moves the agent to At before channelling begins.
	Nav goap.Navigator
	// At is where the channel must be performed.
	At goap.Position
	// Within is how close to At the agent must be; <= 0 uses DefaultArriveDistance.
	Within float64
	// Duration of the timed phase once in position.
	Duration time.Duration
	// OnBegin is called when the timed phase starts. May be nil.
	OnBegin func()
	// OnFinish is called once when the timed phase completes. May be nil.
	OnFinish func()
}

// Channel first transitions to a location, then runs a timed phase there.
type Channel struct {
	cfg           ChannelConfig
	timer         *CountdownTimer
	transitioning bool
	pathSet       bool
	complete      bool
}

// NewChannel returns a Channel strategy.
//
// Precondition: cfg.Nav must not be nil.
func NewChannel(cfg ChannelConfig) *Channel {
	if cfg.Nav == nil {
		panic("strategy.NewChannel: Nav must not be nil")
	}
	if cfg.Within <= 0 {
		cfg.Within = DefaultArriveDistance
	}
	return &Channel{cfg: cfg, timer: NewCountdownTimer(cfg.Duration)}
}

func (s *Channel) CanPerform() bool { return true }
func (s *Channel) Complete() bool   { return s.complete }

// Transitioning reports whether the agent is still moving into position.
func (s *Channel) Transitioning() bool { return s.transitioning }

// Timer exposes the timed phase for progress display.
func (s *Channel) Timer() *CountdownTimer { return s.timer }

func (s *Channel) inPosition() bool {
	return s.cfg.Nav.Position().Distance(s.cfg.At) <= s.cfg.Within
}

func (s *Channel) Start() {
	s.complete = false
	s.transitioning = false
	s.timer.Stop()
	if s.inPosition() {
		s.begin()
		return
	}
	s.transitioning = true
	s.pathSet = s.cfg.Nav.SetDestination(s.cfg.At)
}

func (s *Channel) begin() {
	s.timer.Start()
	if s.cfg.OnBegin != nil {
		s.cfg.OnBegin()
	}
}

func (s *Channel) Update(dt time.Duration) {
	if s.complete {
		return
	}
	if s.transitioning {
		if !s.inPosition() {
			return
		}
		s.transitioning = false
		s.clearPath()
		s.begin()
		return
	}
	s.timer.Tick(dt)
	if s.timer.Finished() {
		s.complete = true
		if s.cfg.OnFinish != nil {
			s.cfg.OnFinish()
		}
	}
}

func (s *Channel) clearPath() {
	if s.pathSet {
		s.cfg.Nav.ResetPath()
		s.pathSet = false
	}
}

// Stop halts the timed phase and clears any path this run set.
func (s *Channel) Stop() {
	s.timer.Stop()
	s.transitioning = false
	s.clearPath()
}

var _ goap.Strategy = (*Channel)(nil)
