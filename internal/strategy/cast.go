package strategy

import (
	"time"

	"github.com/cory-johannsen/goap/internal/goap"
)

// CastConfig configures a Cast strategy.
type CastConfig struct {
	// Nav, when set, has its path cleared on Start so the caster holds still.
	Nav goap.Navigator
	// Duration of the whole cast.
	Duration time.Duration
	// Delay into the cast at which OnCast fires. Values past Duration fire
	// on the final tick.
	Delay time.Duration
	// Target is resolved once per run, on Start. May be nil.
	Target func() goap.Position
	// OnCast is called once per run at Delay with the target captured on
	// Start. May be nil.
	OnCast func(at goap.Position)
	// OnFinish is called once when the cast completes. May be nil.
	OnFinish func()
}

// Cast runs a timed phase with a single delayed effect inside it, e.g. a
// spell released after a windup animation.
type Cast struct {
	cfg      CastConfig
	timer    *CountdownTimer
	elapsed  time.Duration
	target   goap.Position
	fired    bool
	complete bool
}

// NewCast returns a Cast strategy.
//
// Precondition: cfg.Duration and cfg.Delay must be >= 0.
func NewCast(cfg CastConfig) *Cast {
	if cfg.Delay < 0 {
		panic("strategy.NewCast: delay must be >= 0")
	}
	if cfg.Delay > cfg.Duration {
		cfg.Delay = cfg.Duration
	}
	return &Cast{cfg: cfg, timer: NewCountdownTimer(cfg.Duration)}
}

func (s *Cast) CanPerform() bool { return true }
func (s *Cast) Complete() bool   { return s.complete }

// Fired reports whether OnCast has run during the current run.
func (s *Cast) Fired() bool { return s.fired }

// Target returns the position captured on Start.
func (s *Cast) Target() goap.Position { return s.target }

func (s *Cast) Start() {
	s.complete = false
	s.fired = false
	s.elapsed = 0
	s.target = goap.Position{}
	if s.cfg.Target != nil {
		s.target = s.cfg.Target()
	}
	if s.cfg.Nav != nil {
		s.cfg.Nav.ResetPath()
	}
	s.timer.Start()
}

func (s *Cast) Update(dt time.Duration) {
	if s.complete {
		return
	}
	s.timer.Tick(dt)
	s.elapsed += dt
	if !s.fired && s.elapsed >= s.cfg.Delay {
		s.fired = true
		if s.cfg.OnCast != nil {
			s.cfg.OnCast(s.target)
		}
	}
	if s.timer.Finished() {
		s.complete = true
		if s.cfg.OnFinish != nil {
			s.cfg.OnFinish()
		}
	}
}

// Stop halts the cast. A cast that has not fired yet never fires this run.
func (s *Cast) Stop() {
	s.timer.Stop()
	s.complete = true
}

var _ goap.Strategy = (*Cast)(nil)
