package strategy

import (
	"time"

	"github.com/cory-johannsen/goap/internal/goap"
)

// AttackConfig configures an Attack strategy.
//
// Precondition: InRange must not be nil.
type AttackConfig struct {
	// Nav, when set, has its path cleared on Start so the attacker holds
	// still for the windup.
	Nav goap.Navigator
	// Windup is how long the target must stay in range before the hit lands.
	Windup time.Duration
	// InRange reports whether the target is still attackable.
	InRange func() bool
	// OnHit is called once when the windup completes. May be nil.
	OnHit func()
}

// Attack winds up for a fixed duration and lands a hit, aborting if the
// target leaves range first. An aborted attack completes without effects.
type Attack struct {
	cfg      AttackConfig
	timer    *CountdownTimer
	complete bool
	aborted  bool
}

// NewAttack returns an Attack strategy.
func NewAttack(cfg AttackConfig) *Attack {
	if cfg.InRange == nil {
		panic("strategy.NewAttack: InRange must not be nil")
	}
	return &Attack{cfg: cfg, timer: NewCountdownTimer(cfg.Windup)}
}

func (s *Attack) CanPerform() bool { return true }
func (s *Attack) Complete() bool   { return s.complete }

// Aborted reports whether the last run ended because the target left range.
func (s *Attack) Aborted() bool { return s.aborted }

func (s *Attack) Start() {
	s.complete = false
	s.aborted = false
	if s.cfg.Nav != nil {
		s.cfg.Nav.ResetPath()
	}
	s.timer.Start()
}

func (s *Attack) Update(dt time.Duration) {
	if s.complete {
		return
	}
	if !s.cfg.InRange() {
		s.timer.Stop()
		s.aborted = true
		s.complete = true
		return
	}
	s.timer.Tick(dt)
	if s.timer.Finished() {
		s.complete = true
		if s.cfg.OnHit != nil {
			s.cfg.OnHit()
		}
	}
}

func (s *Attack) Stop() { s.timer.Stop() }

var (
	_ goap.Strategy = (*Attack)(nil)
	_ goap.Aborter  = (*Attack)(nil)
)
