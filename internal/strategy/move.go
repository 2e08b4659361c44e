package strategy

import (
	"math"
	"time"

	"github.com/cory-johannsen/goap/internal/dice"
	"github.com/cory-johannsen/goap/internal/goap"
)

// DefaultArriveDistance is the remaining-distance threshold treated as arrival.
const DefaultArriveDistance = 2.0

// wanderAttempts bounds how many random destinations Wander tries per run.
const wanderAttempts = 5

// arrived reports whether nav has settled within arrive of its destination.
func arrived(nav goap.Navigator, arrive float64) bool {
	return !nav.PathPending() && nav.RemainingDistance() <= arrive
}

// Move walks the navigator to a destination resolved at Start.
type Move struct {
	nav         goap.Navigator
	destination func() goap.Position
	arrive      float64
	pathSet     bool
}

// NewMove returns a Move strategy. arrive <= 0 uses DefaultArriveDistance.
//
// Precondition: nav and destination must not be nil.
func NewMove(nav goap.Navigator, destination func() goap.Position, arrive float64) *Move {
	if nav == nil || destination == nil {
		panic("strategy.NewMove: nav and destination must not be nil")
	}
	if arrive <= 0 {
		arrive = DefaultArriveDistance
	}
	return &Move{nav: nav, destination: destination, arrive: arrive}
}

func (s *Move) CanPerform() bool     { return !s.Complete() }
func (s *Move) Complete() bool       { return arrived(s.nav, s.arrive) }
func (s *Move) Update(time.Duration) {}

func (s *Move) Start() {
	s.pathSet = s.nav.SetDestination(s.destination())
}

// Stop clears the path this run set, once.
func (s *Move) Stop() {
	if s.pathSet {
		s.nav.ResetPath()
		s.pathSet = false
	}
}

// Wander walks the navigator to a random reachable point within radius.
type Wander struct {
	nav     goap.Navigator
	radius  float64
	arrive  float64
	src     dice.Source
	pathSet bool
}

// NewWander returns a Wander strategy.
//
// Precondition: nav and src must not be nil; radius > 0.
func NewWander(nav goap.Navigator, radius float64, src dice.Source) *Wander {
	if nav == nil || src == nil {
		panic("strategy.NewWander: nav and src must not be nil")
	}
	if radius <= 0 {
		panic("strategy.NewWander: radius must be > 0")
	}
	return &Wander{nav: nav, radius: radius, arrive: DefaultArriveDistance, src: src}
}

func (s *Wander) CanPerform() bool     { return !s.Complete() }
func (s *Wander) Complete() bool       { return arrived(s.nav, s.arrive) }
func (s *Wander) Update(time.Duration) {}

func (s *Wander) Start() {
	s.pathSet = false
	origin := s.nav.Position()
	for i := 0; i < wanderAttempts; i++ {
		heading := dice.Fraction(s.src) * 2 * math.Pi
		dist := dice.Fraction(s.src) * s.radius
		p := goap.Position{
			X: origin.X + dist*math.Cos(heading),
			Y: origin.Y + dist*math.Sin(heading),
			Z: origin.Z,
		}
		if s.nav.SetDestination(p) {
			s.pathSet = true
			return
		}
	}
}

func (s *Wander) Stop() {
	if s.pathSet {
		s.nav.ResetPath()
		s.pathSet = false
	}
}

var (
	_ goap.Strategy = (*Move)(nil)
	_ goap.Strategy = (*Wander)(nil)
)
