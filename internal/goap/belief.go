package goap

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Position is a point in the agent's world. The zero Position is the sentinel
// location reported by beliefs that carry no observed location.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Distance returns the Euclidean distance between p and q.
func (p Position) Distance(q Position) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// MoveToward returns the point at most step along the line from p to q.
func (p Position) MoveToward(q Position, step float64) Position {
	d := p.Distance(q)
	if d <= step || d == 0 {
		return q
	}
	f := step / d
	return Position{
		X: p.X + (q.X-p.X)*f,
		Y: p.Y + (q.Y-p.Y)*f,
		Z: p.Z + (q.Z-p.Z)*f,
	}
}

// BeliefConfig describes a Belief at construction time.
//
// Precondition: Name must be non-empty; Condition must be non-nil.
type BeliefConfig struct {
	Name string
	// Condition is re-evaluated on every call to Evaluate; its result is never cached.
	Condition func() bool
	// Location is optional; nil reports the zero Position.
	Location func() Position
	// BackedBy names the external collaborator whose live state Condition reads,
	// e.g. "sensor:chase". Empty means the belief owns no shared state.
	BackedBy string
}

// Belief is a named, live-evaluated predicate over world state.
//
// Invariant: a Belief is immutable after construction.
type Belief struct {
	name      string
	condition func() bool
	location  func() Position
	backedBy  string
}

// NewBelief constructs a Belief from cfg.
//
// Postcondition: returns a non-nil Belief or an error naming the missing field.
func NewBelief(cfg BeliefConfig) (*Belief, error) {
	if cfg.Name == "" {
		return nil, errors.New("goap.NewBelief: name must not be empty")
	}
	if cfg.Condition == nil {
		return nil, fmt.Errorf("goap.NewBelief %q: condition must not be nil", cfg.Name)
	}
	return &Belief{
		name:      cfg.Name,
		condition: cfg.Condition,
		location:  cfg.Location,
		backedBy:  cfg.BackedBy,
	}, nil
}

// MustBelief is NewBelief that panics on error. Useful when wiring fixed content.
func MustBelief(cfg BeliefConfig) *Belief {
	b, err := NewBelief(cfg)
	if err != nil {
		panic(err)
	}
	return b
}

// Name returns the belief's unique name.
func (b *Belief) Name() string { return b.name }

// BackedBy returns the collaborator label the belief reads through, if any.
func (b *Belief) BackedBy() string { return b.backedBy }

// Evaluate returns the current truth value of the belief.
func (b *Belief) Evaluate() bool { return b.condition() }

// Location returns the observed location, or the zero Position.
func (b *Belief) Location() Position {
	if b.location == nil {
		return Position{}
	}
	return b.location()
}

func (b *Belief) String() string { return b.name }

// ConstantBelief returns a belief that always evaluates to value.
func ConstantBelief(name string, value bool) *Belief {
	return MustBelief(BeliefConfig{Name: name, Condition: func() bool { return value }})
}

// SensorBelief returns a belief that is true while sensor reports its target in
// range, located at the sensor's target position.
//
// Precondition: sensor must not be nil.
func SensorBelief(name, label string, sensor Sensor) *Belief {
	if sensor == nil {
		panic("goap.SensorBelief: sensor must not be nil")
	}
	return MustBelief(BeliefConfig{
		Name:      name,
		Condition: sensor.TargetInRange,
		Location:  sensor.TargetPosition,
		BackedBy:  "sensor:" + label,
	})
}

// LocationBelief returns a belief that is true while the navigator's position
// lies strictly within radius of target.
//
// Precondition: nav must not be nil.
func LocationBelief(name string, nav Navigator, target Position, radius float64) *Belief {
	if nav == nil {
		panic("goap.LocationBelief: nav must not be nil")
	}
	return MustBelief(BeliefConfig{
		Name:      name,
		Condition: func() bool { return nav.Position().Distance(target) < radius },
		Location:  func() Position { return target },
		BackedBy:  "navigator",
	})
}

// beliefSet is a set of beliefs keyed by name and kept sorted by name so that
// iteration and set keys are deterministic.
type beliefSet []*Belief

func newBeliefSet(beliefs ...*Belief) beliefSet {
	var s beliefSet
	for _, b := range beliefs {
		if b != nil {
			s = s.with(b)
		}
	}
	return s
}

func (s beliefSet) index(name string) (int, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i].name >= name })
	return i, i < len(s) && s[i].name == name
}

func (s beliefSet) contains(b *Belief) bool {
	_, ok := s.index(b.name)
	return ok
}

// with returns s plus b. s is not modified.
func (s beliefSet) with(b *Belief) beliefSet {
	i, ok := s.index(b.name)
	if ok {
		return s
	}
	out := make(beliefSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, b)
	return append(out, s[i:]...)
}

func (s beliefSet) union(o beliefSet) beliefSet {
	out := s
	for _, b := range o {
		out = out.with(b)
	}
	return out
}

func (s beliefSet) minus(o beliefSet) beliefSet {
	out := make(beliefSet, 0, len(s))
	for _, b := range s {
		if !o.contains(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s beliefSet) intersects(o beliefSet) bool {
	for _, b := range o {
		if s.contains(b) {
			return true
		}
	}
	return false
}

// unmet returns the members of s that currently evaluate false.
func (s beliefSet) unmet() beliefSet {
	out := make(beliefSet, 0, len(s))
	for _, b := range s {
		if !b.Evaluate() {
			out = append(out, b)
		}
	}
	return out
}

func (s beliefSet) key() string {
	names := make([]string, len(s))
	for i, b := range s {
		names[i] = b.name
	}
	return strings.Join(names, "\x00")
}

func (s beliefSet) slice() []*Belief {
	out := make([]*Belief, len(s))
	copy(out, s)
	return out
}
