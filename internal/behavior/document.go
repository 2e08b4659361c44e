// Package behavior loads declarative agent behaviors from YAML and resolves
// them into goap beliefs, actions, and goals.
//
// Belief conditions may be Lua hooks; strategies bind to the agent's
// navigator, sensors, and fact blackboard.
package behavior

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/goap/internal/goap"
)

// Belief kinds.
const (
	BeliefConstant = "constant"
	BeliefScript   = "script"
	BeliefSensor   = "sensor"
	BeliefLocation = "location"
	BeliefFact     = "fact"
	BeliefExpr     = "expr"
	BeliefMoving   = "moving"
	BeliefIdle     = "idle"
)

// Strategy kinds.
const (
	StrategyInstant = "instant"
	StrategyIdle    = "idle"
	StrategyMove    = "move"
	StrategyWander  = "wander"
	StrategyAttack  = "attack"
	StrategyChannel = "channel"
	StrategyCast    = "cast"
	StrategyDrop    = "drop"
)

// BeliefSpec declares one belief.
//
// Precondition: Name and Kind must be non-empty.
type BeliefSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	// Value is the truth value of a constant belief.
	Value bool `yaml:"value"`
	// Hook is the Lua function evaluated by a script belief.
	Hook string `yaml:"hook"`
	// Sensor names the sensor backing a sensor belief.
	Sensor string `yaml:"sensor"`
	// Fact names the blackboard entry read by a fact belief.
	Fact string `yaml:"fact"`
	// Expr is a boolean expression over fact names, e.g. "health < 35".
	Expr string `yaml:"expr"`
	// Location names a registered location; Position gives one inline.
	Location string         `yaml:"location"`
	Position *goap.Position `yaml:"position"`
	Radius   float64        `yaml:"radius"`
}

// StrategySpec declares how an action is carried out.
//
// Precondition: Kind must be non-empty.
type StrategySpec struct {
	Kind string `yaml:"kind"`
	// Duration is a Go duration string ("5s", "750ms").
	Duration string `yaml:"duration"`
	// Delay is when a cast fires within Duration.
	Delay string `yaml:"delay"`
	// Destination for move, channel, and drop: a named location, an inline
	// position, or (move only) the live location of a belief.
	Location string         `yaml:"location"`
	Position *goap.Position `yaml:"position"`
	Belief   string         `yaml:"belief"`
	Arrive   float64        `yaml:"arrive"`
	Within   float64        `yaml:"within"`
	Radius   float64        `yaml:"radius"`
	Sensor   string         `yaml:"sensor"`
	// Speed is the drop approach speed.
	Speed float64 `yaml:"speed"`
	// Hook is called on completion (instant, channel), on hit (attack), or
	// when the cast fires (cast).
	Hook string `yaml:"hook"`
}

// ActionSpec declares one action.
//
// Precondition: Name must be non-empty; Cost, when present, must be >= 0.
type ActionSpec struct {
	Name string `yaml:"name"`
	// Cost defaults to goap.DefaultActionCost when omitted.
	Cost          *float64     `yaml:"cost"`
	Preconditions []string     `yaml:"preconditions"`
	Effects       []string     `yaml:"effects"`
	Strategy      StrategySpec `yaml:"strategy"`
}

// GoalSpec declares one goal.
//
// Precondition: Name must be non-empty; Desired must not be empty.
type GoalSpec struct {
	Name     string   `yaml:"name"`
	Priority float64  `yaml:"priority"`
	Desired  []string `yaml:"desired"`
}

// Document is a complete agent behavior.
//
// Invariant: belief, action, and goal names are unique within their slice.
type Document struct {
	ID          string        `yaml:"id"`
	Description string        `yaml:"description"`
	Beliefs     []*BeliefSpec `yaml:"beliefs"`
	Actions     []*ActionSpec `yaml:"actions"`
	Goals       []*GoalSpec   `yaml:"goals"`
}

// Validate checks required fields, kinds, durations, and belief references.
//
// Postcondition: nil return guarantees every action and goal refers only to
// declared beliefs and every strategy can be built from its fields.
func (d *Document) Validate() error {
	if d.ID == "" {
		return errors.New("behavior.Document: ID must not be empty")
	}
	if len(d.Goals) == 0 {
		return fmt.Errorf("behavior.Document %q: must have at least one goal", d.ID)
	}

	beliefs := make(map[string]*BeliefSpec, len(d.Beliefs))
	for _, b := range d.Beliefs {
		if b == nil || b.Name == "" {
			return fmt.Errorf("behavior.Document %q: belief has empty name", d.ID)
		}
		if _, dup := beliefs[b.Name]; dup {
			return fmt.Errorf("behavior.Document %q: duplicate belief %q", d.ID, b.Name)
		}
		beliefs[b.Name] = b
		if err := b.validate(); err != nil {
			return fmt.Errorf("behavior.Document %q belief %q: %w", d.ID, b.Name, err)
		}
	}

	actions := make(map[string]struct{}, len(d.Actions))
	for _, a := range d.Actions {
		if a == nil || a.Name == "" {
			return fmt.Errorf("behavior.Document %q: action has empty name", d.ID)
		}
		if _, dup := actions[a.Name]; dup {
			return fmt.Errorf("behavior.Document %q: duplicate action %q", d.ID, a.Name)
		}
		actions[a.Name] = struct{}{}
		if a.Cost != nil && *a.Cost < 0 {
			return fmt.Errorf("behavior.Document %q action %q: cost must be >= 0, got %v", d.ID, a.Name, *a.Cost)
		}
		for _, ref := range append(append([]string(nil), a.Preconditions...), a.Effects...) {
			if _, ok := beliefs[ref]; !ok {
				return fmt.Errorf("behavior.Document %q action %q: unknown belief %q", d.ID, a.Name, ref)
			}
		}
		if err := a.Strategy.validate(beliefs); err != nil {
			return fmt.Errorf("behavior.Document %q action %q: %w", d.ID, a.Name, err)
		}
	}

	goals := make(map[string]struct{}, len(d.Goals))
	for _, g := range d.Goals {
		if g == nil || g.Name == "" {
			return fmt.Errorf("behavior.Document %q: goal has empty name", d.ID)
		}
		if _, dup := goals[g.Name]; dup {
			return fmt.Errorf("behavior.Document %q: duplicate goal %q", d.ID, g.Name)
		}
		goals[g.Name] = struct{}{}
		if len(g.Desired) == 0 {
			return fmt.Errorf("behavior.Document %q goal %q: desired must not be empty", d.ID, g.Name)
		}
		for _, ref := range g.Desired {
			if _, ok := beliefs[ref]; !ok {
				return fmt.Errorf("behavior.Document %q goal %q: unknown belief %q", d.ID, g.Name, ref)
			}
		}
	}
	return nil
}

func (b *BeliefSpec) validate() error {
	switch b.Kind {
	case BeliefConstant, BeliefMoving, BeliefIdle:
		return nil
	case BeliefScript:
		if b.Hook == "" {
			return errors.New("script belief requires hook")
		}
	case BeliefSensor:
		if b.Sensor == "" {
			return errors.New("sensor belief requires sensor")
		}
	case BeliefFact:
		if b.Fact == "" {
			return errors.New("fact belief requires fact")
		}
	case BeliefExpr:
		if b.Expr == "" {
			return errors.New("expr belief requires expr")
		}
		if _, err := compileCondition(b.Expr); err != nil {
			return err
		}
	case BeliefLocation:
		if (b.Location == "") == (b.Position == nil) {
			return errors.New("location belief requires exactly one of location or position")
		}
		if b.Radius <= 0 {
			return fmt.Errorf("location belief radius must be > 0, got %v", b.Radius)
		}
	default:
		return fmt.Errorf("unknown belief kind %q", b.Kind)
	}
	return nil
}

func (s *StrategySpec) validate(beliefs map[string]*BeliefSpec) error {
	if _, err := s.duration(); err != nil {
		return err
	}
	switch s.Kind {
	case StrategyInstant, StrategyIdle:
		return nil
	case StrategyMove:
		set := 0
		for _, v := range []bool{s.Location != "", s.Position != nil, s.Belief != ""} {
			if v {
				set++
			}
		}
		if set != 1 {
			return errors.New("move strategy requires exactly one of location, position, or belief")
		}
		if s.Belief != "" {
			if _, ok := beliefs[s.Belief]; !ok {
				return fmt.Errorf("move strategy: unknown belief %q", s.Belief)
			}
		}
	case StrategyWander:
		if s.Radius <= 0 {
			return fmt.Errorf("wander strategy radius must be > 0, got %v", s.Radius)
		}
	case StrategyAttack:
		if s.Sensor == "" {
			return errors.New("attack strategy requires sensor")
		}
	case StrategyChannel:
		if (s.Location == "") == (s.Position == nil) {
			return errors.New("channel strategy requires exactly one of location or position")
		}
	case StrategyCast:
		if _, err := s.delay(); err != nil {
			return err
		}
	case StrategyDrop:
		if (s.Location == "") == (s.Position == nil) {
			return errors.New("drop strategy requires exactly one of location or position")
		}
		if s.Speed < 0 {
			return fmt.Errorf("drop strategy speed must be >= 0, got %v", s.Speed)
		}
	case "":
		return errors.New("strategy kind must not be empty")
	default:
		return fmt.Errorf("unknown strategy kind %q", s.Kind)
	}
	return nil
}

// duration parses Duration; empty is zero.
func (s *StrategySpec) duration() (time.Duration, error) {
	if s.Duration == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Duration)
	if err != nil {
		return 0, fmt.Errorf("strategy duration: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("strategy duration must be >= 0, got %v", d)
	}
	return d, nil
}

// delay parses Delay; empty is zero.
func (s *StrategySpec) delay() (time.Duration, error) {
	if s.Delay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Delay)
	if err != nil {
		return 0, fmt.Errorf("strategy delay: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("strategy delay must be >= 0, got %v", d)
	}
	return d, nil
}

// yamlDocumentFile wraps the YAML top-level key.
type yamlDocumentFile struct {
	Behavior *Document `yaml:"behavior"`
}

// Parse decodes and validates a single behavior file body.
func Parse(data []byte) (*Document, error) {
	var f yamlDocumentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("behavior.Parse: %w", err)
	}
	if f.Behavior == nil {
		return nil, errors.New("behavior.Parse: missing top-level 'behavior' key")
	}
	if err := f.Behavior.Validate(); err != nil {
		return nil, err
	}
	return f.Behavior, nil
}

// LoadDocuments reads all *.yaml files from dir and returns parsed Documents
// keyed by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns error if any file fails to parse or validate, or if
// two files declare the same ID.
func LoadDocuments(dir string) (map[string]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("behavior.LoadDocuments: reading %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make(map[string]*Document, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("behavior.LoadDocuments: reading %s: %w", name, err)
		}
		doc, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("behavior.LoadDocuments: %s: %w", name, err)
		}
		if _, dup := docs[doc.ID]; dup {
			return nil, fmt.Errorf("behavior.LoadDocuments: %s: duplicate behavior ID %q", name, doc.ID)
		}
		docs[doc.ID] = doc
	}
	return docs, nil
}
