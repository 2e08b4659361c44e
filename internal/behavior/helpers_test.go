package behavior_test

import (
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/goap/internal/goap"
)

type fakeNav struct {
	pos      goap.Position
	dest     goap.Position
	hasPath  bool
	sets     int
	resets   int
	distance float64
}

func (n *fakeNav) Position() goap.Position    { return n.pos }
func (n *fakeNav) HasPath() bool              { return n.hasPath }
func (n *fakeNav) RemainingDistance() float64 { return n.distance }
func (n *fakeNav) PathPending() bool          { return false }
func (n *fakeNav) SetDestination(p goap.Position) bool {
	n.dest, n.hasPath = p, true
	n.sets++
	return true
}
func (n *fakeNav) ResetPath()            { n.hasPath = false; n.resets++ }
func (n *fakeNav) Place(p goap.Position) { n.pos = p }

type fakeSensor struct {
	in  bool
	pos goap.Position
}

func (s *fakeSensor) TargetInRange() bool                    { return s.in }
func (s *fakeSensor) TargetPosition() goap.Position          { return s.pos }
func (s *fakeSensor) OnTargetChanged(func()) (cancel func()) { return func() {} }

// fakeScripts answers hooks from a fixed table and records every call.
type fakeScripts struct {
	results map[string]lua.LValue
	calls   []string
	args    [][]lua.LValue
}

func (f *fakeScripts) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	f.calls = append(f.calls, scope+"/"+hook)
	f.args = append(f.args, args)
	if v, ok := f.results[hook]; ok {
		return v, nil
	}
	return lua.LNil, nil
}

type mapFacts map[string]any

func (m mapFacts) Fact(name string) (any, bool) { v, ok := m[name]; return v, ok }
func (m mapFacts) SetFact(name string, v any)   { m[name] = v }

func (m mapFacts) Names() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type fixedSource int

func (s fixedSource) Intn(n int) int { return int(s) % n }
