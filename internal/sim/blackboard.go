package sim

import (
	"sort"
	"sync"
)

// Blackboard is a concurrency-safe fact store. Values are bool, float64, or
// string. It satisfies scripting.Facts.
type Blackboard struct {
	mu    sync.RWMutex
	facts map[string]any
}

// NewBlackboard returns an empty Blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{facts: make(map[string]any)}
}

// Fact returns the value stored under name.
func (b *Blackboard) Fact(name string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.facts[name]
	return v, ok
}

// SetFact stores value under name; a nil value deletes the fact.
func (b *Blackboard) SetFact(name string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if value == nil {
		delete(b.facts, name)
		return
	}
	b.facts[name] = value
}

// Bool returns the named fact as a bool; false when absent or not a bool.
func (b *Blackboard) Bool(name string) bool {
	v, _ := b.Fact(name)
	x, _ := v.(bool)
	return x
}

// Number returns the named fact as a float64; 0 when absent or not a number.
func (b *Blackboard) Number(name string) float64 {
	v, _ := b.Fact(name)
	x, _ := v.(float64)
	return x
}

// Add increments a numeric fact by delta and returns the new value.
func (b *Blackboard) Add(name string, delta float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	x, _ := b.facts[name].(float64)
	x += delta
	b.facts[name] = x
	return x
}

// Names returns the stored fact names, sorted.
func (b *Blackboard) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.facts))
	for k := range b.facts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
