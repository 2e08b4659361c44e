package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/goap/internal/scripting"
)

type mapFacts map[string]any

func (m mapFacts) Fact(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func (m mapFacts) SetFact(name string, v any) {
	if v == nil {
		delete(m, name)
		return
	}
	m[name] = v
}

func TestAgentModule_ReadsFacts(t *testing.T) {
	mgr, _ := newTestManager(t)
	facts := mapFacts{"health": 40.0, "alarmed": true, "mood": "grim"}
	dir := writeTempLua(t, "facts.lua", `
		function low_health() return agent.fact("health") < 50 end
		function alarmed() return agent.fact("alarmed") end
		function mood() return agent.fact("mood") end
		function missing() return agent.fact("nope") end
	`)
	require.NoError(t, mgr.LoadScope("a", dir, 0, facts))

	for hook, want := range map[string]lua.LValue{
		"low_health": lua.LTrue,
		"alarmed":    lua.LTrue,
		"mood":       lua.LString("grim"),
		"missing":    lua.LNil,
	} {
		ret, err := mgr.CallHook("a", hook)
		require.NoError(t, err)
		assert.Equal(t, want, ret, hook)
	}
}

func TestAgentModule_SetFactWritesThrough(t *testing.T) {
	mgr, _ := newTestManager(t)
	facts := mapFacts{"stale": true}
	dir := writeTempLua(t, "write.lua", `
		function mark()
			agent.set_fact("resurrected", true)
			agent.set_fact("count", 3)
			agent.set_fact("stale", nil)
		end
	`)
	require.NoError(t, mgr.LoadScope("a", dir, 0, facts))
	_, err := mgr.CallHook("a", "mark")
	require.NoError(t, err)
	assert.Equal(t, true, facts["resurrected"])
	assert.Equal(t, 3.0, facts["count"])
	_, ok := facts["stale"]
	assert.False(t, ok)
}

func TestAgentModule_ScopesAreIsolated(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "h.lua", `function hp() return agent.fact("health") end`)
	require.NoError(t, mgr.LoadScope("a", dir, 0, mapFacts{"health": 10.0}))
	require.NoError(t, mgr.LoadScope("b", dir, 0, mapFacts{"health": 70.0}))

	ra, _ := mgr.CallHook("a", "hp")
	rb, _ := mgr.CallHook("b", "hp")
	assert.Equal(t, lua.LNumber(10), ra)
	assert.Equal(t, lua.LNumber(70), rb)
}

func TestAgentModule_GlobalScopeHasNoFacts(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "g.lua", `
		function read() return agent.fact("x") end
		function write() agent.set_fact("x", 1) return true end
	`)
	require.NoError(t, mgr.LoadGlobal(dir, 0))
	ret, err := mgr.CallHook("anything", "read")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	ret, err = mgr.CallHook("anything", "write")
	require.NoError(t, err)
	assert.Equal(t, lua.LTrue, ret)
}

func TestProperty_FactValuesRoundTripThroughLua(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var v any
		switch rapid.IntRange(0, 2).Draw(rt, "kind") {
		case 0:
			v = rapid.Bool().Draw(rt, "b")
		case 1:
			v = rapid.Float64Range(-1e6, 1e6).Draw(rt, "f")
		default:
			v = rapid.String().Draw(rt, "s")
		}
		if got := scripting.FromLua(scripting.ToLua(v)); got != v {
			rt.Fatalf("round trip %#v -> %#v", v, got)
		}
	})
}

func TestToLua_UnsupportedIsNil(t *testing.T) {
	assert.Equal(t, lua.LNil, scripting.ToLua(struct{}{}))
	assert.Equal(t, lua.LNumber(2), scripting.ToLua(2))
	assert.Nil(t, scripting.FromLua(lua.LNil))
}
