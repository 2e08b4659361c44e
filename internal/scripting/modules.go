package scripting

import (
	lua "github.com/yuin/gopher-lua"
)

// Facts is the fact blackboard scripts read and write through the agent
// module. Values are bool, float64, or string.
type Facts interface {
	Fact(name string) (any, bool)
	SetFact(name string, value any)
}

// RegisterModules installs the agent.* table into L, bound to facts.
// A nil facts makes agent.fact return nil and agent.set_fact a no-op.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: agent global is defined in L.
func RegisterModules(L *lua.LState, facts Facts) {
	mod := L.NewTable()
	L.SetField(mod, "fact", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if facts == nil {
			L.Push(lua.LNil)
			return 1
		}
		v, ok := facts.Fact(name)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(ToLua(v))
		return 1
	}))
	L.SetField(mod, "set_fact", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if facts != nil {
			facts.SetFact(name, FromLua(L.Get(2)))
		}
		return 0
	}))
	L.SetGlobal("agent", mod)
}

// ToLua converts a fact value to its Lua form. Unsupported types become nil.
func ToLua(v any) lua.LValue {
	switch x := v.(type) {
	case bool:
		return lua.LBool(x)
	case float64:
		return lua.LNumber(x)
	case int:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	default:
		return lua.LNil
	}
}

// FromLua converts a Lua value to a fact value. Tables, functions, and nil
// become nil.
func FromLua(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	default:
		return nil
	}
}
