package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// globalScope is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scope VM is found.
const globalScope = "__global__"

// vm is one sandboxed LState. An LState is single-threaded, so every
// execution holds mu.
type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
	src   source
}

// source records how a scope was loaded so it can be reloaded.
type source struct {
	dir   string
	limit int
	facts Facts
}

// Manager owns one sandboxed VM per scope and exposes hook dispatch. A scope
// is typically one agent, so each agent's scripts see only its own facts.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scopes.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope with the agent module bound to
// facts, then executes every *.lua file in scriptDir in lexicographic order.
// Loading an existing scope replaces its VM.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: the scope VM is registered; returns error on Lua load failure.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int, facts Facts) error {
	if scope == "" {
		return fmt.Errorf("scripting: scope must not be empty")
	}
	return m.loadInto(scope, scriptDir, instLimit, facts)
}

// LoadGlobal creates the shared VM used as a CallHook fallback for scopes
// without their own VM. Its agent module has no facts.
//
// Precondition: scriptDir must be a readable directory.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalScope, scriptDir, instLimit, nil)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int, facts Facts) error {
	next, err := m.build(key, scriptDir, instLimit, facts)
	if err != nil {
		return err
	}
	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = next
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

// build creates a VM for key and runs every .lua file in scriptDir in name
// order. The VM is not registered.
func (m *Manager) build(key, scriptDir string, instLimit int, facts Facts) (*vm, error) {
	limit := effectiveLimit(instLimit)
	L := NewSandboxedState(limit)
	RegisterModules(L, facts)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		cancel := arm(L, limit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return nil, fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}
	m.logger.Debug("scripting: scope loaded",
		zap.String("scope", key),
		zap.Int("files", len(luaFiles)),
	)
	return &vm{L: L, limit: limit, src: source{dir: scriptDir, limit: instLimit, facts: facts}}, nil
}

// Scopes returns the loaded scope names, sorted.
func (m *Manager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.vms))
	for k := range m.vms {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CallHook calls the named Lua global function in scope's VM. If the scope has
// no VM, the global VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[scope]
	if !ok {
		v = m.vms[globalScope]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L == nil {
		return lua.LNil, nil
	}

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := arm(v.L, v.limit)
	defer cancel()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Unload closes and removes scope's VM.
func (m *Manager) Unload(scope string) {
	m.mu.Lock()
	v := m.vms[scope]
	delete(m.vms, scope)
	m.mu.Unlock()
	if v != nil {
		v.close()
	}
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.close()
	}
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L != nil {
		v.L.Close()
		v.L = nil
	}
}
