package behavior

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// FactStore is the fact blackboard behind fact and expr beliefs.
type FactStore interface {
	Fact(name string) (any, bool)
	SetFact(name string, value any)
	Names() []string
}

// compileCondition compiles a boolean expression whose identifiers are fact
// names. Unknown facts evaluate to nil.
func compileCondition(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling expr %q: %w", src, err)
	}
	return program, nil
}

// evalCondition runs program against a snapshot of facts.
func evalCondition(program *vm.Program, facts FactStore) (bool, error) {
	names := facts.Names()
	env := make(map[string]any, len(names))
	for _, n := range names {
		if v, ok := facts.Fact(n); ok {
			env[n] = v
		}
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	b, _ := out.(bool)
	return b, nil
}
