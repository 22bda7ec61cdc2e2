package attributes

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mrzor/audit-tracer/internal/correlator"
)

// Filter selects facts with a boolean expression. A nil Filter matches everything.
type Filter struct {
	program *vm.Program
	rawExpr string
}

// NewFilter compiles a filter expression. An empty expression yields a nil Filter.
func NewFilter(exprStr string) (*Filter, error) {
	if exprStr == "" {
		return nil, nil
	}

	program, err := expr.Compile(exprStr, expr.Env(typeEnv()), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter expression: %w", err)
	}

	return &Filter{
		program: program,
		rawExpr: exprStr,
	}, nil
}

// Match reports whether a fact passes the filter.
func (f *Filter) Match(fact *correlator.Fact) (bool, error) {
	if f == nil {
		return true, nil
	}

	output, err := expr.Run(f.program, factEnv(fact))
	if err != nil {
		return false, fmt.Errorf("evaluating filter %q: %w", f.rawExpr, err)
	}
	matched, _ := output.(bool)
	return matched, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.rawExpr
}
