package service

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// vmProgram wraps a compiled score expression so callers don't import the
// expr packages directly.
type vmProgram struct {
	compiled *vm.Program
}

// compileScore compiles a score_expr against the scoring environment: the
// expression sees `answers`, the ordered base answers of one response.
func compileScore(src string) (*vmProgram, error) {
	program, err := expr.Compile(src, expr.Env(map[string]interface{}{
		"answers": []interface{}{},
	}))
	if err != nil {
		return nil, err
	}
	return &vmProgram{compiled: program}, nil
}
