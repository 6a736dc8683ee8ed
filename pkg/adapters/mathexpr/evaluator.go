// Package mathexpr implements ports.Evaluator on top of govaluate.
//
// Expressions use the usual calculator notation: + - * / %, ^ for powers,
// parentheses, the constants pi and e, and the functions listed in Functions.
// Powers bind tighter than a leading minus and group from the right, and
// numbers may use scientific notation (1e-3).
package mathexpr

import (
	"errors"
	"fmt"
	"math"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
	"github.com/Knetic/govaluate"
)

// ErrNotANumber is returned when an expression evaluates to a boolean or string.
var ErrNotANumber = errors.New("expression did not produce a number")

// Constants are bound in every evaluation unless the caller binds the same name.
var Constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// Evaluator compiles expressions with a fixed function table.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	functions map[string]govaluate.ExpressionFunction
}

// New creates an evaluator with the standard function table.
func New() *Evaluator {
	return &Evaluator{functions: Functions()}
}

// Compile parses text into a reusable program.
func (e *Evaluator) Compile(text string) (ports.Program, error) {
	src, err := normalize(text)
	if err != nil {
		return nil, err
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(src, e.functions)
	if err != nil {
		return nil, err
	}
	return &Program{source: text, expr: expr}, nil
}

// Evaluate parses and evaluates text with only the constants bound.
func (e *Evaluator) Evaluate(text string) (float64, error) {
	prog, err := e.Compile(text)
	if err != nil {
		return 0, err
	}
	return prog.Eval(nil)
}

// Program is a compiled govaluate expression.
type Program struct {
	source string
	expr   *govaluate.EvaluableExpression
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string {
	return p.source
}

// Vars lists the free variables of the expression, constants excluded.
func (p *Program) Vars() []string {
	var vars []string
	for _, v := range p.expr.Vars() {
		if _, ok := Constants[v]; !ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// Eval evaluates the program. Unbound variables are an error.
func (p *Program) Eval(bindings map[string]float64) (float64, error) {
	params := make(map[string]interface{}, len(Constants)+len(bindings))
	for k, v := range Constants {
		params[k] = v
	}
	for k, v := range bindings {
		params[k] = v
	}

	result, err := p.expr.Evaluate(params)
	if err != nil {
		return math.NaN(), err
	}
	return toFloat(result)
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return math.NaN(), fmt.Errorf("%w: got %T", ErrNotANumber, v)
	}
}
