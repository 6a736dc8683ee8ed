// Package calculator evaluates one-off arithmetic expressions for display.
package calculator

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
)

const (
	// EmptyMessage is returned for blank input.
	EmptyMessage = "Please enter an expression"
	// ErrorPrefix precedes the evaluator message on failure.
	ErrorPrefix = "Error: "
)

// Calculator is stateless; it is safe for concurrent use if its evaluator is.
type Calculator struct {
	evaluator ports.Evaluator
	hooks     domain.LifecycleHooks
}

// Option configures the Calculator.
type Option func(*Calculator)

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Calculator) {
		c.hooks = hooks
	}
}

// New creates a calculator delegating to evaluator.
func New(evaluator ports.Evaluator, opts ...Option) *Calculator {
	c := &Calculator{evaluator: evaluator}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate returns the result of text as a decimal string.
// Failures come back as the result value itself, prefixed with ErrorPrefix.
func (c *Calculator) Evaluate(ctx context.Context, text string) string {
	expr := strings.TrimSpace(text)
	if expr == "" {
		return EmptyMessage
	}

	result, isErr := c.eval(expr)
	if c.hooks.OnCalculate != nil {
		c.hooks.OnCalculate(ctx, &domain.CalculateEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventCalculate},
			Expression: expr,
			Result:     result,
			IsError:    isErr,
		})
	}
	return result
}

func (c *Calculator) eval(expr string) (string, bool) {
	v, err := c.evaluator.Evaluate(expr)
	if err != nil {
		return ErrorPrefix + err.Error(), true
	}
	return FormatNumber(v), false
}

// FormatNumber renders v the way a browser prints a number:
// no exponent for ordinary magnitudes, "Infinity" and "NaN" spelled out.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		// Go writes e+06 / e-07; trim the exponent's leading zeros.
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
