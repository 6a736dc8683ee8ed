package testutils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
)

// Func is the Go body behind a fake expression.
type Func func(x float64) (float64, error)

// ErrDomain is what fake functions return for points outside their domain.
var ErrDomain = errors.New("math domain error")

// StandardFuncs covers the expressions used across the package tests.
var StandardFuncs = map[string]Func{
	"x":      func(x float64) (float64, error) { return x, nil },
	"x^2":    func(x float64) (float64, error) { return x * x, nil },
	"sin(x)": func(x float64) (float64, error) { return math.Sin(x), nil },
	"cos(x)": func(x float64) (float64, error) { return math.Cos(x), nil },
	"1/x":    func(x float64) (float64, error) { return 1 / x, nil },
	"sqrt(x)": func(x float64) (float64, error) {
		if x < 0 {
			return 0, ErrDomain
		}
		return math.Sqrt(x), nil
	},
	"1/(x-1)": func(x float64) (float64, error) { return 1 / (x - 1), nil },
	"log(x)": func(x float64) (float64, error) { return math.Log(x), nil },
	"x*y": func(x float64) (float64, error) {
		return 0, errors.New("no parameter 'y' found")
	},
}

// FakeEvaluator is a table-driven ports.Evaluator.
// Unknown expressions fail to compile; Evaluate accepts the Constants table.
type FakeEvaluator struct {
	Funcs     map[string]Func
	Constants map[string]float64

	mu       sync.Mutex
	compiles int
}

// NewFakeEvaluator returns an evaluator backed by StandardFuncs.
func NewFakeEvaluator() *FakeEvaluator {
	return &FakeEvaluator{
		Funcs: StandardFuncs,
		Constants: map[string]float64{
			"1+1":   2,
			"2*3.5": 7,
			"1/0":   math.Inf(1),
		},
	}
}

// Compiles reports how many programs were compiled.
func (f *FakeEvaluator) Compiles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compiles
}

func (f *FakeEvaluator) Compile(text string) (ports.Program, error) {
	fn, ok := f.Funcs[text]
	if !ok {
		return nil, fmt.Errorf("unexpected token in %q", text)
	}
	f.mu.Lock()
	f.compiles++
	f.mu.Unlock()
	return &fakeProgram{src: text, fn: fn}, nil
}

func (f *FakeEvaluator) Evaluate(text string) (float64, error) {
	v, ok := f.Constants[text]
	if !ok {
		return 0, fmt.Errorf("cannot evaluate %q", text)
	}
	return v, nil
}

type fakeProgram struct {
	src string
	fn  Func
}

func (p *fakeProgram) Source() string { return p.src }

func (p *fakeProgram) Eval(bindings map[string]float64) (float64, error) {
	x, ok := bindings[domain.Variable]
	if !ok {
		return 0, errors.New("x is not bound")
	}
	return p.fn(x)
}

// RecordingSink keeps every plot it is handed.
type RecordingSink struct {
	mu    sync.Mutex
	Plots []domain.Plot
	Err   error
}

func (s *RecordingSink) Replace(ctx context.Context, plot domain.Plot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Plots = append(s.Plots, plot)
	return s.Err
}

// Last returns the most recent plot, or the zero Plot.
func (s *RecordingSink) Last() domain.Plot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Plots) == 0 {
		return domain.Plot{}
	}
	return s.Plots[len(s.Plots)-1]
}

// Count returns how many batches were received.
func (s *RecordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Plots)
}
