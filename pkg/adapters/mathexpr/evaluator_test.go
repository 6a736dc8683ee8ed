package mathexpr_test

import (
	"math"
	"sort"
	"testing"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/mathexpr"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Evaluator = (*mathexpr.Evaluator)(nil)

func TestEvaluator_Evaluate(t *testing.T) {
	eval := mathexpr.New()

	tests := []struct {
		expr string
		want float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"2^10", 1024},
		{"2**3", 8},
		{"10 / 4", 2.5},
		{"7 % 4", 3},
		{"sqrt(16) + abs(-2)", 6},
		{"pow(2, 0.5) * pow(2, 0.5)", 2},
		{"max(1, 5, 3) - min(4, 2)", 3},
		{"floor(2.7) + ceil(2.1) + round(2.5)", 8},
		{"log10(1000)", 3},
		{"ln(e)", 1},
		{"cos(pi)", -1},
		{"sign(-3) + sign(0) + sign(9)", 0},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := eval.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluator_PowerNotation(t *testing.T) {
	eval := mathexpr.New()

	tests := []struct {
		expr string
		x    float64
		want float64
	}{
		{"-x^2", 2, -4},
		{"-2^2", 0, -4},
		{"(-2)^2", 0, 4},
		{"2^3^2", 0, 512},
		{"2**3**2", 0, 512},
		{"x^-1", 2, 0.5},
		{"x**-1", 4, 0.25},
		{"2^-x^2", 1, 0.5},
		{"3 - x^2", 2, -1},
		{"2*-x^2", 3, -18},
		{"sin(x)^2 + cos(x)^2", 0.7, 1},
		{"e^x", 1, math.E},
		{"(x + 1)^2", 2, 9},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prog, err := eval.Compile(tt.expr)
			require.NoError(t, err)
			got, err := prog.Eval(map[string]float64{domain.Variable: tt.x})
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluator_ScientificNotation(t *testing.T) {
	eval := mathexpr.New()

	tests := []struct {
		expr string
		want float64
	}{
		{"1e3", 1000},
		{"1e+21 / 1e20", 10},
		{"2.5E-3 * 4", 0.01},
		{"1e2^2", 10000},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := eval.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	// A bare e after a number is the constant, not an exponent.
	_, err := eval.Evaluate("2e")
	assert.Error(t, err)
	_, err = eval.Evaluate("1e999")
	assert.ErrorContains(t, err, "invalid number")
}

func TestEvaluator_DivisionByZeroIsInfinite(t *testing.T) {
	got, err := mathexpr.New().Evaluate("1/0")
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, 1))
}

func TestEvaluator_Errors(t *testing.T) {
	eval := mathexpr.New()

	t.Run("Syntax", func(t *testing.T) {
		for _, expr := range []string{"2 +", "(x + 1", "sin(", "3 4", "x^", "^2", "2^)"} {
			_, err := eval.Compile(expr)
			assert.Error(t, err, expr)
		}
	})

	t.Run("Unbound Variable", func(t *testing.T) {
		prog, err := eval.Compile("x * y")
		require.NoError(t, err)
		_, err = prog.Eval(map[string]float64{"x": 1})
		assert.Error(t, err)
	})

	t.Run("Not A Number", func(t *testing.T) {
		_, err := eval.Evaluate("1 < 2")
		assert.ErrorIs(t, err, mathexpr.ErrNotANumber)
	})

	t.Run("Arity", func(t *testing.T) {
		_, err := eval.Evaluate("pow(2)")
		assert.Error(t, err)
	})
}

func TestProgram_Eval(t *testing.T) {
	prog, err := mathexpr.New().Compile("x^2 - 2*x + 1")
	require.NoError(t, err)
	assert.Equal(t, "x^2 - 2*x + 1", prog.Source())

	for _, x := range []float64{-1, 0, 1, 3} {
		got, err := prog.Eval(map[string]float64{domain.Variable: x})
		require.NoError(t, err)
		assert.InDelta(t, (x-1)*(x-1), got, 1e-12)
	}
}

func TestProgram_Vars(t *testing.T) {
	prog, err := mathexpr.New().Compile("sin(x) * pi + y")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, prog.(*mathexpr.Program).Vars())
}

func TestSampleThroughGovaluate(t *testing.T) {
	eval := mathexpr.New()

	square, err := eval.Compile("x^2")
	require.NoError(t, err)
	points := sampler.Collect(square, domain.Domain{XMin: -2, XMax: 2}, 4)
	require.Len(t, points, 5)
	for i, y := range []float64{4, 1, 0, 1, 4} {
		assert.InDelta(t, y, points[i].Y, 1e-12)
	}

	negated, err := eval.Compile("-x^2")
	require.NoError(t, err)
	points = sampler.Collect(negated, domain.Domain{XMin: -2, XMax: 2}, 4)
	require.Len(t, points, 5)
	for i, y := range []float64{-4, -1, 0, -1, -4} {
		assert.InDelta(t, y, points[i].Y, 1e-12)
	}

	reciprocal, err := eval.Compile("1/x")
	require.NoError(t, err)
	points = sampler.Collect(reciprocal, domain.Domain{XMin: -1, XMax: 1}, 10)
	assert.Len(t, points, 10, "x=0 is omitted")

	logarithm, err := eval.Compile("log(x)")
	require.NoError(t, err)
	points = sampler.Collect(logarithm, domain.Domain{XMin: -1, XMax: 1}, 4)
	require.Len(t, points, 2, "negative x is NaN and x=0 is -Inf")
	assert.Equal(t, 0.5, points[0].X)
}

func TestFunctionNames(t *testing.T) {
	names := mathexpr.FunctionNames()
	assert.Contains(t, names, "sin")
	assert.Contains(t, names, "sqrt")
	assert.True(t, sort.StringsAreSorted(names))
}
