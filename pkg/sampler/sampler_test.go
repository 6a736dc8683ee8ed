package sampler_test

import (
	"math"
	"slices"
	"testing"

	"github.com/AbhinitBarua/PlottingCalculator/internal/testutils"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, expr string) ports.Program {
	t.Helper()
	prog, err := testutils.NewFakeEvaluator().Compile(expr)
	require.NoError(t, err)
	return prog
}

func TestSample_Square(t *testing.T) {
	points := sampler.Collect(compile(t, "x^2"), domain.Domain{XMin: -2, XMax: 2}, 4)

	require.Len(t, points, 5)
	wantX := []float64{-2, -1, 0, 1, 2}
	wantY := []float64{4, 1, 0, 1, 4}
	for i, p := range points {
		assert.InDelta(t, wantX[i], p.X, 1e-12)
		assert.InDelta(t, wantY[i], p.Y, 1e-12)
	}
}

func TestSample_Idempotent(t *testing.T) {
	prog := compile(t, "sin(x)")
	d := domain.Domain{XMin: -math.Pi, XMax: math.Pi}

	first := sampler.Collect(prog, d, 100)
	second := sampler.Collect(prog, d, 100)
	assert.Equal(t, first, second)

	seq := sampler.Sample(prog, d, 100)
	assert.Equal(t, slices.Collect(seq), slices.Collect(seq), "re-iterating recomputes the same points")
}

func TestSample_SkipsPole(t *testing.T) {
	points := sampler.Collect(compile(t, "1/x"), domain.Domain{XMin: -1, XMax: 1}, 10)

	// 11 abscissae, x=0 is dropped because 1/0 is +Inf.
	require.Len(t, points, 10)
	for _, p := range points {
		assert.NotEqual(t, 0.0, p.X)
		assert.True(t, domain.IsFinite(p.Y))
	}
	assert.Equal(t, -1.0, points[0].X)
	assert.Equal(t, 1.0, points[len(points)-1].X)
}

func TestSample_SkipsEvaluationErrors(t *testing.T) {
	points := sampler.Collect(compile(t, "sqrt(x)"), domain.Domain{XMin: -4, XMax: 4}, 8)

	// x in {-4..-1} fail; x in {0..4} succeed.
	require.Len(t, points, 5)
	assert.Equal(t, 0.0, points[0].X)
	assert.InDelta(t, 2.0, points[4].Y, 1e-12)
}

func TestSample_SkipsNaN(t *testing.T) {
	points := sampler.Collect(compile(t, "log(x)"), domain.Domain{XMin: -1, XMax: 1}, 2)

	// log(-1) = NaN, log(0) = -Inf, log(1) = 0.
	require.Len(t, points, 1)
	assert.Equal(t, domain.Sample{X: 1, Y: 0}, points[0])
}

func TestSample_AscendingAndBounded(t *testing.T) {
	points := sampler.Collect(compile(t, "x"), domain.Domain{XMin: -10, XMax: 10}, domain.DefaultPoints)

	require.Len(t, points, domain.DefaultPoints+1)
	assert.True(t, slices.IsSortedFunc(points, func(a, b domain.Sample) int {
		switch {
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		}
		return 0
	}))
	assert.Equal(t, 10.0, points[len(points)-1].X, "last abscissa is exactly XMax")
}

func TestSample_Defaults(t *testing.T) {
	prog := compile(t, "x")

	assert.Len(t, sampler.Collect(prog, domain.Domain{XMin: 0, XMax: 1}, 0), domain.DefaultPoints+1)
	assert.Equal(t, domain.DefaultPoints+1, sampler.Visits(-3))
	assert.Empty(t, sampler.Collect(prog, domain.Domain{XMin: 1, XMax: 1}, 10))
	assert.NotNil(t, sampler.Collect(nil, domain.DefaultDomain, 10))
}

func TestSample_EarlyStop(t *testing.T) {
	count := 0
	for range sampler.Sample(compile(t, "x"), domain.DefaultDomain, 100) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}
