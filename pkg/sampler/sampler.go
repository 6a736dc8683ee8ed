// Package sampler turns a compiled expression into plottable points.
package sampler

import (
	"iter"
	"slices"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
)

// Sample scans d with n equal steps and yields every point where p evaluates to a finite number.
//
// x is computed as XMin + i*step from the integer index, so the scan visits exactly
// n+1 abscissae in ascending order and the last one is XMax. Points whose evaluation
// fails or is NaN/Inf are skipped; the scan always runs to the end.
// n <= 0 means domain.DefaultPoints. An invalid domain yields nothing.
//
// The sequence is computed afresh on every iteration.
func Sample(p ports.Program, d domain.Domain, n int) iter.Seq[domain.Sample] {
	if n <= 0 {
		n = domain.DefaultPoints
	}
	return func(yield func(domain.Sample) bool) {
		if p == nil || d.Validate() != nil {
			return
		}
		step := (d.XMax - d.XMin) / float64(n)
		bindings := map[string]float64{}
		for i := 0; i <= n; i++ {
			x := d.XMin + float64(i)*step
			if i == n {
				x = d.XMax
			}
			bindings[domain.Variable] = x
			y, err := p.Eval(bindings)
			if err != nil || !domain.IsFinite(y) {
				continue
			}
			if !yield(domain.Sample{X: x, Y: y}) {
				return
			}
		}
	}
}

// Collect materialises Sample into a slice.
func Collect(p ports.Program, d domain.Domain, n int) []domain.Sample {
	points := slices.Collect(Sample(p, d, n))
	if points == nil {
		points = []domain.Sample{}
	}
	return points
}

// Visits returns how many abscissae a scan with n steps evaluates, skipped ones included.
func Visits(n int) int {
	if n <= 0 {
		n = domain.DefaultPoints
	}
	return n + 1
}
