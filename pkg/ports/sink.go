package ports

import (
	"context"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
)

// PlotSink consumes plotted series.
// Replace discards everything previously shown and displays plot instead.
type PlotSink interface {
	Replace(ctx context.Context, plot domain.Plot) error
}

// PlotSinkFunc adapts a function to PlotSink.
type PlotSinkFunc func(ctx context.Context, plot domain.Plot) error

// Replace calls f.
func (f PlotSinkFunc) Replace(ctx context.Context, plot domain.Plot) error {
	return f(ctx, plot)
}

// DiscardSink drops every plot.
var DiscardSink PlotSink = PlotSinkFunc(func(context.Context, domain.Plot) error { return nil })
