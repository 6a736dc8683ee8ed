package plotter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AbhinitBarua/PlottingCalculator/internal/logging"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/registry"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/sampler"
)

// Plotter is the single owner of a registry, its color allocator and the current domain.
type Plotter struct {
	evaluator ports.Evaluator
	registry  *registry.Registry
	domain    domain.Domain
	points    int
	palette   []domain.Color
	sink      ports.PlotSink
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option configures the Plotter.
type Option func(*Plotter)

// WithSink sets the sink refreshed after every mutation.
func WithSink(sink ports.PlotSink) Option {
	return func(p *Plotter) {
		p.sink = sink
	}
}

// WithPoints sets the number of sampling intervals per series.
// Values above domain.MaxPoints are capped.
func WithPoints(n int) Option {
	return func(p *Plotter) {
		if n > 0 {
			p.points = min(n, domain.MaxPoints)
		}
	}
}

// WithDomain sets the initial domain.
func WithDomain(d domain.Domain) Option {
	return func(p *Plotter) {
		p.domain = d
	}
}

// WithPalette overrides the colors handed to new functions.
func WithPalette(palette []domain.Color) Option {
	return func(p *Plotter) {
		p.palette = palette
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Plotter) {
		p.hooks = hooks
	}
}

// WithLogger configures a logger for the Plotter.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Plotter) {
		p.logger = logger
	}
}

// New creates an empty plotter compiling expressions with evaluator.
func New(evaluator ports.Evaluator, opts ...Option) *Plotter {
	p := &Plotter{
		evaluator: evaluator,
		domain:    domain.DefaultDomain,
		points:    domain.DefaultPoints,
		sink:      ports.DiscardSink,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.registry = registry.NewRegistry(evaluator, registry.NewAllocator(p.palette, 0))
	return p
}

// Restore rebuilds a plotter from a persisted state.
// Entries keep their colors and the allocator resumes at state.NextColor.
// No refresh is performed.
func Restore(evaluator ports.Evaluator, state *domain.PlotState, opts ...Option) (*Plotter, error) {
	p := New(evaluator, opts...)
	if state == nil {
		return p, nil
	}
	p.registry = registry.NewRegistry(evaluator, registry.NewAllocator(p.palette, state.NextColor))
	if err := p.registry.Restore(state.Functions); err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", state.SessionID, err)
	}
	if state.Domain.Validate() == nil {
		p.domain = state.Domain
	}
	return p, nil
}

// Add registers text sampled over d and refreshes the sink.
// d becomes the current domain once the expression is accepted. If the sink
// rejects the refresh, the entry, its color and the old domain are restored.
func (p *Plotter) Add(ctx context.Context, text string, d domain.Domain) (registry.Entry, error) {
	entry, err := p.registry.Add(text, d)
	if err != nil {
		p.logger.Debug("Function rejected", "expression", text, "err", err)
		if p.hooks.OnFunctionRejected != nil {
			p.hooks.OnFunctionRejected(ctx, &domain.FunctionEvent{
				EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventFunctionRejected},
				Index:      -1,
				Expression: text,
				Err:        err,
			})
		}
		return registry.Entry{}, err
	}

	previous := p.domain
	p.domain = d
	if err := p.Refresh(ctx); err != nil {
		p.domain = previous
		if _, popErr := p.registry.Pop(); popErr != nil {
			p.logger.Error("Failed to roll back function", "expression", entry.Expression, "err", popErr)
		}
		return registry.Entry{}, err
	}

	p.logger.Debug("Function added", "expression", entry.Expression, "index", entry.Index, "color", entry.Color)
	if p.hooks.OnFunctionAdded != nil {
		p.hooks.OnFunctionAdded(ctx, &domain.FunctionEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventFunctionAdded},
			Index:      entry.Index,
			Expression: entry.Expression,
			Color:      entry.Color,
		})
	}
	return entry, nil
}

// Remove deletes the function at index and refreshes the sink.
// Functions after index move down one position.
func (p *Plotter) Remove(ctx context.Context, index int) (registry.Entry, error) {
	removed, err := p.registry.Remove(index)
	if err != nil {
		return registry.Entry{}, err
	}

	p.logger.Debug("Function removed", "expression", removed.Expression, "index", index)
	if p.hooks.OnFunctionRemoved != nil {
		p.hooks.OnFunctionRemoved(ctx, &domain.FunctionEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventFunctionRemoved},
			Index:      index,
			Expression: removed.Expression,
			Color:      removed.Color,
		})
	}
	return removed, p.Refresh(ctx)
}

// SetDomain changes the plotted interval and refreshes the sink.
func (p *Plotter) SetDomain(ctx context.Context, d domain.Domain) error {
	if err := d.Validate(); err != nil {
		return err
	}
	p.domain = d
	return p.Refresh(ctx)
}

// Domain returns the current domain.
func (p *Plotter) Domain() domain.Domain {
	return p.domain
}

// Points returns the number of sampling intervals per series.
func (p *Plotter) Points() int {
	return p.points
}

// List returns the registered functions in display order.
func (p *Plotter) List() []registry.Entry {
	return p.registry.List()
}

// Views returns the serialisable form of List.
func (p *Plotter) Views() []domain.FunctionView {
	entries := p.registry.List()
	views := make([]domain.FunctionView, len(entries))
	for i, e := range entries {
		views[i] = e.View()
	}
	return views
}

// Plot samples every function over the current domain without touching the sink.
func (p *Plotter) Plot() domain.Plot {
	plot, _ := p.build()
	return plot
}

func (p *Plotter) build() (domain.Plot, int) {
	return Build(p.registry.List(), p.domain, p.points)
}

// Build samples entries over d with n intervals each, in entry order.
// It also returns how many sample points were skipped as undefined or not finite.
func Build(entries []registry.Entry, d domain.Domain, n int) (domain.Plot, int) {
	plot := domain.Plot{
		Domain: d,
		Series: make([]domain.Series, 0, len(entries)),
	}
	skipped := 0
	for _, e := range entries {
		points := sampler.Collect(e.Program, d, n)
		skipped += sampler.Visits(n) - len(points)
		plot.Series = append(plot.Series, domain.Series{
			Label:      domain.Label(e.Expression),
			Expression: e.Expression,
			Color:      e.Color,
			Points:     points,
		})
	}
	return plot, skipped
}

// Refresh discards the previous series and hands a freshly sampled batch to the sink.
func (p *Plotter) Refresh(ctx context.Context) error {
	start := time.Now()
	plot, skipped := p.build()

	if err := p.sink.Replace(ctx, plot); err != nil {
		return fmt.Errorf("failed to refresh plot: %w", err)
	}

	total := 0
	for _, s := range plot.Series {
		total += len(s.Points)
	}
	elapsed := time.Since(start)
	p.logger.Debug("Plot refreshed", "series", len(plot.Series), "points", total, "skipped", skipped, "duration", elapsed)
	if p.hooks.OnRefresh != nil {
		p.hooks.OnRefresh(ctx, &domain.RefreshEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventRefresh},
			Domain:    p.domain,
			Series:    len(plot.Series),
			Points:    total,
			Skipped:   skipped,
			Duration:  elapsed,
		})
	}
	return nil
}

// Snapshot returns the persisted form of the plotter.
func (p *Plotter) Snapshot(sessionID string) *domain.PlotState {
	return &domain.PlotState{
		SessionID: sessionID,
		Functions: p.registry.Records(),
		NextColor: p.registry.Colors().Counter(),
		Domain:    p.domain,
		UpdatedAt: time.Now(),
	}
}
