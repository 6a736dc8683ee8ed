package plotcalc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AbhinitBarua/PlottingCalculator/internal/logging"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/mathexpr"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/memory"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/calculator"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/plotter"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/registry"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/session"
	"github.com/google/uuid"
)

// DefaultInitialFunctions seeds every new session.
var DefaultInitialFunctions = []string{"sin(x)"}

// SinkFactory returns the sink that receives the refreshed plots of a session.
type SinkFactory func(sessionID string) ports.PlotSink

// Service is the high-level entry point: it hosts many plot sessions and a calculator.
// Session operations are serialised per session and safe for concurrent use.
type Service struct {
	evaluator  ports.Evaluator
	store      ports.StateStore
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	sessions   *session.Manager
	calculator *calculator.Calculator

	domain  domain.Domain
	points  int
	palette []domain.Color
	initial []string
	sinks   SinkFactory
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithEvaluator replaces the govaluate-backed evaluator.
func WithEvaluator(eval ports.Evaluator) Option {
	return func(s *Service) {
		s.evaluator = eval
	}
}

// WithStore sets where sessions are persisted (default: in memory).
func WithStore(store ports.StateStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLocker enables distributed locking of sessions across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithLockTTL bounds how long a distributed session lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks. Repeated options
// combine, and their hooks run in the order given.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDefaultDomain sets the domain new sessions start with.
func WithDefaultDomain(d domain.Domain) Option {
	return func(s *Service) {
		s.domain = d
	}
}

// WithPoints sets the number of sampling intervals per series.
func WithPoints(n int) Option {
	return func(s *Service) {
		s.points = n
	}
}

// WithPalette overrides the color palette.
func WithPalette(palette []domain.Color) Option {
	return func(s *Service) {
		s.palette = palette
	}
}

// WithInitialFunctions sets the expressions every new session starts with.
func WithInitialFunctions(exprs ...string) Option {
	return func(s *Service) {
		s.initial = exprs
	}
}

// WithSinkFactory routes every refresh of a session to the sink it returns.
func WithSinkFactory(f SinkFactory) Option {
	return func(s *Service) {
		s.sinks = f
	}
}

// New creates a Service. Without options it keeps sessions in memory.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		domain:  domain.DefaultDomain,
		points:  domain.DefaultPoints,
		initial: DefaultInitialFunctions,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.domain.Validate(); err != nil {
		return nil, fmt.Errorf("default domain: %w", err)
	}
	if s.points <= 0 {
		return nil, fmt.Errorf("points must be positive, got %d", s.points)
	}
	if err := domain.ValidatePoints(s.points); err != nil {
		return nil, err
	}
	if s.evaluator == nil {
		s.evaluator = mathexpr.New()
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}

	mgrOpts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(s.locker))
	}
	if s.lockTTL > 0 {
		mgrOpts = append(mgrOpts, session.WithLockTTL(s.lockTTL))
	}
	s.sessions = session.NewManager(s.store, mgrOpts...)
	s.calculator = calculator.New(s.evaluator, calculator.WithHooks(s.hooks))
	return s, nil
}

// Change is the outcome of a session mutation.
type Change struct {
	// State is the session after the mutation.
	State *domain.PlotState
	// Diff is nil when nothing visible changed.
	Diff *domain.StateDiff
	// Function is the added or removed function, when there is one.
	Function *domain.FunctionView
}

func (s *Service) plotterFor(sessionID string, state *domain.PlotState) (*plotter.Plotter, error) {
	opts := []plotter.Option{
		plotter.WithDomain(s.domain),
		plotter.WithPoints(s.points),
		plotter.WithPalette(s.palette),
		plotter.WithHooks(s.hooks),
		plotter.WithLogger(s.logger.With("session_id", sessionID)),
	}
	if s.sinks != nil {
		opts = append(opts, plotter.WithSink(s.sinks(sessionID)))
	}
	return plotter.Restore(s.evaluator, state, opts...)
}

// CreateSession starts a session under a fresh random ID.
func (s *Service) CreateSession(ctx context.Context) (*domain.PlotState, error) {
	state, _, err := s.StartSession(ctx, uuid.NewString())
	return state, err
}

// StartSession loads sessionID, creating it with the initial functions if it does not exist.
// Initial functions that fail validation are logged and skipped.
func (s *Service) StartSession(ctx context.Context, sessionID string) (*domain.PlotState, bool, error) {
	return s.sessions.LoadOrStart(ctx, sessionID, func(state *domain.PlotState) error {
		state.Domain = s.domain
		p, err := s.plotterFor(sessionID, state)
		if err != nil {
			return err
		}
		for _, expr := range s.initial {
			if _, err := p.Add(ctx, expr, p.Domain()); err != nil {
				s.logger.Warn("Skipping initial function", "session_id", sessionID, "expression", expr, "err", err)
			}
		}
		*state = *p.Snapshot(sessionID)
		s.logger.Info("Session started", "session_id", sessionID, "functions", len(state.Functions))
		return nil
	})
}

// View returns the persisted state of a session.
func (s *Service) View(ctx context.Context, sessionID string) (*domain.PlotState, error) {
	return s.sessions.Load(ctx, sessionID)
}

// ListSessions returns the stored session IDs.
func (s *Service) ListSessions(ctx context.Context) ([]string, error) {
	return s.sessions.List(ctx)
}

// DeleteSession removes a session. Deleting an unknown session is not an error.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("Session deleted", "session_id", sessionID)
	return nil
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func(context.Context, *plotter.Plotter) (*domain.FunctionView, error)) (*Change, error) {
	var (
		before *domain.PlotState
		fv     *domain.FunctionView
	)
	state, err := s.sessions.Update(ctx, sessionID, func(ctx context.Context, state *domain.PlotState) error {
		before = state.Snapshot()
		p, err := s.plotterFor(sessionID, state)
		if err != nil {
			return err
		}
		if fv, err = fn(ctx, p); err != nil {
			return err
		}
		*state = *p.Snapshot(sessionID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Change{State: state, Diff: domain.Diff(before, state), Function: fv}, nil
}

// AddFunction registers text in a session. A nil d keeps the session's domain.
func (s *Service) AddFunction(ctx context.Context, sessionID, text string, d *domain.Domain) (*Change, error) {
	var b domain.Bounds
	if d != nil {
		xMin, xMax := d.XMin, d.XMax
		b = domain.Bounds{XMin: &xMin, XMax: &xMax}
	}
	return s.AddFunctionWithin(ctx, sessionID, text, b)
}

// AddFunctionWithin registers text in a session, sampled over the session's
// domain with the set bounds of b replaced. The bounds are resolved while the
// session is locked, so a concurrent SetDomain is never overwritten with stale values.
func (s *Service) AddFunctionWithin(ctx context.Context, sessionID, text string, b domain.Bounds) (*Change, error) {
	clean, err := domain.SanitizeInput(text)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(ctx context.Context, p *plotter.Plotter) (*domain.FunctionView, error) {
		entry, err := p.Add(ctx, clean, b.Over(p.Domain()))
		if err != nil {
			return nil, err
		}
		view := entry.View()
		return &view, nil
	})
}

// RemoveFunction deletes the function at index; later functions move down one position.
func (s *Service) RemoveFunction(ctx context.Context, sessionID string, index int) (*Change, error) {
	return s.mutate(ctx, sessionID, func(ctx context.Context, p *plotter.Plotter) (*domain.FunctionView, error) {
		removed, err := p.Remove(ctx, index)
		if err != nil {
			return nil, err
		}
		view := removed.View()
		view.Index = index
		return &view, nil
	})
}

// SetDomain replots a session over d.
func (s *Service) SetDomain(ctx context.Context, sessionID string, d domain.Domain) (*Change, error) {
	return s.mutate(ctx, sessionID, func(ctx context.Context, p *plotter.Plotter) (*domain.FunctionView, error) {
		return nil, p.SetDomain(ctx, d)
	})
}

// Plot samples every function of a session over its domain.
func (s *Service) Plot(ctx context.Context, sessionID string) (domain.Plot, error) {
	var out domain.Plot
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		state, err := s.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		p, err := plotter.Restore(s.evaluator, state,
			plotter.WithDomain(s.domain),
			plotter.WithPoints(s.points),
			plotter.WithPalette(s.palette),
		)
		if err != nil {
			return err
		}
		out = p.Plot()
		return nil
	})
	return out, err
}

// Calculate evaluates a one-off expression. Failures are part of the result string.
func (s *Service) Calculate(ctx context.Context, text string) string {
	clean, err := domain.SanitizeInput(text)
	if err != nil {
		return calculator.ErrorPrefix + err.Error()
	}
	return s.calculator.Evaluate(ctx, clean)
}

// PlotExpressions plots exprs over d without creating a session.
// n <= 0 uses the configured point count; n above domain.MaxPoints is rejected.
// Nothing is stored and no lifecycle hooks fire.
func (s *Service) PlotExpressions(ctx context.Context, exprs []string, d domain.Domain, n int) (domain.Plot, error) {
	if err := domain.ValidatePoints(n); err != nil {
		return domain.Plot{}, err
	}
	if n <= 0 {
		n = s.points
	}
	if err := d.Validate(); err != nil {
		return domain.Plot{}, err
	}
	reg := registry.NewRegistry(s.evaluator, registry.NewAllocator(s.palette, 0))
	for _, expr := range exprs {
		clean, err := domain.SanitizeInput(expr)
		if err != nil {
			return domain.Plot{}, err
		}
		if _, err := reg.Add(clean, d); err != nil {
			return domain.Plot{}, err
		}
	}
	plot, _ := plotter.Build(reg.List(), d, n)
	return plot, nil
}

// Sample validates text and returns its finite points over d.
func (s *Service) Sample(ctx context.Context, text string, d domain.Domain, n int) ([]domain.Sample, error) {
	plot, err := s.PlotExpressions(ctx, []string{text}, d, n)
	if err != nil {
		return nil, err
	}
	return plot.Series[0].Points, nil
}

// Points returns the configured number of sampling intervals.
func (s *Service) Points() int {
	return s.points
}

// DefaultDomain returns the domain new sessions start with.
func (s *Service) DefaultDomain() domain.Domain {
	return s.domain
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	type pinger interface {
		Ping(context.Context) error
	}
	if p, ok := s.store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// IsNotFound reports whether err means the session or function does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrIndexOutOfRange)
}

// IsUserError reports whether err was caused by the submitted input.
func IsUserError(err error) bool {
	return errors.Is(err, domain.ErrEmptyExpression) ||
		errors.Is(err, domain.ErrInvalidDomain) ||
		errors.Is(err, domain.ErrInvalidExpression) ||
		errors.Is(err, domain.ErrInputTooLarge) ||
		errors.Is(err, domain.ErrTooManyPoints) ||
		errors.Is(err, domain.ErrInvalidUTF8)
}
