// Package metrics turns plotter and calculator lifecycle events into Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons used as the "reason" label.
const (
	ReasonEmpty    = "empty"
	ReasonDomain   = "domain"
	ReasonCompile  = "compile"
	ReasonEvaluate = "evaluate"
	ReasonInput    = "input"
	ReasonOther    = "other"
)

// Metrics owns the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	functionsAdded    prometheus.Counter
	functionsRejected *prometheus.CounterVec
	functionsRemoved  prometheus.Counter
	samplesSkipped    prometheus.Counter
	refreshDuration   prometheus.Histogram
	calculations      *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		functionsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plotcalc_functions_added_total",
			Help: "Functions accepted into a plot.",
		}),
		functionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plotcalc_functions_rejected_total",
			Help: "Functions refused by validation, by reason.",
		}, []string{"reason"}),
		functionsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plotcalc_functions_removed_total",
			Help: "Functions removed from a plot.",
		}),
		samplesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plotcalc_samples_skipped_total",
			Help: "Sample points dropped because the function was undefined or not finite there.",
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plotcalc_refresh_duration_seconds",
			Help:    "Time spent resampling every series of a plot.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plotcalc_calculations_total",
			Help: "Calculator evaluations, by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.functionsAdded,
		m.functionsRejected,
		m.functionsRemoved,
		m.samplesSkipped,
		m.refreshDuration,
		m.calculations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFunctionAdded: func(ctx context.Context, e *domain.FunctionEvent) {
			m.functionsAdded.Inc()
		},
		OnFunctionRejected: func(ctx context.Context, e *domain.FunctionEvent) {
			m.functionsRejected.WithLabelValues(Reason(e.Err)).Inc()
		},
		OnFunctionRemoved: func(ctx context.Context, e *domain.FunctionEvent) {
			m.functionsRemoved.Inc()
		},
		OnRefresh: func(ctx context.Context, e *domain.RefreshEvent) {
			m.samplesSkipped.Add(float64(e.Skipped))
			m.refreshDuration.Observe(e.Duration.Seconds())
		},
		OnCalculate: func(ctx context.Context, e *domain.CalculateEvent) {
			result := "ok"
			if e.IsError {
				result = "error"
			}
			m.calculations.WithLabelValues(result).Inc()
		},
	}
}

// Reason classifies a rejection error for the "reason" label.
func Reason(err error) string {
	var compileErr *domain.CompileError
	var evalErr *domain.EvaluationError
	switch {
	case errors.Is(err, domain.ErrEmptyExpression):
		return ReasonEmpty
	case errors.Is(err, domain.ErrInvalidDomain):
		return ReasonDomain
	case errors.As(err, &compileErr):
		return ReasonCompile
	case errors.As(err, &evalErr):
		return ReasonEvaluate
	case errors.Is(err, domain.ErrInputTooLarge), errors.Is(err, domain.ErrTooManyPoints):
		return ReasonInput
	}
	return ReasonOther
}
