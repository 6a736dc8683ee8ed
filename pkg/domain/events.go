package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFunctionAdded    EventType = "function_added"
	EventFunctionRejected EventType = "function_rejected"
	EventFunctionRemoved  EventType = "function_removed"
	EventRefresh          EventType = "refresh"
	EventCalculate        EventType = "calculate"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// FunctionEvent represents a registry mutation.
type FunctionEvent struct {
	EventBase
	Index      int    `json:"index"`
	Expression string `json:"expression"`
	Color      Color  `json:"color,omitempty"`
	Err        error  `json:"-"`
}

// RefreshEvent is emitted after every full rebuild of the plot.
type RefreshEvent struct {
	EventBase
	Domain   Domain        `json:"domain"`
	Series   int           `json:"series"`
	Points   int           `json:"points"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// CalculateEvent represents a one-shot calculator evaluation.
type CalculateEvent struct {
	EventBase
	Expression string `json:"expression"`
	Result     string `json:"result"`
	IsError    bool   `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for plotter observability.
type LifecycleHooks struct {
	OnFunctionAdded    func(context.Context, *FunctionEvent)
	OnFunctionRejected func(context.Context, *FunctionEvent)
	OnFunctionRemoved  func(context.Context, *FunctionEvent)
	OnRefresh          func(context.Context, *RefreshEvent)
	OnCalculate        func(context.Context, *CalculateEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnFunctionAdded:    chain(h.OnFunctionAdded, other.OnFunctionAdded),
		OnFunctionRejected: chain(h.OnFunctionRejected, other.OnFunctionRejected),
		OnFunctionRemoved:  chain(h.OnFunctionRemoved, other.OnFunctionRemoved),
		OnRefresh:          chain(h.OnRefresh, other.OnRefresh),
		OnCalculate:        chain(h.OnCalculate, other.OnCalculate),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
