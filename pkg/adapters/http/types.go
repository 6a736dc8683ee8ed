package http

import (
	"context"
	"time"

	plotcalc "github.com/AbhinitBarua/PlottingCalculator"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
)

// Service is the part of plotcalc.Service the API needs.
type Service interface {
	CreateSession(ctx context.Context) (*domain.PlotState, error)
	View(ctx context.Context, sessionID string) (*domain.PlotState, error)
	ListSessions(ctx context.Context) ([]string, error)
	DeleteSession(ctx context.Context, sessionID string) error
	AddFunction(ctx context.Context, sessionID, text string, d *domain.Domain) (*plotcalc.Change, error)
	RemoveFunction(ctx context.Context, sessionID string, index int) (*plotcalc.Change, error)
	SetDomain(ctx context.Context, sessionID string, d domain.Domain) (*plotcalc.Change, error)
	Plot(ctx context.Context, sessionID string) (domain.Plot, error)
	Calculate(ctx context.Context, text string) string
	Ping(ctx context.Context) error
}

var _ Service = (*plotcalc.Service)(nil)

// CalculateRequest is the body of POST /calculate.
type CalculateRequest struct {
	Expression string `json:"expression"`
}

// CalculateResponse carries the display string, error text included.
type CalculateResponse struct {
	Result string `json:"result"`
}

// AddFunctionRequest is the body of POST /sessions/{id}/functions.
// Without bounds the function is plotted over the session's current domain.
type AddFunctionRequest struct {
	Expression string   `json:"expression"`
	XMin       *float64 `json:"x_min,omitempty"`
	XMax       *float64 `json:"x_max,omitempty"`
}

// SessionView is the JSON form of a session.
type SessionView struct {
	SessionID string                `json:"session_id"`
	Domain    domain.Domain         `json:"domain"`
	Functions []domain.FunctionView `json:"functions"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func newSessionView(state *domain.PlotState) SessionView {
	return SessionView{
		SessionID: state.SessionID,
		Domain:    state.Domain,
		Functions: domain.Views(state.Functions),
		UpdatedAt: state.UpdatedAt,
	}
}

// ChangeResponse answers a session mutation.
type ChangeResponse struct {
	Function *domain.FunctionView `json:"function,omitempty"`
	Session  SessionView          `json:"session"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
