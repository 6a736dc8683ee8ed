package ports

import (
	"context"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
)

// StateStore defines the interface for persisting plot sessions.
// This allows several independent plotters to live behind one server.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.PlotState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.PlotState, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
