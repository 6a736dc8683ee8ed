package domain

import "time"

// FunctionRecord is the persisted form of a registered function.
// The compiled program is not stored; it is rebuilt from Expression on load.
type FunctionRecord struct {
	Expression string `json:"expression"`
	Color      Color  `json:"color"`
}

// PlotState represents the persisted snapshot of a plotter session.
type PlotState struct {
	// SessionID identifies the plotter instance.
	SessionID string `json:"session_id"`

	// Functions holds the registered functions in display order.
	Functions []FunctionRecord `json:"functions"`

	// NextColor is the color allocator counter. It only grows.
	NextColor uint64 `json:"next_color"`

	// Domain is the interval the session is currently plotted over.
	Domain Domain `json:"domain"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewPlotState creates an empty session plotted over the default domain.
func NewPlotState(sessionID string) *PlotState {
	return &PlotState{
		SessionID: sessionID,
		Functions: []FunctionRecord{},
		Domain:    DefaultDomain,
	}
}

// Snapshot returns a deep copy of the state.
func (s *PlotState) Snapshot() *PlotState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Functions = make([]FunctionRecord, len(s.Functions))
	copy(cp.Functions, s.Functions)
	return &cp
}
