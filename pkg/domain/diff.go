package domain

import (
	"slices"
)

// StateDiff represents the changes between two plot states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Domain is set when the plotted interval changed.
	Domain *Domain `json:"domain,omitempty"`

	// Functions carries the whole list whenever it changed.
	// Removal renumbers positions, so clients replace their list instead of patching it.
	Functions []FunctionView `json:"functions,omitempty"`

	// Cleared is true when the new state has no functions left.
	Cleared bool `json:"cleared,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *PlotState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.Domain != newState.Domain {
		d := newState.Domain
		diff.Domain = &d
	}

	if oldState == nil || !slices.Equal(oldState.Functions, newState.Functions) {
		diff.Functions = Views(newState.Functions)
		diff.Cleared = len(newState.Functions) == 0 && oldState != nil
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// Views numbers records by position.
func Views(records []FunctionRecord) []FunctionView {
	views := make([]FunctionView, len(records))
	for i, rec := range records {
		views[i] = FunctionView{
			Index:      i,
			Expression: rec.Expression,
			Label:      Label(rec.Expression),
			Color:      rec.Color,
		}
	}
	return views
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Domain == nil && d.Functions == nil && !d.Cleared
}
