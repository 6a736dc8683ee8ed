package registry

import (
	"fmt"
	"strings"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
)

// Entry is a registered function: its text, its compiled program and its color.
type Entry struct {
	// Index is the entry's position at the time it was listed.
	Index      int
	Expression string
	Program    ports.Program
	Color      domain.Color
}

// View returns the serialisable part of the entry.
func (e Entry) View() domain.FunctionView {
	return domain.FunctionView{
		Index:      e.Index,
		Expression: e.Expression,
		Label:      domain.Label(e.Expression),
		Color:      e.Color,
	}
}

// Registry manages the ordered list of active functions.
// Insertion order is display order and render order.
// A Registry is not safe for concurrent use; its owner serialises access.
type Registry struct {
	evaluator ports.Evaluator
	colors    *Allocator
	entries   []Entry
}

// NewRegistry creates an empty registry compiling with evaluator and coloring with colors.
func NewRegistry(evaluator ports.Evaluator, colors *Allocator) *Registry {
	if colors == nil {
		colors = NewAllocator(nil, 0)
	}
	return &Registry{
		evaluator: evaluator,
		colors:    colors,
	}
}

// Add validates, compiles and registers an expression.
// The expression is evaluated once at domain.TrialX before it is accepted.
// On any error the registry is left unmodified and no color is consumed.
func (r *Registry) Add(text string, d domain.Domain) (Entry, error) {
	expr := strings.TrimSpace(text)
	if expr == "" {
		return Entry{}, domain.ErrEmptyExpression
	}
	if err := d.Validate(); err != nil {
		return Entry{}, err
	}

	prog, err := r.compile(expr)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Index:      len(r.entries),
		Expression: expr,
		Program:    prog,
		Color:      r.colors.Next(),
	}
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *Registry) compile(expr string) (ports.Program, error) {
	prog, err := r.evaluator.Compile(expr)
	if err != nil {
		return nil, &domain.CompileError{Expression: expr, Err: err}
	}
	// A non-finite trial value is fine (1/(x-1) at x=1); only a failed evaluation is rejected.
	if _, err := prog.Eval(map[string]float64{domain.Variable: domain.TrialX}); err != nil {
		return nil, &domain.EvaluationError{Expression: expr, X: domain.TrialX, Err: err}
	}
	return prog, nil
}

// Remove deletes the entry at index. Later entries shift down by one.
func (r *Registry) Remove(index int) (Entry, error) {
	if index < 0 || index >= len(r.entries) {
		return Entry{}, fmt.Errorf("%w: %d (have %d)", domain.ErrIndexOutOfRange, index, len(r.entries))
	}
	removed := r.entries[index]
	r.entries = append(r.entries[:index], r.entries[index+1:]...)
	return removed, nil
}

// Pop undoes the most recent Add: it drops the last entry and gives its
// color back to the allocator. It must only follow a successful Add.
func (r *Registry) Pop() (Entry, error) {
	if len(r.entries) == 0 {
		return Entry{}, fmt.Errorf("%w: registry is empty", domain.ErrIndexOutOfRange)
	}
	last := r.entries[len(r.entries)-1]
	r.entries = r.entries[:len(r.entries)-1]
	r.colors.unread()
	return last, nil
}

// List returns a copy of the entries with Index renumbered to the current positions.
func (r *Registry) List() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		e.Index = i
		out[i] = e
	}
	return out
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Colors returns the allocator used for new entries.
func (r *Registry) Colors() *Allocator {
	return r.colors
}

// Records returns the evaluator-free form of the entries for persistence.
func (r *Registry) Records() []domain.FunctionRecord {
	recs := make([]domain.FunctionRecord, len(r.entries))
	for i, e := range r.entries {
		recs[i] = domain.FunctionRecord{Expression: e.Expression, Color: e.Color}
	}
	return recs
}

// Restore replaces the entries with previously persisted records, keeping their colors.
// Every record goes through the same compile and trial checks as Add.
func (r *Registry) Restore(records []domain.FunctionRecord) error {
	entries := make([]Entry, 0, len(records))
	for i, rec := range records {
		expr := strings.TrimSpace(rec.Expression)
		if expr == "" {
			return fmt.Errorf("record %d: %w", i, domain.ErrEmptyExpression)
		}
		prog, err := r.compile(expr)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		entries = append(entries, Entry{Index: i, Expression: expr, Program: prog, Color: rec.Color})
	}
	r.entries = entries
	return nil
}
