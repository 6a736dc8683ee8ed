package domain

import (
	"fmt"
	"math"
)

// Color is a display color in "#RRGGBB" form.
type Color string

// DefaultPalette is the ordered set of colors assigned to new functions.
var DefaultPalette = []Color{
	"#4285F4", // Blue
	"#EA4335", // Red
	"#FBBC05", // Yellow
	"#34A853", // Green
	"#FF9800", // Orange
	"#9C27B0", // Purple
	"#00BCD4", // Cyan
	"#795548", // Brown
	"#607D8B", // Blue Grey
	"#E91E63", // Pink
}

// Domain is the closed interval [XMin, XMax] a function is sampled over.
type Domain struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
}

// DefaultDomain is used when a session has not chosen one yet.
var DefaultDomain = Domain{XMin: -10, XMax: 10}

// Validate returns ErrInvalidDomain unless XMin < XMax and both bounds are finite.
func (d Domain) Validate() error {
	if !isFinite(d.XMin) || !isFinite(d.XMax) {
		return fmt.Errorf("%w: bounds must be finite", ErrInvalidDomain)
	}
	if d.XMin >= d.XMax {
		return fmt.Errorf("%w: x_min=%g x_max=%g", ErrInvalidDomain, d.XMin, d.XMax)
	}
	return nil
}

// Bounds overrides some or all of a domain. A nil bound keeps the current one.
type Bounds struct {
	XMin *float64 `json:"x_min,omitempty"`
	XMax *float64 `json:"x_max,omitempty"`
}

// Over returns d with the set bounds replaced.
func (b Bounds) Over(d Domain) Domain {
	if b.XMin != nil {
		d.XMin = *b.XMin
	}
	if b.XMax != nil {
		d.XMax = *b.XMax
	}
	return d
}

// Sample is one plotted point. Y is always finite.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is the sampled curve of a single function.
type Series struct {
	Label      string   `json:"label"`
	Expression string   `json:"expression"`
	Color      Color    `json:"color"`
	Points     []Sample `json:"points"`
}

// Plot is a complete batch of series. Sinks replace whatever they showed before with it.
type Plot struct {
	Domain Domain   `json:"domain"`
	Series []Series `json:"series"`
}

// FunctionView is the positional, read-only view of a registered function.
// Index is renumbered on every listing, so it always addresses the entry's current position.
type FunctionView struct {
	Index      int    `json:"index"`
	Expression string `json:"expression"`
	Label      string `json:"label"`
	Color      Color  `json:"color"`
}

// Label returns the legend label of an expression.
func Label(expression string) string {
	return LabelPrefix + expression
}

// FormatPoint renders a point the way tooltips show it.
// Negative zero prints as 0.00.
func FormatPoint(x, y float64) string {
	if x == 0 {
		x = 0
	}
	if y == 0 {
		y = 0
	}
	return fmt.Sprintf("(%.2f, %.2f)", x, y)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return isFinite(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
