package domain

const (
	// Variable is the free variable every plotted expression is written in.
	Variable = "x"

	// DefaultPoints is the number of sampling intervals per series.
	DefaultPoints = 500

	// MaxPoints bounds the sampling intervals of one series.
	MaxPoints = 10000

	// TrialX is the point each expression is evaluated at before it is registered.
	TrialX = 1.0

	// LabelPrefix prefixes a series label, e.g. "f(x) = sin(x)".
	LabelPrefix = "f(x) = "
)
