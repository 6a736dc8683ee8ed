package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyExpression is returned when the expression is blank after trimming.
	ErrEmptyExpression = errors.New("empty expression")

	// ErrInvalidDomain is returned when x_min is not strictly less than x_max.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInvalidExpression matches both CompileError and EvaluationError.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrIndexOutOfRange is returned when removing a position that does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrTooManyPoints is returned when a sampling request exceeds MaxPoints.
	ErrTooManyPoints = errors.New("too many points")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")
)

// CompileError reports an expression the evaluator could not parse.
type CompileError struct {
	Expression string
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %q: %v", e.Expression, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidExpression) match.
func (e *CompileError) Is(target error) bool { return target == ErrInvalidExpression }

// EvaluationError reports an expression that compiled but failed its trial evaluation.
type EvaluationError struct {
	Expression string
	X          float64
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %q at x=%g: %v", e.Expression, e.X, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidExpression) match.
func (e *EvaluationError) Is(target error) bool { return target == ErrInvalidExpression }

// UserMessage renders err as the message shown next to the expression input.
func UserMessage(err error) string {
	var compileErr *CompileError
	var evalErr *EvaluationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyExpression):
		return "Please enter a function expression"
	case errors.Is(err, ErrInvalidDomain):
		return "X Min must be less than X Max"
	case errors.As(err, &compileErr):
		return "Invalid expression: " + compileErr.Err.Error()
	case errors.As(err, &evalErr):
		return "Invalid expression: " + evalErr.Err.Error()
	case errors.Is(err, ErrIndexOutOfRange):
		return "No function at that position"
	case errors.Is(err, ErrTooManyPoints):
		return fmt.Sprintf("Points must be at most %d", MaxPoints)
	default:
		return err.Error()
	}
}

// ValidatePoints checks a requested number of sampling intervals.
// n <= 0 is allowed and means the default.
func ValidatePoints(n int) error {
	if n > MaxPoints {
		return fmt.Errorf("%w: %d exceeds %d", ErrTooManyPoints, n, MaxPoints)
	}
	return nil
}
