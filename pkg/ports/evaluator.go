package ports

// Program is a compiled expression that can be evaluated repeatedly.
// A Program is owned by the registry entry it was compiled for.
type Program interface {
	// Source returns the expression text the program was compiled from.
	Source() string

	// Eval evaluates the program with the given variable bindings.
	// It returns an error if the expression cannot be evaluated at that point.
	Eval(bindings map[string]float64) (float64, error)
}

// Evaluator compiles and evaluates mathematical expressions.
type Evaluator interface {
	// Compile parses text into a reusable Program.
	Compile(text string) (Program, error)

	// Evaluate parses and evaluates text once, without variable bindings.
	Evaluate(text string) (float64, error)
}
