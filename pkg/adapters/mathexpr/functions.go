package mathexpr

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"
)

type unary func(float64) float64

type binary func(float64, float64) float64

// Functions returns the function table available to expressions.
func Functions() map[string]govaluate.ExpressionFunction {
	fns := map[string]govaluate.ExpressionFunction{
		"pow":   wrap2("pow", math.Pow),
		"atan2": wrap2("atan2", math.Atan2),
		"hypot": wrap2("hypot", math.Hypot),
		"mod":   wrap2("mod", math.Mod),
		"min":   variadic("min", math.Min),
		"max":   variadic("max", math.Max),
		"nthRoot": wrap2("nthRoot", func(x, n float64) float64 {
			if x < 0 && math.Mod(n, 2) == 1 {
				return -math.Pow(-x, 1/n)
			}
			return math.Pow(x, 1/n)
		}),
	}

	unaries := map[string]unary{
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"sinh":  math.Sinh,
		"cosh":  math.Cosh,
		"tanh":  math.Tanh,
		"exp":   math.Exp,
		"log":   math.Log,
		"ln":    math.Log,
		"log10": math.Log10,
		"log2":  math.Log2,
		"sqrt":  math.Sqrt,
		"cbrt":  math.Cbrt,
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
		"sign": func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return 0
		},
	}
	for name, fn := range unaries {
		fns[name] = wrap1(name, fn)
	}
	return fns
}

func wrap1(name string, fn unary) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
		}
		x, err := toFloat(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return fn(x), nil
	}
}

func wrap2(name string, fn binary) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
		}
		a, err := toFloat(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		b, err := toFloat(args[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return fn(a, b), nil
	}
}

func variadic(name string, fn binary) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%s expects at least 1 argument", name)
		}
		acc, err := toFloat(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, arg := range args[1:] {
			v, err := toFloat(arg)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			acc = fn(acc, v)
		}
		return acc, nil
	}
}

// FunctionNames lists the callable functions in alphabetical order.
func FunctionNames() []string {
	fns := Functions()
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
