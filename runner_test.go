package plotcalc_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	plotcalc "github.com/AbhinitBarua/PlottingCalculator"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, svc *plotcalc.Service, r *plotcalc.Runner, script string) string {
	t.Helper()
	var out bytes.Buffer
	r.Input = strings.NewReader(script)
	r.Output = &out
	r.Headless = true
	require.NoError(t, r.Run(context.Background(), svc))
	return out.String()
}

func TestRunner_Session(t *testing.T) {
	svc := newService(t)

	out := runScript(t, svc, &plotcalc.Runner{}, strings.Join([]string{
		"add x^2",
		"add",
		"domain 5 5",
		"domain -2 2",
		"at 1 -2",
		"at 0 0",
		"rm 0",
		"rm 9",
		"ls",
		"calc 6*7",
		"bogus",
		"exit",
		"add never-reached",
	}, "\n"))

	assert.Contains(t, out, "[1] f(x) = x^2 #EA4335")
	assert.Contains(t, out, "Please enter a function expression")
	assert.Contains(t, out, "X Min must be less than X Max")
	assert.Contains(t, out, "x in [-2, 2]")
	assert.Contains(t, out, "(-2.00, 4.00)")
	assert.Contains(t, out, "(0.00, 0.00)")
	assert.Contains(t, out, "removed f(x) = sin(x)")
	assert.Contains(t, out, "No function at that position")
	assert.Contains(t, out, "| 0 | `f(x) = x^2` | #EA4335 |")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, "Bye!")
	assert.NotContains(t, out, "never-reached")

	state, err := svc.View(context.Background(), "repl")
	require.NoError(t, err)
	require.Len(t, state.Functions, 1)
}

func TestRunner_UndefinedPointAndEOF(t *testing.T) {
	svc := newService(t, plotcalc.WithInitialFunctions("1/x"))

	out := runScript(t, svc, &plotcalc.Runner{SessionID: "poles"}, "at 0 0\nat 0 2")

	assert.Contains(t, out, "undefined at x=0")
	assert.Contains(t, out, "(2.00, 0.50)")
}

func TestRunner_SaveUsesExporter(t *testing.T) {
	svc := newService(t)

	var exported domain.Plot
	var path string
	r := &plotcalc.Runner{
		Exporter: func(_ context.Context, plot domain.Plot, p string) error {
			exported, path = plot, p
			return nil
		},
		Renderer: func(md string) (string, error) { return "RENDERED\n" + md, nil },
	}
	out := runScript(t, svc, r, "save out.png\nhelp\n")

	assert.Equal(t, "out.png", path)
	require.Len(t, exported.Series, 1)
	assert.Contains(t, out, "wrote out.png")
	assert.Contains(t, out, "RENDERED")
}

func TestRunner_RequiresIO(t *testing.T) {
	svc := newService(t)
	err := (&plotcalc.Runner{}).Run(context.Background(), svc)
	assert.Error(t, err)
}
