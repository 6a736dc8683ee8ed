package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	// Flag values live on the shared command tree between runs.
	for _, c := range rootCmd.Commands() {
		if f := c.Flags().Lookup("points"); f != nil {
			require.NoError(t, f.Value.Set("0"))
			f.Changed = false
		}
	}
	missing := filepath.Join(t.TempDir(), "none.yaml")
	rootCmd.SetArgs(append(args, "--config", missing, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCalcCommand(t *testing.T) {
	out, err := execute(t, "calc", "2^10", "+", "1")
	require.NoError(t, err)
	assert.Equal(t, "1025\n", out)

	out, err = execute(t, "calc", "2", "+")
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "Error: "), out)
}

func TestSampleCommand(t *testing.T) {
	out, err := execute(t, "sample", "x^2", "--x-min", "-2", "--x-max", "2", "--points", "4")
	require.NoError(t, err)
	assert.Equal(t, "(-2.00, 4.00)\n(-1.00, 1.00)\n(0.00, 0.00)\n(1.00, 1.00)\n(2.00, 4.00)\n", out)

	_, err = execute(t, "sample", "x^2", "--x-min", "1", "--x-max", "1")
	assert.ErrorContains(t, err, "X Min must be less than X Max")

	_, err = execute(t, "sample", "x", "--points", "20000")
	assert.ErrorContains(t, err, "Points must be at most 10000")

	out, err = execute(t, "sample", "-x^2", "--x-min", "-1", "--x-max", "1", "--points", "2")
	require.NoError(t, err)
	assert.Equal(t, "(-1.00, -1.00)\n(0.00, 0.00)\n(1.00, -1.00)\n", out)
}

func TestPlotCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curves.svg")
	out, err := execute(t, "plot", "-e", "sin(x)", "-e", "x", "-o", path, "--points", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 function(s)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	_, err = execute(t, "plot", "-e", "x", "-o", filepath.Join(t.TempDir(), "curves.gif"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "plotcalc version "))
}
