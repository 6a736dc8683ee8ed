package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")

	out := buf.String()
	assert.Contains(t, out, "function plotter & calculator 1.2.3")
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), len(bannerLines)+2)
}

func TestSwatch(t *testing.T) {
	assert.Contains(t, Swatch(domain.DefaultPalette[0]), "■")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(60)
	out, err := render("| # | Function |\n|---|---|\n| 0 | `sin(x)` |\n")
	require.NoError(t, err)
	assert.Contains(t, out, "sin(x)")
}
