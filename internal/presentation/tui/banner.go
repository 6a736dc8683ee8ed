package tui

import (
	"fmt"
	"io"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"        _       _            _      ",
	"  _ __ | | ___ | |_ ___ __ _| | ___ ",
	" | '_ \\| |/ _ \\| __/ __/ _` | |/ __|",
	" | |_) | | (_) | || (_| (_| | | (__ ",
	" | .__/|_|\\___/ \\__\\___\\__,_|_|\\___|",
	" |_|                                ",
}

// PrintBanner writes the plotcalc banner, one palette color per line.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		c := domain.DefaultPalette[i%len(domain.DefaultPalette)]
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(string(c))))
	}
	fmt.Fprintf(w, "  function plotter & calculator %s\n\n", version)
}

// Swatch paints a filled square in color c, or returns a plain one on a colorless terminal.
func Swatch(c domain.Color) string {
	return termenv.String("■").Foreground(termenv.EnvColorProfile().Color(string(c))).String()
}
