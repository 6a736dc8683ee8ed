// Package gonumplot renders plots to images with gonum.org/v1/plot.
package gonumplot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Formats lists the image formats Render accepts.
var Formats = []string{"png", "svg", "pdf", "jpg", "tiff"}

var (
	gridColor = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	axisColor = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
)

// Renderer draws a domain.Plot as a line chart: linear axes crossing at the
// origin, a light grid and one 2pt line per series with its legend label.
type Renderer struct {
	Width     vg.Length
	Height    vg.Length
	Title     string
	LineWidth vg.Length
}

// Option configures the Renderer.
type Option func(*Renderer)

// WithSize sets the canvas size.
func WithSize(width, height vg.Length) Option {
	return func(r *Renderer) {
		r.Width = width
		r.Height = height
	}
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		r.Title = title
	}
}

// NewRenderer creates an 8x6 inch renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		Width:     8 * vg.Inch,
		Height:    6 * vg.Inch,
		LineWidth: vg.Points(2),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build lays out p on a gonum plot without encoding it.
func (r *Renderer) Build(p domain.Plot) (*plot.Plot, error) {
	canvas := plot.New()
	canvas.Title.Text = r.Title
	canvas.X.Label.Text = "x"
	canvas.Y.Label.Text = "y"
	canvas.X.Min, canvas.X.Max = p.Domain.XMin, p.Domain.XMax
	canvas.Legend.Top = true

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	canvas.Add(grid)

	yMin, yMax := yRange(p)
	canvas.Y.Min, canvas.Y.Max = yMin, yMax

	axes, err := originAxes(p.Domain, yMin, yMax)
	if err != nil {
		return nil, err
	}
	canvas.Add(axes...)

	for _, s := range p.Series {
		if len(s.Points) == 0 {
			// Nothing finite to draw; a line over zero points has no data range.
			continue
		}
		line, err := plotter.NewLine(toXYs(s.Points))
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		c, err := ParseColor(s.Color)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		line.LineStyle.Color = c
		line.LineStyle.Width = r.LineWidth
		canvas.Add(line)
		canvas.Legend.Add(s.Label, line)
	}
	return canvas, nil
}

// Render encodes p in format ("png", "svg", ...) to w.
func (r *Renderer) Render(w io.Writer, p domain.Plot, format string) error {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if !IsFormat(format) {
		return fmt.Errorf("unsupported image format %q", format)
	}
	canvas, err := r.Build(p)
	if err != nil {
		return err
	}
	writer, err := canvas.WriterTo(r.Width, r.Height, format)
	if err != nil {
		return fmt.Errorf("failed to lay out plot: %w", err)
	}
	if _, err := writer.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// IsFormat reports whether format is one of Formats.
func IsFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// FormatFromPath derives the image format from a file extension.
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpeg":
		return "jpg"
	case "tif":
		return "tiff"
	}
	return ext
}

// ContentType returns the MIME type of an image format.
func ContentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "svg":
		return "image/svg+xml"
	case "pdf":
		return "application/pdf"
	case "jpg":
		return "image/jpeg"
	case "tiff":
		return "image/tiff"
	}
	return "application/octet-stream"
}

// ParseColor converts "#RRGGBB" into a color usable by gonum.
func ParseColor(c domain.Color) (color.Color, error) {
	parsed, err := colorful.Hex(string(c))
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", c, err)
	}
	return parsed, nil
}

func toXYs(points []domain.Sample) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = pt.X
		xys[i].Y = pt.Y
	}
	return xys
}

// yRange spans every sample and always includes y=0 so the x axis is visible.
func yRange(p domain.Plot) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range p.Series {
		for _, pt := range s.Points {
			lo = math.Min(lo, pt.Y)
			hi = math.Max(hi, pt.Y)
		}
	}
	if math.IsInf(lo, 1) {
		return -1, 1
	}
	lo, hi = math.Min(lo, 0), math.Max(hi, 0)
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func originAxes(d domain.Domain, yMin, yMax float64) ([]plot.Plotter, error) {
	var axes []plot.Plotter

	xAxis, err := plotter.NewLine(plotter.XYs{{X: d.XMin, Y: 0}, {X: d.XMax, Y: 0}})
	if err != nil {
		return nil, err
	}
	xAxis.LineStyle.Color = axisColor
	xAxis.LineStyle.Width = vg.Points(1)
	axes = append(axes, xAxis)

	if d.XMin <= 0 && d.XMax >= 0 {
		yAxis, err := plotter.NewLine(plotter.XYs{{X: 0, Y: yMin}, {X: 0, Y: yMax}})
		if err != nil {
			return nil, err
		}
		yAxis.LineStyle.Color = axisColor
		yAxis.LineStyle.Width = vg.Points(1)
		axes = append(axes, yAxis)
	}
	return axes, nil
}
