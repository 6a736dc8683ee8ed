package registry

import "github.com/AbhinitBarua/PlottingCalculator/pkg/domain"

// Allocator hands out display colors in palette order, cycling when the palette
// is exhausted. Colors of removed functions are not reclaimed; the counter only grows.
type Allocator struct {
	palette []domain.Color
	counter uint64
}

// NewAllocator creates an allocator over palette, resuming at counter start.
// An empty palette falls back to domain.DefaultPalette.
func NewAllocator(palette []domain.Color, start uint64) *Allocator {
	if len(palette) == 0 {
		palette = domain.DefaultPalette
	}
	p := make([]domain.Color, len(palette))
	copy(p, palette)
	return &Allocator{palette: p, counter: start}
}

// Next returns the color for the next registered function.
func (a *Allocator) Next() domain.Color {
	c := a.palette[a.counter%uint64(len(a.palette))]
	a.counter++
	return c
}

// unread gives back the color handed out by the last Next.
func (a *Allocator) unread() {
	if a.counter > 0 {
		a.counter--
	}
}

// Counter returns how many colors have been handed out so far.
func (a *Allocator) Counter() uint64 {
	return a.counter
}

// Size returns the palette length.
func (a *Allocator) Size() int {
	return len(a.palette)
}
