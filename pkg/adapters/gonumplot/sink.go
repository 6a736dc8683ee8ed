package gonumplot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
)

// FileSink re-renders the plot into an image file on every refresh.
// The file is replaced atomically so viewers never see a half-written image.
type FileSink struct {
	Path     string
	Renderer *Renderer
}

// NewFileSink creates a sink writing to path; the format follows the extension.
func NewFileSink(path string, renderer *Renderer) (*FileSink, error) {
	if !IsFormat(FormatFromPath(path)) {
		return nil, fmt.Errorf("unsupported image format for %s", path)
	}
	if renderer == nil {
		renderer = NewRenderer()
	}
	return &FileSink{Path: path, Renderer: renderer}, nil
}

// Replace renders p and swaps it in place of the previous image.
func (s *FileSink) Replace(ctx context.Context, p domain.Plot) error {
	var buf bytes.Buffer
	if err := s.Renderer.Render(&buf, p, FormatFromPath(s.Path)); err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".plot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path)
}

// BufferSink keeps the latest rendering in memory.
// Safe for concurrent use.
type BufferSink struct {
	Format   string
	Renderer *Renderer

	mu    sync.RWMutex
	image []byte
}

// NewBufferSink creates an in-memory sink encoding in format.
func NewBufferSink(format string, renderer *Renderer) *BufferSink {
	if renderer == nil {
		renderer = NewRenderer()
	}
	return &BufferSink{Format: format, Renderer: renderer}
}

// Replace renders p, discarding the previous image.
func (s *BufferSink) Replace(ctx context.Context, p domain.Plot) error {
	var buf bytes.Buffer
	if err := s.Renderer.Render(&buf, p, s.Format); err != nil {
		return err
	}
	s.mu.Lock()
	s.image = buf.Bytes()
	s.mu.Unlock()
	return nil
}

// Bytes returns the latest image, nil before the first refresh.
func (s *BufferSink) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image
}
