package player

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"stairlight/internal/catalog"
	"stairlight/internal/frame"
)

// SyntheticBackend renders a moving test pattern instead of decoding real
// media, for development machines without a decoder and for tests. Each
// "file" just needs to exist; its contents are ignored.
type SyntheticBackend struct {
	Width  int
	Height int
	FPS    float64
	// Frames per loop before end-of-stream.
	LoopFrames int
}

func NewSyntheticBackend(width, height int, fps float64) *SyntheticBackend {
	return &SyntheticBackend{
		Width:      width,
		Height:     height,
		FPS:        fps,
		LoopFrames: int(fps * 10),
	}
}

func (b *SyntheticBackend) Probe(path string) (catalog.Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		return catalog.Metadata{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return catalog.Metadata{
		Width:    b.Width,
		Height:   b.Height,
		FPS:      b.FPS,
		Duration: float64(b.LoopFrames) / b.FPS,
	}, nil
}

func (b *SyntheticBackend) Open(path string) (Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &syntheticHandle{backend: b}, nil
}

type syntheticHandle struct {
	backend *SyntheticBackend
	pos     int
	closed  bool
}

func (h *syntheticHandle) NextFrame() (*image.RGBA, bool, error) {
	if h.closed {
		return nil, false, fmt.Errorf("handle closed")
	}
	if h.pos >= h.backend.LoopFrames {
		return nil, true, nil
	}

	// Sweep brightness over the loop so motion is visible on the stairs.
	v := uint8(55 + (h.pos*200)/h.backend.LoopFrames)
	img := frame.Solid(h.backend.Width, h.backend.Height, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
	h.pos++
	return img, false, nil
}

func (h *syntheticHandle) SeekStart() error {
	if h.closed {
		return fmt.Errorf("handle closed")
	}
	h.pos = 0
	return nil
}

func (h *syntheticHandle) Close() error {
	h.closed = true
	return nil
}
