package player

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
	"time"
)

// NopDisplay discards frames. Used on headless hosts where the render
// surface is bound by an external process reading the preview file or a
// downstream sink.
type NopDisplay struct{}

func (NopDisplay) Present(_ *image.RGBA) error { return nil }

// PreviewDisplay writes the latest frame to a PNG file, at most once per
// interval, for the alignment UI. The write goes through a temp file and
// rename so readers never see a half-written image.
type PreviewDisplay struct {
	path     string
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewPreviewDisplay(path string, interval time.Duration) *PreviewDisplay {
	if interval <= 0 {
		interval = time.Second
	}
	return &PreviewDisplay{path: path, interval: interval}
}

func (d *PreviewDisplay) Present(frame *image.RGBA) error {
	d.mu.Lock()
	due := time.Since(d.last) >= d.interval
	if due {
		d.last = time.Now()
	}
	d.mu.Unlock()
	if !due {
		return nil
	}

	tmp := d.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("preview create: %w", err)
	}
	if err := png.Encode(f, frame); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("preview encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("preview close: %w", err)
	}
	return os.Rename(tmp, d.path)
}
