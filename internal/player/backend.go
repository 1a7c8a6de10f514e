// Package player ties trigger resolution, crossfading, and mask compositing
// together into the per-frame playback pipeline.
package player

import (
	"image"

	"stairlight/internal/catalog"
)

// Handle is one open playback session on a media file. Implementations
// return a fresh frame buffer from each NextFrame call; the engine retains
// the returned frame across calls.
type Handle interface {
	// NextFrame returns the next decoded frame, or eos=true at end of
	// stream (with a nil frame).
	NextFrame() (frame *image.RGBA, eos bool, err error)
	// SeekStart rewinds to the first frame for loop restarts.
	SeekStart() error
	Close() error
}

// Backend decodes video files. Real decoding lives outside this core; the
// engine only depends on this contract.
type Backend interface {
	Open(path string) (Handle, error)
	Probe(path string) (catalog.Metadata, error)
}

// Display receives composited output frames.
type Display interface {
	Present(frame *image.RGBA) error
}
