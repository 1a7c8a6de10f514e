// Package frame holds the pixel-buffer helpers shared by the blending and
// compositing stages. Frames are plain *image.RGBA buffers as delivered by
// the decode backend.
package frame

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Clone returns a deep copy of src.
func Clone(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// Resize scales src to the given dimensions with nearest-neighbor sampling.
// Returns src itself when the size already matches.
func Resize(src *image.RGBA, width, height int) *image.RGBA {
	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// Solid returns a frame filled with a single color, used by the synthetic
// backend and in tests.
func Solid(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}
