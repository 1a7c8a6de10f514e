package crossfade

import (
	"fmt"
	"image"

	"stairlight/internal/frame"
)

// blend computes alpha*old + (1-alpha)*live per pixel. The snapshot is
// resized to the live frame's dimensions first when they differ.
func blend(old, live *image.RGBA, alpha float64) (*image.RGBA, error) {
	if old == nil || live == nil {
		return nil, fmt.Errorf("blend: nil frame")
	}

	lb := live.Bounds()
	old = frame.Resize(old, lb.Dx(), lb.Dy())

	if len(old.Pix) != len(live.Pix) {
		return nil, fmt.Errorf("blend: buffer length mismatch %d vs %d", len(old.Pix), len(live.Pix))
	}

	out := image.NewRGBA(lb)
	a := uint32(alpha*256 + 0.5)
	if a > 256 {
		a = 256
	}
	b := 256 - a
	for i := range out.Pix {
		out.Pix[i] = uint8((uint32(old.Pix[i])*a + uint32(live.Pix[i])*b) >> 8)
	}
	return out, nil
}
