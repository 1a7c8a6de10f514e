package mask

import (
	"fmt"
	"image"
	"math"
	"sync"

	"go.uber.org/zap"
)

// Compositor warps a source frame into the six strip quadrilaterals on a
// fixed-size output canvas. Strips are painted in index order 0..5, so a
// later strip overwrites earlier ones where destination quads overlap.
type Compositor struct {
	logger  *zap.Logger
	canvasW int
	canvasH int

	mu    sync.RWMutex
	masks [StripCount]StripMask

	// dst->src transforms, rebuilt when masks change or the source frame
	// dimensions differ from the cached ones.
	inv      [StripCount]Homography
	invBad   [StripCount]bool
	invSrcW  int
	invSrcH  int
	invValid bool
}

func NewCompositor(canvasW, canvasH int, masks [StripCount]StripMask, logger *zap.Logger) *Compositor {
	return &Compositor{
		logger:  logger,
		canvasW: canvasW,
		canvasH: canvasH,
		masks:   masks,
	}
}

// Masks returns a copy of the current strip layout.
func (c *Compositor) Masks() [StripCount]StripMask {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.masks
}

// SetMasks replaces the strip layout and invalidates cached transforms.
func (c *Compositor) SetMasks(masks [StripCount]StripMask) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masks = masks
	c.invValid = false
}

// CanvasSize returns the fixed output dimensions.
func (c *Compositor) CanvasSize() (int, int) {
	return c.canvasW, c.canvasH
}

// Apply composites src into the six strip regions and returns a frame of the
// configured canvas size. On failure the original source frame is returned
// unmodified alongside the error; a broken layout degrades the picture,
// never playback.
func (c *Compositor) Apply(src *image.RGBA) (*image.RGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("compositor: nil source frame")
	}

	b := src.Bounds()
	masks, inv, bad, err := c.transforms(b.Dx(), b.Dy())
	if err != nil {
		c.logger.Warn("Mask transforms unavailable, passing frame through", zap.Error(err))
		return src, err
	}

	out := image.NewRGBA(image.Rect(0, 0, c.canvasW, c.canvasH))
	for i := 0; i < StripCount; i++ {
		if bad[i] {
			continue
		}
		c.renderStrip(out, src, masks[i], inv[i])
	}
	return out, nil
}

// transforms returns the current masks with their cached inverse transforms,
// rebuilding the cache when stale. Strips whose perspective solve failed are
// flagged rather than failing the whole composite; the error return is
// reserved for the degenerate case where no strip can be rendered.
func (c *Compositor) transforms(srcW, srcH int) ([StripCount]StripMask, [StripCount]Homography, [StripCount]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.invValid || c.invSrcW != srcW || c.invSrcH != srcH {
		usable := 0
		for i := 0; i < StripCount; i++ {
			band := BandCorners(i, srcW, srcH)
			h, err := SolveHomography(c.masks[i].Corners, band)
			if err != nil {
				c.logger.Warn("Perspective solve failed for strip",
					zap.Int("strip", i), zap.Error(err))
				c.invBad[i] = true
				continue
			}
			c.inv[i] = h
			c.invBad[i] = false
			usable++
		}
		c.invSrcW = srcW
		c.invSrcH = srcH
		c.invValid = true

		if usable == 0 {
			c.invValid = false
			return c.masks, c.inv, c.invBad, fmt.Errorf("no usable strip transforms for %dx%d source", srcW, srcH)
		}
	}

	return c.masks, c.inv, c.invBad, nil
}

// renderStrip paints one destination quadrilateral by inverse-mapping each
// covered canvas pixel back into the source frame (nearest sample).
func (c *Compositor) renderStrip(out, src *image.RGBA, m StripMask, inv Homography) {
	minX, minY, maxX, maxY := quadBounds(m.Corners)

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > c.canvasW-1 {
		maxX = c.canvasW - 1
	}
	if maxY > c.canvasH-1 {
		maxY = c.canvasH - 1
	}

	sb := src.Bounds()
	srcW, srcH := sb.Dx(), sb.Dy()

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !pointInQuad(float64(x), float64(y), m.Corners) {
				continue
			}

			u, v, ok := inv.Apply(float64(x), float64(y))
			if !ok {
				continue
			}
			sx := int(math.Round(u))
			sy := int(math.Round(v))
			if sx < 0 || sx >= srcW || sy < 0 || sy >= srcH {
				continue
			}

			si := src.PixOffset(sb.Min.X+sx, sb.Min.Y+sy)
			di := out.PixOffset(x, y)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
}

func quadBounds(corners [4]Point) (minX, minY, maxX, maxY int) {
	minXf, minYf := corners[0].X, corners[0].Y
	maxXf, maxYf := corners[0].X, corners[0].Y
	for _, p := range corners[1:] {
		minXf = math.Min(minXf, p.X)
		minYf = math.Min(minYf, p.Y)
		maxXf = math.Max(maxXf, p.X)
		maxYf = math.Max(maxYf, p.Y)
	}
	return int(math.Floor(minXf)), int(math.Floor(minYf)), int(math.Ceil(maxXf)), int(math.Ceil(maxYf))
}

// pointInQuad is an even-odd ray cast, so non-convex and self-intersecting
// quadrilaterals fill the same way the strips were filled historically.
func pointInQuad(x, y float64, corners [4]Point) bool {
	inside := false
	j := 3
	for i := 0; i < 4; i++ {
		yi, yj := corners[i].Y, corners[j].Y
		if (yi > y) != (yj > y) {
			xint := (corners[j].X-corners[i].X)*(y-yi)/(yj-yi) + corners[i].X
			if x < xint {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
