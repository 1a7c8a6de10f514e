// Package mask implements the six-strip projection geometry: each strip of
// the source frame is warped into an independently shaped quadrilateral on
// the output canvas so the projected image lands on the physical stairs.
package mask

// StripCount is the fixed number of horizontal bands the source is sliced
// into.
const StripCount = 6

// Point is one corner in canvas coordinates.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// StripMask maps one source band onto a destination quadrilateral. Corners
// are ordered top-left, top-right, bottom-right, bottom-left. The corner
// array is a value: editing produces a new StripMask rather than mutating in
// place, so compositing can read masks without coordinating with editors.
// Degenerate or self-intersecting quadrilaterals are not validated here.
type StripMask struct {
	Index   int      `yaml:"index" json:"index"`
	Corners [4]Point `yaml:"corners" json:"corners"`
}

// WithCorner returns a copy of m with one corner moved.
func (m StripMask) WithCorner(i int, p Point) StripMask {
	out := m
	out.Corners[i] = p
	return out
}

// DefaultMasks returns six equal-height rectangles covering a w by h canvas,
// the identity layout used before any physical alignment.
func DefaultMasks(w, h int) [StripCount]StripMask {
	var masks [StripCount]StripMask
	stripHeight := h / StripCount

	for i := 0; i < StripCount; i++ {
		yTop := float64(i * stripHeight)
		yBottom := float64(min((i+1)*stripHeight, h))

		masks[i] = StripMask{
			Index: i,
			Corners: [4]Point{
				{X: 0, Y: yTop},
				{X: float64(w), Y: yTop},
				{X: float64(w), Y: yBottom},
				{X: 0, Y: yBottom},
			},
		}
	}
	return masks
}

// BandCorners returns the TL, TR, BR, BL corners of the i-th equal
// horizontal band of a w by h source frame.
func BandCorners(i, w, h int) [4]Point {
	stripHeight := h / StripCount
	yTop := float64(i * stripHeight)
	yBottom := float64(min((i+1)*stripHeight, h))

	return [4]Point{
		{X: 0, Y: yTop},
		{X: float64(w), Y: yTop},
		{X: float64(w), Y: yBottom},
		{X: 0, Y: yBottom},
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
