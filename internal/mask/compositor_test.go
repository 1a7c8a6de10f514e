package mask

import (
	"image"
	"image/color"
	"testing"

	"go.uber.org/zap"

	"stairlight/internal/frame"
)

func TestApplyIdentityLayoutPreservesSolidFrame(t *testing.T) {
	w, h := 60, 36
	comp := NewCompositor(w, h, DefaultMasks(w, h), zap.NewNop())

	want := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	src := frame.Solid(w, h, want)

	out, err := comp.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Bounds().Dx() != w || out.Bounds().Dy() != h {
		t.Fatalf("output %v, want %dx%d", out.Bounds(), w, h)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := out.PixOffset(x, y)
			if out.Pix[i] != want.R || out.Pix[i+1] != want.G || out.Pix[i+2] != want.B {
				t.Fatalf("pixel (%d,%d) = %v, want %v",
					x, y, out.Pix[i:i+4], []uint8{want.R, want.G, want.B, want.A})
			}
		}
	}
}

func TestApplyIdentityLayoutKeepsBands(t *testing.T) {
	w, h := 60, 36
	comp := NewCompositor(w, h, DefaultMasks(w, h), zap.NewNop())

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	bandH := h / StripCount
	for y := 0; y < h; y++ {
		band := uint8(y / bandH)
		for x := 0; x < w; x++ {
			i := src.PixOffset(x, y)
			src.Pix[i] = band * 40
			src.Pix[i+3] = 255
		}
	}

	out, err := comp.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Sample the middle of each band; identity masks keep content in place.
	for band := 0; band < StripCount; band++ {
		y := band*bandH + bandH/2
		i := out.PixOffset(w/2, y)
		if out.Pix[i] != uint8(band)*40 {
			t.Errorf("band %d sample R = %d, want %d", band, out.Pix[i], band*40)
		}
	}
}

func TestApplyScalesToCanvasSize(t *testing.T) {
	canvasW, canvasH := 120, 72
	comp := NewCompositor(canvasW, canvasH, DefaultMasks(canvasW, canvasH), zap.NewNop())

	// Source smaller than canvas; the homographies map canvas coordinates
	// back into the source bands.
	src := frame.Solid(60, 36, color.RGBA{R: 99, A: 255})

	out, err := comp.Apply(src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Bounds().Dx() != canvasW || out.Bounds().Dy() != canvasH {
		t.Fatalf("output %v, want %dx%d", out.Bounds(), canvasW, canvasH)
	}
	if i := out.PixOffset(canvasW/2, canvasH/2); out.Pix[i] != 99 {
		t.Errorf("center pixel R = %d, want 99", out.Pix[i])
	}
}

func TestApplyDegenerateLayoutPassesThrough(t *testing.T) {
	w, h := 60, 36
	var collapsed [StripCount]StripMask
	for i := range collapsed {
		collapsed[i] = StripMask{
			Index:   i,
			Corners: [4]Point{{5, 5}, {5, 5}, {5, 5}, {5, 5}},
		}
	}
	comp := NewCompositor(w, h, collapsed, zap.NewNop())

	src := frame.Solid(w, h, color.RGBA{R: 7, A: 255})
	out, err := comp.Apply(src)
	if err == nil {
		t.Fatal("expected error for fully degenerate layout")
	}
	if out != src {
		t.Error("expected source frame passed through unchanged on failure")
	}
}

func TestApplyPartiallyDegenerateLayoutRendersRest(t *testing.T) {
	w, h := 60, 36
	masks := DefaultMasks(w, h)
	masks[3] = StripMask{Index: 3, Corners: [4]Point{{5, 5}, {5, 5}, {5, 5}, {5, 5}}}
	comp := NewCompositor(w, h, masks, zap.NewNop())

	src := frame.Solid(w, h, color.RGBA{G: 50, A: 255})
	out, err := comp.Apply(src)
	if err != nil {
		t.Fatalf("Apply with one bad strip: %v", err)
	}

	// Strip 0 renders, strip 3's region stays blank.
	if i := out.PixOffset(10, 2); out.Pix[i+1] != 50 {
		t.Errorf("strip 0 not rendered, G = %d", out.Pix[i+1])
	}
	if i := out.PixOffset(10, 3*6+2); out.Pix[i+1] != 0 {
		t.Errorf("degenerate strip region rendered, G = %d", out.Pix[i+1])
	}
}

func TestSetMasksTakesEffect(t *testing.T) {
	w, h := 60, 36
	comp := NewCompositor(w, h, DefaultMasks(w, h), zap.NewNop())

	src := frame.Solid(w, h, color.RGBA{B: 200, A: 255})
	if _, err := comp.Apply(src); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Shrink every strip onto the left half of the canvas.
	masks := DefaultMasks(w, h)
	for i := range masks {
		for j := range masks[i].Corners {
			masks[i].Corners[j].X /= 2
		}
	}
	comp.SetMasks(masks)

	out, err := comp.Apply(src)
	if err != nil {
		t.Fatalf("Apply after SetMasks: %v", err)
	}
	if i := out.PixOffset(10, 18); out.Pix[i+2] != 200 {
		t.Errorf("left half not rendered, B = %d", out.Pix[i+2])
	}
	if i := out.PixOffset(50, 18); out.Pix[i+2] != 0 {
		t.Errorf("right half should be blank, B = %d", out.Pix[i+2])
	}
}
