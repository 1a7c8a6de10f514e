package crossfade

import (
	"image/color"
	"testing"
	"time"

	"go.uber.org/zap"

	"stairlight/internal/frame"
)

func TestCrossfadeProgression(t *testing.T) {
	e := NewEngine(1000, zap.NewNop())
	now := time.Unix(100, 0)
	e.SetClock(func() time.Time { return now })

	old := frame.Solid(4, 4, color.RGBA{R: 200, A: 255})
	live := frame.Solid(4, 4, color.RGBA{B: 100, A: 255})

	e.Start(old)
	if !e.Active() {
		t.Fatal("expected active transition after Start")
	}

	out, err := e.Update(live)
	if err != nil {
		t.Fatalf("Update at t=0: %v", err)
	}
	if out.Pix[0] != 200 || out.Pix[2] != 0 {
		t.Errorf("at t=0 expected snapshot pixels, got R=%d B=%d", out.Pix[0], out.Pix[2])
	}

	now = now.Add(500 * time.Millisecond)
	if p := e.Progress(); p != 0.5 {
		t.Errorf("Progress at halfway = %v, want 0.5", p)
	}
	out, err = e.Update(live)
	if err != nil {
		t.Fatalf("Update at halfway: %v", err)
	}
	if out.Pix[0] != 100 || out.Pix[2] != 50 {
		t.Errorf("at halfway expected 50/50 blend, got R=%d B=%d", out.Pix[0], out.Pix[2])
	}

	now = now.Add(500 * time.Millisecond)
	out, err = e.Update(live)
	if err != nil {
		t.Fatalf("Update at end: %v", err)
	}
	if out != live {
		t.Error("expected live frame returned unchanged after transition end")
	}
	if e.Active() {
		t.Error("expected inactive after transition end")
	}
	if p := e.Progress(); p != 1.0 {
		t.Errorf("Progress after end = %v, want 1.0", p)
	}
}

func TestCrossfadeDisabled(t *testing.T) {
	e := NewEngine(0, zap.NewNop())

	old := frame.Solid(4, 4, color.RGBA{R: 200, A: 255})
	live := frame.Solid(4, 4, color.RGBA{B: 100, A: 255})

	e.Start(old)
	if e.Active() {
		t.Error("Start with zero duration should not activate")
	}
	out, err := e.Update(live)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if out != live {
		t.Error("expected live frame passed through when disabled")
	}
}

func TestCrossfadeNilSnapshot(t *testing.T) {
	e := NewEngine(500, zap.NewNop())
	e.Start(nil)
	if e.Active() {
		t.Error("Start with nil snapshot should not activate")
	}
}

func TestCrossfadeResizesMismatchedSnapshot(t *testing.T) {
	e := NewEngine(1000, zap.NewNop())
	now := time.Unix(100, 0)
	e.SetClock(func() time.Time { return now })

	old := frame.Solid(8, 8, color.RGBA{R: 200, A: 255})
	live := frame.Solid(4, 4, color.RGBA{B: 100, A: 255})

	e.Start(old)
	out, err := e.Update(live)
	if err != nil {
		t.Fatalf("Update with mismatched snapshot: %v", err)
	}
	if out.Bounds() != live.Bounds() {
		t.Errorf("blended bounds %v, want %v", out.Bounds(), live.Bounds())
	}
	if out.Pix[0] != 200 {
		t.Errorf("expected resized snapshot content at t=0, got R=%d", out.Pix[0])
	}
}

func TestCrossfadeRestartReplacesTransition(t *testing.T) {
	e := NewEngine(1000, zap.NewNop())
	now := time.Unix(100, 0)
	e.SetClock(func() time.Time { return now })

	first := frame.Solid(4, 4, color.RGBA{R: 200, A: 255})
	second := frame.Solid(4, 4, color.RGBA{G: 80, A: 255})
	live := frame.Solid(4, 4, color.RGBA{B: 100, A: 255})

	e.Start(first)
	now = now.Add(900 * time.Millisecond)
	e.Start(second)

	out, err := e.Update(live)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// The restarted transition is back at full snapshot weight.
	if out.Pix[1] != 80 || out.Pix[0] != 0 {
		t.Errorf("expected second snapshot at restart, got R=%d G=%d", out.Pix[0], out.Pix[1])
	}
	if p := e.Progress(); p != 0.0 {
		t.Errorf("Progress after restart = %v, want 0", p)
	}
}
