// Package crossfade implements the time-bounded alpha blend between a
// snapshot of the previous video's last frame and the new video's live
// frames.
package crossfade

import (
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine holds at most one transition at a time. Starting a new crossfade
// while one is active replaces the snapshot and restarts the timer
// (last-start-wins, no queueing).
type Engine struct {
	logger   *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
	duration time.Duration
	active   bool
	start    time.Time
	snapshot *image.RGBA
}

func NewEngine(durationMs int, logger *zap.Logger) *Engine {
	return &Engine{
		logger:   logger,
		now:      time.Now,
		duration: time.Duration(durationMs) * time.Millisecond,
	}
}

// SetClock swaps the time source, used by tests for deterministic elapse.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Start begins a transition from the given snapshot. A no-op when the
// configured duration is zero or negative (crossfade disabled).
func (e *Engine) Start(snapshot *image.RGBA) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.duration <= 0 || snapshot == nil {
		e.active = false
		e.snapshot = nil
		return
	}

	e.active = true
	e.start = e.now()
	e.snapshot = snapshot
	e.logger.Debug("Started crossfade", zap.Duration("duration", e.duration))
}

// Update returns the blended frame for the current instant, or live
// unchanged when no transition is running. A completed transition discards
// the snapshot. A blending failure deactivates the transition and returns
// the live frame alongside the error; crossfade failure is never fatal to
// playback.
func (e *Engine) Update(live *image.RGBA) (*image.RGBA, error) {
	e.mu.Lock()
	if !e.active || e.snapshot == nil {
		e.mu.Unlock()
		return live, nil
	}

	elapsed := e.now().Sub(e.start)
	if elapsed >= e.duration {
		e.active = false
		e.snapshot = nil
		e.mu.Unlock()
		return live, nil
	}

	alpha := 1.0 - float64(elapsed)/float64(e.duration)
	snapshot := e.snapshot
	e.mu.Unlock()

	blended, err := blend(snapshot, live, alpha)
	if err != nil {
		e.logger.Warn("Crossfade blend failed, passing live frame through", zap.Error(err))
		e.mu.Lock()
		e.active = false
		e.snapshot = nil
		e.mu.Unlock()
		return live, err
	}
	return blended, nil
}

// Active reports whether a transition is in flight.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return false
	}
	if e.now().Sub(e.start) >= e.duration {
		e.active = false
		e.snapshot = nil
		return false
	}
	return true
}

// Progress returns how far the transition has advanced in [0,1]. Always 1.0
// once inactive.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active || e.duration <= 0 {
		return 1.0
	}
	p := float64(e.now().Sub(e.start)) / float64(e.duration)
	if p > 1.0 {
		return 1.0
	}
	return p
}
