package player

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"stairlight/internal/catalog"
	"stairlight/internal/crossfade"
	"stairlight/internal/frame"
	"stairlight/internal/mask"
	"stairlight/internal/metrics"
	"stairlight/internal/resilience"
	"stairlight/internal/trigger"
	types "stairlight/pkg"
)

// session is one running playback loop. Cancelling the context stops the
// loop at its next iteration boundary; done closes when the goroutine exits.
type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine orchestrates playback: it resolves triggers into videos, drives
// crossfade transitions, runs the per-frame composite pipeline, and routes
// every failure to the resilience core.
type Engine struct {
	catalog   *catalog.Catalog
	resolver  *trigger.Resolver
	fade      *crossfade.Engine
	comp      *mask.Compositor
	resilient *resilience.Handler
	backend   Backend
	display   Display
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       types.PlaybackConfig

	sleep func(time.Duration)

	// switchMu serializes the stop-then-register video switch so two
	// concurrent triggers cannot install a session over one that was
	// never cancelled. It is separate from mu because stopSession
	// releases mu while waiting for the old loop to exit.
	switchMu sync.Mutex

	mu          sync.Mutex
	sess        *session
	currentID   string
	state       trigger.State
	lastFrame   *image.RGBA
	lastTrigger time.Time
}

func NewEngine(
	cat *catalog.Catalog,
	resolver *trigger.Resolver,
	fade *crossfade.Engine,
	comp *mask.Compositor,
	resilient *resilience.Handler,
	backend Backend,
	display Display,
	m *metrics.Metrics,
	cfg types.PlaybackConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		catalog:     cat,
		resolver:    resolver,
		fade:        fade,
		comp:        comp,
		resilient:   resilient,
		backend:     backend,
		display:     display,
		metrics:     m,
		logger:      logger,
		cfg:         cfg,
		sleep:       time.Sleep,
		state:       trigger.StateAmbient,
		lastTrigger: time.Now(),
	}
}

// HandleTrigger processes one trigger message: debounce, resolve, snapshot
// the last frame into the crossfade engine, and switch playback. The
// watchdog synthesizes triggers through this same path.
func (e *Engine) HandleTrigger(state trigger.State, media string) {
	e.metrics.IncTriggers()

	e.mu.Lock()
	e.lastTrigger = time.Now()
	e.state = state
	e.mu.Unlock()

	// Debounce rapid trigger flapping before committing to a switch.
	if d := time.Duration(e.cfg.StateChangeBufferMs) * time.Millisecond; d > 0 {
		e.sleep(d)
	}

	target, ok := e.resolver.Resolve(state, media)
	if !ok {
		e.handleUnresolved(state, media)
		return
	}

	e.beginCrossfade()
	if err := e.StartPlayback(target); err != nil {
		e.logger.Error("Failed to switch playback", zap.String("target", target), zap.Error(err))
		e.fallbackToAmbient()
	}
}

// handleUnresolved runs the ambient fallback path when resolution produced
// no target.
func (e *Engine) handleUnresolved(state trigger.State, media string) {
	ctx := map[string]any{"state": string(state), "requested_media": media}

	fb, exists := e.catalog.FallbackAmbient()
	if !exists {
		e.resilient.Report(resilience.ComponentPlayback, resilience.ErrVideoNotFound,
			resilience.SeverityMedium, "No target resolved and no fallback ambient available", ctx)
		return
	}

	e.resilient.Report(resilience.ComponentPlayback, resilience.ErrVideoNotFound,
		resilience.SeverityMedium, "No target resolved, falling back to ambient", ctx)
	e.beginCrossfade()
	if err := e.StartPlayback(fb); err != nil {
		e.logger.Error("Fallback ambient playback failed", zap.String("video", fb), zap.Error(err))
	}
}

// PlayFallbackAmbient switches to the fallback ambient video, for use as
// the playback fallback strategy.
func (e *Engine) PlayFallbackAmbient() error {
	fb, exists := e.catalog.FallbackAmbient()
	if !exists {
		return fmt.Errorf("no fallback ambient video available")
	}
	return e.StartPlayback(fb)
}

func (e *Engine) fallbackToAmbient() {
	fb, exists := e.catalog.FallbackAmbient()
	if !exists {
		e.logger.Error("No fallback ambient video available")
		return
	}
	e.logger.Info("Falling back to ambient video", zap.String("video", fb))
	if err := e.StartPlayback(fb); err != nil {
		e.logger.Error("Fallback ambient playback failed", zap.String("video", fb), zap.Error(err))
	}
}

// beginCrossfade snapshots the last displayed frame into the crossfade
// engine. A trigger arriving mid-transition simply restarts the transition
// against the newly captured frame (last-start-wins).
func (e *Engine) beginCrossfade() {
	if e.cfg.CrossfadeDurationMs <= 0 {
		return
	}

	e.mu.Lock()
	last := e.lastFrame
	e.mu.Unlock()
	if last == nil {
		return
	}

	e.fade.Start(frame.Clone(last))
	e.metrics.IncCrossfades()
}

// StartPlayback switches to the given catalog id, stopping any current
// playback loop first.
func (e *Engine) StartPlayback(id string) error {
	asset, ok := e.catalog.Get(id)
	if !ok {
		e.resilient.Report(resilience.ComponentPlayback, resilience.ErrVideoNotFound,
			resilience.SeverityMedium, fmt.Sprintf("Video %q not found in catalog", id),
			map[string]any{"requested_video": id})
		return fmt.Errorf("video %q not in catalog", id)
	}

	e.switchMu.Lock()
	defer e.switchMu.Unlock()
	e.stopSession()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{cancel: cancel, done: make(chan struct{})}

	e.mu.Lock()
	e.sess = s
	e.currentID = id
	e.mu.Unlock()

	go e.playLoop(ctx, asset, s)
	e.logger.Info("Started playback", zap.String("video", id))
	return nil
}

// Stop halts the current playback loop and releases its decode handle.
func (e *Engine) Stop() {
	e.switchMu.Lock()
	defer e.switchMu.Unlock()
	e.stopSession()
	e.mu.Lock()
	e.currentID = ""
	e.mu.Unlock()
}

func (e *Engine) stopSession() {
	e.mu.Lock()
	s := e.sess
	e.sess = nil
	e.mu.Unlock()
	if s == nil {
		return
	}

	s.cancel()
	select {
	case <-s.done:
	case <-time.After(time.Second):
		e.logger.Warn("Playback loop did not stop within 1s")
	}
}

// playLoop decodes and renders frames until cancelled, end-of-stream with
// looping disabled, or an unrecoverable error.
func (e *Engine) playLoop(ctx context.Context, asset catalog.Asset, s *session) {
	defer close(s.done)

	h, err := e.backend.Open(asset.Path)
	if err != nil {
		// Detach before reporting so a fallback strategy fired by the
		// report can start a new session without waiting on this one.
		e.clearSession(s)
		e.resilient.Report(resilience.ComponentPlayback, resilience.ErrPlaybackStartFailed,
			resilience.SeverityHigh, fmt.Sprintf("Failed to open %q for playback", asset.ID),
			map[string]any{"video_id": asset.ID, "error": err.Error()})
		return
	}
	defer h.Close()

	fps := asset.FPS
	if fps <= 0 {
		fps = float64(e.cfg.DisplayFPS)
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		f, eos, err := h.NextFrame()
		if err != nil {
			e.clearSession(s)
			e.resilient.Report(resilience.ComponentPlayback, resilience.ErrPlaybackLoopError,
				resilience.SeverityHigh, "Video playback loop encountered error",
				map[string]any{"current_video": asset.ID, "error": err.Error()})
			return
		}

		if eos {
			if !e.cfg.LoopEnabled {
				e.logger.Info("End of stream, looping disabled", zap.String("video", asset.ID))
				e.clearSession(s)
				return
			}
			if err := h.SeekStart(); err != nil {
				e.clearSession(s)
				e.resilient.Report(resilience.ComponentPlayback, resilience.ErrPlaybackLoopError,
					resilience.SeverityHigh, "Failed to restart video for loop",
					map[string]any{"current_video": asset.ID, "error": err.Error()})
				return
			}
			e.logger.Debug("Looping video", zap.String("video", asset.ID))
			continue
		}

		if f == nil {
			continue
		}
		e.renderFrame(f)
	}
}

// renderFrame runs one frame through crossfade and compositing and hands the
// result to the display. Blend and warp failures degrade visually and are
// reported; they never stop the loop.
func (e *Engine) renderFrame(f *image.RGBA) {
	e.mu.Lock()
	e.lastFrame = f
	e.mu.Unlock()

	blended, err := e.fade.Update(f)
	if err != nil {
		e.resilient.Report(resilience.ComponentPlayback, resilience.ErrCrossfadeFailed,
			resilience.SeverityMedium, "Crossfade blend failed, showing live frame",
			map[string]any{"error": err.Error()})
	}

	out, err := e.comp.Apply(blended)
	if err != nil {
		e.metrics.IncCompositeFallbacks()
		e.resilient.Report(resilience.ComponentMask, resilience.ErrCompositeFailed,
			resilience.SeverityMedium, "Mask composite failed, showing unwarped frame",
			map[string]any{"error": err.Error()})
	}

	if err := e.display.Present(out); err != nil {
		e.resilient.Report(resilience.ComponentDisplay, resilience.ErrPresentFailed,
			resilience.SeverityMedium, "Display present failed",
			map[string]any{"error": err.Error()})
		return
	}
	e.metrics.IncFrames()
}

// clearSession detaches s from the engine if it is still the active session.
func (e *Engine) clearSession(s *session) {
	e.mu.Lock()
	if e.sess == s {
		e.sess = nil
		e.currentID = ""
	}
	e.mu.Unlock()
}

// CheckWatchdog synthesizes an ambient trigger when no trigger has arrived
// within the configured timeout. Runs as a periodic scheduler task.
func (e *Engine) CheckWatchdog() {
	timeout := time.Duration(e.cfg.TriggerTimeoutSeconds) * time.Second

	e.mu.Lock()
	age := time.Since(e.lastTrigger)
	e.mu.Unlock()
	if age < timeout {
		return
	}

	e.logger.Warn("Trigger timeout, synthesizing ambient trigger",
		zap.Duration("age", age), zap.Duration("timeout", timeout))
	e.resilient.Report(resilience.ComponentConnectivity, resilience.ErrMessageTimeout,
		resilience.SeverityLow, "No trigger received within timeout",
		map[string]any{"age_seconds": age.Seconds()})
	e.HandleTrigger(trigger.StateAmbient, "")
}

// Status is the engine's view for the status API.
type Status struct {
	CurrentVideo    string `json:"current_video"`
	Playing         bool   `json:"playing"`
	State           string `json:"state"`
	FallbackVideo   string `json:"fallback_video,omitempty"`
	AvailableVideos int    `json:"available_videos"`
	CrossfadeActive bool   `json:"crossfade_active"`
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	fb, _ := e.catalog.FallbackAmbient()
	return Status{
		CurrentVideo:    e.currentID,
		Playing:         e.sess != nil,
		State:           string(e.state),
		FallbackVideo:   fb,
		AvailableVideos: e.catalog.Len(),
		CrossfadeActive: e.fade.Active(),
	}
}
