package resilience

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestEscalation(t *testing.T) {
	h := NewHandler(zap.NewNop())

	if h.State() != StateNormal {
		t.Fatalf("initial state = %v", h.State())
	}

	h.Report(ComponentPlayback, ErrVideoNotFound, SeverityLow, "low", nil)
	if h.State() != StateDegraded {
		t.Errorf("after low severity state = %v, want degraded", h.State())
	}

	// A second low-severity event does not escalate further.
	h.Report(ComponentPlayback, ErrVideoNotFound, SeverityMedium, "medium", nil)
	if h.State() != StateDegraded {
		t.Errorf("after medium severity state = %v, want degraded", h.State())
	}

	h.Report(ComponentPlayback, ErrPlaybackStartFailed, SeverityHigh, "high", nil)
	if h.State() != StateSafeMode {
		t.Errorf("after high severity state = %v, want safe_mode", h.State())
	}

	h.Report(ComponentSystem, ErrHighMemoryUsage, SeverityCritical, "critical", nil)
	if h.State() != StateEmergency {
		t.Errorf("after critical severity state = %v, want emergency", h.State())
	}

	// High severity never downgrades emergency.
	h.Report(ComponentPlayback, ErrPlaybackStartFailed, SeverityHigh, "high again", nil)
	if h.State() != StateEmergency {
		t.Errorf("high severity downgraded emergency to %v", h.State())
	}
}

func TestRepeatedErrorsCrossThreshold(t *testing.T) {
	h := NewHandler(zap.NewNop())

	for i := 0; i < defaultThreshold-1; i++ {
		h.Report(ComponentMask, ErrCompositeFailed, SeverityMedium, "warp failed", nil)
	}
	if h.State() != StateDegraded {
		t.Fatalf("state before threshold = %v, want degraded", h.State())
	}

	h.Report(ComponentMask, ErrCompositeFailed, SeverityMedium, "warp failed", nil)
	if h.State() != StateSafeMode {
		t.Errorf("state at threshold = %v, want safe_mode", h.State())
	}
}

func TestThresholdCountsPerComponentAndType(t *testing.T) {
	h := NewHandler(zap.NewNop())

	// Spread the same number of events across distinct counters.
	for i := 0; i < defaultThreshold-1; i++ {
		h.Report(ComponentMask, ErrCompositeFailed, SeverityMedium, "warp", nil)
	}
	for i := 0; i < defaultThreshold-1; i++ {
		h.Report(ComponentPlayback, ErrCrossfadeFailed, SeverityMedium, "blend", nil)
	}
	if h.State() != StateDegraded {
		t.Errorf("distinct counters escalated to %v", h.State())
	}
}

func TestResetIsOnlyWayBackToNormal(t *testing.T) {
	h := NewHandler(zap.NewNop())

	h.Report(ComponentPlayback, ErrPlaybackStartFailed, SeverityHigh, "boom", nil)
	if h.State() != StateSafeMode {
		t.Fatalf("state = %v", h.State())
	}

	var gotOld, gotNew SystemState
	h.OnStateChange(func(old, new SystemState) {
		gotOld, gotNew = old, new
	})

	h.Reset()
	if h.State() != StateNormal {
		t.Errorf("state after Reset = %v", h.State())
	}
	if gotOld != StateSafeMode || gotNew != StateNormal {
		t.Errorf("listener got %v -> %v", gotOld, gotNew)
	}

	// Counters cleared: the next few events start a fresh window.
	for i := 0; i < defaultThreshold-1; i++ {
		h.Report(ComponentPlayback, ErrPlaybackStartFailed, SeverityLow, "low", nil)
	}
	if h.State() != StateDegraded {
		t.Errorf("state after reset and sub-threshold events = %v", h.State())
	}
}

func TestFallbackStrategyMarksResolved(t *testing.T) {
	h := NewHandler(zap.NewNop())

	attempts := 0
	h.RegisterStrategy(ComponentPlayback, StrategyFunc(func(ev *Event) error {
		attempts++
		return nil
	}))

	ev := h.Report(ComponentPlayback, ErrPlaybackStartFailed, SeverityHigh, "boom", nil)
	if attempts != 1 {
		t.Fatalf("strategy attempts = %d", attempts)
	}
	if !ev.Resolved || ev.ResolvedAt == nil {
		t.Error("successful fallback should mark the event resolved")
	}

	summary := h.Summarize()
	if !summary.FallbackFlags[ComponentPlayback] {
		t.Error("fallback flag not set for component")
	}
}

func TestFallbackStrategyFailure(t *testing.T) {
	h := NewHandler(zap.NewNop())

	h.RegisterStrategy(ComponentPlayback, StrategyFunc(func(ev *Event) error {
		return errors.New("nothing to fall back to")
	}))

	ev := h.Report(ComponentPlayback, ErrPlaybackStartFailed, SeverityHigh, "boom", nil)
	if ev.Resolved {
		t.Error("failed fallback must not mark the event resolved")
	}
}

func TestMediumSeverityDoesNotDispatchFallback(t *testing.T) {
	h := NewHandler(zap.NewNop())

	attempts := 0
	h.RegisterStrategy(ComponentPlayback, StrategyFunc(func(ev *Event) error {
		attempts++
		return nil
	}))

	h.Report(ComponentPlayback, ErrVideoNotFound, SeverityMedium, "missing", nil)
	if attempts != 0 {
		t.Errorf("medium severity dispatched fallback %d times", attempts)
	}
}

func TestOnEventHook(t *testing.T) {
	h := NewHandler(zap.NewNop())

	var seen []string
	h.OnEvent(func(ev *Event) {
		seen = append(seen, ev.Type)
	})

	h.Report(ComponentMask, ErrCompositeFailed, SeverityMedium, "warp", nil)
	h.Report(ComponentSystem, ErrHighSystemLoad, SeverityLow, "load", nil)

	if len(seen) != 2 || seen[0] != ErrCompositeFailed || seen[1] != ErrHighSystemLoad {
		t.Errorf("event hook saw %v", seen)
	}
}

func TestSummarize(t *testing.T) {
	h := NewHandler(zap.NewNop())

	h.Report(ComponentPlayback, ErrVideoNotFound, SeverityMedium, "first", nil)
	h.Report(ComponentPlayback, ErrVideoNotFound, SeverityMedium, "second", nil)

	s := h.Summarize()
	if s.TotalErrors != 2 || s.RecentErrors != 2 {
		t.Errorf("Summary totals = %d/%d, want 2/2", s.TotalErrors, s.RecentErrors)
	}
	if s.ErrorCounts["video_playback:video_not_found"] != 2 {
		t.Errorf("ErrorCounts = %v", s.ErrorCounts)
	}
	if s.LastError != "second" {
		t.Errorf("LastError = %q", s.LastError)
	}
	if s.SystemState != "degraded" {
		t.Errorf("SystemState = %q", s.SystemState)
	}
}

func TestHistoryCap(t *testing.T) {
	h := NewHandler(zap.NewNop())
	h.historyCap = 10

	for i := 0; i < 25; i++ {
		h.Report(ComponentSystem, ErrHighSystemLoad, SeverityLow, "load", nil)
	}

	h.mu.Lock()
	n := len(h.history)
	h.mu.Unlock()
	if n != 10 {
		t.Errorf("history length = %d, want 10", n)
	}
}
