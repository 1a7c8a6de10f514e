package main

import (
	"testing"

	"go.uber.org/zap"

	"stairlight/internal/catalog"
	"stairlight/internal/crossfade"
	"stairlight/internal/mask"
	"stairlight/internal/metrics"
	"stairlight/internal/player"
	"stairlight/internal/resilience"
	"stairlight/internal/trigger"
	types "stairlight/pkg"
)

func newWiredHandler(t *testing.T) *resilience.Handler {
	t.Helper()
	logger := zap.NewNop()
	resilient := resilience.NewHandler(logger)
	backend := player.NewSyntheticBackend(4, 4, 10)
	cat := catalog.New(backend, nil, logger)
	if err := cat.Load([]string{t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	engine := player.NewEngine(cat, trigger.NewResolver(cat, logger),
		crossfade.NewEngine(0, logger),
		mask.NewCompositor(4, 4, mask.DefaultMasks(4, 4), logger),
		resilient, backend, player.NopDisplay{}, metrics.New(),
		types.PlaybackConfig{TriggerTimeoutSeconds: 60, DisplayFPS: 10}, logger)
	t.Cleanup(engine.Stop)

	registerFallbacks(resilient, engine, cat, logger)
	return resilient
}

func TestRegisterFallbacksCoversEveryComponent(t *testing.T) {
	resilient := newWiredHandler(t)

	cases := []struct {
		component resilience.Component
		errType   string
		resolved  bool
	}{
		{resilience.ComponentPlayback, resilience.ErrPlaybackStartFailed, false}, // empty catalog, no fallback video
		{resilience.ComponentMask, resilience.ErrCompositeFailed, true},
		{resilience.ComponentConnectivity, resilience.ErrConnectionFailed, true},
		{resilience.ComponentConfig, "config_invalid", true},
		{resilience.ComponentDisplay, resilience.ErrPresentFailed, false},
		{resilience.ComponentSystem, resilience.ErrHighMemoryUsage, true},
		{resilience.ComponentSystem, resilience.ErrLowDiskSpace, false},
	}
	for _, tc := range cases {
		ev := resilient.Report(tc.component, tc.errType, resilience.SeverityHigh, "synthesized failure", nil)
		if ev.Resolved != tc.resolved {
			t.Errorf("%s/%s resolved = %v, want %v", tc.component, tc.errType, ev.Resolved, tc.resolved)
		}
	}
}
