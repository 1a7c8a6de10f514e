package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stairlight/internal/api"
	"stairlight/internal/catalog"
	"stairlight/internal/config"
	"stairlight/internal/crossfade"
	"stairlight/internal/mask"
	"stairlight/internal/metrics"
	"stairlight/internal/player"
	"stairlight/internal/resilience"
	"stairlight/internal/sched"
	"stairlight/internal/trigger"
)

const (
	watchdogInterval      = 5 * time.Second
	statusPublishInterval = 30 * time.Second
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}(logger)

	// Local overrides for the dev machine; absence is not an error.
	_ = godotenv.Load()

	cfg := loadConfig(logger)
	logger = applyLogLevel(logger, cfg.Logging.Level)

	m := metrics.New()

	resilient := resilience.NewHandler(logger)
	resilient.OnEvent(func(ev *resilience.Event) {
		m.IncErrors(ev.Severity.String())
	})
	resilient.OnStateChange(func(_, newState resilience.SystemState) {
		m.SetSystemState(int(newState))
	})

	cache, err := catalog.OpenCache(cfg.Media.CachePath)
	if err != nil {
		logger.Warn("Probe cache unavailable, probing every start", zap.Error(err))
		cache = nil
	}

	backend := player.NewSyntheticBackend(cfg.Canvas.Width, cfg.Canvas.Height, float64(cfg.Playback.DisplayFPS))

	cat := catalog.New(backend, cache, logger)
	if err := cat.Load(cfg.Media.Dirs); err != nil {
		logger.Error("Catalog load failed", zap.Error(err))
	}
	if cat.Len() == 0 {
		logger.Warn("No playable videos found", zap.Strings("dirs", cfg.Media.Dirs))
	}

	maskStore := mask.NewStore(cfg.Masks.Path, logger)
	compositor := mask.NewCompositor(cfg.Canvas.Width, cfg.Canvas.Height,
		maskStore.Load(cfg.Canvas.Width, cfg.Canvas.Height), logger)

	fade := crossfade.NewEngine(cfg.Playback.CrossfadeDurationMs, logger)
	resolver := trigger.NewResolver(cat, logger)

	var display player.Display = player.NopDisplay{}
	if path := os.Getenv("STAIRLIGHT_PREVIEW"); path != "" {
		display = player.NewPreviewDisplay(path, time.Second)
	}

	engine := player.NewEngine(cat, resolver, fade, compositor, resilient,
		backend, display, m, cfg.Playback, logger)

	registerFallbacks(resilient, engine, cat, logger)

	source := trigger.NewMQTTSource(cfg.MQTT, engine.HandleTrigger, resilient, logger)
	if err := source.Connect(); err != nil {
		// Already reported as a connectivity event; the client keeps
		// retrying in the background.
		logger.Warn("Initial MQTT connection failed", zap.Error(err))
	}

	monitor := resilience.NewHealthMonitor(resilient, resilience.SystemProbes(),
		resilience.HealthThresholds{
			MemoryHighPercent:  cfg.Health.MemoryHighPercent,
			DiskLowFreePercent: cfg.Health.DiskLowFreePercent,
			MaxGoroutines:      cfg.Health.MaxGoroutines,
			LoadHigh:           cfg.Health.LoadHigh,
		}, logger)

	scheduler := sched.New(logger)
	scheduler.Every("watchdog", watchdogInterval, engine.CheckWatchdog)
	scheduler.Every("health", time.Duration(cfg.Health.IntervalSeconds)*time.Second, monitor.Check)
	scheduler.Every("status-publish", statusPublishInterval, func() {
		if err := source.PublishStatus(map[string]any{
			"playback": engine.Status(),
			"mqtt":     source.Status(),
			"errors":   resilient.Summarize(),
		}); err != nil {
			logger.Debug("Status publish skipped", zap.Error(err))
		}
	})

	// Start on ambient; the installation should never sit on a blank canvas.
	engine.HandleTrigger(trigger.StateAmbient, "")

	server := api.NewServer(engine, resilient, compositor, maskStore, source, m, logger)
	go func() {
		if err := server.Start(cfg.API.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	scheduler.Stop()
	source.Disconnect()
	engine.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if cache != nil {
		if err := cache.Close(); err != nil {
			logger.Warn("Probe cache close failed", zap.Error(err))
		}
	}
}

// loadConfig reads the config file named by STAIRLIGHT_CONFIG (default
// config.yaml). A missing file falls back to built-in defaults; a present
// but invalid file is fatal so a typo never silently reverts the venue
// setup.
func loadConfig(logger *zap.Logger) *config.Config {
	path := os.Getenv("STAIRLIGHT_CONFIG")
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err != nil {
		logger.Warn("Config file not found, using defaults", zap.String("file", path))
		return config.Default()
	}

	cfg, err := config.NewConfigLoader(logger).Load(path)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	return cfg
}

func applyLogLevel(logger *zap.Logger, level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl == zapcore.InfoLevel {
		return logger
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	rebuilt, err := zcfg.Build()
	if err != nil {
		logger.Warn("Failed to rebuild logger at configured level", zap.String("level", level))
		return logger
	}
	logger.Sync()
	return rebuilt
}

// registerFallbacks installs the per-component recovery strategies.
func registerFallbacks(resilient *resilience.Handler, engine *player.Engine, cat *catalog.Catalog, logger *zap.Logger) {
	resilient.RegisterStrategy(resilience.ComponentPlayback, resilience.StrategyFunc(func(ev *resilience.Event) error {
		// If the fallback video itself is the one failing there is
		// nothing left to switch to.
		if fb, ok := cat.FallbackAmbient(); ok {
			if failed, _ := ev.Context["video_id"].(string); failed == fb {
				return fmt.Errorf("fallback video %q is itself failing", fb)
			}
		}
		return engine.PlayFallbackAmbient()
	}))

	// Compositing already degrades to unwarped pass-through inside the frame
	// loop; the strategy just acknowledges it.
	resilient.RegisterStrategy(resilience.ComponentMask, resilience.StrategyFunc(func(_ *resilience.Event) error {
		logger.Warn("Mask compositing degraded to pass-through")
		return nil
	}))

	// The MQTT client reconnects on its own with capped backoff.
	resilient.RegisterStrategy(resilience.ComponentConnectivity, resilience.StrategyFunc(func(_ *resilience.Event) error {
		return nil
	}))

	// Present failures already skip the frame; the output device itself has
	// no automatic recovery path.
	resilient.RegisterStrategy(resilience.ComponentDisplay, resilience.StrategyFunc(func(ev *resilience.Event) error {
		return fmt.Errorf("display output needs operator attention after %s", ev.Type)
	}))

	// Invalid config is rejected at load time; anything reported later keeps
	// running on the values already validated.
	resilient.RegisterStrategy(resilience.ComponentConfig, resilience.StrategyFunc(func(_ *resilience.Event) error {
		logger.Warn("Configuration issue reported, continuing on loaded values")
		return nil
	}))

	resilient.RegisterStrategy(resilience.ComponentSystem, resilience.StrategyFunc(func(ev *resilience.Event) error {
		if ev.Type == resilience.ErrHighMemoryUsage {
			runtime.GC()
			return nil
		}
		return fmt.Errorf("no recovery action for %s", ev.Type)
	}))
}
