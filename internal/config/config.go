package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type ConfigLoader struct {
	logger *zap.Logger
	v      *viper.Viper
}

func NewConfigLoader(logger *zap.Logger) *ConfigLoader {
	v := viper.New()
	v.SetConfigType("yaml")

	// Zero is a meaningful value for these (crossfade disabled, no debounce),
	// so absent keys must be defaulted here rather than by zero-value checks.
	v.SetDefault("playback.crossfade_duration_ms", 200)
	v.SetDefault("playback.state_change_buffer_ms", 250)
	v.SetDefault("playback.loop_enabled", true)

	return &ConfigLoader{
		logger: logger,
		v:      v,
	}
}

func (cl *ConfigLoader) Load(filePath string) (*Config, error) {
	cl.v.SetConfigFile(filePath)
	if err := cl.v.ReadInConfig(); err != nil {
		cl.logger.Error("Failed to read config file", zap.String("file", filePath), zap.Error(err))
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := cl.v.Unmarshal(&cfg); err != nil {
		cl.logger.Error("Failed to unmarshal config", zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cl.validate(&cfg); err != nil {
		cl.logger.Error("Config validation failed", zap.Error(err))
		return nil, err
	}

	cl.logger.Info("Config loaded successfully", zap.String("file", filePath))
	return &cfg, nil
}

// Default returns a Config with every field at its built-in default, for
// running without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.Playback.CrossfadeDurationMs = 200
	cfg.Playback.StateChangeBufferMs = 250
	cfg.Playback.LoopEnabled = true
	applyDefaults(cfg)
	return cfg
}

func (cl *ConfigLoader) validate(cfg *Config) error {
	applyDefaults(cfg)

	if cfg.Canvas.Width <= 0 || cfg.Canvas.Height <= 0 {
		return fmt.Errorf("canvas dimensions must be positive: %dx%d", cfg.Canvas.Width, cfg.Canvas.Height)
	}

	if cfg.MQTT.Port <= 0 || cfg.MQTT.Port > 65535 {
		return fmt.Errorf("invalid mqtt port: %d", cfg.MQTT.Port)
	}

	if !isValidLogLevel(cfg.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	return nil
}

// applyDefaults fills zero values and clamps out-of-range settings in place.
// Clamp bounds match what the installation hardware can track; values outside
// them are silently pulled back rather than rejected.
func applyDefaults(cfg *Config) {
	cfg.Playback.CrossfadeDurationMs = clampInt(cfg.Playback.CrossfadeDurationMs, 0, 5000)
	cfg.Playback.StateChangeBufferMs = clampInt(cfg.Playback.StateChangeBufferMs, 0, 10000)

	if cfg.Playback.TriggerTimeoutSeconds == 0 {
		cfg.Playback.TriggerTimeoutSeconds = 60
	}
	cfg.Playback.TriggerTimeoutSeconds = clampInt(cfg.Playback.TriggerTimeoutSeconds, 10, 300)

	if cfg.Playback.DisplayFPS <= 0 {
		cfg.Playback.DisplayFPS = 30
	}

	if cfg.Canvas.Width == 0 {
		cfg.Canvas.Width = 1920
	}
	if cfg.Canvas.Height == 0 {
		cfg.Canvas.Height = 1080
	}

	if len(cfg.Media.Dirs) == 0 {
		cfg.Media.Dirs = []string{"media/active", "media/ambient"}
	}
	if cfg.Media.CachePath == "" {
		cfg.Media.CachePath = "cache/probe.db"
	}

	if cfg.Masks.Path == "" {
		cfg.Masks.Path = "config/masks.yaml"
	}

	if cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = "localhost"
	}
	if cfg.MQTT.Port == 0 {
		cfg.MQTT.Port = 1883
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "stairlight/playback"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "stairlight-mapper"
	}

	if cfg.Health.IntervalSeconds <= 0 {
		cfg.Health.IntervalSeconds = 30
	}
	if cfg.Health.MemoryHighPercent <= 0 {
		cfg.Health.MemoryHighPercent = 90.0
	}
	if cfg.Health.DiskLowFreePercent <= 0 {
		cfg.Health.DiskLowFreePercent = 5.0
	}
	if cfg.Health.MaxGoroutines <= 0 {
		cfg.Health.MaxGoroutines = 500
	}
	if cfg.Health.LoadHigh <= 0 {
		cfg.Health.LoadHigh = 4.0
	}

	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8089"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isValidLogLevel(level string) bool {
	levels := []string{"debug", "info", "warn", "error"}
	for _, l := range levels {
		if strings.ToLower(level) == l {
			return true
		}
	}
	return false
}
