package types

type PlaybackConfig struct {
	CrossfadeDurationMs   int  `mapstructure:"crossfade_duration_ms" json:"crossfade_duration_ms"`
	StateChangeBufferMs   int  `mapstructure:"state_change_buffer_ms" json:"state_change_buffer_ms"`
	TriggerTimeoutSeconds int  `mapstructure:"trigger_timeout_seconds" json:"trigger_timeout_seconds"`
	LoopEnabled           bool `mapstructure:"loop_enabled" json:"loop_enabled"`
	DisplayFPS            int  `mapstructure:"display_fps" json:"display_fps"`
}

type CanvasConfig struct {
	Width  int `mapstructure:"width" json:"width"`
	Height int `mapstructure:"height" json:"height"`
}

type MediaConfig struct {
	Dirs      []string `mapstructure:"dirs" json:"dirs"`
	CachePath string   `mapstructure:"cache_path" json:"cache_path"`
}

type MasksConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker" json:"broker"`
	Port     int    `mapstructure:"port" json:"port"`
	Topic    string `mapstructure:"topic" json:"topic"`
	ClientID string `mapstructure:"client_id" json:"client_id"`
}

type HealthConfig struct {
	IntervalSeconds    int     `mapstructure:"interval_seconds" json:"interval_seconds"`
	MemoryHighPercent  float64 `mapstructure:"memory_high_percent" json:"memory_high_percent"`
	DiskLowFreePercent float64 `mapstructure:"disk_low_free_percent" json:"disk_low_free_percent"`
	MaxGoroutines      int     `mapstructure:"max_goroutines" json:"max_goroutines"`
	LoadHigh           float64 `mapstructure:"load_high" json:"load_high"`
}

type APIConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
}
