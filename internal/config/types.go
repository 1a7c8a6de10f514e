package config

import (
	types "stairlight/pkg"
)

type Config struct {
	Playback types.PlaybackConfig `mapstructure:"playback" json:"playback"`
	Canvas   types.CanvasConfig   `mapstructure:"canvas" json:"canvas"`
	Media    types.MediaConfig    `mapstructure:"media" json:"media"`
	Masks    types.MasksConfig    `mapstructure:"masks" json:"masks"`
	MQTT     types.MQTTConfig     `mapstructure:"mqtt" json:"mqtt"`
	Health   types.HealthConfig   `mapstructure:"health" json:"health"`
	API      types.APIConfig      `mapstructure:"api" json:"api"`
	Logging  types.LoggingConfig  `mapstructure:"logging" json:"logging"`
}
