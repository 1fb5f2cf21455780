package config

import "github.com/spf13/viper"

// Config holds all runtime configuration for an ephemeris session.
// Values are populated from .ephemeris.yaml, EPHEMERIS_* env vars, and
// CLI flags.
type Config struct {
	ProjectFile       string  `mapstructure:"project_file"`
	DatabasePath      string  `mapstructure:"database_path"`
	EventsPath        string  `mapstructure:"events_path"`
	HoursPerDay       float64 `mapstructure:"hours_per_day"`
	RespectPriorities bool    `mapstructure:"respect_priorities"`
	Color             bool    `mapstructure:"color"`
	Verbose           bool    `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for
// any values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("project_file", "ephemeris.toml")
	viper.SetDefault("database_path", ".ephemeris/baselines.db")
	viper.SetDefault("events_path", ".ephemeris/events.jsonl")
	viper.SetDefault("hours_per_day", 8.0)
	viper.SetDefault("respect_priorities", true)
	viper.SetDefault("color", true)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
