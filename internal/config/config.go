package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/edvin/charmdeploy/internal/jujuctl"
)

var validate = validator.New()

// Config holds the settings for one charmdeploy run.
type Config struct {
	JujuBinary   string        `mapstructure:"juju_binary" validate:"required"`
	Environment  string        `mapstructure:"environment" validate:"required"`
	Service      string        `mapstructure:"service" validate:"required"`
	Unit         string        `mapstructure:"unit" validate:"required"`
	Charm        string        `mapstructure:"charm" validate:"required"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	LogLevel     string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error disabled"`
	// MetricsFile is a node-exporter textfile path. Empty disables metrics output.
	MetricsFile string `mapstructure:"metrics_file"`
}

// Load builds a Config from defaults, an optional YAML file, and explicit
// overrides (typically flags the user set), in increasing precedence.
// Environment variables are not consulted.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()

	v.SetDefault("juju_binary", "juju")
	v.SetDefault("environment", jujuctl.DefaultEnvironment)
	v.SetDefault("service", jujuctl.DefaultService)
	v.SetDefault("unit", jujuctl.DefaultUnit)
	v.SetDefault("charm", jujuctl.DefaultCharm)
	v.SetDefault("poll_interval", jujuctl.DefaultPollInterval)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_file", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	for key, val := range overrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every required setting is present and sane.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// Target returns the deployment target described by the config.
func (c *Config) Target() jujuctl.Target {
	return jujuctl.Target{
		Environment: c.Environment,
		Service:     c.Service,
		Unit:        c.Unit,
		Charm:       c.Charm,
	}
}
