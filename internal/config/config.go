// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime knob for the coaching daemon.
type Config struct {
	Port   string `env:"COACHD_PORT" envDefault:"8080"`
	DBPath string `env:"COACHD_DB_PATH" envDefault:"coachd.db"`

	// ProviderURL points at the external content rendering service. Empty
	// selects the built-in static templates.
	ProviderURL     string        `env:"COACHD_PROVIDER_URL" envDefault:""`
	ProviderTimeout time.Duration `env:"COACHD_PROVIDER_TIMEOUT" envDefault:"3s"`

	// Retention bounds the intervention history kept per user.
	Retention     time.Duration `env:"COACHD_RETENTION" envDefault:"720h"`
	PruneInterval time.Duration `env:"COACHD_PRUNE_INTERVAL" envDefault:"1h"`

	LogLevel string `env:"COACHD_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("COACHD_DB_PATH must not be empty")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("COACHD_PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	if c.Retention < 24*time.Hour {
		return fmt.Errorf("COACHD_RETENTION must be at least 24h, got %s", c.Retention)
	}
	if c.PruneInterval <= 0 {
		return fmt.Errorf("COACHD_PRUNE_INTERVAL must be positive, got %s", c.PruneInterval)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("COACHD_LOG_LEVEL %q is not a zerolog level", c.LogLevel)
	}
	return nil
}
