package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/tailored-agentic-units/sunshine/history"
)

const envPrefix = "SUNSHINE_"

// Config holds the session settings that can be supplied from a file or the
// environment. Behaviour (reducers, includes) always comes from the App.
type Config struct {
	Name     string         `json:"name,omitempty" env:"NAME"`
	Observer string         `json:"observer,omitempty" env:"OBSERVER"`
	Tracing  string         `json:"tracing_endpoint,omitempty" env:"OTEL_ENDPOINT"`
	History  history.Config `json:"history" envPrefix:"HISTORY_"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Name:     "sunshine",
		Observer: "slog",
		History:  history.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.Tracing != "" {
		c.Tracing = source.Tracing
	}
	c.History.Merge(&source.History)
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// ParseEnv overlays SUNSHINE_* environment variables onto cfg. Unset
// variables leave the existing values in place.
func ParseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}
