package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// applyEnv overlays environment variables onto cfg. Only variables that are
// set and non-empty override the lower layers.
func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// applyEnvWith is applyEnv with an explicit environment, used by tests and
// by the operator CLI.
func applyEnvWith(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
