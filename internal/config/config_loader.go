package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Load builds a configuration from built-in defaults, the optional file at
// path and the process environment, in that order. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadWithEnv is Load with an explicit environment map instead of os.Environ.
func LoadWithEnv(path string, environ map[string]string) (*Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return load(path, environ)
}

func load(path string, environ map[string]string) (*Config, error) {
	cfg := Default()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	var err error
	if environ != nil {
		err = applyEnvWith(cfg, environ)
	} else {
		err = applyEnv(cfg)
	}
	if err != nil {
		return nil, err
	}
	normalize(cfg)
	res := cfg.Validate()
	if !res.Valid {
		return nil, res.Err()
	}
	for _, w := range res.Warnings {
		log.WithField("field", w.Field).Warn(w.Message)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.WithField("path", path).Debug("config file not found, using defaults and environment")
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	log.WithField("path", path).Info("configuration loaded")
	return nil
}

func normalize(cfg *Config) {
	cfg.Server.BasePath = normalizeBasePath(cfg.Server.BasePath)
	cfg.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Upstream.BaseURL), "/")
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	applyZeroDefaults(cfg)
}
