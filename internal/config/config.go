// Package config loads optional viewer settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds viewer preferences. Everything has a usable zero-config
// default; the YAML file is optional.
type Config struct {
	// Theme selects the color scheme: "dark" (default) or "light".
	Theme string `yaml:"theme"`
	// DebounceMS overrides the file-change debounce window.
	DebounceMS int `yaml:"debounce_ms"`
	// Follow starts the viewer in live/follow mode.
	Follow bool `yaml:"follow"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{Theme: "dark", DebounceMS: 500}
}

// Debounce returns the configured debounce window as a duration.
func (c Config) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Load reads settings from path, or from ~/.rollscope.yaml when path is
// empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".rollscope.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Theme == "" {
		cfg.Theme = "dark"
	}
	return cfg, nil
}
