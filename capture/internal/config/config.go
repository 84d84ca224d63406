// Package config handles capture service configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Browser       BrowserConfig       `yaml:"browser"`
	Capture       CaptureConfig       `yaml:"capture"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// BrowserConfig controls the Chrome engine.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome. Empty = launch local.
	Remote string `yaml:"remote"`
	// Stealth applies automation evasions to every page. Default: true.
	Stealth *bool `yaml:"stealth"`
	// NavigationTimeout bounds page navigation. Default: 30s.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
}

// CaptureConfig controls the capture pipeline.
type CaptureConfig struct {
	// MaxConcurrent bounds captures running against the shared browser.
	// Read once at admission-controller construction. Default: 2.
	MaxConcurrent int `yaml:"max_concurrent"`
	// WidthPx is the logical canvas width. Default: 800.
	WidthPx int `yaml:"width_px"`
	// Scale is the device scale factor for the export. Default: 2.
	Scale float64 `yaml:"scale"`
	// Development keys the browser session on the rule-set content hash so a
	// script edit hot-swaps the session. Off = fixed production key.
	Development bool `yaml:"development"`
	// ReadinessTimeout bounds each structural readiness wait. Default: 10s.
	ReadinessTimeout time.Duration `yaml:"readiness_timeout"`
}

// ObservabilityConfig controls the SQLite capture audit log.
type ObservabilityConfig struct {
	// DBPath is the SQLite file for capture events. Empty disables auditing.
	DBPath string `yaml:"db_path"`
	// RetentionDays bounds how long capture events are kept; old rows are
	// deleted at startup. Zero means no cleanup.
	RetentionDays int `yaml:"retention_days"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Browser.Stealth == nil {
		v := true
		c.Browser.Stealth = &v
	}
	if c.Browser.NavigationTimeout <= 0 {
		c.Browser.NavigationTimeout = 30 * time.Second
	}
	if c.Capture.MaxConcurrent < 1 {
		c.Capture.MaxConcurrent = 2
	}
	if c.Capture.WidthPx <= 0 {
		c.Capture.WidthPx = 800
	}
	if c.Capture.Scale <= 0 {
		c.Capture.Scale = 2
	}
	if c.Capture.ReadinessTimeout <= 0 {
		c.Capture.ReadinessTimeout = 10 * time.Second
	}
}
