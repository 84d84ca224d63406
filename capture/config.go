package capture

import (
	"github.com/parkermclaren/polymarket-screenshotter/capture/internal/config"
)

// Config is the top-level service configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls the Chrome engine.
type BrowserConfig = config.BrowserConfig

// CaptureConfig controls the capture pipeline.
type CaptureConfig = config.CaptureConfig

// ObservabilityConfig controls the SQLite capture audit log.
type ObservabilityConfig = config.ObservabilityConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
