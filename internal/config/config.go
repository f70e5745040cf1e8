// Package config holds the file- and environment-driven configuration for
// the learning monitor. Invalid configuration fails fast at load time; the
// runtime components never re-validate.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/optwatch/optwatch/internal/anomaly"
)

// Duration wraps time.Duration so values like "15m" parse from YAML.
type Duration time.Duration

// UnmarshalYAML parses either a Go duration string or a bare number of
// seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if n, err := strconv.ParseFloat(value.Value, 64); err == nil {
		*d = Duration(time.Duration(n * float64(time.Second)))
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go syntax.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full configuration surface. All fields are optional and
// default sensibly.
type Config struct {
	// MetricsDir is where metrics snapshots are written/read. Empty
	// disables snapshots.
	MetricsDir string `yaml:"metrics_dir"`

	// AlertsDir is where raised anomalies are persisted, one JSON file
	// each. Empty disables file persistence.
	AlertsDir string `yaml:"alerts_dir"`

	// ArchivePath is the SQLite anomaly archive database. Empty disables
	// the archive.
	ArchivePath string `yaml:"archive_path"`

	// MaxHistorySize caps each record collection in the metrics store.
	// Default: 1000
	MaxHistorySize int `yaml:"max_history_size"`

	// CheckInterval is the nominal period between detection passes.
	// Default: 15m
	CheckInterval Duration `yaml:"check_interval"`

	// Alerts holds the detector thresholds.
	Alerts anomaly.Config `yaml:"alerts"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MaxHistorySize: 1000,
		CheckInterval:  Duration(15 * time.Minute),
		Alerts:         anomaly.DefaultConfig(),
	}
}

// LoadFile reads a YAML config file over the defaults and applies
// environment overrides, validating the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (*Config, error) {
	return LoadFile("")
}

// applyEnv overlays OPTWATCH_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("OPTWATCH_METRICS_DIR"); v != "" {
		c.MetricsDir = v
	}
	if v := os.Getenv("OPTWATCH_ALERTS_DIR"); v != "" {
		c.AlertsDir = v
	}
	if v := os.Getenv("OPTWATCH_ARCHIVE_PATH"); v != "" {
		c.ArchivePath = v
	}
	if v := os.Getenv("OPTWATCH_MAX_HISTORY_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid OPTWATCH_MAX_HISTORY_SIZE %q: %w", v, err)
		}
		c.MaxHistorySize = n
	}
	if v := os.Getenv("OPTWATCH_CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid OPTWATCH_CHECK_INTERVAL %q: %w", v, err)
		}
		c.CheckInterval = Duration(d)
	}
	return nil
}

// Validate checks the configuration. This is the fail-fast boundary: a
// Config that passes here constructs working components.
func (c *Config) Validate() error {
	if c.MaxHistorySize <= 0 {
		return fmt.Errorf("max_history_size must be positive (got %d)", c.MaxHistorySize)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive (got %v)", c.CheckInterval.Std())
	}
	if err := c.Alerts.Validate(); err != nil {
		return fmt.Errorf("invalid alert config: %w", err)
	}
	return nil
}
