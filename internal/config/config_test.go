package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optwatch/optwatch/internal/anomaly"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "optwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1000, cfg.MaxHistorySize)
	assert.Equal(t, 15*time.Minute, cfg.CheckInterval.Std())
	assert.Equal(t, anomaly.DefaultConfig(), cfg.Alerts)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
metrics_dir: /var/lib/optwatch/metrics
check_interval: 5m
alerts:
  oscillation_threshold: 4
  performance_decline_threshold: 0.2
  learning_stall_threshold: 50
  min_sample_size: 8
  recent_window_size: 20
  severity_thresholds:
    minor: 0.1
    moderate: 0.25
    major: 0.4
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/optwatch/metrics", cfg.MetricsDir)
	assert.Equal(t, 5*time.Minute, cfg.CheckInterval.Std())
	assert.Equal(t, 4, cfg.Alerts.OscillationThreshold)
	assert.Equal(t, 0.4, cfg.Alerts.SeverityThresholds.Major)
	// Unset fields keep their defaults
	assert.Equal(t, 1000, cfg.MaxHistorySize)
}

func TestLoadFile_DurationAsSeconds(t *testing.T) {
	path := writeConfig(t, "check_interval: 90\n")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.CheckInterval.Std())
}

func TestLoadFile_BadDuration(t *testing.T) {
	path := writeConfig(t, "check_interval: soon\n")
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFile_InvalidThresholdsRejected(t *testing.T) {
	path := writeConfig(t, `
alerts:
  oscillation_threshold: 0
`)
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPTWATCH_METRICS_DIR", "/tmp/metrics")
	t.Setenv("OPTWATCH_ALERTS_DIR", "/tmp/alerts")
	t.Setenv("OPTWATCH_ARCHIVE_PATH", "/tmp/archive.db")
	t.Setenv("OPTWATCH_MAX_HISTORY_SIZE", "250")
	t.Setenv("OPTWATCH_CHECK_INTERVAL", "30s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/metrics", cfg.MetricsDir)
	assert.Equal(t, "/tmp/alerts", cfg.AlertsDir)
	assert.Equal(t, "/tmp/archive.db", cfg.ArchivePath)
	assert.Equal(t, 250, cfg.MaxHistorySize)
	assert.Equal(t, 30*time.Second, cfg.CheckInterval.Std())
}

func TestEnvOverrides_TakePrecedenceOverFile(t *testing.T) {
	path := writeConfig(t, "max_history_size: 10\n")
	t.Setenv("OPTWATCH_MAX_HISTORY_SIZE", "99")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.MaxHistorySize)
}

func TestEnvOverrides_InvalidValues(t *testing.T) {
	t.Setenv("OPTWATCH_MAX_HISTORY_SIZE", "many")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero history", func(c *Config) { c.MaxHistorySize = 0 }},
		{"negative interval", func(c *Config) { c.CheckInterval = Duration(-time.Second) }},
		{"broken thresholds", func(c *Config) { c.Alerts.SeverityThresholds.Major = 0.05 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
