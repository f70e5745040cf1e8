package alert

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optwatch/optwatch/internal/anomaly"
)

func TestWriteAnomaly_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := anomaly.Anomaly{
		ID:                 "1700000000_performance_decline",
		Type:               anomaly.TypePerformanceDecline,
		Severity:           anomaly.SeverityMajor,
		Description:        "strategy vector_first declining on semantic queries",
		AffectedParameters: []string{"vector_first", "semantic"},
		Timestamp:          time.Now().Truncate(time.Second),
		MetricValues: map[string]any{
			"success_rate_change": 0.353,
			"sample_count":        5.0,
		},
	}

	path, err := WriteAnomaly(dir, src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "anomaly_1700000000_performance_decline.json"), path)

	got, err := LoadAnomaly(path)
	require.NoError(t, err)
	assert.Equal(t, src.ID, got.ID)
	assert.Equal(t, src.Type, got.Type)
	assert.Equal(t, src.Severity, got.Severity)
	assert.Equal(t, src.Description, got.Description)
	assert.Equal(t, src.AffectedParameters, got.AffectedParameters)
	assert.True(t, src.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, src.MetricValues, got.MetricValues)
}

func TestWriteAnomaly_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "alerts")
	_, err := WriteAnomaly(dir, testAnomaly("a1"))
	assert.NoError(t, err)
}

func TestWriteAnomaly_SanitizesHostileID(t *testing.T) {
	dir := t.TempDir()
	a := testAnomaly("../../etc/passwd anomaly")

	path, err := WriteAnomaly(dir, a)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "anomaly_..-..-etc-passwd-anomaly.json", filepath.Base(path))
}

func TestLoadAnomaly_MissingFile(t *testing.T) {
	_, err := LoadAnomaly(filepath.Join(t.TempDir(), "anomaly_missing.json"))
	assert.Error(t, err)
}
