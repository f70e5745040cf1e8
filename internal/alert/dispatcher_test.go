package alert

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/optwatch/optwatch/internal/anomaly"
)

func testAnomaly(id string) anomaly.Anomaly {
	return anomaly.Anomaly{
		ID:                 id,
		Type:               anomaly.TypeParameterOscillation,
		Severity:           anomaly.SeverityWarning,
		Description:        "parameter cache_size keeps reversing direction",
		AffectedParameters: []string{"cache_size"},
		Timestamp:          time.Now().Truncate(time.Second),
		MetricValues:       map[string]any{"direction_changes": 4.0},
	}
}

func TestDispatcher_NotifiesInRegistrationOrder(t *testing.T) {
	var order []string
	d := NewDispatcher(&DispatcherConfig{
		Handlers: []Handler{
			func(anomaly.Anomaly) { order = append(order, "first") },
			func(anomaly.Anomaly) { order = append(order, "second") },
		},
	})
	d.Register(func(anomaly.Anomaly) { order = append(order, "third") })

	d.Handle(testAnomaly("a1"))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestDispatcher_PanickingHandlerIsIsolated(t *testing.T) {
	var reached bool
	d := NewDispatcher(&DispatcherConfig{
		Handlers: []Handler{
			func(anomaly.Anomaly) { panic("handler exploded") },
			func(anomaly.Anomaly) { reached = true },
		},
		Logger: zap.NewNop(),
	})

	assert.NotPanics(t, func() { d.Handle(testAnomaly("a1")) })
	assert.True(t, reached, "handler after the panicking one must still run")
}

func TestDispatcher_PersistsToAlertsDir(t *testing.T) {
	dir := t.TempDir()
	d := NewDispatcher(&DispatcherConfig{AlertsDir: dir})

	d.Handle(testAnomaly("1700000000_parameter_oscillation"))

	path := filepath.Join(dir, "anomaly_1700000000_parameter_oscillation.json")
	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadAnomaly(path)
	require.NoError(t, err)
	assert.Equal(t, anomaly.TypeParameterOscillation, loaded.Type)
}

func TestDispatcher_ThrottleSkipsNotificationOnly(t *testing.T) {
	dir := t.TempDir()
	var notified int
	d := NewDispatcher(&DispatcherConfig{
		AlertsDir:   dir,
		NotifyEvery: time.Hour,
		Handlers:    []Handler{func(anomaly.Anomaly) { notified++ }},
	})

	d.Handle(testAnomaly("a1"))
	d.Handle(testAnomaly("a2"))

	assert.Equal(t, 1, notified, "second anomaly within the interval must not notify")

	// Both anomalies were still persisted
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDispatcher_NilConfigAndNilHandler(t *testing.T) {
	d := NewDispatcher(nil)
	d.Register(nil)
	assert.NotPanics(t, func() { d.Handle(testAnomaly("a1")) })
}
