package alert

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/optwatch/optwatch/internal/anomaly"
)

func newTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	ar, err := NewSQLiteArchive(filepath.Join(t.TempDir(), "alerts", "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ar.Close() })
	return ar
}

func TestSQLiteArchive_RoundTrip(t *testing.T) {
	ar := newTestArchive(t)

	src := anomaly.Anomaly{
		ID:                 "1700000000_strategy_performance_gap",
		Type:               anomaly.TypeStrategyPerformanceGap,
		Severity:           anomaly.SeverityMajor,
		Description:        "keyword_first trails vector_first",
		AffectedParameters: []string{"keyword_first"},
		Timestamp:          time.Now().UTC().Truncate(time.Second),
		MetricValues: map[string]any{
			"performance_gap": 0.5,
			"best_strategy":   "vector_first",
		},
	}
	require.NoError(t, ar.Store(src))

	got, err := ar.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, src.ID, got[0].ID)
	assert.Equal(t, src.Type, got[0].Type)
	assert.Equal(t, src.Severity, got[0].Severity)
	assert.Equal(t, src.AffectedParameters, got[0].AffectedParameters)
	assert.True(t, src.Timestamp.Equal(got[0].Timestamp))
	assert.Equal(t, src.MetricValues, got[0].MetricValues)
}

func TestSQLiteArchive_StoreReplacesSameID(t *testing.T) {
	ar := newTestArchive(t)

	a := testAnomaly("a1")
	require.NoError(t, ar.Store(a))

	a.Description = "updated description"
	require.NoError(t, ar.Store(a))

	got, err := ar.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "updated description", got[0].Description)
}

func TestSQLiteArchive_RecentOrdersNewestFirst(t *testing.T) {
	ar := newTestArchive(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"old", "mid", "new"} {
		a := testAnomaly(id)
		a.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, ar.Store(a))
	}

	got, err := ar.Recent(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
}

func TestSQLiteArchive_CountByType(t *testing.T) {
	ar := newTestArchive(t)

	for i := 0; i < 3; i++ {
		a := testAnomaly(string(rune('a' + i)))
		require.NoError(t, ar.Store(a))
	}
	stall := testAnomaly("stall")
	stall.Type = anomaly.TypeLearningStall
	require.NoError(t, ar.Store(stall))

	counts, err := ar.CountByType()
	require.NoError(t, err)
	assert.Equal(t, 3, counts[anomaly.TypeParameterOscillation])
	assert.Equal(t, 1, counts[anomaly.TypeLearningStall])
}

func TestSQLiteArchive_HandlerStores(t *testing.T) {
	ar := newTestArchive(t)

	h := ar.Handler(zap.NewNop())
	h(testAnomaly("via_handler"))

	got, err := ar.Recent(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "via_handler", got[0].ID)
}
