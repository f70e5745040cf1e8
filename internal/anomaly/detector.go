package anomaly

import (
	"context"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/optwatch/optwatch/internal/metrics"
)

// Detector examines the metrics store against the configured thresholds and
// reports zero or more anomalies. Detectors are stateless over a given store
// and may run in any order or concurrently. They never fail: missing or
// malformed data means an empty result.
type Detector func(store *metrics.Store, cfg Config) []Anomaly

// Detectors returns the full detector set in canonical order.
func Detectors() []Detector {
	return []Detector{
		DetectParameterOscillation,
		DetectPerformanceDecline,
		DetectStrategyGap,
		DetectLearningStall,
	}
}

// DetectAll runs the full detector set concurrently and returns the merged
// results in canonical detector order, so dispatch order is deterministic.
func DetectAll(ctx context.Context, store *metrics.Store, cfg Config) []Anomaly {
	detectors := Detectors()
	results := make([][]Anomaly, len(detectors))

	g, _ := errgroup.WithContext(ctx)
	for i, detect := range detectors {
		i, detect := i, detect
		g.Go(func() error {
			results[i] = detect(store, cfg)
			return nil
		})
	}
	// Detectors never return errors; Wait only synchronizes.
	_ = g.Wait()

	var merged []Anomaly
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}

// asFloat extracts a float from the loosely-typed parameter values producers
// send. Non-numeric values report ok=false and are tolerated by callers.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// sortedKeys gives detectors a deterministic iteration order over grouped
// records.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
