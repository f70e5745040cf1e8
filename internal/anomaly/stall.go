package anomaly

import (
	"fmt"

	"github.com/optwatch/optwatch/internal/metrics"
)

// DetectLearningStall flags a learning process that keeps analyzing queries
// without ever adjusting a parameter. Only the most recent window of cycles
// is considered, so an old burst of adjustments cannot mask a current stall.
func DetectLearningStall(store *metrics.Store, cfg Config) []Anomaly {
	cycles := store.RecentCycles(cfg.RecentWindowSize)
	if len(cycles) == 0 {
		return nil
	}

	var analyzed, adjusted, patterns int
	for _, c := range cycles {
		analyzed += c.AnalyzedQueries
		adjusted += c.ParamsAdjusted.Count()
		patterns += c.PatternsIdentified
	}

	if analyzed <= cfg.LearningStallThreshold || adjusted != 0 {
		return nil
	}

	return []Anomaly{New(
		TypeLearningStall,
		SeverityWarning,
		fmt.Sprintf("Learning stalled: %d queries analyzed across %d cycles without a single parameter adjustment",
			analyzed, len(cycles)),
		nil,
		map[string]any{
			"total_analyzed_queries":    analyzed,
			"total_parameters_adjusted": adjusted,
			"cycles_considered":         len(cycles),
			"patterns_identified":       patterns,
		},
	)}
}
