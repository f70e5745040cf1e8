package anomaly

import (
	"fmt"

	"github.com/optwatch/optwatch/internal/metrics"
)

// DetectStrategyGap flags a divergence between the best- and
// worst-performing strategies across all effectiveness samples. The gap is
// judged against PerformanceDeclineThreshold: the system shares one notion
// of how much divergence is alarming.
func DetectStrategyGap(store *metrics.Store, cfg Config) []Anomaly {
	stats := store.EffectivenessByStrategy()
	if len(stats) < 2 {
		return nil
	}

	var best, worst string
	for _, name := range sortedKeys(stats) {
		if best == "" || stats[name].AverageScore > stats[best].AverageScore {
			best = name
		}
		if worst == "" || stats[name].AverageScore < stats[worst].AverageScore {
			worst = name
		}
	}

	bestScore := stats[best].AverageScore
	worstScore := stats[worst].AverageScore
	gap := (bestScore - worstScore) / maxf(bestScore, epsilon)
	if gap <= cfg.PerformanceDeclineThreshold {
		return nil
	}

	perStrategy := make(map[string]any, len(stats))
	for name, s := range stats {
		perStrategy[name] = map[string]any{
			"average_score":   s.AverageScore,
			"average_latency": s.AverageLatency,
			"count":           s.Count,
		}
	}

	return []Anomaly{New(
		TypeStrategyPerformanceGap,
		severityFor(gap, cfg.SeverityThresholds),
		fmt.Sprintf("Strategy %q trails %q by %.1f%% average effectiveness",
			worst, best, gap*100),
		[]string{worst},
		map[string]any{
			"performance_gap": gap,
			"best_strategy":   best,
			"worst_strategy":  worst,
			"best_score":      bestScore,
			"worst_score":     worstScore,
			"strategies":      perStrategy,
		},
	)}
}
