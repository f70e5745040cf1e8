package anomaly

import (
	"fmt"
	"sort"

	"github.com/optwatch/optwatch/internal/metrics"
)

// epsilon guards the relative-change divisions against zero baselines.
const epsilon = 0.001

// DetectPerformanceDecline compares each (strategy, query type) pair's
// recent behavior against its own baseline. The recent window is split so
// that the newest half is "current" and the older remainder is "baseline";
// a relative score drop or latency rise past the configured threshold
// raises the anomaly.
func DetectPerformanceDecline(store *metrics.Store, cfg Config) []Anomaly {
	type pair struct{ strategy, queryType string }
	byPair := make(map[string][]metrics.StrategyEffectiveness)
	pairs := make(map[string]pair)
	for _, e := range store.Effectiveness() {
		key := e.StrategyName + "\x00" + e.QueryType
		byPair[key] = append(byPair[key], e)
		pairs[key] = pair{strategy: e.StrategyName, queryType: e.QueryType}
	}

	var found []Anomaly
	for _, key := range sortedKeys(byPair) {
		samples := byPair[key]
		if len(samples) < cfg.MinSampleSize {
			continue
		}

		sort.SliceStable(samples, func(i, j int) bool {
			return samples[i].Timestamp.Before(samples[j].Timestamp)
		})
		recent := samples
		if len(recent) > cfg.RecentWindowSize {
			recent = recent[len(recent)-cfg.RecentWindowSize:]
		}
		if len(recent) < cfg.MinSampleSize {
			continue
		}

		// Newest half is "current", the older remainder is "baseline"
		mid := len(recent) / 2
		baseline := recent[:len(recent)-mid]
		current := recent[len(recent)-mid:]

		baseScore, baseLatency := averages(baseline)
		curScore, curLatency := averages(current)

		scoreChange := (baseScore - curScore) / maxf(baseScore, epsilon)
		latencyChange := (curLatency - baseLatency) / maxf(baseLatency, epsilon)

		if scoreChange <= cfg.PerformanceDeclineThreshold && latencyChange <= cfg.PerformanceDeclineThreshold {
			continue
		}

		worst := maxf(scoreChange, latencyChange)
		p := pairs[key]
		found = append(found, New(
			TypePerformanceDecline,
			severityFor(worst, cfg.SeverityThresholds),
			fmt.Sprintf("Strategy %q on %q queries declined: success rate change %.1f%%, latency change %.1f%%",
				p.strategy, p.queryType, scoreChange*100, latencyChange*100),
			[]string{p.strategy, p.queryType},
			map[string]any{
				"success_rate_change": scoreChange,
				"latency_change":      latencyChange,
				"baseline_score":      baseScore,
				"current_score":       curScore,
				"baseline_latency":    baseLatency,
				"current_latency":     curLatency,
				"sample_count":        len(recent),
			},
		))
	}
	return found
}

func averages(samples []metrics.StrategyEffectiveness) (score, latency float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	for _, s := range samples {
		score += s.EffectivenessScore
		latency += s.ExecutionTime
	}
	n := float64(len(samples))
	return score / n, latency / n
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
