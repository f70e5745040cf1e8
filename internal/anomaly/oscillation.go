package anomaly

import (
	"fmt"
	"sort"

	"github.com/optwatch/optwatch/internal/metrics"
)

// Oscillation severity is tiered by how much of the window reversed rather
// than by the shared deviation thresholds.
const (
	oscillationCriticalFrequency = 0.8
	oscillationWarningFrequency  = 0.5
)

// DetectParameterOscillation flags parameters whose adaptations keep
// reversing direction inside the recent window. A parameter needs at least
// three adaptations before oscillation is even possible; equal or
// non-numeric consecutive values carry the previous direction forward.
func DetectParameterOscillation(store *metrics.Store, cfg Config) []Anomaly {
	byParam := make(map[string][]metrics.ParameterAdaptation)
	for _, a := range store.Adaptations() {
		byParam[a.ParameterName] = append(byParam[a.ParameterName], a)
	}

	var found []Anomaly
	for _, name := range sortedKeys(byParam) {
		history := byParam[name]
		if len(history) < 3 {
			continue
		}

		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Timestamp.Before(history[j].Timestamp)
		})
		recent := history
		if len(recent) > cfg.RecentWindowSize {
			recent = recent[len(recent)-cfg.RecentWindowSize:]
		}

		reversals := countReversals(recent)
		if reversals < cfg.OscillationThreshold {
			continue
		}

		frequency := float64(reversals) / float64(len(recent))
		severity := SeverityInfo
		switch {
		case frequency >= oscillationCriticalFrequency:
			severity = SeverityCritical
		case frequency >= oscillationWarningFrequency:
			severity = SeverityWarning
		}

		recentValues := make([]any, 0, 5)
		start := len(recent) - 5
		if start < 0 {
			start = 0
		}
		for _, a := range recent[start:] {
			recentValues = append(recentValues, a.NewValue)
		}

		found = append(found, New(
			TypeParameterOscillation,
			severity,
			fmt.Sprintf("Parameter %q reversed direction %d times over its last %d adaptations",
				name, reversals, len(recent)),
			[]string{name},
			map[string]any{
				"direction_changes": reversals,
				"total_adaptations": len(history),
				"change_frequency":  frequency,
				"recent_values":     recentValues,
			},
		))
	}
	return found
}

// countReversals walks consecutive new-value pairs, classifying each
// transition as increasing or decreasing, and counts direction changes.
// A transition with equal or non-numeric values keeps the prior direction.
func countReversals(window []metrics.ParameterAdaptation) int {
	reversals := 0
	direction := 0 // +1 increasing, -1 decreasing, 0 unknown
	for i := 1; i < len(window); i++ {
		prev, okPrev := asFloat(window[i-1].NewValue)
		cur, okCur := asFloat(window[i].NewValue)

		next := direction
		if okPrev && okCur {
			if cur > prev {
				next = 1
			} else if cur < prev {
				next = -1
			}
		}

		if direction != 0 && next != 0 && next != direction {
			reversals++
		}
		direction = next
	}
	return reversals
}
