package anomaly

import (
	"fmt"
	"time"
)

// Type categorizes a detected learning-process anomaly.
type Type string

const (
	// TypeParameterOscillation means a parameter keeps reversing direction
	// across consecutive adaptations
	TypeParameterOscillation Type = "parameter_oscillation"
	// TypePerformanceDecline means a strategy's recent effectiveness dropped
	// (or its latency rose) relative to its own baseline
	TypePerformanceDecline Type = "performance_decline"
	// TypeStrategyPerformanceGap means the best and worst strategies have
	// diverged too far
	TypeStrategyPerformanceGap Type = "strategy_performance_gap"
	// TypeLearningStall means queries keep being analyzed but no parameter
	// is ever adjusted
	TypeLearningStall Type = "learning_stall"
)

// Severity ranks how urgent an anomaly is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityWarning  Severity = "warning"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Anomaly is an immutable value describing one detected problem. Detectors
// are the only producers; the deduplicator and dispatcher only read it.
type Anomaly struct {
	// ID uniquely identifies the anomaly; defaults to "<unix_seconds>_<type>"
	ID string `json:"id"`
	// Type categorizes the anomaly; always non-empty
	Type Type `json:"anomaly_type"`
	// Severity ranks urgency; always non-empty
	Severity Severity `json:"severity"`
	// Description is a human-readable summary; always non-empty
	Description string `json:"description"`
	// AffectedParameters names the parameters/strategies involved. May be
	// empty (a learning stall affects nothing in particular). Treated as an
	// unordered set by deduplication.
	AffectedParameters []string `json:"affected_parameters"`
	// Timestamp is when the anomaly was detected
	Timestamp time.Time `json:"timestamp"`
	// MetricValues carries the measurements that triggered detection
	MetricValues map[string]any `json:"metric_values"`
}

// New builds an anomaly with the current timestamp and the default ID.
func New(t Type, sev Severity, description string, affected []string, metricValues map[string]any) Anomaly {
	now := time.Now()
	return Anomaly{
		ID:                 fmt.Sprintf("%d_%s", now.Unix(), t),
		Type:               t,
		Severity:           sev,
		Description:        description,
		AffectedParameters: affected,
		Timestamp:          now,
		MetricValues:       metricValues,
	}
}
