package metrics

import (
	"encoding/json"
	"fmt"
	"time"
)

// LearningCycle records one completed pass of the optimizer's self-tuning
// process. Cycles are keyed by CycleID; recording the same ID again replaces
// the earlier record (last write wins).
type LearningCycle struct {
	// CycleID uniquely identifies the learning pass
	CycleID string `json:"cycle_id"`
	// Timestamp is when the cycle completed (zero value means "now" at record time)
	Timestamp time.Time `json:"timestamp"`
	// AnalyzedQueries is how many queries the pass examined
	AnalyzedQueries int `json:"analyzed_queries"`
	// PatternsIdentified is how many query patterns the pass recognized
	PatternsIdentified int `json:"patterns_identified"`
	// ParamsAdjusted describes which (or how many) parameters changed
	ParamsAdjusted ParamsAdjusted `json:"parameters_adjusted"`
	// ExecutionTime is the wall-clock duration of the pass in seconds
	ExecutionTime float64 `json:"execution_time"`
}

// ParameterAdaptation records a single tuning decision: one parameter moved
// from an old value to a new value with some confidence.
type ParameterAdaptation struct {
	Timestamp     time.Time `json:"timestamp"`
	ParameterName string    `json:"parameter_name"`
	// OldValue and NewValue are usually numeric but producers may send
	// opaque values; detectors tolerate non-numeric values by skipping them.
	OldValue   any     `json:"old_value"`
	NewValue   any     `json:"new_value"`
	Reason     string  `json:"adaptation_reason"`
	Confidence float64 `json:"confidence"`
}

// StrategyEffectiveness records how well one strategy handled one query.
type StrategyEffectiveness struct {
	Timestamp          time.Time `json:"timestamp"`
	StrategyName       string    `json:"strategy_name"`
	QueryType          string    `json:"query_type"`
	EffectivenessScore float64   `json:"effectiveness_score"`
	ExecutionTime      float64   `json:"execution_time"`
	ResultCount        int       `json:"result_count"`
}

// QueryPattern records a recognized query pattern and its observed performance.
type QueryPattern struct {
	Timestamp          time.Time      `json:"timestamp"`
	PatternID          string         `json:"pattern_id"`
	PatternType        string         `json:"pattern_type"`
	MatchingQueries    int            `json:"matching_queries"`
	AveragePerformance float64        `json:"average_performance"`
	Parameters         map[string]any `json:"parameters,omitempty"`
}

// ParamsAdjusted is a small tagged union over the two shapes producers use
// for "parameters adjusted in this cycle": a plain count, or a map of
// parameter names to values. Count() normalizes both to a scalar, which is
// the only form the aggregates and detectors consume.
//
// The zero value means "no parameters adjusted".
type ParamsAdjusted struct {
	count int
	named map[string]any
}

// CountParams builds a ParamsAdjusted from a plain count.
// Negative counts are clamped to zero.
func CountParams(n int) ParamsAdjusted {
	if n < 0 {
		n = 0
	}
	return ParamsAdjusted{count: n}
}

// NamedParams builds a ParamsAdjusted from a name -> value map.
func NamedParams(m map[string]any) ParamsAdjusted {
	if len(m) == 0 {
		return ParamsAdjusted{}
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return ParamsAdjusted{named: cp}
}

// Count returns the number of adjusted parameters regardless of the
// underlying representation.
func (p ParamsAdjusted) Count() int {
	if p.named != nil {
		return len(p.named)
	}
	return p.count
}

// Named returns a copy of the name -> value map, or nil if the value was
// recorded as a bare count.
func (p ParamsAdjusted) Named() map[string]any {
	if p.named == nil {
		return nil
	}
	cp := make(map[string]any, len(p.named))
	for k, v := range p.named {
		cp[k] = v
	}
	return cp
}

// MarshalJSON emits the map form when names are known, otherwise the count.
func (p ParamsAdjusted) MarshalJSON() ([]byte, error) {
	if p.named != nil {
		return json.Marshal(p.named)
	}
	return json.Marshal(p.count)
}

// UnmarshalJSON accepts a number, an object, or an array of names, matching
// the shapes producers actually send.
func (p *ParamsAdjusted) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = CountParams(int(n))
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		*p = NamedParams(m)
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		nm := make(map[string]any, len(names))
		for _, name := range names {
			nm[name] = nil
		}
		*p = NamedParams(nm)
		return nil
	}

	return fmt.Errorf("parameters_adjusted: expected number, object, or array, got %s", string(data))
}
