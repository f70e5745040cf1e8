package metrics

// Summary is the roll-up view of the learning process, computed on demand
// from the stored records plus the running totals.
type Summary struct {
	// TotalCycles is the number of learning cycles currently stored
	TotalCycles int `json:"total_cycles"`
	// TotalAnalyzedQueries is the running total across all cycles ever
	// recorded, including evicted ones
	TotalAnalyzedQueries int `json:"total_analyzed_queries"`
	// TotalPatternsIdentified sums PatternsIdentified over stored cycles
	TotalPatternsIdentified int `json:"total_patterns_identified"`
	// TotalParametersAdjusted sums the normalized adjusted-parameter count
	// over stored cycles
	TotalParametersAdjusted int `json:"total_parameters_adjusted"`
	// AverageCycleTime is the mean execution time of stored cycles, seconds
	AverageCycleTime float64 `json:"average_cycle_time"`
	// TotalOptimizations is the running count of parameter adaptations ever
	// recorded
	TotalOptimizations int `json:"total_optimizations"`
}

// StrategyStats aggregates effectiveness samples for one grouping key.
type StrategyStats struct {
	AverageScore   float64 `json:"average_score"`
	AverageLatency float64 `json:"average_latency"`
	Count          int     `json:"count"`
}

// PatternStats aggregates query-pattern records for one pattern type.
type PatternStats struct {
	Count              int     `json:"count"`
	MatchingQueries    int     `json:"matching_queries"`
	AveragePerformance float64 `json:"average_performance"`
}

// Aggregate computes the summary view.
func (s *Store) Aggregate() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		TotalCycles:          len(s.cycles),
		TotalAnalyzedQueries: s.totalAnalyzedQueries,
		TotalOptimizations:   s.totalOptimizations,
	}

	var totalTime float64
	for _, c := range s.cycles {
		sum.TotalPatternsIdentified += c.PatternsIdentified
		sum.TotalParametersAdjusted += c.ParamsAdjusted.Count()
		totalTime += c.ExecutionTime
	}
	if len(s.cycles) > 0 {
		sum.AverageCycleTime = totalTime / float64(len(s.cycles))
	}
	return sum
}

// EffectivenessByStrategy groups effectiveness samples by strategy name.
func (s *Store) EffectivenessByStrategy() map[string]StrategyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return groupEffectiveness(s.effectiveness, func(e StrategyEffectiveness) string {
		return e.StrategyName
	})
}

// EffectivenessByQueryType groups effectiveness samples by query type.
func (s *Store) EffectivenessByQueryType() map[string]StrategyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return groupEffectiveness(s.effectiveness, func(e StrategyEffectiveness) string {
		return e.QueryType
	})
}

func groupEffectiveness(samples []StrategyEffectiveness, key func(StrategyEffectiveness) string) map[string]StrategyStats {
	type acc struct {
		score   float64
		latency float64
		count   int
	}
	accs := make(map[string]*acc)
	for _, e := range samples {
		k := key(e)
		a := accs[k]
		if a == nil {
			a = &acc{}
			accs[k] = a
		}
		a.score += e.EffectivenessScore
		a.latency += e.ExecutionTime
		a.count++
	}

	result := make(map[string]StrategyStats, len(accs))
	for k, a := range accs {
		result[k] = StrategyStats{
			AverageScore:   a.score / float64(a.count),
			AverageLatency: a.latency / float64(a.count),
			Count:          a.count,
		}
	}
	return result
}

// PatternsByType groups query-pattern records by pattern type.
func (s *Store) PatternsByType() map[string]PatternStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type acc struct {
		count    int
		matching int
		perf     float64
	}
	accs := make(map[string]*acc)
	for _, p := range s.patterns {
		a := accs[p.PatternType]
		if a == nil {
			a = &acc{}
			accs[p.PatternType] = a
		}
		a.count++
		a.matching += p.MatchingQueries
		a.perf += p.AveragePerformance
	}

	result := make(map[string]PatternStats, len(accs))
	for k, a := range accs {
		result[k] = PatternStats{
			Count:              a.count,
			MatchingQueries:    a.matching,
			AveragePerformance: a.perf / float64(a.count),
		}
	}
	return result
}
