package metrics

import (
	"math"
	"testing"
)

func TestAggregate_NormalizesAdjustedParams(t *testing.T) {
	s, err := NewStore(nil)
	if err != nil {
		t.Fatal(err)
	}

	// Producers send whichever representation is natural; the summary
	// normalizes both to a count
	s.RecordLearningCycle(LearningCycle{
		CycleID:            "c1",
		AnalyzedQueries:    10,
		PatternsIdentified: 2,
		ParamsAdjusted:     CountParams(3),
		ExecutionTime:      1.0,
	})
	s.RecordLearningCycle(LearningCycle{
		CycleID:            "c2",
		AnalyzedQueries:    20,
		PatternsIdentified: 1,
		ParamsAdjusted:     NamedParams(map[string]any{"cache_size": 512, "parallelism": 4}),
		ExecutionTime:      3.0,
	})

	sum := s.Aggregate()
	if sum.TotalCycles != 2 {
		t.Errorf("total cycles = %d, want 2", sum.TotalCycles)
	}
	if sum.TotalAnalyzedQueries != 30 {
		t.Errorf("total analyzed queries = %d, want 30", sum.TotalAnalyzedQueries)
	}
	if sum.TotalPatternsIdentified != 3 {
		t.Errorf("total patterns = %d, want 3", sum.TotalPatternsIdentified)
	}
	if sum.TotalParametersAdjusted != 5 {
		t.Errorf("total parameters adjusted = %d, want 5", sum.TotalParametersAdjusted)
	}
	if math.Abs(sum.AverageCycleTime-2.0) > 1e-9 {
		t.Errorf("average cycle time = %g, want 2.0", sum.AverageCycleTime)
	}
}

func TestAggregate_EmptyStore(t *testing.T) {
	s, err := NewStore(nil)
	if err != nil {
		t.Fatal(err)
	}

	sum := s.Aggregate()
	if sum.TotalCycles != 0 || sum.AverageCycleTime != 0 {
		t.Errorf("empty summary = %+v, want zeros", sum)
	}
}

func TestEffectivenessGroupings(t *testing.T) {
	s, err := NewStore(nil)
	if err != nil {
		t.Fatal(err)
	}

	samples := []StrategyEffectiveness{
		{StrategyName: "vector_first", QueryType: "semantic", EffectivenessScore: 0.9, ExecutionTime: 100},
		{StrategyName: "vector_first", QueryType: "semantic", EffectivenessScore: 0.7, ExecutionTime: 200},
		{StrategyName: "keyword_first", QueryType: "semantic", EffectivenessScore: 0.5, ExecutionTime: 50},
		{StrategyName: "keyword_first", QueryType: "exact", EffectivenessScore: 0.6, ExecutionTime: 30},
	}
	for _, e := range samples {
		s.RecordStrategyEffectiveness(e)
	}

	byStrategy := s.EffectivenessByStrategy()
	if len(byStrategy) != 2 {
		t.Fatalf("strategy groups = %d, want 2", len(byStrategy))
	}
	vf := byStrategy["vector_first"]
	if math.Abs(vf.AverageScore-0.8) > 1e-9 || vf.Count != 2 {
		t.Errorf("vector_first stats = %+v, want avg 0.8 count 2", vf)
	}
	if math.Abs(vf.AverageLatency-150) > 1e-9 {
		t.Errorf("vector_first latency = %g, want 150", vf.AverageLatency)
	}

	byType := s.EffectivenessByQueryType()
	sem := byType["semantic"]
	if sem.Count != 3 {
		t.Errorf("semantic count = %d, want 3", sem.Count)
	}
	if math.Abs(sem.AverageScore-0.7) > 1e-9 {
		t.Errorf("semantic avg score = %g, want 0.7", sem.AverageScore)
	}
}

func TestPatternsByType(t *testing.T) {
	s, err := NewStore(nil)
	if err != nil {
		t.Fatal(err)
	}

	s.RecordQueryPattern(QueryPattern{PatternID: "p1", PatternType: "join", MatchingQueries: 10, AveragePerformance: 0.4})
	s.RecordQueryPattern(QueryPattern{PatternID: "p2", PatternType: "join", MatchingQueries: 20, AveragePerformance: 0.8})
	s.RecordQueryPattern(QueryPattern{PatternID: "p3", PatternType: "scan", MatchingQueries: 5, AveragePerformance: 0.9})

	byType := s.PatternsByType()
	join := byType["join"]
	if join.Count != 2 || join.MatchingQueries != 30 {
		t.Errorf("join stats = %+v, want count 2, matching 30", join)
	}
	if math.Abs(join.AveragePerformance-0.6) > 1e-9 {
		t.Errorf("join avg performance = %g, want 0.6", join.AveragePerformance)
	}
	if byType["scan"].Count != 1 {
		t.Errorf("scan count = %d, want 1", byType["scan"].Count)
	}
}
