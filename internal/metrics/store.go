package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxHistorySize bounds each record collection when no explicit
// limit is configured.
const DefaultMaxHistorySize = 1000

// Store is bounded, thread-safe storage for the optimizer's self-tuning
// records. It holds four collections (learning cycles, parameter
// adaptations, strategy-effectiveness samples, query patterns), each capped
// at MaxHistorySize with oldest-first eviction, and computes derived
// aggregates on demand.
//
// A single mutex guards all four collections. Writes are occasional and
// reads happen once per check interval, so the coarse lock is never
// contended in practice.
type Store struct {
	mu sync.RWMutex

	maxHistory int
	logger     *zap.Logger

	// cycles is keyed by CycleID; eviction is oldest-by-timestamp since the
	// map has no insertion order
	cycles        map[string]LearningCycle
	adaptations   []ParameterAdaptation
	effectiveness []StrategyEffectiveness
	patterns      []QueryPattern

	// Running totals, not subject to eviction
	totalAnalyzedQueries int
	totalOptimizations   int
}

// StoreConfig holds construction options for a Store.
type StoreConfig struct {
	// MaxHistorySize caps each record collection. Zero means
	// DefaultMaxHistorySize; negative is a configuration error.
	MaxHistorySize int
	// Logger receives snapshot I/O diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// NewStore creates a metrics store. The only failure mode is invalid
// configuration.
func NewStore(cfg *StoreConfig) (*Store, error) {
	if cfg == nil {
		cfg = &StoreConfig{}
	}
	maxHistory := cfg.MaxHistorySize
	if maxHistory == 0 {
		maxHistory = DefaultMaxHistorySize
	}
	if maxHistory < 0 {
		return nil, fmt.Errorf("max_history_size must be positive (got %d)", cfg.MaxHistorySize)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		maxHistory: maxHistory,
		logger:     logger,
		cycles:     make(map[string]LearningCycle),
	}, nil
}

// MaxHistorySize returns the per-collection record cap.
func (s *Store) MaxHistorySize() int {
	return s.maxHistory
}

// RecordLearningCycle inserts or overwrites a learning-cycle record. A zero
// timestamp is filled with the current time. The running analyzed-query
// total always grows, even when an existing cycle ID is overwritten.
func (s *Store) RecordLearningCycle(c LearningCycle) {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycles[c.CycleID] = c
	s.totalAnalyzedQueries += c.AnalyzedQueries

	// Evict oldest cycles by timestamp until within bounds
	for len(s.cycles) > s.maxHistory {
		oldestID := ""
		var oldest time.Time
		for id, cycle := range s.cycles {
			if oldestID == "" || cycle.Timestamp.Before(oldest) {
				oldestID = id
				oldest = cycle.Timestamp
			}
		}
		delete(s.cycles, oldestID)
	}
}

// RecordParameterAdaptation appends a parameter-adaptation record, dropping
// the oldest entries once the collection exceeds MaxHistorySize.
func (s *Store) RecordParameterAdaptation(a ParameterAdaptation) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.adaptations = append(s.adaptations, a)
	s.totalOptimizations++
	if len(s.adaptations) > s.maxHistory {
		copy(s.adaptations, s.adaptations[len(s.adaptations)-s.maxHistory:])
		s.adaptations = s.adaptations[:s.maxHistory]
	}
}

// RecordStrategyEffectiveness appends a strategy-effectiveness sample with
// the same append/trim discipline.
func (s *Store) RecordStrategyEffectiveness(e StrategyEffectiveness) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.effectiveness = append(s.effectiveness, e)
	if len(s.effectiveness) > s.maxHistory {
		copy(s.effectiveness, s.effectiveness[len(s.effectiveness)-s.maxHistory:])
		s.effectiveness = s.effectiveness[:s.maxHistory]
	}
}

// RecordQueryPattern appends a query-pattern record with the same
// append/trim discipline.
func (s *Store) RecordQueryPattern(p QueryPattern) {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.patterns = append(s.patterns, p)
	if len(s.patterns) > s.maxHistory {
		copy(s.patterns, s.patterns[len(s.patterns)-s.maxHistory:])
		s.patterns = s.patterns[:s.maxHistory]
	}
}

// Cycles returns a copy of all stored learning cycles ordered by timestamp.
func (s *Store) Cycles() []LearningCycle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]LearningCycle, 0, len(s.cycles))
	for _, c := range s.cycles {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result
}

// RecentCycles returns the n most recent learning cycles ordered oldest
// first. n <= 0 returns nil.
func (s *Store) RecentCycles(n int) []LearningCycle {
	if n <= 0 {
		return nil
	}
	all := s.Cycles()
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all
}

// Adaptations returns a copy of the parameter-adaptation history in append
// order.
func (s *Store) Adaptations() []ParameterAdaptation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ParameterAdaptation, len(s.adaptations))
	copy(result, s.adaptations)
	return result
}

// Effectiveness returns a copy of the strategy-effectiveness history in
// append order.
func (s *Store) Effectiveness() []StrategyEffectiveness {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]StrategyEffectiveness, len(s.effectiveness))
	copy(result, s.effectiveness)
	return result
}

// Patterns returns a copy of the query-pattern history in append order.
func (s *Store) Patterns() []QueryPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]QueryPattern, len(s.patterns))
	copy(result, s.patterns)
	return result
}

// Counts reports the current size of each collection.
func (s *Store) Counts() (cycles, adaptations, effectiveness, patterns int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cycles), len(s.adaptations), len(s.effectiveness), len(s.patterns)
}

// Reset clears all collections and running totals.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycles = make(map[string]LearningCycle)
	s.adaptations = nil
	s.effectiveness = nil
	s.patterns = nil
	s.totalAnalyzedQueries = 0
	s.totalOptimizations = 0
}
