package metrics

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Snapshot file names within a metrics directory. One JSONL file per record
// kind, one record per line.
const (
	cyclesFile        = "learning_cycles.jsonl"
	adaptationsFile   = "parameter_adaptations.jsonl"
	effectivenessFile = "strategy_effectiveness.jsonl"
	patternsFile      = "query_patterns.jsonl"
)

// SaveSnapshot writes a point-in-time snapshot of all four collections into
// dir as JSONL files. The snapshot is bounded by the store's history cap,
// so this is a working-state dump, not an audit trail. Existing snapshot
// files in dir are replaced.
func (s *Store) SaveSnapshot(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create metrics dir: %w", err)
	}

	if err := writeJSONL(filepath.Join(dir, cyclesFile), s.Cycles()); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(dir, adaptationsFile), s.Adaptations()); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(dir, effectivenessFile), s.Effectiveness()); err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(dir, patternsFile), s.Patterns()); err != nil {
		return err
	}

	s.logger.Debug("metrics snapshot saved", zap.String("dir", dir))
	return nil
}

// LoadSnapshot replays a snapshot directory into the store through the
// normal Record* paths, so history caps and running totals apply. Missing
// snapshot files are skipped; a directory with no snapshot files at all is
// an error.
func (s *Store) LoadSnapshot(dir string) error {
	found := 0

	cycles, err := readJSONL[LearningCycle](filepath.Join(dir, cyclesFile))
	if err != nil {
		return err
	}
	if cycles != nil {
		found++
		for _, c := range cycles {
			s.RecordLearningCycle(c)
		}
	}

	adaptations, err := readJSONL[ParameterAdaptation](filepath.Join(dir, adaptationsFile))
	if err != nil {
		return err
	}
	if adaptations != nil {
		found++
		for _, a := range adaptations {
			s.RecordParameterAdaptation(a)
		}
	}

	effectiveness, err := readJSONL[StrategyEffectiveness](filepath.Join(dir, effectivenessFile))
	if err != nil {
		return err
	}
	if effectiveness != nil {
		found++
		for _, e := range effectiveness {
			s.RecordStrategyEffectiveness(e)
		}
	}

	patterns, err := readJSONL[QueryPattern](filepath.Join(dir, patternsFile))
	if err != nil {
		return err
	}
	if patterns != nil {
		found++
		for _, p := range patterns {
			s.RecordQueryPattern(p)
		}
	}

	if found == 0 {
		return fmt.Errorf("no metrics snapshot files found in %s", dir)
	}

	s.logger.Debug("metrics snapshot loaded",
		zap.String("dir", dir),
		zap.Int("files", found))
	return nil
}

func writeJSONL[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode record in %s: %w", filepath.Base(path), err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// readJSONL returns (nil, nil) when the file does not exist, and a non-nil
// (possibly empty) slice when it does.
func readJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	records := []T{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var r T
		if err := json.Unmarshal(text, &r); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return records, nil
}
