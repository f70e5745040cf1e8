package alert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/optwatch/optwatch/internal/anomaly"
)

// WriteAnomaly persists one anomaly as anomaly_<id>.json in dir, creating
// the directory if needed. It returns the written path.
func WriteAnomaly(dir string, a anomaly.Anomaly) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create alerts dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("anomaly_%s.json", sanitizeID(a.ID)))
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode anomaly %s: %w", a.ID, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// LoadAnomaly reads back a persisted anomaly file. Timestamps survive at
// RFC 3339 precision, so a round trip compares equal to the second.
func LoadAnomaly(path string) (anomaly.Anomaly, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return anomaly.Anomaly{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var a anomaly.Anomaly
	if err := json.Unmarshal(data, &a); err != nil {
		return anomaly.Anomaly{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return a, nil
}

// sanitizeID keeps anomaly-derived file names safe on every platform.
// Default IDs ("<unix>_<type>") pass through unchanged.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '-' || r == '.':
			return r
		default:
			return '-'
		}
	}, id)
}
