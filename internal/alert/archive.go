package alert

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"github.com/optwatch/optwatch/internal/anomaly"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS anomalies (
	id                  TEXT PRIMARY KEY,
	anomaly_type        TEXT NOT NULL,
	severity            TEXT NOT NULL,
	description         TEXT NOT NULL,
	affected_parameters TEXT NOT NULL,
	timestamp           TEXT NOT NULL,
	metric_values       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_anomalies_type ON anomalies(anomaly_type);
CREATE INDEX IF NOT EXISTS idx_anomalies_timestamp ON anomalies(timestamp);
`

// SQLiteArchive persists raised anomalies to a local SQLite database so
// they survive process restarts and can be queried after the fact. The
// structured fields are stored as JSON columns.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive opens (creating if needed) the archive database at path.
func NewSQLiteArchive(path string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	return &SQLiteArchive{db: db}, nil
}

// Close releases the database handle.
func (ar *SQLiteArchive) Close() error {
	return ar.db.Close()
}

// Store inserts or replaces one anomaly.
func (ar *SQLiteArchive) Store(a anomaly.Anomaly) error {
	params, err := json.Marshal(a.AffectedParameters)
	if err != nil {
		return fmt.Errorf("failed to encode affected parameters: %w", err)
	}
	values, err := json.Marshal(a.MetricValues)
	if err != nil {
		return fmt.Errorf("failed to encode metric values: %w", err)
	}

	_, err = ar.db.Exec(`
		INSERT OR REPLACE INTO anomalies
			(id, anomaly_type, severity, description, affected_parameters, timestamp, metric_values)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), string(a.Severity), a.Description,
		string(params), a.Timestamp.UTC().Format(time.RFC3339), string(values))
	if err != nil {
		return fmt.Errorf("failed to store anomaly %s: %w", a.ID, err)
	}
	return nil
}

// Handler adapts the archive to the dispatcher's Handler type; storage
// failures are logged, matching the dispatcher's best-effort persistence
// contract.
func (ar *SQLiteArchive) Handler(logger *zap.Logger) Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(a anomaly.Anomaly) {
		if err := ar.Store(a); err != nil {
			logger.Error("failed to archive anomaly",
				zap.String("id", a.ID),
				zap.Error(err))
		}
	}
}

// Recent returns up to n archived anomalies, newest first.
func (ar *SQLiteArchive) Recent(n int) ([]anomaly.Anomaly, error) {
	rows, err := ar.db.Query(`
		SELECT id, anomaly_type, severity, description, affected_parameters, timestamp, metric_values
		FROM anomalies
		ORDER BY timestamp DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var result []anomaly.Anomaly
	for rows.Next() {
		var (
			a         anomaly.Anomaly
			atype     string
			severity  string
			params    string
			timestamp string
			values    string
		)
		if err := rows.Scan(&a.ID, &atype, &severity, &a.Description, &params, &timestamp, &values); err != nil {
			return nil, fmt.Errorf("failed to scan archived anomaly: %w", err)
		}
		a.Type = anomaly.Type(atype)
		a.Severity = anomaly.Severity(severity)
		if err := json.Unmarshal([]byte(params), &a.AffectedParameters); err != nil {
			return nil, fmt.Errorf("failed to decode affected parameters for %s: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(values), &a.MetricValues); err != nil {
			return nil, fmt.Errorf("failed to decode metric values for %s: %w", a.ID, err)
		}
		ts, err := time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp for %s: %w", a.ID, err)
		}
		a.Timestamp = ts
		result = append(result, a)
	}
	return result, rows.Err()
}

// CountByType reports how many anomalies of each type are archived.
func (ar *SQLiteArchive) CountByType() (map[anomaly.Type]int, error) {
	rows, err := ar.db.Query(`SELECT anomaly_type, COUNT(*) FROM anomalies GROUP BY anomaly_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count archive: %w", err)
	}
	defer rows.Close()

	counts := make(map[anomaly.Type]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan archive count: %w", err)
		}
		counts[anomaly.Type(t)] = n
	}
	return counts, rows.Err()
}
