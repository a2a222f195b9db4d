// Package persistence records finished run summaries in SQLite so parameter
// sweeps can be compared across invocations. It consumes results; it holds
// no scheduling logic.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// RunRecord is one stored run summary.
type RunRecord struct {
	ID                  int64
	DAGName             string
	Policy              string
	Cores               int
	Makespan            int
	Schedulable         bool
	AverageUtilization  float64
	VarianceUtilization float64
	CreatedAt           time.Time
}

// Store defines the persistence interface for run summaries.
type Store interface {
	SaveRun(ctx context.Context, rec *RunRecord) (int64, error)
	ListRuns(ctx context.Context) ([]*RunRecord, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store at the given path.
// Creates parent directories if needed. Enables WAL mode and a busy timeout.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// SaveRun inserts one run summary and returns its row id.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec *RunRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (dag_name, policy, cores, makespan, schedulable, average_utilization, variance_utilization)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.DAGName, rec.Policy, rec.Cores, rec.Makespan, rec.Schedulable, rec.AverageUtilization, rec.VarianceUtilization)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	return id, nil
}

// ListRuns returns all stored run summaries, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dag_name, policy, cores, makespan, schedulable, average_utilization, variance_utilization, created_at
		FROM runs
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		rec := &RunRecord{}
		if err := rows.Scan(&rec.ID, &rec.DAGName, &rec.Policy, &rec.Cores, &rec.Makespan,
			&rec.Schedulable, &rec.AverageUtilization, &rec.VarianceUtilization, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return records, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
