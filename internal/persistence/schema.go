package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dag_name TEXT NOT NULL,
		policy TEXT NOT NULL,
		cores INTEGER NOT NULL,
		makespan INTEGER NOT NULL,
		schedulable INTEGER NOT NULL,
		average_utilization REAL NOT NULL,
		variance_utilization REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_dag_policy ON runs(dag_name, policy);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
