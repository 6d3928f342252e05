package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema with runs",
		SQL: `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    root TEXT NOT NULL,
    extensions TEXT NOT NULL,
    extension_key TEXT NOT NULL,
    lines INTEGER NOT NULL,
    characters INTEGER NOT NULL,
    files_counted INTEGER NOT NULL,
    files_skipped INTEGER NOT NULL,
    walk_errors INTEGER NOT NULL DEFAULT 0,
    workers INTEGER NOT NULL,
    queue_capacity INTEGER NOT NULL,
    queue_order TEXT NOT NULL,
    started_at TEXT NOT NULL,
    duration_ns INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_selection ON runs(root, extension_key, started_at DESC);
`,
	},
	{
		Version:     2,
		Description: "Add per-file results",
		SQL: `
CREATE TABLE IF NOT EXISTS run_files (
    run_id TEXT NOT NULL,
    path TEXT NOT NULL,
    lines INTEGER NOT NULL,
    characters INTEGER NOT NULL,
    PRIMARY KEY (run_id, path),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`,
	},
}

// MigrationVersion is one applied migration.
type MigrationVersion struct {
	Version   int
	AppliedAt time.Time
}

// ApplyMigrations applies every pending migration inside one transaction.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin exclusive transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := tx.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan applied version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}
		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", migration.Version, migration.Description, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`,
			migration.Version, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("record migration %d: %w", migration.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// GetAppliedVersions returns every applied migration, oldest first.
func (s *Store) GetAppliedVersions() ([]*MigrationVersion, error) {
	rows, err := s.db.Query(`SELECT version, applied_at FROM schema_version ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	var versions []*MigrationVersion
	for rows.Next() {
		var (
			v       MigrationVersion
			applied string
		)
		if err := rows.Scan(&v.Version, &applied); err != nil {
			return nil, fmt.Errorf("scan schema version: %w", err)
		}
		v.AppliedAt, err = time.Parse(time.RFC3339Nano, applied)
		if err != nil {
			return nil, fmt.Errorf("parse applied_at for version %d: %w", v.Version, err)
		}
		versions = append(versions, &v)
	}
	return versions, rows.Err()
}

// GetLatestVersion returns the highest applied migration version, 0 if none.
func (s *Store) GetLatestVersion() (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("get latest version: %w", err)
	}
	return int(version.Int64), nil
}
