// Package history records completed counting runs in a SQLite database so
// later runs over the same selection can be compared against them.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/tally/internal/filelock"
	"github.com/harrison/tally/internal/models"
)

// ErrRunNotFound is returned by Get when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed-width so started_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// canonicalRoot makes root absolute so "." and its absolute form are one root.
func canonicalRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Clean(root)
	}
	return abs
}

// Run is a recorded run. Files is only filled by Get.
type Run struct {
	models.Summary
	Files []models.FileResult `json:"files,omitempty" yaml:"files,omitempty"`
}

// Store manages the SQLite run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens the database at dbPath, creating parent directories and
// applying migrations. Initialisation of a file database is serialised
// across processes with a lock file next to it.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == ":memory:" {
		return openAndInitStore(ctx, dbPath)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	var store *Store
	err := filelock.WithLock(ctx, dbPath+".lock", func() error {
		var err error
		store, err = openAndInitStore(ctx, dbPath)
		return err
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openAndInitStore(ctx context.Context, dbPath string) (*Store, error) {
	// Connection parameters apply to every pooled connection, unlike a PRAGMA.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection to :memory: would be a separate database.
		db.SetMaxOpenConns(1)
	}

	// busy_timeout first so the remaining pragmas wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a completed run and its per-file results in one transaction.
// The root is stored in absolute form.
func (s *Store) Record(ctx context.Context, summary models.Summary, files []models.FileResult) error {
	if summary.RunID == "" {
		return fmt.Errorf("record run: empty run ID")
	}
	exts, err := json.Marshal(summary.Extensions)
	if err != nil {
		return fmt.Errorf("marshal extensions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, root, extensions, extension_key, lines, characters, files_counted, files_skipped,
		 walk_errors, workers, queue_capacity, queue_order, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, canonicalRoot(summary.Root), string(exts), models.ExtensionKey(summary.Extensions),
		summary.Totals.Lines, summary.Totals.Characters, summary.FilesCounted, summary.FilesSkipped,
		summary.WalkErrors, summary.Workers, summary.QueueCapacity, summary.QueueOrder,
		summary.StartedAt.UTC().Format(timeLayout), int64(summary.Duration))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(files) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_files (run_id, path, lines, characters) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare file insert: %w", err)
		}
		defer stmt.Close()
		for _, f := range files {
			if _, err := stmt.ExecContext(ctx, summary.RunID, f.Path, f.Counts.Lines, f.Counts.Characters); err != nil {
				return fmt.Errorf("insert file %s: %w", f.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `id, root, extensions, lines, characters, files_counted, files_skipped,
	walk_errors, workers, queue_capacity, queue_order, started_at, duration_ns`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (models.Summary, error) {
	var (
		s        models.Summary
		exts     string
		started  string
		duration int64
	)
	err := row.Scan(&s.RunID, &s.Root, &exts, &s.Totals.Lines, &s.Totals.Characters,
		&s.FilesCounted, &s.FilesSkipped, &s.WalkErrors, &s.Workers, &s.QueueCapacity,
		&s.QueueOrder, &started, &duration)
	if err != nil {
		return models.Summary{}, err
	}
	if err := json.Unmarshal([]byte(exts), &s.Extensions); err != nil {
		return models.Summary{}, fmt.Errorf("unmarshal extensions of run %s: %w", s.RunID, err)
	}
	if s.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return models.Summary{}, fmt.Errorf("parse started_at of run %s: %w", s.RunID, err)
	}
	s.Duration = time.Duration(duration)
	return s, nil
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]models.Summary, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns one run with its per-file results sorted by path.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, lines, characters FROM run_files WHERE run_id = ? ORDER BY path`, id)
	if err != nil {
		return nil, fmt.Errorf("query files of run %s: %w", id, err)
	}
	defer rows.Close()

	run := &Run{Summary: summary}
	for rows.Next() {
		var f models.FileResult
		if err := rows.Scan(&f.Path, &f.Counts.Lines, &f.Counts.Characters); err != nil {
			return nil, fmt.Errorf("scan file of run %s: %w", id, err)
		}
		run.Files = append(run.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files of run %s: %w", id, err)
	}
	return run, nil
}

// Previous returns the latest run over the same root and extension selection
// other than excludeID, or nil when there is none. Roots are compared as
// absolute, cleaned paths.
func (s *Store) Previous(ctx context.Context, root string, extensions []string, excludeID string) (*models.Summary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs
		WHERE root = ? AND extension_key = ? AND id != ?
		ORDER BY started_at DESC LIMIT 1`,
		canonicalRoot(root), models.ExtensionKey(extensions), excludeID)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find previous run: %w", err)
	}
	return &summary, nil
}

// Delete removes a run and its files.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_files WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("delete files of run %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}
