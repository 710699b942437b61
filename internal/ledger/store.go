package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d; remove %s to reset history",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// RecordRun inserts a run and its batches in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, batches []BatchRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, directory, worker, batch_count, num_images, partition, waited,
            started_at, finished_at, error
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Directory,
		run.Worker,
		run.BatchCount,
		run.NumImages,
		run.Partition,
		boolToInt(run.Waited),
		run.StartedAt.UTC().Format(timestampLayout),
		nullableTime(run.FinishedAt),
		nullableString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO batches (
            run_id, idx, start_index, end_index, temp_dir, pid, status, exit_code, error
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range batches {
		if _, err := stmt.ExecContext(ctx,
			run.ID,
			b.Index,
			b.Start,
			b.End,
			nullableString(b.TempDir),
			nullableInt(b.PID),
			string(b.Status),
			nullableIntPtr(b.ExitCode),
			nullableString(b.Error),
		); err != nil {
			return fmt.Errorf("insert batch %d: %w", b.Index, err)
		}
	}

	return tx.Commit()
}

// UpdateExit records the exit status of one batch after a wait.
func (s *Store) UpdateExit(ctx context.Context, runID string, index, exitCode int, status Status, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE batches SET exit_code = ?, status = ?, error = ? WHERE run_id = ? AND idx = ?`,
		exitCode, string(status), nullableString(message), runID, index,
	)
	if err != nil {
		return fmt.Errorf("update batch exit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update batch exit: run %s batch %d not found", runID, index)
	}
	return nil
}

// FinishRun stamps the completion time and overall error of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, error = ? WHERE id = ?`,
		finishedAt.UTC().Format(timestampLayout), nullableString(message), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns a run and its batches, or nil when no run has that ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, []BatchRecord, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, idx, start_index, end_index, temp_dir, pid, status, exit_code, error
         FROM batches WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []BatchRecord
	for rows.Next() {
		var (
			b        BatchRecord
			tempDir  sql.NullString
			pid      sql.NullInt64
			status   string
			exitCode sql.NullInt64
			message  sql.NullString
		)
		if err := rows.Scan(&b.RunID, &b.Index, &b.Start, &b.End, &tempDir, &pid, &status, &exitCode, &message); err != nil {
			return nil, nil, fmt.Errorf("scan batch: %w", err)
		}
		b.TempDir = tempDir.String
		b.PID = int(pid.Int64)
		b.Status = Status(status)
		if exitCode.Valid {
			code := int(exitCode.Int64)
			b.ExitCode = &code
		}
		b.Error = message.String
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return run, batches, nil
}
