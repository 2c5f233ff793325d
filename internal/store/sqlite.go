package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a SQLite-backed run history.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the history database.
// WAL plus a busy timeout keeps concurrent habctl invocations from
// tripping over each other's writes.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer avoids SQLITE_BUSY on overlapping runs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		argv TEXT NOT NULL,
		workdir TEXT,
		env TEXT,
		status TEXT NOT NULL,
		exit_code INTEGER DEFAULT 0,
		error TEXT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		duration_ms INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind, started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordStart inserts a run in the running state.
func (s *SQLiteStore) RecordStart(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	argv, err := json.Marshal(run.Argv)
	if err != nil {
		return fmt.Errorf("failed to marshal argv: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (id, kind, argv, workdir, env, status, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, string(argv), run.Workdir, run.Env, string(RunStatusRunning), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// RecordResult finalizes a run with its exit code and status.
func (s *SQLiteStore) RecordResult(id string, status RunStatus, exitCode int, errMsg string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, exit_code = ?, error = ?, completed_at = ?,
		 duration_ms = CAST((julianday(?) - julianday(started_at)) * 86400000 AS INTEGER)
		 WHERE id = ?`,
		string(status), exitCode, errMsg, completedAt, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to record run result: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, kind, argv, workdir, env, status, exit_code, error, started_at, completed_at, duration_ms
		 FROM runs WHERE id = ?`, id,
	)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, err
}

// ListRuns returns runs newest-first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, kind, argv, workdir, env, status, exit_code, error, started_at, completed_at, duration_ms
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var argv string
	var errMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Kind, &argv, &run.Workdir, &run.Env,
		&run.Status, &run.ExitCode, &errMsg, &run.StartedAt, &completedAt, &run.DurationMS)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(argv), &run.Argv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal argv for run %s: %w", run.ID, err)
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
