// Package journal keeps an append-only SQLite audit trail of ticks.
//
// The journal is advisory: the lifecycle store remains the source of truth
// for history and stats. Callers log journal errors and carry on.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mrz1836/cadence/internal/constants"
	"github.com/mrz1836/cadence/internal/domain"
	"github.com/mrz1836/cadence/internal/errors"
	"github.com/mrz1836/cadence/internal/fsutil"
)

const schema = `
CREATE TABLE IF NOT EXISTS ticks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id     TEXT    NOT NULL,
	kind        TEXT    NOT NULL,
	status      TEXT    NOT NULL,
	success     INTEGER NOT NULL,
	started_at  TEXT    NOT NULL,
	finished_at TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL,
	cost_usd    REAL    NOT NULL DEFAULT 0,
	error       TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_ticks_task_id ON ticks(task_id);
`

// Entry is one journal row.
type Entry struct {
	ID         int64                `json:"id" yaml:"id"`
	TaskID     string               `json:"task_id" yaml:"task_id"`
	Kind       constants.TaskKind   `json:"kind" yaml:"kind"`
	Status     constants.TaskStatus `json:"status" yaml:"status"`
	Success    bool                 `json:"success" yaml:"success"`
	StartedAt  time.Time            `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time            `json:"finished_at" yaml:"finished_at"`
	DurationMs int64                `json:"duration_ms" yaml:"duration_ms"`
	CostUSD    float64              `json:"cost_usd" yaml:"cost_usd"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// Journal appends tick results to a SQLite database.
type Journal struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool
	logger zerolog.Logger
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the journal's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(j *Journal) {
		j.logger = logger
	}
}

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string, opts ...Option) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), fsutil.DirPerm); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema in %s: %w", path, err)
	}

	j := &Journal{db: db, path: path, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(j)
	}
	j.logger.Debug().Str("path", path).Msg("journal opened")
	return j, nil
}

// openDB opens a SQLite database with WAL journaling and a 5-second busy
// timeout, and verifies the connection before returning.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// PRAGMAs are per connection; one connection keeps them in force.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}
	return db, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Record appends one tick result.
func (j *Journal) Record(ctx context.Context, r domain.TickResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return errors.ErrJournalClosed
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO ticks (task_id, kind, status, success, started_at, finished_at, duration_ms, cost_usd, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Task.ID,
		string(r.Task.Kind),
		string(r.Status),
		boolToInt(r.Success),
		formatTime(r.StartedAt),
		formatTime(r.FinishedAt),
		r.Duration().Milliseconds(),
		r.CostUSD,
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("record tick %s: %w", r.Task.ID, err)
	}
	return nil
}

// Recent returns the last n rows, oldest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil, errors.ErrJournalClosed
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, task_id, kind, status, success, started_at, finished_at, duration_ms, cost_usd, error
		 FROM (SELECT * FROM ticks ORDER BY id DESC LIMIT ?) ORDER BY id ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent ticks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0, n)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent ticks: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded ticks.
func (j *Journal) Count(ctx context.Context) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return 0, errors.ErrJournalClosed
	}
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ticks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count ticks: %w", err)
	}
	return n, nil
}

// Close closes the database. Safe to call more than once.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                 Entry
		kind, status      string
		success           int
		started, finished string
	)
	if err := rows.Scan(&e.ID, &e.TaskID, &kind, &status, &success, &started, &finished,
		&e.DurationMs, &e.CostUSD, &e.Error); err != nil {
		return Entry{}, fmt.Errorf("scan tick row: %w", err)
	}
	e.Kind = constants.TaskKind(kind)
	e.Status = constants.TaskStatus(status)
	e.Success = success != 0
	e.StartedAt = parseTime(started)
	e.FinishedAt = parseTime(finished)
	return e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime returns the zero time for values it cannot read.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
