package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"broom/internal/config"
)

// Sweep causes.
const (
	CauseBootstrap = "bootstrap"
	CauseDebounce  = "debounce"
	CauseManual    = "manual"
)

// Sweep decisions.
const (
	DecisionSwept   = "swept"
	DecisionSkipped = "skipped"
	DecisionFailed  = "failed"
)

// Sweep is one recorded cleanup pass.
type Sweep struct {
	ID         string
	Cause      string
	Decision   string
	Pattern    string
	ExitCode   int
	Stdout     string
	Stderr     string
	Survivors  []string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store manages sweep persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the history database under the log directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "history.db"))
}

// OpenPath initializes or connects to a history database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordSweep inserts one sweep row. A missing ID or FinishedAt is filled in.
func (s *Store) RecordSweep(ctx context.Context, sweep Sweep) (Sweep, error) {
	ctx = ensureContext(ctx)
	if sweep.ID == "" {
		sweep.ID = uuid.NewString()
	}
	if sweep.StartedAt.IsZero() {
		sweep.StartedAt = time.Now().UTC()
	}
	if sweep.FinishedAt.IsZero() {
		sweep.FinishedAt = time.Now().UTC()
	}

	err := s.execWithRetry(ctx, `
INSERT INTO sweeps (id, cause, decision, pattern, exit_code, stdout, stderr, survivors, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sweep.ID, sweep.Cause, sweep.Decision, sweep.Pattern, sweep.ExitCode,
		sweep.Stdout, sweep.Stderr, joinSurvivors(sweep.Survivors),
		sweep.StartedAt.UTC().Format(time.RFC3339Nano),
		sweep.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Sweep{}, fmt.Errorf("record sweep: %w", err)
	}
	return sweep, nil
}

// RecentSweeps returns up to limit sweeps, newest first.
func (s *Store) RecentSweeps(ctx context.Context, limit int) ([]Sweep, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, cause, decision, pattern, exit_code, stdout, stderr, survivors, started_at, finished_at
FROM sweeps ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sweeps: %w", err)
	}
	defer rows.Close()

	var sweeps []Sweep
	for rows.Next() {
		var (
			sweep               Sweep
			survivors           string
			startedAt, finished string
		)
		if err := rows.Scan(&sweep.ID, &sweep.Cause, &sweep.Decision, &sweep.Pattern,
			&sweep.ExitCode, &sweep.Stdout, &sweep.Stderr, &survivors, &startedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan sweep: %w", err)
		}
		sweep.Survivors = splitSurvivors(survivors)
		if sweep.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if sweep.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		sweeps = append(sweeps, sweep)
	}
	return sweeps, rows.Err()
}

// PurgeOlderThan deletes sweeps that started before the retention cutoff and
// returns the number of rows removed.
func (s *Store) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	ctx = ensureContext(ctx)
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)

	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, "DELETE FROM sweeps WHERE started_at < ?", cutoff)
		if execErr != nil {
			return execErr
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge sweeps: %w", err)
	}
	return removed, nil
}

func joinSurvivors(survivors []string) string {
	return strings.Join(survivors, ",")
}

func splitSurvivors(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
