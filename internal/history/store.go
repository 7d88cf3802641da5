// # internal/history/store.go
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"depmap/internal/depmaperr"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Run is one recorded analysis pass.
type Run struct {
	RunID       string
	Timestamp   time.Time
	Root        string
	Files       int
	Edges       int
	Cycles      int
	SourceNodes int
	ParseErrors int
	Duration    time.Duration
}

// Store persists one row per run in a local sqlite database.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, depmaperr.New(depmaperr.CodeStore, "history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, depmaperr.Newf(depmaperr.CodeStore, "history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, depmaperr.Wrap(err, depmaperr.CodeStore, "create history directory")
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeStore, "open sqlite history")
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, depmaperr.Wrap(err, depmaperr.CodeStore, "ping sqlite history")
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, depmaperr.Wrap(err, depmaperr.CodeStore, "initialize sqlite schema")
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) SaveRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.RunID) == "" {
		return depmaperr.New(depmaperr.CodeStore, "run id must not be empty")
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	return s.withRetry("save run", func() error {
		_, err := s.db.Exec(`
INSERT INTO runs (run_id, ts_utc, root, files, edges, cycles, source_nodes, parse_errors, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.Root,
			run.Files,
			run.Edges,
			run.Cycles,
			run.SourceNodes,
			run.ParseErrors,
			run.Duration.Milliseconds(),
		)
		return err
	})
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT run_id, ts_utc, root, files, edges, cycles, source_nodes, parse_errors, duration_ms
FROM runs
ORDER BY ts_utc DESC, run_id DESC
LIMIT ?`, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var (
			run        Run
			tsRaw      string
			durationMS int64
		)
		if err := rows.Scan(
			&run.RunID,
			&tsRaw,
			&run.Root,
			&run.Files,
			&run.Edges,
			&run.Cycles,
			&run.SourceNodes,
			&run.ParseErrors,
			&durationMS,
		); err != nil {
			return nil, depmaperr.Wrap(err, depmaperr.CodeStore, "scan run row")
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, depmaperr.Wrap(err, depmaperr.CodeStore, "parse run timestamp")
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, depmaperr.Wrap(err, depmaperr.CodeStore, "iterate run rows")
	}

	return runs, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return depmaperr.Wrap(lastErr, depmaperr.CodeStore, op)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
