// Package history records a best-effort ledger of partforge invocations to
// a local SQLite database, so repeated runs against the same tree can be
// compared after the fact. A ledger write failure never fails the run.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed run, ready to be inserted.
type Record struct {
	StartedAt   time.Time
	Mode        string // "fixed" or "variable"
	Selector    string // human-readable primary selector: "n=N" (fixed) or "f=F,s=S" (variable)
	InputPath   string
	TotalFiles  int64
	TotalSize   int64
	NumParts    int
	Duration    time.Duration
	Live        bool
	Failed      bool
	FailMessage string
}

// Ledger wraps a single-file SQLite database holding the run_history table.
type Ledger struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS run_history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at   TEXT NOT NULL,
	mode         TEXT NOT NULL,
	selector     TEXT NOT NULL,
	input_path   TEXT NOT NULL,
	total_files  INTEGER NOT NULL,
	total_size   INTEGER NOT NULL,
	num_parts    INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL,
	live         INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	fail_message TEXT NOT NULL
);`

// Open opens (creating if necessary) the ledger database at path, along
// with its parent directory. path == "" disables the ledger; Open returns a
// nil *Ledger in that case, and every method on a nil *Ledger is a no-op.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite does its own locking; avoid concurrent writers

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate %q: %w", path, err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database. A nil receiver is a no-op.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// Insert writes one record. A nil receiver is a no-op that returns nil, so
// callers don't need to branch on whether the ledger is enabled.
func (l *Ledger) Insert(r Record) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(
		`INSERT INTO run_history
			(started_at, mode, selector, input_path, total_files, total_size, num_parts, duration_ms, live, failed, fail_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.Mode,
		r.Selector,
		r.InputPath,
		r.TotalFiles,
		r.TotalSize,
		r.NumParts,
		r.Duration.Milliseconds(),
		boolInt(r.Live),
		boolInt(r.Failed),
		r.FailMessage,
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns the n most recent records, newest first. n <= 0 means no
// limit.
func (l *Ledger) Recent(n int) ([]Record, error) {
	if l == nil {
		return nil, nil
	}

	q := `SELECT started_at, mode, selector, input_path, total_files, total_size,
	             num_parts, duration_ms, live, failed, fail_message
	      FROM run_history ORDER BY id DESC`
	args := []any{}
	if n > 0 {
		q += " LIMIT ?"
		args = append(args, n)
	}

	rows, err := l.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r          Record
			started    string
			durationMs int64
			live, fail int
		)
		if err := rows.Scan(&started, &r.Mode, &r.Selector, &r.InputPath, &r.TotalFiles,
			&r.TotalSize, &r.NumParts, &durationMs, &live, &fail, &r.FailMessage); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Live = live != 0
		r.Failed = fail != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// DefaultPath returns the default ledger location, ~/.partforge/history.db,
// or "" if the home directory cannot be determined (ledger disabled rather
// than failing the run).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".partforge", "history.db")
}
