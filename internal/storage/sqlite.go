package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazz-dev/sitewatch/internal/outcome"
)

const schema = `
CREATE TABLE IF NOT EXISTS polls (
    id          TEXT    PRIMARY KEY,
    url         TEXT    NOT NULL,
    outcome     TEXT    NOT NULL CHECK(outcome IN ('positive', 'negative', 'failed')),
    status_code INTEGER NOT NULL DEFAULT 0,
    error       TEXT    NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL,
    polled_at   TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_polls_polled_at ON polls(polled_at DESC);
CREATE INDEX IF NOT EXISTS idx_polls_outcome ON polls(outcome);
`

// timeLayout has a fixed-width fraction so polled_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Poll is a stored poll result.
type Poll struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Outcome    string    `json:"outcome"`
	StatusCode int       `json:"status_code"`
	Error      string    `json:"error"`
	DurationMs int64     `json:"duration_ms"`
	PolledAt   time.Time `json:"polled_at"`
}

// DB wraps a SQLite database.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %q: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// InsertPoll persists a poll result.
func (d *DB) InsertPoll(ctx context.Context, r outcome.Result) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO polls (id, url, outcome, status_code, error, duration_ms, polled_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(),
		r.URL,
		string(r.Outcome),
		r.StatusCode,
		r.Error,
		r.Duration.Milliseconds(),
		r.PolledAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting poll %s: %w", r.ID, err)
	}
	return nil
}

// LatestPoll returns the most recent poll, or nil if none.
func (d *DB) LatestPoll(ctx context.Context) (*Poll, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, url, outcome, status_code, error, duration_ms, polled_at FROM polls ORDER BY polled_at DESC LIMIT 1`,
	)
	p, err := scanPoll(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest poll: %w", err)
	}
	return p, nil
}

// History returns paginated polls, newest first, plus the total count.
func (d *DB) History(ctx context.Context, limit, offset int) ([]Poll, int, error) {
	var total int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM polls`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting polls: %w", err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, url, outcome, status_code, error, duration_ms, polled_at FROM polls ORDER BY polled_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("querying poll history: %w", err)
	}
	defer rows.Close()

	polls, err := scanPolls(rows)
	if err != nil {
		return nil, 0, err
	}
	return polls, total, nil
}

// Counts returns how many polls ended in each outcome.
func (d *DB) Counts(ctx context.Context) (map[outcome.Outcome]int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM polls GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("counting outcomes: %w", err)
	}
	defer rows.Close()

	counts := map[outcome.Outcome]int{
		outcome.Positive: 0,
		outcome.Negative: 0,
		outcome.Failed:   0,
	}
	for rows.Next() {
		var o string
		var n int
		if err := rows.Scan(&o, &n); err != nil {
			return nil, fmt.Errorf("scanning outcome count: %w", err)
		}
		counts[outcome.Outcome(o)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcome counts: %w", err)
	}
	return counts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPoll(row scanner) (*Poll, error) {
	var p Poll
	var polledAt string
	err := row.Scan(&p.ID, &p.URL, &p.Outcome, &p.StatusCode, &p.Error, &p.DurationMs, &polledAt)
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, polledAt)
	if err != nil {
		// Fallback to RFC3339 without sub-second precision.
		t, err = time.Parse(time.RFC3339, polledAt)
		if err != nil {
			return nil, fmt.Errorf("parsing polled_at %q: %w", polledAt, err)
		}
	}
	p.PolledAt = t
	return &p, nil
}

func scanPolls(rows *sql.Rows) ([]Poll, error) {
	var polls []Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning poll row: %w", err)
		}
		polls = append(polls, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating poll rows: %w", err)
	}
	return polls, nil
}
