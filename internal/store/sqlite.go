// Package store persists baseline snapshots in a local SQLite database.
// Baselines are immutable once saved: the store only ever inserts and
// reads them, never updates.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/ephemeris/internal/schedule"
)

// ErrBaselineExists is returned when saving under an ID that is already
// taken; baselines are never overwritten.
var ErrBaselineExists = errors.New("baseline already exists")

// ErrBaselineNotFound is returned when reading a baseline that was
// never saved.
var ErrBaselineNotFound = errors.New("baseline not found")

// schema contains the DDL executed on first open. Using IF NOT EXISTS
// makes it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS baselines (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    taken_at      TEXT NOT NULL,
    project_start TEXT NOT NULL,
    project_end   TEXT NOT NULL,
    total_cost    REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS baseline_tasks (
    baseline_id    TEXT NOT NULL REFERENCES baselines(id),
    task_id        TEXT NOT NULL,
    start          TEXT NOT NULL,
    finish         TEXT NOT NULL,
    duration_hours REAL NOT NULL,
    cost           REAL NOT NULL,
    progress       REAL NOT NULL,
    PRIMARY KEY (baseline_id, task_id)
);
`

// Store is a SQLite-backed baseline archive in WAL mode.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath, enables WAL mode and
// a busy timeout, and creates the schema if it does not exist.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// One connection: SQLite has a single writer, and a lone pooled
	// connection avoids SQLITE_BUSY between its own statements.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveBaseline inserts a snapshot and all its task rows in one
// transaction. Returns ErrBaselineExists if the ID is already present.
func (s *Store) SaveBaseline(ctx context.Context, b *schedule.Baseline) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM baselines WHERE id = ?", b.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("store: check baseline %q: %w", b.ID, err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrBaselineExists, b.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO baselines (id, name, taken_at, project_start, project_end, total_cost)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, stamp(b.TakenAt), stamp(b.ProjectStart), stamp(b.ProjectEnd), b.TotalCost)
	if err != nil {
		return fmt.Errorf("store: insert baseline %q: %w", b.ID, err)
	}

	for _, t := range b.Tasks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO baseline_tasks (baseline_id, task_id, start, finish, duration_hours, cost, progress)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.ID, t.TaskID, stamp(t.Start), stamp(t.End), t.DurationHours, t.Cost, t.Progress)
		if err != nil {
			return fmt.Errorf("store: insert baseline task %q/%q: %w", b.ID, t.TaskID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit baseline %q: %w", b.ID, err)
	}
	return nil
}

// GetBaseline reads a full snapshot by ID.
func (s *Store) GetBaseline(ctx context.Context, id string) (*schedule.Baseline, error) {
	b := &schedule.Baseline{ID: id, Tasks: make(map[string]schedule.BaselineTask)}

	var takenAt, start, end string
	err := s.db.QueryRowContext(ctx,
		"SELECT name, taken_at, project_start, project_end, total_cost FROM baselines WHERE id = ?", id).
		Scan(&b.Name, &takenAt, &start, &end, &b.TotalCost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBaselineNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read baseline %q: %w", id, err)
	}
	if b.TakenAt, err = unstamp(takenAt); err != nil {
		return nil, err
	}
	if b.ProjectStart, err = unstamp(start); err != nil {
		return nil, err
	}
	if b.ProjectEnd, err = unstamp(end); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT task_id, start, finish, duration_hours, cost, progress FROM baseline_tasks WHERE baseline_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("store: read baseline tasks %q: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t schedule.BaselineTask
		var tStart, tEnd string
		if err := rows.Scan(&t.TaskID, &tStart, &tEnd, &t.DurationHours, &t.Cost, &t.Progress); err != nil {
			return nil, fmt.Errorf("store: scan baseline task: %w", err)
		}
		if t.Start, err = unstamp(tStart); err != nil {
			return nil, err
		}
		if t.End, err = unstamp(tEnd); err != nil {
			return nil, err
		}
		b.Tasks[t.TaskID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate baseline tasks: %w", err)
	}
	return b, nil
}

// Summary is a baseline listing row.
type Summary struct {
	ID        string
	Name      string
	TakenAt   time.Time
	TotalCost float64
	TaskCount int
}

// ListBaselines returns saved baselines, most recent first.
func (s *Store) ListBaselines(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.taken_at, b.total_cost, COUNT(t.task_id)
		FROM baselines b
		LEFT JOIN baseline_tasks t ON t.baseline_id = b.id
		GROUP BY b.id
		ORDER BY b.taken_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list baselines: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var takenAt string
		if err := rows.Scan(&sum.ID, &sum.Name, &takenAt, &sum.TotalCost, &sum.TaskCount); err != nil {
			return nil, fmt.Errorf("store: scan baseline row: %w", err)
		}
		if sum.TakenAt, err = unstamp(takenAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// LatestBaseline returns the most recently taken snapshot, or
// ErrBaselineNotFound when none have been saved.
func (s *Store) LatestBaseline(ctx context.Context) (*schedule.Baseline, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM baselines ORDER BY taken_at DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBaselineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest baseline: %w", err)
	}
	return s.GetBaseline(ctx, id)
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func unstamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: parse timestamp %q: %w", s, err)
	}
	return t, nil
}
