// Package history keeps an append-only ledger of job submissions and
// outcomes backed by SQLite. The ledger is observational: job state is owned
// by the job store, and nothing here is consulted when serving job lookups.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"trackrip/internal/job"
)

// Entry is one ledger row.
type Entry struct {
	ID          int64
	JobID       string
	SourceRef   string
	Format      string
	Status      string
	ErrorDetail string
	SubmittedAt time.Time
	FinishedAt  *time.Time
}

// Stats summarizes ledger contents.
type Stats struct {
	Total     int64
	Completed int64
	Failed    int64
}

// Ledger persists job history rows.
type Ledger struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS job_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL,
    source_ref TEXT NOT NULL,
    format TEXT NOT NULL,
    status TEXT NOT NULL,
    error_detail TEXT,
    submitted_at TEXT NOT NULL,
    finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_job_history_job_id ON job_history(job_id);
`

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Ledger{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RecordSubmission appends a row for a newly accepted job.
func (l *Ledger) RecordSubmission(ctx context.Context, record *job.Record) error {
	if record == nil {
		return nil
	}
	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO job_history (job_id, source_ref, format, status, submitted_at)
         VALUES (?, ?, ?, ?, ?)`,
		record.ID,
		record.SourceRef,
		record.TargetFormat,
		string(record.Status),
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// RecordOutcome updates the row for a job that reached a terminal status.
func (l *Ledger) RecordOutcome(ctx context.Context, record *job.Record) error {
	if record == nil || !record.IsTerminal() {
		return nil
	}
	finished := time.Now().UTC()
	if record.CompletedAt != nil {
		finished = record.CompletedAt.UTC()
	}
	_, err := l.db.ExecContext(
		ctx,
		`UPDATE job_history SET status = ?, error_detail = ?, finished_at = ?
         WHERE job_id = ?`,
		string(record.Status),
		nullableString(record.ErrorDetail),
		finished.Format(time.RFC3339Nano),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("update outcome: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(
		ctx,
		`SELECT id, job_id, source_ref, format, status, error_detail, submitted_at, finished_at
         FROM job_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Stats counts ledger rows by outcome.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := l.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*),
                COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
         FROM job_history`,
		string(job.StatusCompleted),
		string(job.StatusFailed),
	)
	if err := row.Scan(&stats.Total, &stats.Completed, &stats.Failed); err != nil {
		return Stats{}, fmt.Errorf("scan stats: %w", err)
	}
	return stats, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry       Entry
		errorDetail sql.NullString
		submittedAt string
		finishedAt  sql.NullString
	)
	if err := rows.Scan(&entry.ID, &entry.JobID, &entry.SourceRef, &entry.Format,
		&entry.Status, &errorDetail, &submittedAt, &finishedAt); err != nil {
		return Entry{}, fmt.Errorf("scan history row: %w", err)
	}
	entry.ErrorDetail = errorDetail.String
	if ts, err := time.Parse(time.RFC3339Nano, submittedAt); err == nil {
		entry.SubmittedAt = ts
	}
	if finishedAt.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
			entry.FinishedAt = &ts
		}
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
