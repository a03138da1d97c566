// Package runlog persists one row per scheduled job invocation so operators
// can audit reruns, in particular the at-least-once windows where an
// aggregation retry double-counts already-archived totals.
package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Run struct {
	Job        string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Detail     string
}

type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// NopRecorder is used when no ledger database is configured.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, run Run) error { return nil }

type PostgresRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresRecorder creates the recorder and makes sure the ledger table
// exists.
func NewPostgresRecorder(ctx context.Context, db *pgxpool.Pool) (*PostgresRecorder, error) {
	_, err := db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS job_runs (
		id BIGSERIAL PRIMARY KEY,
		job TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT ''
	)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure job_runs table: %w", err)
	}
	return &PostgresRecorder{db: db}, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, run Run) error {
	query := `
	INSERT INTO job_runs (job, started_at, finished_at, status, detail)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, run.Job, run.StartedAt, run.FinishedAt, run.Status, run.Detail)
	if err != nil {
		return fmt.Errorf("failed to record job run: %w", err)
	}
	return nil
}
