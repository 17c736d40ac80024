package postgres

import (
	"context"

	"wsbsentiment/internal/domain/run"
	"wsbsentiment/pkg/errors"
)

const defaultHistoryLimit = 20

var _ run.Repository = (*RunRepository)(nil)

// RunRepository implements run.Repository
type RunRepository struct {
	db DBTX
}

// NewRunRepository creates a new run history repository
func NewRunRepository(db DBTX) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates analysis_runs if missing
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id              TEXT PRIMARY KEY,
			started_at      TIMESTAMPTZ NOT NULL,
			finished_at     TIMESTAMPTZ,
			outcome         TEXT NOT NULL,
			posts_count     INTEGER NOT NULL DEFAULT 0,
			sentiment_count INTEGER NOT NULL DEFAULT 0,
			error           TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS analysis_runs_started_at_idx ON analysis_runs (started_at DESC);`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, "create analysis_runs")
	}
	return nil
}

// Insert stores a finished run. Re-inserting the same id updates it.
func (r *RunRepository) Insert(ctx context.Context, rec *run.Record) error {
	query := `
		INSERT INTO analysis_runs (
			id, started_at, finished_at, outcome, posts_count, sentiment_count, error
		) VALUES (
			:id, :started_at, :finished_at, :outcome, :posts_count, :sentiment_count, :error
		)
		ON CONFLICT (id) DO UPDATE SET
			finished_at     = EXCLUDED.finished_at,
			outcome         = EXCLUDED.outcome,
			posts_count     = EXCLUDED.posts_count,
			sentiment_count = EXCLUDED.sentiment_count,
			error           = EXCLUDED.error`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return errors.Wrapf(err, "insert analysis run %s", rec.ID)
	}
	return nil
}

// List returns the most recent runs first
func (r *RunRepository) List(ctx context.Context, limit int) ([]run.Record, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, started_at, finished_at, outcome, posts_count, sentiment_count, error
		FROM analysis_runs
		ORDER BY started_at DESC
		LIMIT $1`

	records := make([]run.Record, 0, limit)
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, errors.Wrap(err, "list analysis runs")
	}
	return records, nil
}
