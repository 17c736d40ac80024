package analysis

import (
	"context"
	"time"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/internal/workers"
	"wsbsentiment/pkg/errors"
)

// Runner starts one analysis run
type Runner interface {
	RunOnce(ctx context.Context) (*post.Snapshot, error)
}

// Worker re-runs the analysis on a fixed interval. A run already in
// progress (API trigger or another instance) is not an error.
type Worker struct {
	*workers.BaseWorker
	runner Runner
}

// NewWorker creates the auto-run worker. interval <= 0 disables it.
func NewWorker(runner Runner, interval time.Duration) *Worker {
	return &Worker{
		BaseWorker: workers.NewBaseWorker("analysis_auto_run", interval, interval > 0),
		runner:     runner,
	}
}

// Run executes one scheduled analysis
func (w *Worker) Run(ctx context.Context) error {
	snap, err := w.runner.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrRunInProgress) {
			w.Log().Infow("Skipping scheduled analysis, a run is already in progress")
			return nil
		}
		return errors.Wrap(err, "scheduled analysis")
	}

	w.Log().Infow("Scheduled analysis completed", "run_id", snap.RunID, "posts", len(snap.Posts))
	return nil
}
