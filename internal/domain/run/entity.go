package run

import "time"

// State of the analysis orchestrator
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Outcome of a finished run
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Status is what /api/status reports. Counts and LastRun describe the last
// successful run; Error is the last failure message, cleared when a new run starts.
type Status struct {
	IsRunning      bool       `json:"is_running"`
	State          State      `json:"state"`
	RunID          string     `json:"run_id,omitempty"`
	LastRun        *time.Time `json:"last_run"`
	Error          *string    `json:"error"`
	PostsCount     int        `json:"posts_count"`
	SentimentCount int        `json:"sentiment_count"`
}

// Record is one row of run history
type Record struct {
	ID             string     `db:"id" json:"id"`
	StartedAt      time.Time  `db:"started_at" json:"started_at"`
	FinishedAt     *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	Outcome        Outcome    `db:"outcome" json:"outcome"`
	PostsCount     int        `db:"posts_count" json:"posts_count"`
	SentimentCount int        `db:"sentiment_count" json:"sentiment_count"`
	Error          string     `db:"error" json:"error,omitempty"`
}

// Duration returns how long the run took, zero while unfinished
func (r *Record) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
