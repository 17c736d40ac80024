package run

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Tracker is the idle -> running -> idle state machine behind /api/status.
// Begin is a compare-and-swap, so exactly one caller wins a concurrent trigger.
type Tracker struct {
	running atomic.Bool
	clock   clockwork.Clock

	mu             sync.RWMutex
	runID          string
	lastRun        *time.Time
	lastErr        *string
	postsCount     int
	sentimentCount int
}

// NewTracker creates an idle tracker
func NewTracker(clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{clock: clock}
}

// Begin moves idle -> running. It returns false if a run is already active.
func (t *Tracker) Begin(runID string) bool {
	if !t.running.CompareAndSwap(false, true) {
		return false
	}

	t.mu.Lock()
	t.runID = runID
	t.lastErr = nil
	t.mu.Unlock()

	return true
}

// Succeed records a completed run and returns to idle
func (t *Tracker) Succeed(postsCount, sentimentCount int) time.Time {
	now := t.clock.Now()

	t.mu.Lock()
	t.lastRun = &now
	t.lastErr = nil
	t.postsCount = postsCount
	t.sentimentCount = sentimentCount
	t.mu.Unlock()

	t.running.Store(false)
	return now
}

// Fail records the error of a run and returns to idle. Counts and LastRun of
// the previous successful run stay as they were.
func (t *Tracker) Fail(err error) {
	msg := err.Error()

	t.mu.Lock()
	t.lastErr = &msg
	t.mu.Unlock()

	t.running.Store(false)
}

// Running reports whether a run is active
func (t *Tracker) Running() bool {
	return t.running.Load()
}

// Status returns a copy of the current status
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	running := t.running.Load()
	state := StateIdle
	if running {
		state = StateRunning
	}

	return Status{
		IsRunning:      running,
		State:          state,
		RunID:          t.runID,
		LastRun:        t.lastRun,
		Error:          t.lastErr,
		PostsCount:     t.postsCount,
		SentimentCount: t.sentimentCount,
	}
}
