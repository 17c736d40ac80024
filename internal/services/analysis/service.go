// Package analysis orchestrates one analysis run: fetch, score, persist and
// fan out to sinks, while tracking the run status reported by the API.
package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/internal/domain/run"
	"wsbsentiment/internal/metrics"
	"wsbsentiment/internal/pipeline"
	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

// Runner is the text-to-signal pipeline
type Runner interface {
	Run(ctx context.Context, posts []post.Post) (*pipeline.Result, error)
}

// Config for the orchestrator
type Config struct {
	RunTimeout time.Duration // 0 disables the deadline
	LockTTL    time.Duration // lifetime of the distributed run lock
}

// Deps are the collaborators of the service. History, Lock, Sinks and
// ErrorTracker are optional.
type Deps struct {
	Source       post.Source
	Pipeline     Runner
	Snapshots    post.SnapshotRepository
	Sinks        []post.Sink
	History      run.Repository
	Lock         run.Lock
	Tracker      *run.Tracker
	ErrorTracker errors.Tracker
	Clock        clockwork.Clock
}

// Service runs the analysis and answers status queries
type Service struct {
	cfg          Config
	source       post.Source
	pipeline     Runner
	snapshots    post.SnapshotRepository
	sinks        []post.Sink
	history      run.Repository
	lock         run.Lock
	tracker      *run.Tracker
	errorTracker errors.Tracker
	clock        clockwork.Clock
	log          *logger.Logger

	background sync.WaitGroup
}

// NewService creates the orchestrator
func NewService(cfg Config, deps Deps, log *logger.Logger) (*Service, error) {
	if deps.Source == nil || deps.Pipeline == nil || deps.Snapshots == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "analysis service needs a source, a pipeline and a snapshot repository")
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Tracker == nil {
		deps.Tracker = run.NewTracker(deps.Clock)
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.RunTimeout + time.Minute
	}

	return &Service{
		cfg:          cfg,
		source:       deps.Source,
		pipeline:     deps.Pipeline,
		snapshots:    deps.Snapshots,
		sinks:        deps.Sinks,
		history:      deps.History,
		lock:         deps.Lock,
		tracker:      deps.Tracker,
		errorTracker: deps.ErrorTracker,
		clock:        deps.Clock,
		log:          log.With("service", "analysis"),
	}, nil
}

// RunOnce executes a run synchronously. It returns ErrRunInProgress if
// another run is active in this process.
func (s *Service) RunOnce(ctx context.Context) (*post.Snapshot, error) {
	runID := uuid.NewString()
	if !s.tracker.Begin(runID) {
		metrics.RecordRunRejected()
		return nil, errors.ErrRunInProgress
	}
	return s.execute(ctx, runID)
}

// Trigger starts a run in the background and returns its id. The state
// transition happens before Trigger returns, so a second call sees the run.
func (s *Service) Trigger(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	if !s.tracker.Begin(runID) {
		metrics.RecordRunRejected()
		return "", errors.ErrRunInProgress
	}

	// The run outlives the request that triggered it
	runCtx := context.WithoutCancel(ctx)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer func() {
			if r := recover(); r != nil {
				err := errors.Newf("analysis run panicked: %v", r)
				s.log.Errorw("Analysis run panicked", "run_id", runID, "panic", r)
				s.tracker.Fail(err)
			}
		}()

		// Errors are already recorded in the tracker and logged
		_, _ = s.execute(runCtx, runID)
	}()

	return runID, nil
}

// Wait blocks until background runs started by Trigger have finished
func (s *Service) Wait() {
	s.background.Wait()
}

// Status returns the current run status
func (s *Service) Status() run.Status {
	return s.tracker.Status()
}

// LatestSentiment returns the last successful snapshot or ErrNoSnapshot
func (s *Service) LatestSentiment(ctx context.Context) (*post.Snapshot, error) {
	return s.snapshots.Latest(ctx)
}

// LatestPosts returns the raw posts of the last run or ErrNoSnapshot
func (s *Service) LatestPosts(ctx context.Context) ([]post.Post, error) {
	return s.snapshots.LatestPosts(ctx)
}

// History lists recent runs, newest first
func (s *Service) History(ctx context.Context, limit int) ([]run.Record, error) {
	if s.history == nil {
		return nil, errors.Wrap(errors.ErrUnavailable, "run history is not configured")
	}
	return s.history.List(ctx, limit)
}

func (s *Service) execute(ctx context.Context, runID string) (*post.Snapshot, error) {
	start := s.clock.Now()
	log := s.log.With("run_id", runID)
	log.Infow("Analysis run started")

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	snap, fetched, err := s.analyze(ctx, runID, log)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrapf(errors.ErrTimeout, "run exceeded %s: %v", s.cfg.RunTimeout, err)
		}
		s.tracker.Fail(err)
		metrics.RecordAnalysisRun(s.clock.Since(start), err)
		s.capture(ctx, runID, err)
		s.recordHistory(runID, start, fetched, 0, err)

		log.Errorw("Analysis run failed", "error", err, "duration", s.clock.Since(start))
		return nil, err
	}

	s.publish(ctx, snap, log)

	s.tracker.Succeed(fetched, len(snap.Posts))
	metrics.RecordAnalysisRun(s.clock.Since(start), nil)
	s.recordHistory(runID, start, fetched, len(snap.Posts), nil)

	log.Infow("Analysis run completed",
		"posts", fetched,
		"analyzed", len(snap.Posts),
		"duration", s.clock.Since(start),
	)
	return snap, nil
}

// analyze performs the steps whose failure fails the run. It returns the
// number of fetched posts even on error.
func (s *Service) analyze(ctx context.Context, runID string, log *logger.Logger) (*post.Snapshot, int, error) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, s.cfg.LockTTL)
		if err != nil {
			return nil, 0, errors.Wrap(err, "acquire run lock")
		}
		if !acquired {
			return nil, 0, errors.Wrap(errors.ErrRunInProgress, "run lock held by another instance")
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.lock.Release(releaseCtx); err != nil {
				log.Warnw("Failed to release run lock", "error", err)
			}
		}()
	}

	fetchStart := s.clock.Now()
	posts, err := s.source.Fetch(ctx)
	metrics.RecordFetch(s.clock.Since(fetchStart), err)
	if err != nil {
		return nil, 0, errors.Wrap(err, "fetch posts")
	}
	s.breadcrumb(ctx, "posts fetched", map[string]interface{}{"count": len(posts)})
	log.Infow("Posts fetched", "count", len(posts))

	result, err := s.pipeline.Run(ctx, posts)
	if err != nil {
		return nil, len(posts), errors.Wrap(err, "run pipeline")
	}

	snap := &post.Snapshot{
		RunID:       runID,
		CompletedAt: s.clock.Now().UTC(),
		Posts:       result.Posts,
	}

	// Persist only after the whole pipeline succeeded
	if err := s.snapshots.Save(ctx, snap, posts); err != nil {
		return nil, len(posts), errors.Wrap(err, "save snapshot")
	}

	labels := make(map[string]int, 3)
	for label, n := range snap.LabelCounts() {
		labels[string(label)] = n
	}
	mentions := 0
	for _, n := range snap.TickerMentions() {
		mentions += n
	}
	metrics.RecordSnapshot(labels, mentions)

	return snap, len(posts), nil
}

// publish fans the snapshot out to every sink. Sink failures are logged,
// tracked and counted but never fail the run.
func (s *Service) publish(ctx context.Context, snap *post.Snapshot, log *logger.Logger) {
	if len(s.sinks) == 0 {
		return
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := &errors.MultiError{}

	for _, sink := range s.sinks {
		wg.Add(1)
		go func(sink post.Sink) {
			defer wg.Done()

			err := sink.Publish(ctx, snap)
			metrics.RecordSinkPublish(sink.Name(), err)
			if err != nil {
				mu.Lock()
				failures.Add(errors.Wrapf(err, "sink %s", sink.Name()))
				mu.Unlock()
				return
			}
			log.Debugw("Snapshot published", "sink", sink.Name())
		}(sink)
	}
	wg.Wait()

	if err := failures.ToError(); err != nil {
		log.Warnw("Some sinks failed", "error", err)
		s.capture(ctx, snap.RunID, err)
	}
}

func (s *Service) recordHistory(runID string, start time.Time, postsCount, sentimentCount int, runErr error) {
	if s.history == nil {
		return
	}

	finished := s.clock.Now()
	rec := &run.Record{
		ID:             runID,
		StartedAt:      start,
		FinishedAt:     &finished,
		Outcome:        run.OutcomeSuccess,
		PostsCount:     postsCount,
		SentimentCount: sentimentCount,
	}
	if runErr != nil {
		rec.Outcome = run.OutcomeFailed
		rec.Error = runErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.Insert(ctx, rec); err != nil {
		s.log.Warnw("Failed to record run history", "run_id", runID, "error", err)
	}
}

func (s *Service) capture(ctx context.Context, runID string, err error) {
	if s.errorTracker == nil {
		return
	}
	_ = s.errorTracker.CaptureError(ctx, err, map[string]string{"run_id": runID})
}

func (s *Service) breadcrumb(ctx context.Context, msg string, data map[string]interface{}) {
	if s.errorTracker == nil {
		return
	}
	s.errorTracker.AddBreadcrumb(ctx, msg, "analysis", errors.LevelInfo, data)
}
