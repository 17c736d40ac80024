package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/internal/domain/run"
	"wsbsentiment/internal/pipeline"
	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

type fakeSource struct {
	posts []post.Post
	err   error
	block chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context) ([]post.Post, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.posts, f.err
}

type fakeRunner struct {
	err error
}

func (f *fakeRunner) Run(ctx context.Context, posts []post.Post) (*pipeline.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]post.AnalyzedPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, post.NewAnalyzedPost(p, post.SentimentResult{Label: post.LabelBullish, Pos: 1}, []string{"GME"}))
	}
	return &pipeline.Result{Posts: out, Processed: len(out)}, nil
}

type memorySnapshots struct {
	mu    sync.Mutex
	snap  *post.Snapshot
	posts []post.Post
	err   error
}

func (m *memorySnapshots) Save(ctx context.Context, snap *post.Snapshot, posts []post.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snap = snap
	m.posts = posts
	return nil
}

func (m *memorySnapshots) Latest(ctx context.Context) (*post.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, errors.ErrNoSnapshot
	}
	return m.snap, nil
}

func (m *memorySnapshots) LatestPosts(ctx context.Context) ([]post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.posts == nil {
		return nil, errors.ErrNoSnapshot
	}
	return m.posts, nil
}

// MockHistory is a mock for run.Repository
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Insert(ctx context.Context, rec *run.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockHistory) List(ctx context.Context, limit int) ([]run.Record, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]run.Record), args.Error(1)
}

// MockSink is a mock for post.Sink
type MockSink struct {
	mock.Mock
	name string
}

func (m *MockSink) Name() string { return m.name }

func (m *MockSink) Publish(ctx context.Context, snap *post.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

type fakeLock struct {
	acquired bool
	err      error
	released int
}

func (f *fakeLock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return f.acquired, f.err
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.released++
	return nil
}

func testPosts() []post.Post {
	return []post.Post{
		{ID: "a", Title: "GME", Text: "GME to the moon"},
		{ID: "b", Title: "AMC", Text: "AMC is fine"},
	}
}

func newTestService(t *testing.T, deps Deps) *Service {
	t.Helper()
	if deps.Source == nil {
		deps.Source = &fakeSource{posts: testPosts()}
	}
	if deps.Pipeline == nil {
		deps.Pipeline = &fakeRunner{}
	}
	if deps.Snapshots == nil {
		deps.Snapshots = &memorySnapshots{}
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	}
	svc, err := NewService(Config{RunTimeout: time.Minute}, deps, logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(Config{}, Deps{}, logger.Nop())
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestService_RunOnce_Success(t *testing.T) {
	store := &memorySnapshots{}
	history := new(MockHistory)
	history.On("Insert", mock.Anything, mock.MatchedBy(func(r *run.Record) bool {
		return r.Outcome == run.OutcomeSuccess && r.PostsCount == 2 && r.SentimentCount == 2
	})).Return(nil).Once()

	sink := &MockSink{name: "kafka"}
	sink.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	svc := newTestService(t, Deps{Snapshots: store, History: history, Sinks: []post.Sink{sink}})

	snap, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Posts, 2)
	assert.Equal(t, "a", snap.Posts[0].ID)

	latest, err := svc.LatestSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.RunID, latest.RunID)

	raw, err := svc.LatestPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, raw, 2)

	st := svc.Status()
	assert.False(t, st.IsRunning)
	assert.Equal(t, 2, st.PostsCount)
	assert.Equal(t, 2, st.SentimentCount)
	assert.Nil(t, st.Error)
	require.NotNil(t, st.LastRun)

	history.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestService_RunOnce_PipelineFailureKeepsPreviousSnapshot(t *testing.T) {
	store := &memorySnapshots{}
	runner := &fakeRunner{}
	svc := newTestService(t, Deps{Snapshots: store, Pipeline: runner})

	first, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	runner.err = errors.Wrap(errors.ErrDependencyUnavailable, "lemmatizer")
	_, err = svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDependencyUnavailable))

	latest, err := svc.LatestSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.RunID, latest.RunID)

	st := svc.Status()
	assert.False(t, st.IsRunning)
	require.NotNil(t, st.Error)
	assert.Contains(t, *st.Error, "lemmatizer")
	assert.Equal(t, 2, st.PostsCount)
}

func TestService_RunOnce_StoreFailureKeepsPreviousRun(t *testing.T) {
	store := &memorySnapshots{}
	source := &fakeSource{posts: []post.Post{{ID: "a", Title: "first", Text: "first"}}}
	svc := newTestService(t, Deps{Snapshots: store, Source: source})

	first, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	source.posts = []post.Post{{ID: "b", Title: "second", Text: "second"}, {ID: "c", Title: "third", Text: "third"}}
	store.err = errors.New("disk full")
	_, err = svc.RunOnce(context.Background())
	require.Error(t, err)

	latest, err := svc.LatestSentiment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.RunID, latest.RunID)

	raw, err := svc.LatestPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "a", raw[0].ID)

	require.NotNil(t, svc.Status().Error)
	assert.Contains(t, *svc.Status().Error, "disk full")
}

func TestService_RunOnce_FetchFailureWritesNothing(t *testing.T) {
	store := &memorySnapshots{}
	history := new(MockHistory)
	history.On("Insert", mock.Anything, mock.MatchedBy(func(r *run.Record) bool {
		return r.Outcome == run.OutcomeFailed && r.Error != ""
	})).Return(nil).Once()

	svc := newTestService(t, Deps{
		Snapshots: store,
		History:   history,
		Source:    &fakeSource{err: errors.ErrSourceAuth},
	})

	_, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSourceAuth))

	_, err = svc.LatestPosts(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNoSnapshot))
	history.AssertExpectations(t)
}

func TestService_SinkFailureDoesNotFailRun(t *testing.T) {
	ok := &MockSink{name: "clickhouse"}
	ok.On("Publish", mock.Anything, mock.Anything).Return(nil)
	bad := &MockSink{name: "telegram"}
	bad.On("Publish", mock.Anything, mock.Anything).Return(errors.New("chat not found"))

	svc := newTestService(t, Deps{Sinks: []post.Sink{ok, bad}})

	snap, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap)
	assert.Nil(t, svc.Status().Error)

	ok.AssertExpectations(t)
	bad.AssertExpectations(t)
}

func TestService_Trigger_RejectsConcurrentRun(t *testing.T) {
	source := &fakeSource{posts: testPosts(), block: make(chan struct{})}
	svc := newTestService(t, Deps{Source: source})

	runID, err := svc.Trigger(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	st := svc.Status()
	assert.True(t, st.IsRunning)
	assert.Equal(t, run.StateRunning, st.State)
	assert.Equal(t, runID, st.RunID)

	_, err = svc.Trigger(context.Background())
	assert.True(t, errors.Is(err, errors.ErrRunInProgress))

	_, err = svc.RunOnce(context.Background())
	assert.True(t, errors.Is(err, errors.ErrRunInProgress))

	close(source.block)
	svc.Wait()

	st = svc.Status()
	assert.False(t, st.IsRunning)
	assert.Equal(t, 2, st.PostsCount)
}

func TestService_Trigger_OutlivesRequestContext(t *testing.T) {
	source := &fakeSource{posts: testPosts(), block: make(chan struct{})}
	svc := newTestService(t, Deps{Source: source})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.Trigger(ctx)
	require.NoError(t, err)
	cancel()

	close(source.block)
	svc.Wait()

	assert.Nil(t, svc.Status().Error)
	assert.NotNil(t, svc.Status().LastRun)
}

func TestService_DistributedLock(t *testing.T) {
	lock := &fakeLock{acquired: true}
	svc := newTestService(t, Deps{Lock: lock})

	_, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, lock.released)

	lock.acquired = false
	_, err = svc.RunOnce(context.Background())
	assert.True(t, errors.Is(err, errors.ErrRunInProgress))
	assert.Equal(t, 1, lock.released)
	assert.False(t, svc.Status().IsRunning)
}

func TestService_History(t *testing.T) {
	svc := newTestService(t, Deps{})
	_, err := svc.History(context.Background(), 10)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))

	history := new(MockHistory)
	history.On("List", mock.Anything, 10).Return([]run.Record{{ID: "r1"}}, nil)
	svc = newTestService(t, Deps{History: history})

	records, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "r1", records[0].ID)
}

func TestService_NoSnapshotBeforeFirstRun(t *testing.T) {
	svc := newTestService(t, Deps{})

	_, err := svc.LatestSentiment(context.Background())
	assert.True(t, errors.Is(err, errors.ErrNoSnapshot))
}
