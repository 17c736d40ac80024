package redis

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "wsbsentiment/internal/adapters/redis"
	"wsbsentiment/internal/domain/post"
	"wsbsentiment/internal/testsupport"
	"wsbsentiment/pkg/errors"
)

func newTestClient(t *testing.T) *redisadapter.Client {
	t.Helper()
	cfg := testsupport.LoadRedisConfigFromEnv(t)
	return redisadapter.NewFromRedis(testsupport.NewRedisClient(t, cfg))
}

func TestSnapshotRepository_RoundTrip(t *testing.T) {
	client := newTestClient(t)
	repo := NewSnapshotRepository(client, "test:")
	ctx := context.Background()

	_, err := repo.Latest(ctx)
	assert.True(t, errors.Is(err, errors.ErrNoSnapshot))
	_, err = repo.LatestPosts(ctx)
	assert.True(t, errors.Is(err, errors.ErrNoSnapshot))

	snap := &post.Snapshot{
		RunID:       "run-1",
		CompletedAt: time.Now().UTC().Truncate(time.Second),
		Posts: []post.AnalyzedPost{
			{ID: "a", Label: post.LabelBearish, Compound: -0.4, Neg: 0.3, Neu: 0.7, Tickers: []string{"TSLA"}},
		},
	}
	require.NoError(t, repo.Save(ctx, snap, []post.Post{{ID: "a", Text: "TSLA puts"}}))

	got, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, snap.Posts, got.Posts)

	posts, err := repo.LatestPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "TSLA puts", posts[0].Text)
}

func TestSnapshotRepository_FailedSaveKeepsPreviousRun(t *testing.T) {
	client := newTestClient(t)
	repo := NewSnapshotRepository(client, "test:")
	ctx := context.Background()

	first := &post.Snapshot{RunID: "run-1", Posts: []post.AnalyzedPost{{ID: "a", Label: post.LabelNeutral, Neu: 1, Tickers: []string{}}}}
	require.NoError(t, repo.Save(ctx, first, []post.Post{{ID: "a", Text: "first"}}))

	broken := &post.Snapshot{RunID: "run-2", Posts: []post.AnalyzedPost{{ID: "b", Compound: math.Inf(1)}}}
	require.Error(t, repo.Save(ctx, broken, []post.Post{{ID: "b", Text: "second"}}))

	got, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)

	posts, err := repo.LatestPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "first", posts[0].Text)
}

func TestRunLock_SingleOwner(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	a := NewRunLock(client, "test:")
	b := NewRunLock(client, "test:")

	ok, err := a.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// b cannot release a's lock
	require.NoError(t, b.Release(ctx))
	ok, err = b.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Release(ctx))
	ok, err = b.Acquire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
