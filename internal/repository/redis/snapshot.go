package redis

import (
	"context"

	redisadapter "wsbsentiment/internal/adapters/redis"
	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

const (
	keySnapshot = "wsb:snapshot:sentiment"
	keyPosts    = "wsb:snapshot:posts"
)

var _ post.SnapshotRepository = (*SnapshotRepository)(nil)

// SnapshotRepository keeps the latest snapshot and its raw posts under one
// key each.
type SnapshotRepository struct {
	client *redisadapter.Client
	prefix string
}

// NewSnapshotRepository creates the repository. prefix namespaces the keys
// when several deployments share one database.
func NewSnapshotRepository(client *redisadapter.Client, prefix string) *SnapshotRepository {
	return &SnapshotRepository{client: client, prefix: prefix}
}

// Save replaces the snapshot and the raw posts in one MULTI/EXEC, so both
// keys always belong to the same run
func (r *SnapshotRepository) Save(ctx context.Context, snap *post.Snapshot, posts []post.Post) error {
	if posts == nil {
		posts = []post.Post{}
	}

	err := r.client.SetJSON(ctx, map[string]interface{}{
		r.prefix + keySnapshot: snap,
		r.prefix + keyPosts:    posts,
	}, 0)
	if err != nil {
		return errors.Wrapf(err, "failed to save snapshot to redis: run_id=%s", snap.RunID)
	}
	return nil
}

// Latest returns the stored snapshot or ErrNoSnapshot
func (r *SnapshotRepository) Latest(ctx context.Context) (*post.Snapshot, error) {
	var snap post.Snapshot
	if err := r.client.GetJSON(ctx, r.prefix+keySnapshot, &snap); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ErrNoSnapshot
		}
		return nil, errors.Wrap(err, "failed to get snapshot from redis")
	}
	return &snap, nil
}

// LatestPosts returns the stored raw posts or ErrNoSnapshot
func (r *SnapshotRepository) LatestPosts(ctx context.Context) ([]post.Post, error) {
	var posts []post.Post
	if err := r.client.GetJSON(ctx, r.prefix+keyPosts, &posts); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ErrNoSnapshot
		}
		return nil, errors.Wrap(err, "failed to get posts from redis")
	}
	return posts, nil
}
