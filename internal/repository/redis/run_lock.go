package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	redisadapter "wsbsentiment/internal/adapters/redis"
	"wsbsentiment/internal/domain/run"
	"wsbsentiment/pkg/errors"
)

const lockAnalysis = "wsb:analysis"

var _ run.Lock = (*RunLock)(nil)

// RunLock is a SETNX lock so only one instance runs the pipeline at a time.
// Each RunLock has its own owner token and only releases its own lock.
type RunLock struct {
	client *redisadapter.Client
	key    string
	owner  string
}

// NewRunLock creates a lock handle with a fresh owner token
func NewRunLock(client *redisadapter.Client, prefix string) *RunLock {
	return &RunLock{
		client: client,
		key:    prefix + lockAnalysis,
		owner:  uuid.NewString(),
	}
}

// Acquire returns false if another owner holds the lock
func (l *RunLock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := l.client.AcquireLock(ctx, l.key, l.owner, ttl)
	if err != nil {
		return false, errors.Wrap(err, "acquire analysis lock")
	}
	return ok, nil
}

// Release drops the lock if this handle still owns it
func (l *RunLock) Release(ctx context.Context) error {
	if err := l.client.ReleaseLock(ctx, l.key, l.owner); err != nil {
		return errors.Wrap(err, "release analysis lock")
	}
	return nil
}
