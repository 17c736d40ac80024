package run

import (
	"context"
	"time"
)

// Repository stores run history (PostgreSQL)
type Repository interface {
	Insert(ctx context.Context, record *Record) error
	List(ctx context.Context, limit int) ([]Record, error)
}

// Lock guards against concurrent runs across service instances (Redis)
type Lock interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}
