package post

import (
	"context"
)

// Source supplies the ordered posts for one run (Reddit API, JSON file, fixtures)
type Source interface {
	Fetch(ctx context.Context) ([]Post, error)
}

// SnapshotRepository persists the latest successful run.
// Save replaces the analysed snapshot and the raw posts of that run together:
// when Save fails, both still hold the previous run.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *Snapshot, posts []Post) error
	Latest(ctx context.Context) (*Snapshot, error)

	// Raw posts of the latest successful run, as fetched
	LatestPosts(ctx context.Context) ([]Post, error)
}

// Sink receives a snapshot after it has been saved. Sinks are best effort:
// a failing sink never invalidates the run.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snapshot *Snapshot) error
}
