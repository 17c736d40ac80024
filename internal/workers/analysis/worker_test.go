package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
)

type fakeRunner struct {
	err   error
	calls int
}

func (f *fakeRunner) RunOnce(ctx context.Context) (*post.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &post.Snapshot{RunID: "r"}, nil
}

func TestWorker_Run(t *testing.T) {
	runner := &fakeRunner{}
	w := NewWorker(runner, time.Minute)

	assert.True(t, w.Enabled())
	assert.Equal(t, "analysis_auto_run", w.Name())
	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, 1, runner.calls)
}

func TestWorker_IgnoresRunInProgress(t *testing.T) {
	w := NewWorker(&fakeRunner{err: errors.ErrRunInProgress}, time.Minute)
	assert.NoError(t, w.Run(context.Background()))
}

func TestWorker_PropagatesFailures(t *testing.T) {
	w := NewWorker(&fakeRunner{err: errors.ErrSourceAuth}, time.Minute)

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSourceAuth))
}

func TestWorker_DisabledWithoutInterval(t *testing.T) {
	assert.False(t, NewWorker(&fakeRunner{}, 0).Enabled())
}
