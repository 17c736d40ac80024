package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbsentiment/internal/domain/run"
	"wsbsentiment/internal/testsupport"
)

func TestRunRepository_InsertAndList(t *testing.T) {
	cfg := testsupport.LoadPostgresConfigFromEnv(t)
	helper := testsupport.NewPostgresTestHelper(t, cfg)
	ctx := context.Background()

	repo := NewRunRepository(helper.Tx())
	require.NoError(t, repo.EnsureSchema(ctx))

	base := time.Now().UTC().Truncate(time.Millisecond)
	older := &run.Record{ID: uuid.NewString(), StartedAt: base.Add(-time.Hour), Outcome: run.OutcomeFailed, Error: "timeout"}
	finished := base.Add(2 * time.Second)
	newer := &run.Record{
		ID:             uuid.NewString(),
		StartedAt:      base,
		FinishedAt:     &finished,
		Outcome:        run.OutcomeSuccess,
		PostsCount:     50,
		SentimentCount: 50,
	}

	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, newer))

	records, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, run.OutcomeSuccess, records[0].Outcome)
	assert.Equal(t, 50, records[0].PostsCount)
	require.NotNil(t, records[0].FinishedAt)
	assert.Equal(t, 2*time.Second, records[0].Duration())

	assert.Equal(t, older.ID, records[1].ID)
	assert.Equal(t, "timeout", records[1].Error)
	assert.Nil(t, records[1].FinishedAt)

	// Upsert on the same id
	older.Outcome = run.OutcomeSuccess
	older.Error = ""
	require.NoError(t, repo.Insert(ctx, older))
	records, err = repo.List(ctx, 10)
	require.NoError(t, err)
	for _, r := range records {
		if r.ID == older.ID {
			assert.Equal(t, run.OutcomeSuccess, r.Outcome)
		}
	}
}
