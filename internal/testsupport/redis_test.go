package testsupport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedisClientIsCleanedBetweenTests(t *testing.T) {
	client := NewRedisClient(t, LoadRedisConfigFromEnv(t))
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "integration-key", "value", 0).Err())

	val, err := client.Get(ctx, "integration-key").Result()
	require.NoError(t, err)
	require.Equal(t, "value", val)
}
