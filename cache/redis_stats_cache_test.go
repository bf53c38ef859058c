package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
			Labels:       map[string]string{"test": "pcbank-cache", "cleanup": "auto"},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate redis container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStatsCache_ReadThrough(t *testing.T) {
	t.Parallel()
	client := setupRedis(t)

	loader := &countingLoader{}
	c := newRedisStatsCache(client, "pcbank-test", time.Minute, loader.load)
	ctx := context.Background()

	first, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.PlayerCount)

	second, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.PlayerCount)
	assert.Equal(t, 1, loader.calls)

	ttl, err := client.TTL(ctx, "pcbank-test:stats:public").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Invalidate(ctx))
	third, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), third.PlayerCount)
}
