//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	rediscache "github.com/storefront/credential-service/internal/infrastructure/db/redis"
)

func TestRoleCache(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := rediscache.Connect(ctx, rediscache.Config{Addr: endpoint})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cache := rediscache.NewRoleCache(client, time.Minute)

	_, ok, err := cache.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "acc-1", "admin"))
	role, ok, err := cache.Get(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "admin", role)

	ttl, err := client.TTL(ctx, "role:acc-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	short := rediscache.NewRoleCache(client, time.Second)
	require.NoError(t, short.Set(ctx, "acc-2", "user"))
	require.Eventually(t, func() bool {
		_, ok, err := short.Get(ctx, "acc-2")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond, "cached role should expire with its TTL")

	require.NoError(t, rediscache.NewPinger(client).Ping(ctx))
}
