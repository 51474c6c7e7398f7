//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	goredis "github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) *RedisAdapter {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := goredis.ParseURL(uri)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return NewRedisAdapter(client)
}

func TestRedisAdapter_Cache(t *testing.T) {
	ctx := context.Background()
	r := setupRedis(t)

	_, err := r.Get(ctx, "user:1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, r.Set(ctx, "user:1", []byte(`{"id":"1"}`), time.Minute))
	got, err := r.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(got))

	require.NoError(t, r.Delete(ctx, "user:1", "user:2"))
	_, err = r.Get(ctx, "user:1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisAdapter_Lease(t *testing.T) {
	ctx := context.Background()
	r := setupRedis(t)

	first, err := r.Acquire(ctx, "bike:1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "bike:1", first.Key())

	_, err = r.Acquire(ctx, "bike:1", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLeaseHeld)

	require.NoError(t, first.Release(ctx))
	second, err := r.Acquire(ctx, "bike:1", time.Minute)
	require.NoError(t, err)

	// a stale holder must not drop someone else's lease
	require.NoError(t, first.Release(ctx))
	_, err = r.Acquire(ctx, "bike:1", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLeaseHeld)
	require.NoError(t, second.Release(ctx))
}

func TestRedisAdapter_LeaseExpires(t *testing.T) {
	ctx := context.Background()
	r := setupRedis(t)

	_, err := r.Acquire(ctx, "user:9", 100*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		l, err := r.Acquire(ctx, "user:9", time.Minute)
		if err != nil {
			return false
		}
		return l.Release(ctx) == nil
	}, 3*time.Second, 50*time.Millisecond)
}
