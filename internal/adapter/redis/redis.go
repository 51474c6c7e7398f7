package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

const leasePrefix = "lease:"

// releaseScript deletes the lease only while it still holds the caller's token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisAdapter is the cache and the lease lock over one redis client.
type RedisAdapter struct {
	client *goredis.Client
}

func NewRedisAdapter(client *goredis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

var (
	_ ports.CachePort = (*RedisAdapter)(nil)
	_ ports.LockPort  = (*RedisAdapter)(nil)
)

func (r *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisAdapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Acquire takes key with SET NX PX and a random token.
func (r *RedisAdapter) Acquire(ctx context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, leasePrefix+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrLeaseHeld
	}
	return &lease{client: r.client, key: key, token: token}, nil
}

type lease struct {
	client *goredis.Client
	key    string
	token  string
}

func (l *lease) Key() string { return l.key }

func (l *lease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{leasePrefix + l.key}, l.token).Err()
}
