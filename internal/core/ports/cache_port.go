package ports

import (
	"context"
	"time"
)

// CachePort returns domain.ErrCacheMiss for absent keys.
type CachePort interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
