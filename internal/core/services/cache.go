package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

const (
	cacheTTL = 15 * time.Minute
	// Users, bikes and batteries change under flows; a read racing a flow's
	// invalidation can re-cache the old state, so keep them short lived.
	flowCacheTTL = 30 * time.Second
)

func userCacheKey(id string) string    { return fmt.Sprintf("user:%s", id) }
func bikeCacheKey(id string) string    { return fmt.Sprintf("bike:%s", id) }
func batteryCacheKey(id string) string { return fmt.Sprintf("battery:%s", id) }
func companyCacheKey(id string) string { return fmt.Sprintf("company:%s", id) }

func cacheGet[T any](ctx context.Context, cache ports.CachePort, logger ports.LoggerPort, key string) (*T, bool) {
	data, err := cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Warn("Cache read failed", map[string]interface{}{
				"error": err.Error(),
				"key":   key,
			})
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func cacheSet(ctx context.Context, cache ports.CachePort, logger ports.LoggerPort, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("Failed to marshal for cache", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
		return
	}
	if err := cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("Failed to write cache", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
	}
}

func cacheInvalidate(ctx context.Context, cache ports.CachePort, logger ports.LoggerPort, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		logger.Warn("Failed to invalidate cache", map[string]interface{}{
			"error": err.Error(),
			"keys":  keys,
		})
	}
}
