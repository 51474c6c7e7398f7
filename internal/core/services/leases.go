package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

// acquireLeases takes leases in sorted key order so two callers never wait on each other crosswise.
// The returned func releases them in reverse order.
func acquireLeases(ctx context.Context, locks ports.LockPort, logger ports.LoggerPort, ttl time.Duration, keys ...string) (func(), error) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	leases := make([]ports.Lease, 0, len(keys))
	release := func() {
		rctx := context.WithoutCancel(ctx)
		for i := len(leases) - 1; i >= 0; i-- {
			if err := leases[i].Release(rctx); err != nil {
				logger.Warn("Failed to release lease", map[string]interface{}{
					"key":   leases[i].Key(),
					"error": err.Error(),
				})
			}
		}
	}

	for _, key := range keys {
		lease, err := locks.Acquire(ctx, key, ttl)
		if err != nil {
			release()
			if errors.Is(err, domain.ErrLeaseHeld) {
				return nil, &domain.ConflictError{Resource: "lease", ID: key, Reason: "another flow is working on this entity", Err: err}
			}
			return nil, fmt.Errorf("acquire lease %s: %w", key, err)
		}
		leases = append(leases, lease)
	}
	return release, nil
}

func userLeaseKey(id string) string    { return "user:" + id }
func bikeLeaseKey(id string) string    { return "bike:" + id }
func batteryLeaseKey(id string) string { return "battery:" + id }
