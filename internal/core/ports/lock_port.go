package ports

import (
	"context"
	"time"
)

type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

// LockPort hands out exclusive, expiring leases. Acquire returns domain.ErrLeaseHeld
// when another holder has the key.
type LockPort interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}
