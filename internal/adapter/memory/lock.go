package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

// Locker is a process-local LockPort.
type Locker struct {
	mu     sync.Mutex
	leases map[string]leaseEntry
	now    func() time.Time
}

type leaseEntry struct {
	token   string
	expires time.Time
}

func NewLocker() *Locker {
	return &Locker{
		leases: make(map[string]leaseEntry),
		now:    time.Now,
	}
}

var _ ports.LockPort = (*Locker)(nil)

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.leases[key]; ok && now.Before(entry.expires) {
		return nil, domain.ErrLeaseHeld
	}
	token := uuid.NewString()
	l.leases[key] = leaseEntry{token: token, expires: now.Add(ttl)}
	return &lease{locker: l, key: key, token: token}, nil
}

type lease struct {
	locker *Locker
	key    string
	token  string
}

func (l *lease) Key() string { return l.key }

// Release drops the lease if it still belongs to this holder.
func (l *lease) Release(_ context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()

	if entry, ok := l.locker.leases[l.key]; ok && entry.token == l.token {
		delete(l.locker.leases, l.key)
	}
	return nil
}
