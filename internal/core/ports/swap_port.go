package ports

import (
	"context"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
)

type SwapRecordRepository interface {
	CreateSwapRecord(ctx context.Context, record *domain.SwapRecord) (*domain.SwapRecord, error)
	ListSwapRecords(ctx context.Context, limit, offset int) (*domain.Page[domain.SwapRecord], error)
	ListSwapRecordsByUser(ctx context.Context, userID string, limit, offset int) (*domain.Page[domain.SwapRecord], error)
	CountSwapRecordsByDay(ctx context.Context, day string) (int, error)
}

// DailyCounterRepository keys counters by their todayDate.
type DailyCounterRepository interface {
	GetCounter(ctx context.Context, day string) (*domain.DailyCounter, error)
	CreateCounter(ctx context.Context, day string, count int) (*domain.DailyCounter, error)
	SetCount(ctx context.Context, day string, count int, expectedVersion int64) (*domain.DailyCounter, error)
}

// SwapCounter is the daily swap counter as seen by the flows.
type SwapCounter interface {
	Day(t time.Time) string
	Increment(ctx context.Context, day string) (int, error)
}

type ReconciliationRepository interface {
	CreateReconciliation(ctx context.Context, r *domain.Reconciliation) (*domain.Reconciliation, error)
	ListOpenReconciliations(ctx context.Context) ([]*domain.Reconciliation, error)
	ResolveReconciliation(ctx context.Context, id string, expectedVersion int64) error
}
