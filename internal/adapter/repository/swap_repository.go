package repository

import (
	"context"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

type SwapRecordRepository struct {
	store ports.DocumentStore
}

func NewSwapRecordRepository(store ports.DocumentStore) *SwapRecordRepository {
	return &SwapRecordRepository{store: store}
}

var _ ports.SwapRecordRepository = (*SwapRecordRepository)(nil)

func (r *SwapRecordRepository) CreateSwapRecord(ctx context.Context, record *domain.SwapRecord) (*domain.SwapRecord, error) {
	return createOne(ctx, r.store, ports.CollectionSwapRecords, record.ID, record, nil)
}

func (r *SwapRecordRepository) ListSwapRecords(ctx context.Context, limit, offset int) (*domain.Page[domain.SwapRecord], error) {
	return listPage[domain.SwapRecord](ctx, r.store, ports.CollectionSwapRecords, ports.Query{Limit: limit, Offset: offset})
}

func (r *SwapRecordRepository) ListSwapRecordsByUser(ctx context.Context, userID string, limit, offset int) (*domain.Page[domain.SwapRecord], error) {
	return listPage[domain.SwapRecord](ctx, r.store, ports.CollectionSwapRecords, ports.Query{
		Filters: []ports.Filter{ports.Equal("userId", userID)},
		Limit:   limit,
		Offset:  offset,
	})
}

func (r *SwapRecordRepository) CountSwapRecordsByDay(ctx context.Context, day string) (int, error) {
	return count(ctx, r.store, ports.CollectionSwapRecords, ports.Equal("swapDay", day))
}

// DailyCounterRepository stores one document per day, keyed by the day itself.
type DailyCounterRepository struct {
	store ports.DocumentStore
}

func NewDailyCounterRepository(store ports.DocumentStore) *DailyCounterRepository {
	return &DailyCounterRepository{store: store}
}

var _ ports.DailyCounterRepository = (*DailyCounterRepository)(nil)

func (r *DailyCounterRepository) GetCounter(ctx context.Context, day string) (*domain.DailyCounter, error) {
	return getOne[domain.DailyCounter](ctx, r.store, ports.CollectionDailyCounters, day)
}

func (r *DailyCounterRepository) CreateCounter(ctx context.Context, day string, n int) (*domain.DailyCounter, error) {
	return createOne(ctx, r.store, ports.CollectionDailyCounters, day, &domain.DailyCounter{
		TodayDate:      day,
		TodaySwapCount: n,
	}, nil)
}

func (r *DailyCounterRepository) SetCount(ctx context.Context, day string, n int, expectedVersion int64) (*domain.DailyCounter, error) {
	return patchOne[domain.DailyCounter](ctx, r.store, ports.CollectionDailyCounters, day, map[string]interface{}{
		"todaySwapCount": n,
	}, expectedVersion)
}
