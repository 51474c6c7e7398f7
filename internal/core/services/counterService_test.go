package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/logger"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterService_IncrementAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t)

	n, err := f.counter.Get(ctx, testDay)
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := 1; want <= 3; want++ {
		got, err := f.counter.Increment(ctx, testDay)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	n, err = f.counter.Get(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	other, err := f.counter.Get(ctx, "2024-05-02")
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestCounterService_ConcurrentIncrementsAreNotLost(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t)
	f.counter = NewCounterService(f.counters, f.swaps, logger.NewNop(), time.UTC, 200, time.Millisecond)

	const workers = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.counter.Increment(ctx, testDay); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, err := f.counter.Get(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}

func TestCounterService_RetriesExhausted(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t)
	f.counter = NewCounterService(f.counters, f.swaps, logger.NewNop(), time.UTC, 3, 0)

	_, err := f.counter.Increment(ctx, testDay)
	require.NoError(t, err)

	f.store.Fault = func(op, coll, _ string, _ map[string]interface{}) error {
		if op == "update" && coll == ports.CollectionDailyCounters {
			return domain.ErrVersionConflict
		}
		return nil
	}
	_, err = f.counter.Increment(ctx, testDay)
	f.store.Fault = nil

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, testDay, conflict.ID)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestCounterService_DayUsesRegionTimezone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	s := NewCounterService(nil, nil, logger.NewNop(), loc, 0, 0)

	lateUTC := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-02", s.Day(lateUTC))
	assert.Equal(t, "2024-05-01", s.Day(lateUTC.Add(-5*time.Hour)))
}

func TestCounterService_RecountDay(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t)

	for i := 0; i < 3; i++ {
		_, err := f.swaps.CreateSwapRecord(ctx, &domain.SwapRecord{
			UserID: "u1", OldBatteryID: "a", NewBatteryID: "b",
			TotalSwapCount: i + 1, SwapDate: testNow, SwapDay: testDay,
		})
		require.NoError(t, err)
	}
	_, err := f.counter.Increment(ctx, testDay)
	require.NoError(t, err)

	n, err := f.counter.RecountDay(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := f.counter.Get(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestCounterService_RejectsBadDay(t *testing.T) {
	f := newFleet(t)
	_, err := f.counter.Get(context.Background(), "01-05-2024")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "date", vErr.Field)

	_, err = f.counter.RecountDay(context.Background(), "today")
	assert.ErrorAs(t, err, &vErr)
}
