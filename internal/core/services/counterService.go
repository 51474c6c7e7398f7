package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

// CounterService maintains one swap counter per day in the region's timezone.
// Writes are conditional on the version read, so concurrent increments retry instead of losing updates.
type CounterService struct {
	counters   ports.DailyCounterRepository
	swaps      ports.SwapRecordRepository
	logger     ports.LoggerPort
	loc        *time.Location
	maxRetries int
	backoff    time.Duration
	now        func() time.Time
}

func NewCounterService(
	counters ports.DailyCounterRepository,
	swaps ports.SwapRecordRepository,
	logger ports.LoggerPort,
	loc *time.Location,
	maxRetries int,
	backoff time.Duration,
) *CounterService {
	if loc == nil {
		loc = time.UTC
	}
	if maxRetries <= 0 {
		maxRetries = 10
	}
	return &CounterService{
		counters:   counters,
		swaps:      swaps,
		logger:     logger,
		loc:        loc,
		maxRetries: maxRetries,
		backoff:    backoff,
		now:        time.Now,
	}
}

var _ ports.SwapCounter = (*CounterService)(nil)

func (s *CounterService) Day(t time.Time) string {
	return domain.DayKey(t, s.loc)
}

func (s *CounterService) Today() string {
	return s.Day(s.now())
}

func (s *CounterService) Increment(ctx context.Context, day string) (int, error) {
	return s.apply(ctx, day, func(current int) int { return current + 1 })
}

// Get returns the day's count, zero when nothing was recorded.
func (s *CounterService) Get(ctx context.Context, day string) (int, error) {
	if err := validateDay(day); err != nil {
		return 0, err
	}
	counter, err := s.counters.GetCounter(ctx, day)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		s.logger.Error("Failed to get daily counter", map[string]interface{}{
			"error": err.Error(),
			"day":   day,
		})
		return 0, err
	}
	return counter.TodaySwapCount, nil
}

// RecountDay overwrites the day's counter with the number of swap records dated that day.
func (s *CounterService) RecountDay(ctx context.Context, day string) (int, error) {
	if err := validateDay(day); err != nil {
		return 0, err
	}
	n, err := s.swaps.CountSwapRecordsByDay(ctx, day)
	if err != nil {
		s.logger.Error("Failed to count swap records", map[string]interface{}{
			"error": err.Error(),
			"day":   day,
		})
		return 0, err
	}

	count, err := s.apply(ctx, day, func(int) int { return n })
	if err != nil {
		return 0, err
	}
	s.logger.Info("Daily counter recounted", map[string]interface{}{
		"day":   day,
		"count": count,
	})
	return count, nil
}

func (s *CounterService) apply(ctx context.Context, day string, next func(current int) int) (int, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx); err != nil {
				return 0, err
			}
		}

		counter, err := s.counters.GetCounter(ctx, day)
		if errors.Is(err, domain.ErrNotFound) {
			created, err := s.counters.CreateCounter(ctx, day, next(0))
			if err == nil {
				return created.TodaySwapCount, nil
			}
			if errors.Is(err, domain.ErrDuplicate) {
				lastErr = err
				continue
			}
			return 0, err
		}
		if err != nil {
			return 0, err
		}

		updated, err := s.counters.SetCount(ctx, day, next(counter.TodaySwapCount), counter.Version)
		if err == nil {
			return updated.TodaySwapCount, nil
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			lastErr = err
			continue
		}
		return 0, err
	}

	s.logger.Warn("Daily counter retries exhausted", map[string]interface{}{
		"day":      day,
		"attempts": s.maxRetries,
	})
	return 0, &domain.ConflictError{
		Resource: ports.CollectionDailyCounters,
		ID:       day,
		Reason:   "too many concurrent updates",
		Err:      lastErr,
	}
}

func (s *CounterService) sleep(ctx context.Context) error {
	if s.backoff <= 0 {
		return ctx.Err()
	}
	wait := s.backoff + time.Duration(rand.Int63n(int64(s.backoff)))
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateDay(day string) error {
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return nil
}
