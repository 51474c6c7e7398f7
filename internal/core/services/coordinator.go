package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

const defaultLeaseTTL = 10 * time.Second

type CoordinatorDeps struct {
	Users           ports.UserRepository
	Bikes           ports.BikeRepository
	Batteries       ports.BatteryRepository
	Swaps           ports.SwapRecordRepository
	Reconciliations ports.ReconciliationRepository
	Counter         ports.SwapCounter
	Dues            ports.DuesProjector
	Locks           ports.LockPort
	Cache           ports.CachePort
	Events          ports.EventPublisher
	Logger          ports.LoggerPort
	Metrics         ports.MetricsPort
}

// Coordinator runs the assign, swap and return flows across users, bikes and batteries.
// Each flow checks every precondition before writing, holds leases on the entities it
// touches, writes conditionally on the versions it read and undoes its own writes on failure.
type Coordinator struct {
	users     ports.UserRepository
	bikes     ports.BikeRepository
	batteries ports.BatteryRepository
	swaps     ports.SwapRecordRepository
	recons    ports.ReconciliationRepository
	counter   ports.SwapCounter
	dues      ports.DuesProjector
	locks     ports.LockPort
	cache     ports.CachePort
	events    ports.EventPublisher
	logger    ports.LoggerPort
	metrics   ports.MetricsPort
	leaseTTL  time.Duration
	now       func() time.Time
}

type CoordinatorOption func(*Coordinator)

func WithLeaseTTL(ttl time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.leaseTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		c.now = now
	}
}

func NewCoordinator(deps CoordinatorDeps, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		users:     deps.Users,
		bikes:     deps.Bikes,
		batteries: deps.Batteries,
		swaps:     deps.Swaps,
		recons:    deps.Reconciliations,
		counter:   deps.Counter,
		dues:      deps.Dues,
		locks:     deps.Locks,
		cache:     deps.Cache,
		events:    deps.Events,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		leaseTTL:  defaultLeaseTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Assign(ctx context.Context, req domain.AssignRequest) (*domain.AssignResult, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, c.reject(domain.FlowAssign, start, err)
	}

	release, err := c.acquire(ctx, userLeaseKey(req.UserID), bikeLeaseKey(req.BikeID), batteryLeaseKey(req.BatteryID))
	if err != nil {
		return nil, c.reject(domain.FlowAssign, start, err)
	}
	defer release()

	user, err := c.users.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, c.reject(domain.FlowAssign, start, err)
	}
	if user.IsBlocked {
		return nil, c.reject(domain.FlowAssign, start, domain.ErrUserBlocked)
	}
	if user.HoldsAnything() {
		return nil, c.reject(domain.FlowAssign, start, domain.ErrAlreadyAssigned)
	}

	bike, err := c.bikes.GetBikeByID(ctx, req.BikeID)
	if err != nil {
		return nil, c.reject(domain.FlowAssign, start, err)
	}
	if bike.BikeStatus || bike.CurrOwner != nil {
		return nil, c.reject(domain.FlowAssign, start, &domain.ConflictError{
			Resource: ports.CollectionBikes, ID: bike.ID, Reason: "bike is already assigned",
		})
	}

	battery, err := c.batteries.GetBatteryByID(ctx, req.BatteryID)
	if err != nil {
		return nil, c.reject(domain.FlowAssign, start, err)
	}
	if battery.BatStatus || battery.CurrOwner != nil {
		return nil, c.reject(domain.FlowAssign, start, &domain.ConflictError{
			Resource: ports.CollectionBatteries, ID: battery.ID, Reason: "battery is already assigned",
		})
	}

	defer c.invalidate(ctx, user.ID, bike.ID, battery.ID)

	now := c.now()
	bikeID, batteryID := bike.ID, battery.ID
	result := &domain.AssignResult{}

	s := newSaga(domain.FlowAssign, c.logger, c.metrics)
	s.add(sagaStep{
		name: "update_user", resource: ports.CollectionUsers, id: user.ID,
		action: func(ctx context.Context) error {
			a := user.Assignment()
			a.UserStatus = true
			a.BikeID = &bikeID
			a.BatteryID = &batteryID
			a.AssignedAt = &now
			u, err := c.users.SetAssignment(ctx, user.ID, a, user.Version)
			result.User = u
			return err
		},
		compensate: func(ctx context.Context) error {
			_, err := c.users.SetAssignment(ctx, user.ID, user.Assignment(), result.User.Version)
			return err
		},
	})
	s.add(sagaStep{
		name: "claim_bike", resource: ports.CollectionBikes, id: bike.ID,
		action: func(ctx context.Context) error {
			b, err := c.bikes.SetBikeHolding(ctx, bike.ID, bike.Holding().Claim(user.ID, now), bike.Version)
			result.Bike = b
			return err
		},
		compensate: func(ctx context.Context) error {
			_, err := c.bikes.SetBikeHolding(ctx, bike.ID, bike.Holding(), result.Bike.Version)
			return err
		},
	})
	s.add(sagaStep{
		name: "claim_battery", resource: ports.CollectionBatteries, id: battery.ID,
		action: func(ctx context.Context) error {
			b, err := c.batteries.SetBatteryHolding(ctx, battery.ID, battery.Holding().Claim(user.ID, now), battery.Version)
			result.Battery = b
			return err
		},
		compensate: func(ctx context.Context) error {
			_, err := c.batteries.SetBatteryHolding(ctx, battery.ID, battery.Holding(), result.Battery.Version)
			return err
		},
	})

	if err := s.run(ctx); err != nil {
		return nil, c.fail(ctx, domain.FlowAssign, start, err, domain.Reconciliation{
			UserID: user.ID, BikeID: bike.ID, BatteryID: battery.ID,
		})
	}

	c.metrics.RecordFlow(domain.FlowAssign, "success", time.Since(start))
	c.logger.Info("Bike and battery assigned", map[string]interface{}{
		"user_id":    user.ID,
		"bike_id":    bike.ID,
		"battery_id": battery.ID,
	})
	c.publish(ctx, ports.SubjectAssignmentCompleted, domain.FleetEvent{
		Flow: domain.FlowAssign, UserID: user.ID, BikeID: bike.ID, BatteryID: battery.ID, At: now,
	})
	return result, nil
}

func (c *Coordinator) Swap(ctx context.Context, req domain.SwapRequest) (*domain.SwapResult, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, c.reject(domain.FlowSwap, start, err)
	}
	if req.OldBatteryID == req.NewBatteryID {
		return nil, c.reject(domain.FlowSwap, start, domain.ErrSameBattery)
	}

	release, err := c.acquire(ctx, userLeaseKey(req.UserID), batteryLeaseKey(req.OldBatteryID), batteryLeaseKey(req.NewBatteryID))
	if err != nil {
		return nil, c.reject(domain.FlowSwap, start, err)
	}
	defer release()

	user, err := c.users.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, c.reject(domain.FlowSwap, start, err)
	}
	if req.IsBlocked != user.IsBlocked {
		c.logger.Warn("Caller's blocked flag disagrees with the stored user", map[string]interface{}{
			"user_id": user.ID,
			"caller":  req.IsBlocked,
			"stored":  user.IsBlocked,
		})
	}
	if user.IsBlocked {
		return nil, c.reject(domain.FlowSwap, start, domain.ErrUserBlocked)
	}
	if user.BatteryID == nil || *user.BatteryID != req.OldBatteryID {
		return nil, c.reject(domain.FlowSwap, start, &domain.ConflictError{
			Resource: ports.CollectionUsers, ID: user.ID, Reason: "user does not hold the old battery",
		})
	}
	if req.TotalSwapCount != user.TotalSwapCount {
		c.logger.Warn("Caller's swap count is stale, using the stored count", map[string]interface{}{
			"user_id": user.ID,
			"caller":  req.TotalSwapCount,
			"stored":  user.TotalSwapCount,
		})
	}

	oldBattery, err := c.batteries.GetBatteryByID(ctx, req.OldBatteryID)
	if err != nil {
		return nil, c.reject(domain.FlowSwap, start, err)
	}
	if !oldBattery.Holding().OwnedBy(user.ID) {
		return nil, c.reject(domain.FlowSwap, start, &domain.ConflictError{
			Resource: ports.CollectionBatteries, ID: oldBattery.ID, Reason: "old battery is not held by this user",
		})
	}
	newBattery, err := c.batteries.GetBatteryByID(ctx, req.NewBatteryID)
	if err != nil {
		return nil, c.reject(domain.FlowSwap, start, err)
	}
	if newBattery.BatStatus || newBattery.CurrOwner != nil {
		return nil, c.reject(domain.FlowSwap, start, &domain.ConflictError{
			Resource: ports.CollectionBatteries, ID: newBattery.ID, Reason: "new battery is already assigned",
		})
	}
	c.warnRegNumMismatch(req.OldBatRegNum, oldBattery)
	c.warnRegNumMismatch(req.NewBatRegNum, newBattery)

	defer c.invalidate(ctx, user.ID, "", oldBattery.ID, newBattery.ID)

	now := c.now()
	day := c.counter.Day(now)
	newCount := user.TotalSwapCount + 1
	oldID, newID := oldBattery.ID, newBattery.ID
	result := &domain.SwapResult{}
	var releasedOld, claimedNew *domain.Battery

	s := newSaga(domain.FlowSwap, c.logger, c.metrics)
	s.add(sagaStep{
		name: "release_old_battery", resource: ports.CollectionBatteries, id: oldID,
		action: func(ctx context.Context) error {
			b, err := c.batteries.SetBatteryHolding(ctx, oldID, oldBattery.Holding().Release(now), oldBattery.Version)
			releasedOld = b
			return err
		},
		compensate: func(ctx context.Context) error {
			_, err := c.batteries.SetBatteryHolding(ctx, oldID, oldBattery.Holding(), releasedOld.Version)
			return err
		},
	})
	s.add(sagaStep{
		name: "claim_new_battery", resource: ports.CollectionBatteries, id: newID,
		action: func(ctx context.Context) error {
			b, err := c.batteries.SetBatteryHolding(ctx, newID, newBattery.Holding().Claim(user.ID, now), newBattery.Version)
			claimedNew = b
			return err
		},
		compensate: func(ctx context.Context) error {
			_, err := c.batteries.SetBatteryHolding(ctx, newID, newBattery.Holding(), claimedNew.Version)
			return err
		},
	})
	s.add(sagaStep{
		name: "update_user", resource: ports.CollectionUsers, id: user.ID,
		action: func(ctx context.Context) error {
			a := user.Assignment()
			a.BatteryID = &newID
			a.OldBatteryID = &oldID
			a.TotalSwapCount = newCount
			u, err := c.users.SetAssignment(ctx, user.ID, a, user.Version)
			result.User = u
			return err
		},
		compensate: func(ctx context.Context) error {
			_, err := c.users.SetAssignment(ctx, user.ID, user.Assignment(), result.User.Version)
			return err
		},
	})
	s.add(sagaStep{
		name: "append_swap_record", resource: ports.CollectionSwapRecords, id: user.ID,
		action: func(ctx context.Context) error {
			rec, err := c.swaps.CreateSwapRecord(ctx, &domain.SwapRecord{
				UserID:         user.ID,
				UserName:       user.UserName,
				OldBatteryID:   oldID,
				OldBatRegNum:   oldBattery.BatRegNum,
				NewBatteryID:   newID,
				NewBatRegNum:   newBattery.BatRegNum,
				TotalSwapCount: newCount,
				SwapDate:       now,
				SwapDay:        day,
			})
			result.SwapRecord = rec
			return err
		},
	})

	if err := s.run(ctx); err != nil {
		return nil, c.fail(ctx, domain.FlowSwap, start, err, domain.Reconciliation{
			UserID: user.ID, BatteryID: newID, OldBatteryID: oldID,
		})
	}
	result.Success = true

	// The swap is committed; a dropped client must not cost the counter its increment.
	committed := context.WithoutCancel(ctx)
	count, err := c.counter.Increment(committed, day)
	if err != nil {
		c.logger.Warn("Daily swap counter increment failed, counter needs a recount", map[string]interface{}{
			"day":     day,
			"user_id": user.ID,
			"error":   err.Error(),
		})
		c.metrics.RecordCounterDrift()
		result.CounterError = err.Error()
	} else {
		result.TodaySwapCount = count
	}

	c.metrics.RecordFlow(domain.FlowSwap, "success", time.Since(start))
	c.logger.Info("Battery swapped", map[string]interface{}{
		"user_id":          user.ID,
		"old_battery_id":   oldID,
		"new_battery_id":   newID,
		"total_swap_count": newCount,
		"today_swap_count": result.TodaySwapCount,
	})
	c.publish(committed, ports.SubjectSwapCompleted, domain.FleetEvent{
		Flow: domain.FlowSwap, UserID: user.ID, BatteryID: newID, OldBatteryID: oldID,
		TotalSwapCount: newCount, TodaySwapCount: result.TodaySwapCount, At: now,
	})
	return result, nil
}

func (c *Coordinator) Return(ctx context.Context, req domain.ReturnRequest) (*domain.ReturnResult, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, c.reject(domain.FlowReturn, start, err)
	}

	// The user is read once without leases to learn which resources to lock.
	seen, err := c.users.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, c.reject(domain.FlowReturn, start, err)
	}
	if !seen.HoldsAnything() {
		return nil, c.reject(domain.FlowReturn, start, domain.ErrNothingToReturn)
	}

	keys := []string{userLeaseKey(seen.ID)}
	if seen.BikeID != nil {
		keys = append(keys, bikeLeaseKey(*seen.BikeID))
	}
	if seen.BatteryID != nil {
		keys = append(keys, batteryLeaseKey(*seen.BatteryID))
	}
	release, err := c.acquire(ctx, keys...)
	if err != nil {
		return nil, c.reject(domain.FlowReturn, start, err)
	}
	defer release()

	user, err := c.users.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, c.reject(domain.FlowReturn, start, err)
	}
	if !samePointer(user.BikeID, seen.BikeID) || !samePointer(user.BatteryID, seen.BatteryID) {
		return nil, c.reject(domain.FlowReturn, start, &domain.ConflictError{
			Resource: ports.CollectionUsers, ID: user.ID, Reason: "assignment changed during return",
		})
	}

	var bike *domain.Bike
	if user.BikeID != nil {
		bike, err = c.bikes.GetBikeByID(ctx, *user.BikeID)
		if err != nil {
			return nil, c.reject(domain.FlowReturn, start, err)
		}
		if !bike.Holding().OwnedBy(user.ID) {
			return nil, c.reject(domain.FlowReturn, start, &domain.ConflictError{
				Resource: ports.CollectionBikes, ID: bike.ID, Reason: "bike is not held by this user",
			})
		}
	}
	var battery *domain.Battery
	if user.BatteryID != nil {
		battery, err = c.batteries.GetBatteryByID(ctx, *user.BatteryID)
		if err != nil {
			return nil, c.reject(domain.FlowReturn, start, err)
		}
		if !battery.Holding().OwnedBy(user.ID) {
			return nil, c.reject(domain.FlowReturn, start, &domain.ConflictError{
				Resource: ports.CollectionBatteries, ID: battery.ID, Reason: "battery is not held by this user",
			})
		}
	}

	result := &domain.ReturnResult{}
	if c.dues != nil {
		dues, err := c.dues.ProjectDues(ctx, user)
		if err != nil {
			c.logger.Warn("Dues projection failed", map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
		result.Dues = dues
	}

	var bikeID, batteryID string
	if bike != nil {
		bikeID = bike.ID
	}
	if battery != nil {
		batteryID = battery.ID
	}
	defer c.invalidate(ctx, user.ID, bikeID, batteryID)

	now := c.now()
	s := newSaga(domain.FlowReturn, c.logger, c.metrics)
	s.add(sagaStep{
		name: "clear_user", resource: ports.CollectionUsers, id: user.ID,
		action: func(ctx context.Context) error {
			a := user.Assignment()
			a.UserStatus = false
			a.BikeID = nil
			a.BatteryID = nil
			a.ReturnedAt = &now
			u, err := c.users.SetAssignment(ctx, user.ID, a, user.Version)
			result.User = u
			return err
		},
		compensate: func(ctx context.Context) error {
			_, err := c.users.SetAssignment(ctx, user.ID, user.Assignment(), result.User.Version)
			return err
		},
	})
	if bike != nil {
		s.add(sagaStep{
			name: "release_bike", resource: ports.CollectionBikes, id: bike.ID,
			action: func(ctx context.Context) error {
				b, err := c.bikes.SetBikeHolding(ctx, bike.ID, bike.Holding().Release(now), bike.Version)
				result.Bike = b
				return err
			},
			compensate: func(ctx context.Context) error {
				_, err := c.bikes.SetBikeHolding(ctx, bike.ID, bike.Holding(), result.Bike.Version)
				return err
			},
		})
	}
	if battery != nil {
		s.add(sagaStep{
			name: "release_battery", resource: ports.CollectionBatteries, id: battery.ID,
			action: func(ctx context.Context) error {
				h := battery.Holding().Release(now)
				h.AssignedAt = nil
				b, err := c.batteries.SetBatteryHolding(ctx, battery.ID, h, battery.Version)
				result.Battery = b
				return err
			},
			compensate: func(ctx context.Context) error {
				_, err := c.batteries.SetBatteryHolding(ctx, battery.ID, battery.Holding(), result.Battery.Version)
				return err
			},
		})
	}

	if err := s.run(ctx); err != nil {
		return nil, c.fail(ctx, domain.FlowReturn, start, err, domain.Reconciliation{
			UserID: user.ID, BikeID: bikeID, BatteryID: batteryID,
		})
	}

	c.metrics.RecordFlow(domain.FlowReturn, "success", time.Since(start))
	c.logger.Info("Bike and battery returned", map[string]interface{}{
		"user_id":    user.ID,
		"bike_id":    bikeID,
		"battery_id": batteryID,
	})
	c.publish(ctx, ports.SubjectReturnCompleted, domain.FleetEvent{
		Flow: domain.FlowReturn, UserID: user.ID, BikeID: bikeID, BatteryID: batteryID, At: now,
	})
	return result, nil
}

func (c *Coordinator) acquire(ctx context.Context, keys ...string) (func(), error) {
	return acquireLeases(ctx, c.locks, c.logger, c.leaseTTL, keys...)
}

// reject records a flow that stopped before writing anything.
func (c *Coordinator) reject(flow string, start time.Time, err error) error {
	c.logger.Warn("Flow rejected", map[string]interface{}{
		"flow":  flow,
		"error": err.Error(),
	})
	c.metrics.RecordFlow(flow, "rejected", time.Since(start))
	return err
}

// fail records a flow whose saga failed. Partial failures get a reconciliation record.
func (c *Coordinator) fail(ctx context.Context, flow string, start time.Time, err error, rec domain.Reconciliation) error {
	var partial *domain.PartialFailure
	if !errors.As(err, &partial) {
		c.metrics.RecordFlow(flow, "compensated", time.Since(start))
		return err
	}

	rec.Flow = flow
	rec.Step = partial.Step
	rec.Cause = fmt.Sprintf("%v; compensation: %v", partial.Err, errors.Join(partial.CompensationErrs...))
	rec.CreatedAt = c.now()
	saved, recErr := c.recons.CreateReconciliation(context.WithoutCancel(ctx), &rec)
	if recErr != nil {
		c.logger.Error("Failed to write reconciliation record", map[string]interface{}{
			"flow":  flow,
			"step":  partial.Step,
			"error": recErr.Error(),
		})
	} else {
		partial.ReconciliationID = saved.ID
	}

	c.logger.Error("Flow left entities inconsistent", map[string]interface{}{
		"flow":              flow,
		"step":              partial.Step,
		"user_id":           rec.UserID,
		"bike_id":           rec.BikeID,
		"battery_id":        rec.BatteryID,
		"reconciliation_id": partial.ReconciliationID,
	})
	c.metrics.RecordFlow(flow, "partial", time.Since(start))
	return partial
}

func (c *Coordinator) invalidate(ctx context.Context, userID, bikeID string, batteryIDs ...string) {
	keys := []string{userCacheKey(userID)}
	if bikeID != "" {
		keys = append(keys, bikeCacheKey(bikeID))
	}
	for _, id := range batteryIDs {
		if id != "" {
			keys = append(keys, batteryCacheKey(id))
		}
	}
	cacheInvalidate(context.WithoutCancel(ctx), c.cache, c.logger, keys...)
}

func (c *Coordinator) publish(ctx context.Context, subject string, event domain.FleetEvent) {
	if err := c.events.Publish(ctx, subject, event); err != nil {
		c.logger.Warn("Failed to publish fleet event", map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		})
	}
}

func (c *Coordinator) warnRegNumMismatch(given string, battery *domain.Battery) {
	if given != "" && given != battery.BatRegNum {
		c.logger.Warn("Caller's registration number differs from the stored battery", map[string]interface{}{
			"battery_id": battery.ID,
			"caller":     given,
			"stored":     battery.BatRegNum,
		})
	}
}

func samePointer(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
