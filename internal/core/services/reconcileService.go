package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

// ReconcileService repairs assignment state that a failed compensation left behind.
// Every repair runs under the same leases the flows take, re-reads the entity and
// writes conditionally, so a sweep never races an in-flight flow.
type ReconcileService struct {
	users     ports.UserRepository
	bikes     ports.BikeRepository
	batteries ports.BatteryRepository
	recons    ports.ReconciliationRepository
	locks     ports.LockPort
	cache     ports.CachePort
	events    ports.EventPublisher
	logger    ports.LoggerPort
	metrics   ports.MetricsPort
	leaseTTL  time.Duration
	now       func() time.Time

	mu sync.Mutex
}

func NewReconcileService(deps CoordinatorDeps, leaseTTL time.Duration) *ReconcileService {
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}
	return &ReconcileService{
		users:     deps.Users,
		bikes:     deps.Bikes,
		batteries: deps.Batteries,
		recons:    deps.Reconciliations,
		locks:     deps.Locks,
		cache:     deps.Cache,
		events:    deps.Events,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		leaseTTL:  leaseTTL,
		now:       time.Now,
	}
}

// sweptResource adapts bikes and batteries to one repair routine.
type sweptResource struct {
	kind     string
	leaseKey func(id string) string
	cacheKey func(id string) string
	pointer  func(u *domain.User) *string
	get      func(ctx context.Context, id string) (domain.Holding, int64, error)
	set      func(ctx context.Context, id string, h domain.Holding, version int64) error
}

type heldResource struct {
	id      string
	holding domain.Holding
}

func (s *ReconcileService) bikeResource() sweptResource {
	return sweptResource{
		kind:     "bike",
		leaseKey: bikeLeaseKey,
		cacheKey: bikeCacheKey,
		pointer:  func(u *domain.User) *string { return u.BikeID },
		get: func(ctx context.Context, id string) (domain.Holding, int64, error) {
			b, err := s.bikes.GetBikeByID(ctx, id)
			if err != nil {
				return domain.Holding{}, 0, err
			}
			return b.Holding(), b.Version, nil
		},
		set: func(ctx context.Context, id string, h domain.Holding, version int64) error {
			_, err := s.bikes.SetBikeHolding(ctx, id, h, version)
			return err
		},
	}
}

func (s *ReconcileService) batteryResource() sweptResource {
	return sweptResource{
		kind:     "battery",
		leaseKey: batteryLeaseKey,
		cacheKey: batteryCacheKey,
		pointer:  func(u *domain.User) *string { return u.BatteryID },
		get: func(ctx context.Context, id string) (domain.Holding, int64, error) {
			b, err := s.batteries.GetBatteryByID(ctx, id)
			if err != nil {
				return domain.Holding{}, 0, err
			}
			return b.Holding(), b.Version, nil
		},
		set: func(ctx context.Context, id string, h domain.Holding, version int64) error {
			_, err := s.batteries.SetBatteryHolding(ctx, id, h, version)
			return err
		},
	}
}

// Sweep scans bikes, batteries and users and repairs every mismatch between
// resource ownership and user pointers. Open reconciliation records are resolved
// when nothing had to be skipped.
func (s *ReconcileService) Sweep(ctx context.Context) (*domain.ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &domain.ReconcileReport{StartedAt: s.now()}

	bikes, err := s.bikes.ListAllBikes(ctx)
	if err != nil {
		return nil, err
	}
	held := make([]heldResource, 0, len(bikes))
	for _, b := range bikes {
		held = append(held, heldResource{id: b.ID, holding: b.Holding()})
	}
	report.BikesReleased, err = s.sweepResources(ctx, s.bikeResource(), held, report)
	if err != nil {
		return nil, err
	}

	batteries, err := s.batteries.ListAllBatteries(ctx)
	if err != nil {
		return nil, err
	}
	held = held[:0]
	for _, b := range batteries {
		held = append(held, heldResource{id: b.ID, holding: b.Holding()})
	}
	report.BatteriesReleased, err = s.sweepResources(ctx, s.batteryResource(), held, report)
	if err != nil {
		return nil, err
	}

	users, err := s.users.ListAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		repaired, err := s.repairUser(ctx, u, report)
		if err != nil {
			return nil, err
		}
		if repaired {
			report.UsersRepaired = append(report.UsersRepaired, u.ID)
		}
	}

	if len(report.Skipped) == 0 {
		if err := s.resolveOpen(ctx, report); err != nil {
			return nil, err
		}
	}
	report.FinishedAt = s.now()

	s.metrics.RecordRepairs("bike_released", len(report.BikesReleased))
	s.metrics.RecordRepairs("battery_released", len(report.BatteriesReleased))
	s.metrics.RecordRepairs("user_repaired", len(report.UsersRepaired))
	s.metrics.RecordRepairs("reconciliation_resolved", len(report.ReconciliationsResolved))

	logFields := map[string]interface{}{
		"bikes_released":     len(report.BikesReleased),
		"batteries_released": len(report.BatteriesReleased),
		"users_repaired":     len(report.UsersRepaired),
		"resolved":           len(report.ReconciliationsResolved),
		"skipped":            len(report.Skipped),
	}
	if report.Repairs() > 0 || len(report.Skipped) > 0 {
		s.logger.Warn("Reconciliation sweep repaired state", logFields)
	} else {
		s.logger.Info("Reconciliation sweep found nothing to repair", logFields)
	}

	if err := s.events.Publish(ctx, ports.SubjectReconcileCompleted, domain.FleetEvent{
		Flow: "reconcile", Repairs: report.Repairs(), At: report.FinishedAt,
	}); err != nil {
		s.logger.Warn("Failed to publish fleet event", map[string]interface{}{
			"subject": ports.SubjectReconcileCompleted,
			"error":   err.Error(),
		})
	}
	return report, nil
}

// Run sweeps on every tick until ctx is done. A non-positive interval disables it.
func (s *ReconcileService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Info("Reconciliation sweep disabled", nil)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Reconciliation sweep failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

func (s *ReconcileService) sweepResources(ctx context.Context, r sweptResource, held []heldResource, report *domain.ReconcileReport) ([]string, error) {
	var released []string
	for _, res := range held {
		ok, err := s.repairResource(ctx, r, res, report)
		if err != nil {
			return nil, err
		}
		if ok {
			released = append(released, res.id)
		}
	}
	return released, nil
}

// repairResource releases a resource whose flag disagrees with its owner, or whose
// owner does not point back at it.
func (s *ReconcileService) repairResource(ctx context.Context, r sweptResource, res heldResource, report *domain.ReconcileReport) (bool, error) {
	orphaned, err := s.orphaned(ctx, r, res.id, res.holding)
	if err != nil || !orphaned {
		return false, err
	}

	keys := []string{r.leaseKey(res.id)}
	if res.holding.Owner != nil {
		keys = append(keys, userLeaseKey(*res.holding.Owner))
	}
	release, err := acquireLeases(ctx, s.locks, s.logger, s.leaseTTL, keys...)
	if err != nil {
		return false, s.skip(report, r.leaseKey(res.id), err)
	}
	defer release()

	h, version, err := r.get(ctx, res.id)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if orphaned, err = s.orphaned(ctx, r, res.id, h); err != nil || !orphaned {
		return false, err
	}

	if err := r.set(ctx, res.id, h.Release(s.now()), version); err != nil {
		return false, s.skip(report, r.leaseKey(res.id), err)
	}

	fields := map[string]interface{}{
		"kind": r.kind,
		"id":   res.id,
	}
	keysToDrop := []string{r.cacheKey(res.id)}
	if h.Owner != nil {
		fields["owner"] = *h.Owner
		keysToDrop = append(keysToDrop, userCacheKey(*h.Owner))
	}
	s.logger.Warn("Released orphaned resource", fields)
	cacheInvalidate(context.WithoutCancel(ctx), s.cache, s.logger, keysToDrop...)
	return true, nil
}

func (s *ReconcileService) orphaned(ctx context.Context, r sweptResource, id string, h domain.Holding) (bool, error) {
	if !h.Consistent() {
		return true, nil
	}
	if h.Owner == nil {
		return false, nil
	}
	owner, err := s.users.GetUserByID(ctx, *h.Owner)
	if err != nil {
		if isNotFound(err) {
			return true, nil
		}
		return false, err
	}
	p := r.pointer(owner)
	return p == nil || *p != id, nil
}

// repairUser clears user pointers at resources the user does not hold and
// recomputes userStatus.
func (s *ReconcileService) repairUser(ctx context.Context, listed *domain.User, report *domain.ReconcileReport) (bool, error) {
	_, broken, err := s.userRepair(ctx, listed)
	if err != nil || !broken {
		return false, err
	}

	keys := []string{userLeaseKey(listed.ID)}
	if listed.BikeID != nil {
		keys = append(keys, bikeLeaseKey(*listed.BikeID))
	}
	if listed.BatteryID != nil {
		keys = append(keys, batteryLeaseKey(*listed.BatteryID))
	}
	release, err := acquireLeases(ctx, s.locks, s.logger, s.leaseTTL, keys...)
	if err != nil {
		return false, s.skip(report, userLeaseKey(listed.ID), err)
	}
	defer release()

	user, err := s.users.GetUserByID(ctx, listed.ID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	a, broken, err := s.userRepair(ctx, user)
	if err != nil || !broken {
		return false, err
	}

	if _, err := s.users.SetAssignment(ctx, user.ID, a, user.Version); err != nil {
		return false, s.skip(report, userLeaseKey(user.ID), err)
	}

	s.logger.Warn("Repaired user assignment", map[string]interface{}{
		"user_id":     user.ID,
		"bike_id":     user.BikeID,
		"battery_id":  user.BatteryID,
		"user_status": a.UserStatus,
	})
	cacheInvalidate(context.WithoutCancel(ctx), s.cache, s.logger, userCacheKey(user.ID))
	return true, nil
}

func (s *ReconcileService) userRepair(ctx context.Context, u *domain.User) (domain.Assignment, bool, error) {
	a := u.Assignment()
	changed := false

	if a.BikeID != nil {
		bike, err := s.bikes.GetBikeByID(ctx, *a.BikeID)
		if err != nil && !isNotFound(err) {
			return a, false, err
		}
		if err != nil || !bike.Holding().OwnedBy(u.ID) {
			a.BikeID = nil
			changed = true
		}
	}
	if a.BatteryID != nil {
		battery, err := s.batteries.GetBatteryByID(ctx, *a.BatteryID)
		if err != nil && !isNotFound(err) {
			return a, false, err
		}
		if err != nil || !battery.Holding().OwnedBy(u.ID) {
			a.BatteryID = nil
			changed = true
		}
	}

	status := a.BikeID != nil || a.BatteryID != nil
	if a.UserStatus != status {
		a.UserStatus = status
		changed = true
	}
	return a, changed, nil
}

func (s *ReconcileService) resolveOpen(ctx context.Context, report *domain.ReconcileReport) error {
	open, err := s.recons.ListOpenReconciliations(ctx)
	if err != nil {
		return err
	}
	for _, rec := range open {
		if err := s.recons.ResolveReconciliation(ctx, rec.ID, rec.Version); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) || isNotFound(err) {
				continue
			}
			return err
		}
		report.ReconciliationsResolved = append(report.ReconciliationsResolved, rec.ID)
	}
	return nil
}

// skip turns a lost race into a skipped entry so the next sweep retries it.
func (s *ReconcileService) skip(report *domain.ReconcileReport, key string, err error) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) || errors.Is(err, domain.ErrVersionConflict) {
		s.logger.Info("Reconciliation skipped busy entity", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		report.Skipped = append(report.Skipped, key)
		return nil
	}
	return err
}
