package services

import (
	"context"
	"testing"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/logger"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/memory"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/repository"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

const testDay = "2024-05-01"

func fixedClock() time.Time { return testNow }

// fleet wires every service over one in-memory store. Faults are injected
// through store.Fault.
type fleet struct {
	mem       *memory.Store
	store     *mocks.FaultyStore
	locks     *memory.Locker
	cache     *memory.Cache
	users     *repository.UserRepository
	bikes     *repository.BikeRepository
	batteries *repository.BatteryRepository
	swaps     *repository.SwapRecordRepository
	counters  *repository.DailyCounterRepository
	recons    *repository.ReconciliationRepository
	payments  *repository.PaymentRepository
	companies *repository.CompanyRepository
	metrics   *mocks.MockMetrics
	events    *mocks.MockEventPublisher
	counter   *CounterService
	ledger    *PaymentService
	coord     *Coordinator
	recon     *ReconcileService
	deps      CoordinatorDeps
}

func newFleet(t *testing.T, opts ...CoordinatorOption) *fleet {
	t.Helper()

	f := &fleet{
		mem:     memory.NewFleetStore(),
		locks:   memory.NewLocker(),
		cache:   memory.NewCache(),
		metrics: mocks.NewMockMetrics(),
		events:  &mocks.MockEventPublisher{},
	}
	f.store = &mocks.FaultyStore{Next: f.mem}
	f.users = repository.NewUserRepository(f.store)
	f.bikes = repository.NewBikeRepository(f.store)
	f.batteries = repository.NewBatteryRepository(f.store)
	f.swaps = repository.NewSwapRecordRepository(f.store)
	f.counters = repository.NewDailyCounterRepository(f.store)
	f.recons = repository.NewReconciliationRepository(f.store)
	f.payments = repository.NewPaymentRepository(f.store)
	f.companies = repository.NewCompanyRepository(f.store)

	log := logger.NewNop()
	f.counter = NewCounterService(f.counters, f.swaps, log, time.UTC, 50, 0)
	f.counter.now = fixedClock
	f.ledger = NewPaymentService(f.payments, f.users, log, f.cache, 100)
	f.ledger.now = fixedClock

	f.deps = CoordinatorDeps{
		Users:           f.users,
		Bikes:           f.bikes,
		Batteries:       f.batteries,
		Swaps:           f.swaps,
		Reconciliations: f.recons,
		Counter:         f.counter,
		Dues:            f.ledger,
		Locks:           f.locks,
		Cache:           f.cache,
		Events:          f.events,
		Logger:          log,
		Metrics:         f.metrics,
	}
	f.coord = NewCoordinator(f.deps, append([]CoordinatorOption{WithClock(fixedClock)}, opts...)...)
	f.recon = NewReconcileService(f.deps, time.Second)
	f.recon.now = fixedClock
	return f
}

func (f *fleet) seedUser(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(name, "9000000000", nil, testNow)
	require.NoError(t, err)
	created, err := f.users.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return created
}

func (f *fleet) seedBike(t *testing.T, regNum string) *domain.Bike {
	t.Helper()
	b, err := domain.NewBike(regNum, "Hero Electric", testNow)
	require.NoError(t, err)
	created, err := f.bikes.CreateBike(context.Background(), b)
	require.NoError(t, err)
	return created
}

func (f *fleet) seedBattery(t *testing.T, regNum string) *domain.Battery {
	t.Helper()
	b, err := domain.NewBattery(regNum, testNow)
	require.NoError(t, err)
	created, err := f.batteries.CreateBattery(context.Background(), b)
	require.NoError(t, err)
	return created
}

func (f *fleet) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := f.users.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fleet) bike(t *testing.T, id string) *domain.Bike {
	t.Helper()
	b, err := f.bikes.GetBikeByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fleet) battery(t *testing.T, id string) *domain.Battery {
	t.Helper()
	b, err := f.batteries.GetBatteryByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

// countWrites makes the store count creates and updates without failing them.
func (f *fleet) countWrites() *int {
	n := 0
	f.store.Fault = func(op, _, _ string, _ map[string]interface{}) error {
		if op == "create" || op == "update" || op == "delete" {
			n++
		}
		return nil
	}
	return &n
}

// assertConsistent checks that every resource flag matches its owner and that
// owners and user pointers agree in both directions.
func (f *fleet) assertConsistent(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	bikes, err := f.bikes.ListAllBikes(ctx)
	require.NoError(t, err)
	for _, b := range bikes {
		h := b.Holding()
		assert.True(t, h.Consistent(), "bike %s status disagrees with owner", b.ID)
		if h.Owner != nil {
			owner := f.user(t, *h.Owner)
			if assert.NotNil(t, owner.BikeID, "owner of bike %s has no bike", b.ID) {
				assert.Equal(t, b.ID, *owner.BikeID)
			}
		}
	}

	batteries, err := f.batteries.ListAllBatteries(ctx)
	require.NoError(t, err)
	for _, b := range batteries {
		h := b.Holding()
		assert.True(t, h.Consistent(), "battery %s status disagrees with owner", b.ID)
		if h.Owner != nil {
			owner := f.user(t, *h.Owner)
			if assert.NotNil(t, owner.BatteryID, "owner of battery %s has no battery", b.ID) {
				assert.Equal(t, b.ID, *owner.BatteryID)
			}
		}
	}

	users, err := f.users.ListAllUsers(ctx)
	require.NoError(t, err)
	for _, u := range users {
		if u.BikeID != nil {
			assert.True(t, f.bike(t, *u.BikeID).Holding().OwnedBy(u.ID), "user %s points at a bike it does not hold", u.ID)
		}
		if u.BatteryID != nil {
			assert.True(t, f.battery(t, *u.BatteryID).Holding().OwnedBy(u.ID), "user %s points at a battery it does not hold", u.ID)
		}
		assert.Equal(t, u.HoldsAnything(), u.UserStatus, "user %s status", u.ID)
	}
}

// assigned seeds a user already holding a fresh bike and battery.
func (f *fleet) assigned(t *testing.T, name string) (*domain.User, *domain.Bike, *domain.Battery) {
	t.Helper()
	u := f.seedUser(t, name)
	b := f.seedBike(t, "BK-"+name)
	bat := f.seedBattery(t, "BT-"+name)
	_, err := f.coord.Assign(context.Background(), domain.AssignRequest{UserID: u.ID, BikeID: b.ID, BatteryID: bat.ID})
	require.NoError(t, err)
	return f.user(t, u.ID), f.bike(t, b.ID), f.battery(t, bat.ID)
}

// openLocks grants every lease, leaving only conditional writes to order flows.
type openLocks struct{}

func (openLocks) Acquire(_ context.Context, key string, _ time.Duration) (ports.Lease, error) {
	return openLease(key), nil
}

type openLease string

func (l openLease) Key() string                   { return string(l) }
func (openLease) Release(_ context.Context) error { return nil }
