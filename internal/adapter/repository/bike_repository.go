package repository

import (
	"context"
	"strings"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

type BikeRepository struct {
	store ports.DocumentStore
}

func NewBikeRepository(store ports.DocumentStore) *BikeRepository {
	return &BikeRepository{store: store}
}

var _ ports.BikeRepository = (*BikeRepository)(nil)

func (r *BikeRepository) CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error) {
	return createOne(ctx, r.store, ports.CollectionBikes, bike.ID, bike, nil)
}

func (r *BikeRepository) GetBikeByID(ctx context.Context, id string) (*domain.Bike, error) {
	return getOne[domain.Bike](ctx, r.store, ports.CollectionBikes, id)
}

func (r *BikeRepository) ListBikes(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Bike], error) {
	return listPage[domain.Bike](ctx, r.store, ports.CollectionBikes, listQuery(params, "bikeRegNum", "bikeStatus"))
}

func (r *BikeRepository) ListAllBikes(ctx context.Context) ([]*domain.Bike, error) {
	return listAll[domain.Bike](ctx, r.store, ports.CollectionBikes, ports.Query{})
}

func (r *BikeRepository) UpdateBikeDetails(ctx context.Context, id, regNum, model string, expectedVersion int64) (*domain.Bike, error) {
	return patchOne[domain.Bike](ctx, r.store, ports.CollectionBikes, id, map[string]interface{}{
		"bikeRegNum": strings.ToUpper(strings.TrimSpace(regNum)),
		"bikeModel":  strings.TrimSpace(model),
	}, expectedVersion)
}

func (r *BikeRepository) SetBikeHolding(ctx context.Context, id string, h domain.Holding, expectedVersion int64) (*domain.Bike, error) {
	return patchOne[domain.Bike](ctx, r.store, ports.CollectionBikes, id, map[string]interface{}{
		"bikeStatus": h.Assigned,
		"currOwner":  h.Owner,
		"assignedAt": h.AssignedAt,
		"returnedAt": h.ReturnedAt,
	}, expectedVersion)
}

func (r *BikeRepository) DeleteBike(ctx context.Context, id string) error {
	return deleteOne(ctx, r.store, ports.CollectionBikes, id)
}

type BatteryRepository struct {
	store ports.DocumentStore
}

func NewBatteryRepository(store ports.DocumentStore) *BatteryRepository {
	return &BatteryRepository{store: store}
}

var _ ports.BatteryRepository = (*BatteryRepository)(nil)

func (r *BatteryRepository) CreateBattery(ctx context.Context, battery *domain.Battery) (*domain.Battery, error) {
	return createOne(ctx, r.store, ports.CollectionBatteries, battery.ID, battery, nil)
}

func (r *BatteryRepository) GetBatteryByID(ctx context.Context, id string) (*domain.Battery, error) {
	return getOne[domain.Battery](ctx, r.store, ports.CollectionBatteries, id)
}

func (r *BatteryRepository) ListBatteries(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Battery], error) {
	return listPage[domain.Battery](ctx, r.store, ports.CollectionBatteries, listQuery(params, "batRegNum", "batStatus"))
}

func (r *BatteryRepository) ListAllBatteries(ctx context.Context) ([]*domain.Battery, error) {
	return listAll[domain.Battery](ctx, r.store, ports.CollectionBatteries, ports.Query{})
}

func (r *BatteryRepository) UpdateBatteryDetails(ctx context.Context, id, regNum string, expectedVersion int64) (*domain.Battery, error) {
	return patchOne[domain.Battery](ctx, r.store, ports.CollectionBatteries, id, map[string]interface{}{
		"batRegNum": strings.ToUpper(strings.TrimSpace(regNum)),
	}, expectedVersion)
}

func (r *BatteryRepository) SetBatteryHolding(ctx context.Context, id string, h domain.Holding, expectedVersion int64) (*domain.Battery, error) {
	return patchOne[domain.Battery](ctx, r.store, ports.CollectionBatteries, id, map[string]interface{}{
		"batStatus":  h.Assigned,
		"currOwner":  h.Owner,
		"assignedAt": h.AssignedAt,
		"returnedAt": h.ReturnedAt,
	}, expectedVersion)
}

func (r *BatteryRepository) DeleteBattery(ctx context.Context, id string) error {
	return deleteOne(ctx, r.store, ports.CollectionBatteries, id)
}
