package ports

import (
	"context"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
)

type BikeRepository interface {
	CreateBike(ctx context.Context, bike *domain.Bike) (*domain.Bike, error)
	GetBikeByID(ctx context.Context, id string) (*domain.Bike, error)
	ListBikes(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Bike], error)
	ListAllBikes(ctx context.Context) ([]*domain.Bike, error)
	UpdateBikeDetails(ctx context.Context, id, regNum, model string, expectedVersion int64) (*domain.Bike, error)
	SetBikeHolding(ctx context.Context, id string, h domain.Holding, expectedVersion int64) (*domain.Bike, error)
	DeleteBike(ctx context.Context, id string) error
}

type BatteryRepository interface {
	CreateBattery(ctx context.Context, battery *domain.Battery) (*domain.Battery, error)
	GetBatteryByID(ctx context.Context, id string) (*domain.Battery, error)
	ListBatteries(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Battery], error)
	ListAllBatteries(ctx context.Context) ([]*domain.Battery, error)
	UpdateBatteryDetails(ctx context.Context, id, regNum string, expectedVersion int64) (*domain.Battery, error)
	SetBatteryHolding(ctx context.Context, id string, h domain.Holding, expectedVersion int64) (*domain.Battery, error)
	DeleteBattery(ctx context.Context, id string) error
}
