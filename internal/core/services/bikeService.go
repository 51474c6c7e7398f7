package services

import (
	"context"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"

	"github.com/go-playground/validator/v10"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type BikeService struct {
	bikeRepo ports.BikeRepository
	logger   ports.LoggerPort
	validate *validator.Validate
	cache    ports.CachePort
	locks    ports.LockPort
	leaseTTL time.Duration
	now      func() time.Time
}

func NewBikeService(
	bikeRepo ports.BikeRepository,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
	locks ports.LockPort,
	leaseTTL time.Duration,
) *BikeService {
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}
	return &BikeService{
		bikeRepo: bikeRepo,
		logger:   logger,
		validate: validate,
		cache:    cache,
		locks:    locks,
		leaseTTL: leaseTTL,
		now:      time.Now,
	}
}

func (s *BikeService) CreateBike(ctx context.Context, regNum, model string) (*domain.Bike, error) {
	bike, err := domain.NewBike(regNum, model, s.now())
	if err != nil {
		s.logger.Error("Bike validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	createdBike, err := s.bikeRepo.CreateBike(ctx, bike)
	if err != nil {
		s.logger.Error("Failed to create bike", map[string]interface{}{
			"error":        err.Error(),
			"bike_reg_num": bike.BikeRegNum,
		})
		return nil, err
	}

	s.logger.Info("Bike created successfully", map[string]interface{}{
		"bike_id":      createdBike.ID,
		"bike_reg_num": createdBike.BikeRegNum,
	})

	return createdBike, nil
}

func (s *BikeService) GetBikeByID(ctx context.Context, bikeID string) (*domain.Bike, error) {
	cacheKey := bikeCacheKey(bikeID)
	if cached, ok := cacheGet[domain.Bike](ctx, s.cache, s.logger, cacheKey); ok {
		s.logger.Debug("Bike found in cache", map[string]interface{}{
			"bike_id": bikeID,
		})
		return cached, nil
	}

	bike, err := s.bikeRepo.GetBikeByID(ctx, bikeID)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	cacheSet(ctx, s.cache, s.logger, cacheKey, bike, flowCacheTTL)
	return bike, nil
}

func (s *BikeService) ListBikes(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Bike], error) {
	params.Limit, params.Offset = normalizePaging(params.Limit, params.Offset)
	bikes, err := s.bikeRepo.ListBikes(ctx, params)
	if err != nil {
		s.logger.Error("Failed to list bikes", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return bikes, nil
}

// ListAvailableBikes lists the pool of unassigned bikes.
func (s *BikeService) ListAvailableBikes(ctx context.Context, search string, limit, offset int) (*domain.Page[domain.Bike], error) {
	assigned := false
	return s.ListBikes(ctx, domain.ListParams{Search: search, Status: &assigned, Limit: limit, Offset: offset})
}

func (s *BikeService) UpdateBike(ctx context.Context, bikeID, regNum, model string) (*domain.Bike, error) {
	existing, err := s.bikeRepo.GetBikeByID(ctx, bikeID)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	candidate := *existing
	candidate.BikeRegNum = regNum
	candidate.BikeModel = model
	if err := s.validate.Struct(&candidate); err != nil {
		s.logger.Error("Bike validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, domain.AsValidationError(err)
	}

	updatedBike, err := s.bikeRepo.UpdateBikeDetails(ctx, bikeID, regNum, model, existing.Version)
	if err != nil {
		s.logger.Error("Failed to update bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return nil, err
	}

	cacheInvalidate(ctx, s.cache, s.logger, bikeCacheKey(bikeID))

	s.logger.Info("Bike updated successfully", map[string]interface{}{
		"bike_id": bikeID,
	})

	return updatedBike, nil
}

// DeleteBike refuses bikes that are out with a rider. It holds the bike lease
// so no flow can assign the bike between the check and the delete.
func (s *BikeService) DeleteBike(ctx context.Context, bikeID string) error {
	release, err := acquireLeases(ctx, s.locks, s.logger, s.leaseTTL, bikeLeaseKey(bikeID))
	if err != nil {
		return err
	}
	defer release()

	bike, err := s.bikeRepo.GetBikeByID(ctx, bikeID)
	if err != nil {
		s.logger.Error("Failed to get bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return err
	}
	if bike.BikeStatus || bike.CurrOwner != nil {
		return domain.ErrResourceAssigned
	}

	if err := s.bikeRepo.DeleteBike(ctx, bikeID); err != nil {
		s.logger.Error("Failed to delete bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		return err
	}

	cacheInvalidate(ctx, s.cache, s.logger, bikeCacheKey(bikeID))

	s.logger.Info("Bike deleted successfully", map[string]interface{}{
		"bike_id": bikeID,
	})

	return nil
}

func normalizePaging(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
