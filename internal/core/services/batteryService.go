package services

import (
	"context"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"

	"github.com/go-playground/validator/v10"
)

type BatteryService struct {
	batteryRepo ports.BatteryRepository
	logger      ports.LoggerPort
	validate    *validator.Validate
	cache       ports.CachePort
	locks       ports.LockPort
	leaseTTL    time.Duration
	now         func() time.Time
}

func NewBatteryService(
	batteryRepo ports.BatteryRepository,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
	locks ports.LockPort,
	leaseTTL time.Duration,
) *BatteryService {
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}
	return &BatteryService{
		batteryRepo: batteryRepo,
		logger:      logger,
		validate:    validate,
		cache:       cache,
		locks:       locks,
		leaseTTL:    leaseTTL,
		now:         time.Now,
	}
}

func (s *BatteryService) CreateBattery(ctx context.Context, regNum string) (*domain.Battery, error) {
	battery, err := domain.NewBattery(regNum, s.now())
	if err != nil {
		s.logger.Error("Battery validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	created, err := s.batteryRepo.CreateBattery(ctx, battery)
	if err != nil {
		s.logger.Error("Failed to create battery", map[string]interface{}{
			"error":       err.Error(),
			"bat_reg_num": battery.BatRegNum,
		})
		return nil, err
	}

	s.logger.Info("Battery created successfully", map[string]interface{}{
		"battery_id":  created.ID,
		"bat_reg_num": created.BatRegNum,
	})
	return created, nil
}

func (s *BatteryService) GetBatteryByID(ctx context.Context, batteryID string) (*domain.Battery, error) {
	cacheKey := batteryCacheKey(batteryID)
	if cached, ok := cacheGet[domain.Battery](ctx, s.cache, s.logger, cacheKey); ok {
		return cached, nil
	}

	battery, err := s.batteryRepo.GetBatteryByID(ctx, batteryID)
	if err != nil {
		s.logger.Error("Failed to get battery", map[string]interface{}{
			"error":      err.Error(),
			"battery_id": batteryID,
		})
		return nil, err
	}

	cacheSet(ctx, s.cache, s.logger, cacheKey, battery, flowCacheTTL)
	return battery, nil
}

func (s *BatteryService) ListBatteries(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Battery], error) {
	params.Limit, params.Offset = normalizePaging(params.Limit, params.Offset)
	batteries, err := s.batteryRepo.ListBatteries(ctx, params)
	if err != nil {
		s.logger.Error("Failed to list batteries", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return batteries, nil
}

func (s *BatteryService) ListAvailableBatteries(ctx context.Context, search string, limit, offset int) (*domain.Page[domain.Battery], error) {
	assigned := false
	return s.ListBatteries(ctx, domain.ListParams{Search: search, Status: &assigned, Limit: limit, Offset: offset})
}

func (s *BatteryService) UpdateBattery(ctx context.Context, batteryID, regNum string) (*domain.Battery, error) {
	existing, err := s.batteryRepo.GetBatteryByID(ctx, batteryID)
	if err != nil {
		return nil, err
	}

	candidate := *existing
	candidate.BatRegNum = regNum
	if err := s.validate.Struct(&candidate); err != nil {
		s.logger.Error("Battery validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, domain.AsValidationError(err)
	}

	updated, err := s.batteryRepo.UpdateBatteryDetails(ctx, batteryID, regNum, existing.Version)
	if err != nil {
		s.logger.Error("Failed to update battery", map[string]interface{}{
			"error":      err.Error(),
			"battery_id": batteryID,
		})
		return nil, err
	}

	cacheInvalidate(ctx, s.cache, s.logger, batteryCacheKey(batteryID))
	return updated, nil
}

func (s *BatteryService) DeleteBattery(ctx context.Context, batteryID string) error {
	release, err := acquireLeases(ctx, s.locks, s.logger, s.leaseTTL, batteryLeaseKey(batteryID))
	if err != nil {
		return err
	}
	defer release()

	battery, err := s.batteryRepo.GetBatteryByID(ctx, batteryID)
	if err != nil {
		return err
	}
	if battery.BatStatus || battery.CurrOwner != nil {
		return domain.ErrResourceAssigned
	}

	if err := s.batteryRepo.DeleteBattery(ctx, batteryID); err != nil {
		s.logger.Error("Failed to delete battery", map[string]interface{}{
			"error":      err.Error(),
			"battery_id": batteryID,
		})
		return err
	}

	cacheInvalidate(ctx, s.cache, s.logger, batteryCacheKey(batteryID))

	s.logger.Info("Battery deleted successfully", map[string]interface{}{
		"battery_id": batteryID,
	})
	return nil
}
