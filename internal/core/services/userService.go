package services

import (
	"context"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

type UserService struct {
	userRepo    ports.UserRepository
	companyRepo ports.CompanyRepository
	swapRepo    ports.SwapRecordRepository
	logger      ports.LoggerPort
	cache       ports.CachePort
	locks       ports.LockPort
	leaseTTL    time.Duration
	now         func() time.Time
}

func NewUserService(
	userRepo ports.UserRepository,
	companyRepo ports.CompanyRepository,
	swapRepo ports.SwapRecordRepository,
	logger ports.LoggerPort,
	cache ports.CachePort,
	locks ports.LockPort,
	leaseTTL time.Duration,
) *UserService {
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}
	return &UserService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		swapRepo:    swapRepo,
		logger:      logger,
		cache:       cache,
		locks:       locks,
		leaseTTL:    leaseTTL,
		now:         time.Now,
	}
}

func (s *UserService) CreateUser(ctx context.Context, profile domain.UserProfile) (*domain.User, error) {
	user, err := domain.NewUser(profile.UserName, profile.UserPhone, profile.CompanyID, s.now())
	if err != nil {
		s.logger.Error("User validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	if err := s.checkCompany(ctx, user.CompanyID); err != nil {
		return nil, err
	}

	createdUser, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("Failed to create user", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Info("User created successfully", map[string]interface{}{
		"user_id": createdUser.ID,
	})
	return createdUser, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	cacheKey := userCacheKey(userID)
	if cached, ok := cacheGet[domain.User](ctx, s.cache, s.logger, cacheKey); ok {
		s.logger.Debug("User found in cache", map[string]interface{}{
			"user_id": userID,
		})
		return cached, nil
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get user", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}

	cacheSet(ctx, s.cache, s.logger, cacheKey, user, flowCacheTTL)
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, params domain.ListParams) (*domain.Page[domain.User], error) {
	params.Limit, params.Offset = normalizePaging(params.Limit, params.Offset)
	users, err := s.userRepo.ListUsers(ctx, params)
	if err != nil {
		s.logger.Error("Failed to list users", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return users, nil
}

// ListPendingDues lists users that owe money, largest amount first.
func (s *UserService) ListPendingDues(ctx context.Context, limit, offset int) (*domain.Page[domain.User], error) {
	limit, offset = normalizePaging(limit, offset)
	return s.userRepo.ListUsersWithDues(ctx, limit, offset)
}

func (s *UserService) ListUserSwaps(ctx context.Context, userID string, limit, offset int) (*domain.Page[domain.SwapRecord], error) {
	limit, offset = normalizePaging(limit, offset)
	if _, err := s.userRepo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.swapRepo.ListSwapRecordsByUser(ctx, userID, limit, offset)
}

func (s *UserService) ListSwaps(ctx context.Context, limit, offset int) (*domain.Page[domain.SwapRecord], error) {
	limit, offset = normalizePaging(limit, offset)
	return s.swapRepo.ListSwapRecords(ctx, limit, offset)
}

func (s *UserService) UpdateUser(ctx context.Context, userID string, profile domain.UserProfile) (*domain.User, error) {
	if err := profile.Validate(); err != nil {
		s.logger.Error("User validation failed", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}
	if err := s.checkCompany(ctx, profile.CompanyID); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updatedUser, err := s.userRepo.UpdateProfile(ctx, userID, profile, existing.Version)
	if err != nil {
		s.logger.Error("Failed to update user", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}

	cacheInvalidate(ctx, s.cache, s.logger, userCacheKey(userID))
	return updatedUser, nil
}

func (s *UserService) SetBlocked(ctx context.Context, userID string, blocked bool) (*domain.User, error) {
	existing, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing.IsBlocked == blocked {
		return existing, nil
	}

	user, err := s.userRepo.SetBlocked(ctx, userID, blocked, existing.Version)
	if err != nil {
		s.logger.Error("Failed to change blocked flag", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
			"blocked": blocked,
		})
		return nil, err
	}

	cacheInvalidate(ctx, s.cache, s.logger, userCacheKey(userID))

	s.logger.Info("User blocked flag changed", map[string]interface{}{
		"user_id": userID,
		"blocked": blocked,
	})
	return user, nil
}

// SetCall records a call follow-up. CallNone with an empty note clears it.
func (s *UserService) SetCall(ctx context.Context, userID string, status domain.CallStatus, note string) (*domain.User, error) {
	switch status {
	case domain.CallNone, domain.CallPending, domain.CallDone:
	default:
		return nil, &domain.ValidationError{Field: "callStatus", Reason: "oneof=pending done"}
	}
	if len(note) > 500 {
		return nil, &domain.ValidationError{Field: "callNote", Reason: "max=500"}
	}

	existing, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.SetCall(ctx, userID, status, note, existing.Version)
	if err != nil {
		s.logger.Error("Failed to set call status", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}

	cacheInvalidate(ctx, s.cache, s.logger, userCacheKey(userID))
	return user, nil
}

// DeleteUser refuses users that still hold a bike or battery. The user lease
// keeps flows for this rider out until the delete is done.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	release, err := acquireLeases(ctx, s.locks, s.logger, s.leaseTTL, userLeaseKey(userID))
	if err != nil {
		return err
	}
	defer release()

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.HoldsAnything() {
		return &domain.ValidationError{Field: "id", Reason: "user still holds a bike or battery"}
	}

	if err := s.userRepo.DeleteUser(ctx, userID); err != nil {
		s.logger.Error("Failed to delete user", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return err
	}

	cacheInvalidate(ctx, s.cache, s.logger, userCacheKey(userID))

	s.logger.Info("User deleted successfully", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

func (s *UserService) checkCompany(ctx context.Context, companyID *string) error {
	if companyID == nil || *companyID == "" {
		return nil
	}
	if _, err := s.companyRepo.GetCompanyByID(ctx, *companyID); err != nil {
		if isNotFound(err) {
			return &domain.ValidationError{Field: "companyId", Reason: "company does not exist"}
		}
		return err
	}
	return nil
}
