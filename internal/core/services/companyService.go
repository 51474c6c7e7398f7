package services

import (
	"context"
	"errors"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

type CompanyInput struct {
	CompanyName  string
	ContactName  string
	ContactPhone string
	Address      string
}

type CompanyService struct {
	companyRepo ports.CompanyRepository
	userRepo    ports.UserRepository
	logger      ports.LoggerPort
	cache       ports.CachePort
	now         func() time.Time
}

func NewCompanyService(
	companyRepo ports.CompanyRepository,
	userRepo ports.UserRepository,
	logger ports.LoggerPort,
	cache ports.CachePort,
) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		logger:      logger,
		cache:       cache,
		now:         time.Now,
	}
}

func (s *CompanyService) CreateCompany(ctx context.Context, in CompanyInput) (*domain.Company, error) {
	company, err := domain.NewCompany(in.CompanyName, in.ContactName, in.ContactPhone, in.Address, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.companyRepo.CreateCompany(ctx, company)
	if err != nil {
		s.logger.Error("Failed to create company", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Company created successfully", map[string]interface{}{
		"company_id": created.ID,
	})
	return created, nil
}

func (s *CompanyService) GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	cacheKey := companyCacheKey(companyID)
	if cached, ok := cacheGet[domain.Company](ctx, s.cache, s.logger, cacheKey); ok {
		return cached, nil
	}

	company, err := s.companyRepo.GetCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, s.cache, s.logger, cacheKey, company, cacheTTL)
	return company, nil
}

func (s *CompanyService) ListCompanies(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Company], error) {
	params.Limit, params.Offset = normalizePaging(params.Limit, params.Offset)
	return s.companyRepo.ListCompanies(ctx, params)
}

func (s *CompanyService) UpdateCompany(ctx context.Context, companyID string, in CompanyInput) (*domain.Company, error) {
	existing, err := s.companyRepo.GetCompanyByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	updated, err := domain.NewCompany(in.CompanyName, in.ContactName, in.ContactPhone, in.Address, existing.CreatedAt)
	if err != nil {
		return nil, err
	}
	updated.SetMeta(existing.ID, existing.Version)

	company, err := s.companyRepo.UpdateCompany(ctx, updated)
	if err != nil {
		s.logger.Error("Failed to update company", map[string]interface{}{
			"error":      err.Error(),
			"company_id": companyID,
		})
		return nil, err
	}

	cacheInvalidate(ctx, s.cache, s.logger, companyCacheKey(companyID))
	return company, nil
}

// DeleteCompany refuses companies that riders still reference.
func (s *CompanyService) DeleteCompany(ctx context.Context, companyID string) error {
	if _, err := s.companyRepo.GetCompanyByID(ctx, companyID); err != nil {
		return err
	}
	riders, err := s.userRepo.CountUsersByCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if riders > 0 {
		return domain.ErrCompanyInUse
	}

	if err := s.companyRepo.DeleteCompany(ctx, companyID); err != nil {
		s.logger.Error("Failed to delete company", map[string]interface{}{
			"error":      err.Error(),
			"company_id": companyID,
		})
		return err
	}

	cacheInvalidate(ctx, s.cache, s.logger, companyCacheKey(companyID))

	s.logger.Info("Company deleted successfully", map[string]interface{}{
		"company_id": companyID,
	})
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
