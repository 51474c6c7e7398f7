package repository

import (
	"context"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

type CompanyRepository struct {
	store ports.DocumentStore
}

func NewCompanyRepository(store ports.DocumentStore) *CompanyRepository {
	return &CompanyRepository{store: store}
}

var _ ports.CompanyRepository = (*CompanyRepository)(nil)

func (r *CompanyRepository) CreateCompany(ctx context.Context, company *domain.Company) (*domain.Company, error) {
	return createOne(ctx, r.store, ports.CollectionCompanies, company.ID, company, nil)
}

func (r *CompanyRepository) GetCompanyByID(ctx context.Context, id string) (*domain.Company, error) {
	return getOne[domain.Company](ctx, r.store, ports.CollectionCompanies, id)
}

func (r *CompanyRepository) ListCompanies(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Company], error) {
	q := ports.Query{Limit: params.Limit, Offset: params.Offset}
	if params.Search != "" {
		q.Filters = append(q.Filters, ports.Contains("companyName", params.Search))
	}
	return listPage[domain.Company](ctx, r.store, ports.CollectionCompanies, q)
}

func (r *CompanyRepository) UpdateCompany(ctx context.Context, company *domain.Company) (*domain.Company, error) {
	return patchOne[domain.Company](ctx, r.store, ports.CollectionCompanies, company.ID, map[string]interface{}{
		"companyName":  company.CompanyName,
		"contactName":  company.ContactName,
		"contactPhone": company.ContactPhone,
		"address":      company.Address,
	}, company.Version)
}

func (r *CompanyRepository) DeleteCompany(ctx context.Context, id string) error {
	return deleteOne(ctx, r.store, ports.CollectionCompanies, id)
}
