package ports

import (
	"context"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, params domain.ListParams) (*domain.Page[domain.User], error)
	ListAllUsers(ctx context.Context) ([]*domain.User, error)
	ListUsersWithDues(ctx context.Context, limit, offset int) (*domain.Page[domain.User], error)
	CountUsersByCompany(ctx context.Context, companyID string) (int, error)
	UpdateProfile(ctx context.Context, id string, profile domain.UserProfile, expectedVersion int64) (*domain.User, error)
	SetAssignment(ctx context.Context, id string, a domain.Assignment, expectedVersion int64) (*domain.User, error)
	SetBlocked(ctx context.Context, id string, blocked bool, expectedVersion int64) (*domain.User, error)
	SetCall(ctx context.Context, id string, status domain.CallStatus, note string, expectedVersion int64) (*domain.User, error)
	SetPendingAmount(ctx context.Context, id string, amount int64, expectedVersion int64) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type CompanyRepository interface {
	CreateCompany(ctx context.Context, company *domain.Company) (*domain.Company, error)
	GetCompanyByID(ctx context.Context, id string) (*domain.Company, error)
	ListCompanies(ctx context.Context, params domain.ListParams) (*domain.Page[domain.Company], error)
	UpdateCompany(ctx context.Context, company *domain.Company) (*domain.Company, error)
	DeleteCompany(ctx context.Context, id string) error
}
