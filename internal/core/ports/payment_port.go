package ports

import (
	"context"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, record *domain.PaymentRecord) (*domain.PaymentRecord, error)
	ListPaymentsByUser(ctx context.Context, userID string) ([]*domain.PaymentRecord, error)
}

// DuesProjector computes what a rider owes without writing anything.
type DuesProjector interface {
	ProjectDues(ctx context.Context, user *domain.User) (*domain.Dues, error)
}
