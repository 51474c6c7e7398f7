package repository

import (
	"context"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

// PaymentRepository only appends. There is no update or delete on purpose.
type PaymentRepository struct {
	store ports.DocumentStore
}

func NewPaymentRepository(store ports.DocumentStore) *PaymentRepository {
	return &PaymentRepository{store: store}
}

var _ ports.PaymentRepository = (*PaymentRepository)(nil)

func (r *PaymentRepository) CreatePayment(ctx context.Context, record *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	return createOne(ctx, r.store, ports.CollectionPayments, record.ID, record, nil)
}

func (r *PaymentRepository) ListPaymentsByUser(ctx context.Context, userID string) ([]*domain.PaymentRecord, error) {
	return listAll[domain.PaymentRecord](ctx, r.store, ports.CollectionPayments, ports.Query{
		Filters: []ports.Filter{ports.Equal("userId", userID)},
	})
}
