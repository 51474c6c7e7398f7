package repository

import (
	"context"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

type ReconciliationRepository struct {
	store ports.DocumentStore
	now   func() time.Time
}

func NewReconciliationRepository(store ports.DocumentStore) *ReconciliationRepository {
	return &ReconciliationRepository{store: store, now: time.Now}
}

var _ ports.ReconciliationRepository = (*ReconciliationRepository)(nil)

func (r *ReconciliationRepository) CreateReconciliation(ctx context.Context, rec *domain.Reconciliation) (*domain.Reconciliation, error) {
	return createOne(ctx, r.store, ports.CollectionReconciliations, rec.ID, rec, nil)
}

func (r *ReconciliationRepository) ListOpenReconciliations(ctx context.Context) ([]*domain.Reconciliation, error) {
	return listAll[domain.Reconciliation](ctx, r.store, ports.CollectionReconciliations, ports.Query{
		Filters: []ports.Filter{ports.Equal("resolved", false)},
	})
}

func (r *ReconciliationRepository) ResolveReconciliation(ctx context.Context, id string, expectedVersion int64) error {
	_, err := r.store.Update(ctx, ports.CollectionReconciliations, id, map[string]interface{}{
		"resolved":   true,
		"resolvedAt": r.now().UTC(),
	}, expectedVersion)
	return wrap("update", ports.CollectionReconciliations, id, err)
}
