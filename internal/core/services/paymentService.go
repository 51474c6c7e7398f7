package services

import (
	"context"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

// PaymentService keeps the append-only payment ledger and the user's pendingAmount in step.
type PaymentService struct {
	payments   ports.PaymentRepository
	users      ports.UserRepository
	logger     ports.LoggerPort
	cache      ports.CachePort
	rentPerDay int64
	now        func() time.Time
}

func NewPaymentService(
	payments ports.PaymentRepository,
	users ports.UserRepository,
	logger ports.LoggerPort,
	cache ports.CachePort,
	rentPerDay int64,
) *PaymentService {
	return &PaymentService{
		payments:   payments,
		users:      users,
		logger:     logger,
		cache:      cache,
		rentPerDay: rentPerDay,
		now:        time.Now,
	}
}

var _ ports.DuesProjector = (*PaymentService)(nil)

type PaymentInput struct {
	Amount int64
	Type   domain.PaymentType
	Method domain.PaymentMethod
	Note   string
}

func (s *PaymentService) RecordPayment(ctx context.Context, userID string, in PaymentInput) (*domain.PaymentRecord, *domain.PaymentSummary, error) {
	if in.Method == domain.MethodAdjustment {
		return nil, nil, &domain.ValidationError{Field: "method", Reason: "adjustments are made through payment edits"}
	}
	record, err := domain.NewPaymentRecord(userID, in.Amount, in.Type, in.Method, in.Note, s.now())
	if err != nil {
		s.logger.Error("Payment validation failed", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, nil, err
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, nil, err
	}

	created, err := s.payments.CreatePayment(ctx, record)
	if err != nil {
		s.logger.Error("Failed to record payment", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, nil, err
	}

	summary, err := s.syncPending(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Payment recorded", map[string]interface{}{
		"user_id":    userID,
		"payment_id": created.ID,
		"type":       created.Type,
		"amount":     created.Amount,
	})
	return created, summary, nil
}

// Aggregate folds every record of the user. It never writes.
func (s *PaymentService) Aggregate(ctx context.Context, userID string) (*domain.PaymentSummary, error) {
	records, err := s.payments.ListPaymentsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list payments", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}
	summary := domain.AggregatePayments(records)
	return &summary, nil
}

// EditPayments moves the user's totals to the given targets by appending signed
// adjustment records. Repeating the same edit appends nothing.
func (s *PaymentService) EditPayments(ctx context.Context, userID string, target domain.PaymentSummary, note string) (*domain.PaymentSummary, []*domain.PaymentRecord, error) {
	if target.DepositAmount < 0 || target.PaidAmount < 0 || target.PendingAmount < 0 {
		return nil, nil, &domain.ValidationError{Field: "amount", Reason: "targets must not be negative"}
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, nil, err
	}

	current, err := s.Aggregate(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var appended []*domain.PaymentRecord
	for _, adj := range domain.Adjustments(userID, *current, target, note, s.now()) {
		created, err := s.payments.CreatePayment(ctx, adj)
		if err != nil {
			s.logger.Error("Failed to append payment adjustment", map[string]interface{}{
				"error":   err.Error(),
				"user_id": userID,
				"type":    adj.Type,
				"amount":  adj.Amount,
			})
			return nil, appended, err
		}
		appended = append(appended, created)
	}

	summary, err := s.syncPending(ctx, userID)
	if err != nil {
		return nil, appended, err
	}

	s.logger.Info("Payments edited", map[string]interface{}{
		"user_id":     userID,
		"adjustments": len(appended),
	})
	return summary, appended, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, userID string) ([]*domain.PaymentRecord, error) {
	return s.payments.ListPaymentsByUser(ctx, userID)
}

func (s *PaymentService) ProjectDues(ctx context.Context, user *domain.User) (*domain.Dues, error) {
	records, err := s.payments.ListPaymentsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return domain.ProjectDues(user, domain.LastPaidAt(records), s.rentPerDay, s.now()), nil
}

func (s *PaymentService) DuesForUser(ctx context.Context, userID string) (*domain.Dues, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ProjectDues(ctx, user)
}

// syncPending writes the ledger's pending total onto the user document.
func (s *PaymentService) syncPending(ctx context.Context, userID string) (*domain.PaymentSummary, error) {
	summary, err := s.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending := summary.PendingAmount
	if pending < 0 {
		pending = 0
	}
	if _, err := s.users.SetPendingAmount(ctx, userID, pending, ports.AnyVersion); err != nil {
		s.logger.Error("Failed to update pending amount", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}
	cacheInvalidate(ctx, s.cache, s.logger, userCacheKey(userID))
	return summary, nil
}
