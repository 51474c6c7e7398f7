package services

import (
	"context"
	"testing"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_RecordAndAggregate(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t)
	u := f.seedUser(t, "U1")

	_, summary, err := f.ledger.RecordPayment(ctx, u.ID, PaymentInput{Amount: 2000, Type: domain.PaymentDeposit, Method: domain.MethodCash})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), summary.DepositAmount)

	_, _, err = f.ledger.RecordPayment(ctx, u.ID, PaymentInput{Amount: 500, Type: domain.PaymentPending, Method: domain.MethodUPI})
	require.NoError(t, err)
	_, summary, err = f.ledger.RecordPayment(ctx, u.ID, PaymentInput{Amount: 300, Type: domain.PaymentRent, Method: domain.MethodUPI, Note: "week 1"})
	require.NoError(t, err)

	want := &domain.PaymentSummary{DepositAmount: 2000, PaidAmount: 300, PendingAmount: 500}
	assert.Equal(t, want, summary)
	assert.Equal(t, int64(500), f.user(t, u.ID).PendingAmount)

	for i := 0; i < 3; i++ {
		again, err := f.ledger.Aggregate(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, want, again)
	}

	records, err := f.ledger.ListPayments(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestPaymentService_RecordRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t)
	u := f.seedUser(t, "U1")

	cases := []struct {
		name string
		in   PaymentInput
	}{
		{"zero amount", PaymentInput{Amount: 0, Type: domain.PaymentRent, Method: domain.MethodCash}},
		{"negative amount", PaymentInput{Amount: -5, Type: domain.PaymentRent, Method: domain.MethodCash}},
		{"unknown type", PaymentInput{Amount: 5, Type: "refund", Method: domain.MethodCash}},
		{"adjustment method", PaymentInput{Amount: 5, Type: domain.PaymentRent, Method: domain.MethodAdjustment}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.ledger.RecordPayment(ctx, u.ID, tc.in)
			var vErr *domain.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}

	_, _, err := f.ledger.RecordPayment(ctx, "missing", PaymentInput{Amount: 5, Type: domain.PaymentRent, Method: domain.MethodCash})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	records, err := f.ledger.ListPayments(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPaymentService_EditAppendsAdjustmentsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t)
	u := f.seedUser(t, "U1")

	_, _, err := f.ledger.RecordPayment(ctx, u.ID, PaymentInput{Amount: 1000, Type: domain.PaymentDeposit, Method: domain.MethodCash})
	require.NoError(t, err)
	_, _, err = f.ledger.RecordPayment(ctx, u.ID, PaymentInput{Amount: 800, Type: domain.PaymentPending, Method: domain.MethodCash})
	require.NoError(t, err)

	target := domain.PaymentSummary{DepositAmount: 1500, PaidAmount: 200, PendingAmount: 300}
	summary, appended, err := f.ledger.EditPayments(ctx, u.ID, target, "corrected by staff")
	require.NoError(t, err)
	assert.Equal(t, target, *summary)
	require.Len(t, appended, 3)
	for _, rec := range appended {
		assert.Equal(t, domain.MethodAdjustment, rec.Method)
	}
	assert.Equal(t, int64(300), f.user(t, u.ID).PendingAmount)

	summary, appended, err = f.ledger.EditPayments(ctx, u.ID, target, "corrected by staff")
	require.NoError(t, err)
	assert.Equal(t, target, *summary)
	assert.Empty(t, appended)

	records, err := f.ledger.ListPayments(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	_, _, err = f.ledger.EditPayments(ctx, u.ID, domain.PaymentSummary{PendingAmount: -1}, "")
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestPaymentService_Dues(t *testing.T) {
	ctx := context.Background()
	f := newFleet(t)
	u, _, _ := f.assigned(t, "U1")

	_, _, err := f.ledger.RecordPayment(ctx, u.ID, PaymentInput{Amount: 250, Type: domain.PaymentPending, Method: domain.MethodCash})
	require.NoError(t, err)

	f.ledger.now = func() time.Time { return testNow.Add(3*24*time.Hour + 5*time.Hour) }
	dues, err := f.ledger.DuesForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dues.RentDays)
	assert.Equal(t, int64(300), dues.ProRatedRent)
	assert.Equal(t, int64(250), dues.PendingAmount)
	assert.Equal(t, int64(550), dues.Total)

	// a rent payment one day in moves the start of the unpaid period
	f.ledger.now = func() time.Time { return testNow.Add(24 * time.Hour) }
	_, _, err = f.ledger.RecordPayment(ctx, u.ID, PaymentInput{Amount: 100, Type: domain.PaymentRent, Method: domain.MethodUPI})
	require.NoError(t, err)

	f.ledger.now = func() time.Time { return testNow.Add(3*24*time.Hour + 5*time.Hour) }
	dues, err = f.ledger.DuesForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dues.RentDays)
	assert.Equal(t, int64(450), dues.Total)
}
