package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func TestNewPaymentRecord(t *testing.T) {
	rec, err := NewPaymentRecord("u1", 500, PaymentRent, MethodUPI, "  week 1 ", testNow)
	require.NoError(t, err)
	assert.Equal(t, "week 1", rec.Note)

	_, err = NewPaymentRecord("u1", 0, PaymentRent, MethodCash, "", testNow)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)

	_, err = NewPaymentRecord("u1", -100, PaymentCollected, MethodAdjustment, "", testNow)
	assert.NoError(t, err)

	_, err = NewPaymentRecord("", 100, PaymentRent, MethodCash, "", testNow)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "userId", vErr.Field)

	_, err = NewPaymentRecord("u1", 100, "bonus", MethodCash, "", testNow)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "type", vErr.Field)
}

func TestAggregatePayments_IsAFold(t *testing.T) {
	records := []*PaymentRecord{
		{Type: PaymentDeposit, Amount: 2000},
		{Type: PaymentRent, Amount: 300},
		{Type: PaymentCollected, Amount: 200},
		{Type: PaymentPending, Amount: 700},
		{Type: PaymentPending, Amount: -200, Method: MethodAdjustment},
	}
	want := PaymentSummary{DepositAmount: 2000, PaidAmount: 500, PendingAmount: 500}
	assert.Equal(t, want, AggregatePayments(records))

	reversed := make([]*PaymentRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	assert.Equal(t, want, AggregatePayments(reversed))
	assert.Equal(t, PaymentSummary{}, AggregatePayments(nil))
}

func TestAdjustments(t *testing.T) {
	current := PaymentSummary{DepositAmount: 1000, PaidAmount: 400, PendingAmount: 800}
	target := PaymentSummary{DepositAmount: 1000, PaidAmount: 250, PendingAmount: 900}

	adj := Adjustments("u1", current, target, "fix", testNow)
	require.Len(t, adj, 2)
	assert.Equal(t, PaymentCollected, adj[0].Type)
	assert.Equal(t, int64(-150), adj[0].Amount)
	assert.Equal(t, PaymentPending, adj[1].Type)
	assert.Equal(t, int64(100), adj[1].Amount)

	records := []*PaymentRecord{
		{Type: PaymentDeposit, Amount: 1000},
		{Type: PaymentRent, Amount: 400},
		{Type: PaymentPending, Amount: 800},
	}
	records = append(records, adj...)
	assert.Equal(t, target, AggregatePayments(records))

	assert.Empty(t, Adjustments("u1", target, target, "", testNow))
}

func TestLastPaidAt(t *testing.T) {
	day := 24 * time.Hour
	records := []*PaymentRecord{
		{Type: PaymentRent, Method: MethodCash, Date: testNow},
		{Type: PaymentCollected, Method: MethodUPI, Date: testNow.Add(2 * day)},
		{Type: PaymentCollected, Method: MethodAdjustment, Date: testNow.Add(5 * day)},
		{Type: PaymentDeposit, Method: MethodCash, Date: testNow.Add(6 * day)},
	}
	last := LastPaidAt(records)
	require.NotNil(t, last)
	assert.True(t, last.Equal(testNow.Add(2*day)))

	assert.Nil(t, LastPaidAt(nil))
}

func TestProjectDues(t *testing.T) {
	day := 24 * time.Hour
	assignedAt := testNow
	renting := &User{ID: "u1", UserStatus: true, PendingAmount: 150, AssignedAt: &assignedAt}

	cases := []struct {
		name     string
		user     *User
		lastPaid *time.Time
		now      time.Time
		days     int64
		total    int64
	}{
		{"same day", renting, nil, testNow.Add(3 * time.Hour), 0, 150},
		{"four and a half days", renting, nil, testNow.Add(4*day + 12*time.Hour), 4, 150 + 4*120},
		{"payment after assignment", renting, ptrTime(testNow.Add(3 * day)), testNow.Add(5 * day), 2, 150 + 2*120},
		{"payment before assignment", renting, ptrTime(testNow.Add(-10 * day)), testNow.Add(2 * day), 2, 150 + 2*120},
		{"not renting", &User{ID: "u2", PendingAmount: 80}, nil, testNow.Add(9 * day), 0, 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := ProjectDues(tc.user, tc.lastPaid, 120, tc.now)
			assert.Equal(t, tc.days, d.RentDays)
			assert.Equal(t, tc.days*120, d.ProRatedRent)
			assert.Equal(t, tc.total, d.Total)
			assert.Equal(t, tc.user.PendingAmount, d.PendingAmount)
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
