package domain

import (
	"strings"
	"time"
)

type PaymentType string

const (
	PaymentDeposit   PaymentType = "deposit"
	PaymentRent      PaymentType = "rent"
	PaymentCollected PaymentType = "collected"
	PaymentPending   PaymentType = "pending"
)

type PaymentMethod string

const (
	MethodCash       PaymentMethod = "cash"
	MethodUPI        PaymentMethod = "upi"
	MethodCard       PaymentMethod = "card"
	MethodAdjustment PaymentMethod = "adjustment"
)

// PaymentRecord is one append-only ledger entry. Amounts are whole rupees;
// only adjustment records may be negative.
type PaymentRecord struct {
	ID      string        `json:"id"`
	Version int64         `json:"version"`
	UserID  string        `json:"userId" validate:"required"`
	Amount  int64         `json:"amount"`
	Type    PaymentType   `json:"type" validate:"required,oneof=deposit rent collected pending"`
	Method  PaymentMethod `json:"method" validate:"required,oneof=cash upi card adjustment"`
	Note    string        `json:"note" validate:"max=300"`
	Date    time.Time     `json:"date"`
}

func NewPaymentRecord(userID string, amount int64, typ PaymentType, method PaymentMethod, note string, now time.Time) (*PaymentRecord, error) {
	record := &PaymentRecord{
		UserID: userID,
		Amount: amount,
		Type:   typ,
		Method: method,
		Note:   strings.TrimSpace(note),
		Date:   now,
	}
	if err := validateStruct(record); err != nil {
		return nil, err
	}
	if method == MethodAdjustment {
		if amount == 0 {
			return nil, &ValidationError{Field: "amount", Reason: "adjustment must be non-zero"}
		}
	} else if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return record, nil
}

func (p *PaymentRecord) SetMeta(id string, version int64) {
	p.ID = id
	p.Version = version
}

type PaymentSummary struct {
	DepositAmount int64 `json:"depositAmount"`
	PaidAmount    int64 `json:"paidAmount"`
	PendingAmount int64 `json:"pendingAmount"`
}

// AggregatePayments folds records into per-type totals. Order does not matter.
func AggregatePayments(records []*PaymentRecord) PaymentSummary {
	var sum PaymentSummary
	for _, r := range records {
		switch r.Type {
		case PaymentDeposit:
			sum.DepositAmount += r.Amount
		case PaymentRent, PaymentCollected:
			sum.PaidAmount += r.Amount
		case PaymentPending:
			sum.PendingAmount += r.Amount
		}
	}
	return sum
}

// Adjustments returns the signed records that move current to target.
// Paid corrections are booked as collected.
func Adjustments(userID string, current, target PaymentSummary, note string, now time.Time) []*PaymentRecord {
	deltas := []struct {
		typ   PaymentType
		delta int64
	}{
		{PaymentDeposit, target.DepositAmount - current.DepositAmount},
		{PaymentCollected, target.PaidAmount - current.PaidAmount},
		{PaymentPending, target.PendingAmount - current.PendingAmount},
	}

	var out []*PaymentRecord
	for _, d := range deltas {
		if d.delta == 0 {
			continue
		}
		out = append(out, &PaymentRecord{
			UserID: userID,
			Amount: d.delta,
			Type:   d.typ,
			Method: MethodAdjustment,
			Note:   note,
			Date:   now,
		})
	}
	return out
}

// LastPaidAt returns the date of the newest rent or collected record.
func LastPaidAt(records []*PaymentRecord) *time.Time {
	var last *time.Time
	for _, r := range records {
		if r.Type != PaymentRent && r.Type != PaymentCollected {
			continue
		}
		if r.Method == MethodAdjustment {
			continue
		}
		if last == nil || r.Date.After(*last) {
			d := r.Date
			last = &d
		}
	}
	return last
}

// Dues is a read-only projection of what a rider owes at return time.
type Dues struct {
	UserID        string     `json:"userId"`
	PendingAmount int64      `json:"pendingAmount"`
	RentPerDay    int64      `json:"rentPerDay"`
	RentDays      int64      `json:"rentDays"`
	ProRatedRent  int64      `json:"proRatedRent"`
	Total         int64      `json:"total"`
	Since         *time.Time `json:"since"`
	AsOf          time.Time  `json:"asOf"`
}

// ProjectDues computes pending plus rent for whole days elapsed since the later of
// the last payment and the assignment.
func ProjectDues(user *User, lastPaid *time.Time, rentPerDay int64, now time.Time) *Dues {
	d := &Dues{
		UserID:        user.ID,
		PendingAmount: user.PendingAmount,
		RentPerDay:    rentPerDay,
		AsOf:          now,
	}

	since := user.AssignedAt
	if lastPaid != nil && (since == nil || lastPaid.After(*since)) {
		since = lastPaid
	}
	if user.UserStatus && since != nil && now.After(*since) {
		d.Since = since
		d.RentDays = int64(now.Sub(*since) / (24 * time.Hour))
		d.ProRatedRent = d.RentDays * rentPerDay
	}
	d.Total = d.PendingAmount + d.ProRatedRent
	return d
}
