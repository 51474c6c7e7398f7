package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Store sentinels. Adapters return these, repositories wrap them in StoreError.
var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicate       = errors.New("document already exists")
	ErrVersionConflict = errors.New("document version conflict")
	ErrUnavailable     = errors.New("store unavailable")
)

var ErrLeaseHeld = errors.New("lease is held by another flow")

var ErrCacheMiss = errors.New("cache miss")

const (
	FlowAssign = "assign"
	FlowSwap   = "swap"
	FlowReturn = "return"
)

// ValidationError means a precondition failed before anything was written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

var (
	ErrSameBattery      = &ValidationError{Field: "newBatteryId", Reason: "new battery must differ from the old battery"}
	ErrUserBlocked      = &ValidationError{Field: "userId", Reason: "user is blocked"}
	ErrAlreadyAssigned  = &ValidationError{Field: "userId", Reason: "user already holds a bike or battery"}
	ErrNothingToReturn  = &ValidationError{Field: "userId", Reason: "user holds neither a bike nor a battery"}
	ErrResourceAssigned = &ValidationError{Field: "id", Reason: "resource is assigned to a user"}
	ErrCompanyInUse     = &ValidationError{Field: "id", Reason: "company still has riders"}
)

type StoreError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("store %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ConflictError reports a held lease, a lost conditional write or a stale caller view.
type ConflictError struct {
	Resource string
	ID       string
	Reason   string
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %s: %s", e.Resource, e.ID, e.Reason)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// FlowError is returned when a flow step failed and every compensation succeeded.
type FlowError struct {
	Flow string
	Step string
	Err  error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s flow failed at %s: %v", e.Flow, e.Step, e.Err)
}

func (e *FlowError) Unwrap() error { return e.Err }

// PartialFailure is returned when a step failed and at least one compensation failed too.
// State is inconsistent until the reconciliation record is resolved.
type PartialFailure struct {
	Flow             string
	Step             string
	Err              error
	CompensationErrs []error
	ReconciliationID string
}

func (e *PartialFailure) Error() string {
	msgs := make([]string, 0, len(e.CompensationErrs))
	for _, err := range e.CompensationErrs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s flow partially failed at %s: %v; compensation errors: [%s]; reconciliation %s",
		e.Flow, e.Step, e.Err, strings.Join(msgs, "; "), e.ReconciliationID)
}

func (e *PartialFailure) Unwrap() error { return e.Err }

// IsAssignmentFailed reports whether err is a rolled back assignment flow.
func IsAssignmentFailed(err error) bool {
	var flowErr *FlowError
	return errors.As(err, &flowErr) && flowErr.Flow == FlowAssign
}
