package domain

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	Admin UserRole = "admin"
	Staff UserRole = "staff"
)

// TokenPayload identifies the console operator behind a request.
type TokenPayload struct {
	ID      uuid.UUID
	StaffID string
	Role    UserRole
}
