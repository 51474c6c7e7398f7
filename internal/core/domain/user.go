package domain

import (
	"strings"
	"time"
)

type CallStatus string

const (
	CallNone    CallStatus = ""
	CallPending CallStatus = "pending"
	CallDone    CallStatus = "done"
)

// swagger:model domain.User
type User struct {
	ID             string     `json:"id"`
	Version        int64      `json:"version"`
	UserName       string     `json:"userName" validate:"required,max=100"`
	UserPhone      string     `json:"userPhone" validate:"omitempty,max=20"`
	CompanyID      *string    `json:"companyId"`
	BikeID         *string    `json:"bikeId"`
	BatteryID      *string    `json:"batteryId"`
	OldBatteryID   *string    `json:"oldBatteryId"`
	UserStatus     bool       `json:"userStatus"`
	TotalSwapCount int        `json:"totalSwapCount" validate:"min=0"`
	PendingAmount  int64      `json:"pendingAmount" validate:"min=0"`
	IsBlocked      bool       `json:"isBlocked"`
	CallStatus     CallStatus `json:"callStatus" validate:"omitempty,oneof=pending done"`
	CallNote       string     `json:"callNote" validate:"max=500"`
	AssignedAt     *time.Time `json:"assignedAt"`
	ReturnedAt     *time.Time `json:"returnedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func NewUser(name, phone string, companyID *string, now time.Time) (*User, error) {
	user := &User{
		UserName:  strings.TrimSpace(name),
		UserPhone: strings.TrimSpace(phone),
		CompanyID: companyID,
		CreatedAt: now,
	}
	if err := validateStruct(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *User) SetMeta(id string, version int64) {
	u.ID = id
	u.Version = version
}

// HoldsAnything reports whether the user has a bike or a battery.
func (u *User) HoldsAnything() bool {
	return u.BikeID != nil || u.BatteryID != nil
}

// Assignment is the flow-owned part of a user document.
type Assignment struct {
	UserStatus     bool
	BikeID         *string
	BatteryID      *string
	OldBatteryID   *string
	TotalSwapCount int
	AssignedAt     *time.Time
	ReturnedAt     *time.Time
}

func (u *User) Assignment() Assignment {
	return Assignment{
		UserStatus:     u.UserStatus,
		BikeID:         u.BikeID,
		BatteryID:      u.BatteryID,
		OldBatteryID:   u.OldBatteryID,
		TotalSwapCount: u.TotalSwapCount,
		AssignedAt:     u.AssignedAt,
		ReturnedAt:     u.ReturnedAt,
	}
}

// UserProfile holds the fields staff may edit outside the flows.
type UserProfile struct {
	UserName  string  `json:"userName" validate:"required,max=100"`
	UserPhone string  `json:"userPhone" validate:"omitempty,max=20"`
	CompanyID *string `json:"companyId"`
}

func (p *UserProfile) Validate() error {
	p.UserName = strings.TrimSpace(p.UserName)
	p.UserPhone = strings.TrimSpace(p.UserPhone)
	return validateStruct(p)
}

// ListParams narrows entity listings. Status filters on the assigned/renting flag.
type ListParams struct {
	Search string
	Status *bool
	Limit  int
	Offset int
}

type Page[T any] struct {
	Items []*T `json:"items"`
	Total int  `json:"total"`
}
