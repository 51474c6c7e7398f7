package domain

import (
	"strings"
	"time"
)

// swagger:model domain.Battery
type Battery struct {
	ID         string     `json:"id"`
	Version    int64      `json:"version"`
	BatRegNum  string     `json:"batRegNum" validate:"required,max=32"`
	BatStatus  bool       `json:"batStatus"`
	CurrOwner  *string    `json:"currOwner"`
	AssignedAt *time.Time `json:"assignedAt"`
	ReturnedAt *time.Time `json:"returnedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func NewBattery(regNum string, now time.Time) (*Battery, error) {
	battery := &Battery{
		BatRegNum: strings.ToUpper(strings.TrimSpace(regNum)),
		CreatedAt: now,
	}
	if err := validateStruct(battery); err != nil {
		return nil, err
	}
	return battery, nil
}

func (b *Battery) SetMeta(id string, version int64) {
	b.ID = id
	b.Version = version
}

func (b *Battery) Holding() Holding {
	return Holding{Assigned: b.BatStatus, Owner: b.CurrOwner, AssignedAt: b.AssignedAt, ReturnedAt: b.ReturnedAt}
}
