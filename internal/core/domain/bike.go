package domain

import (
	"strings"
	"time"
)

// swagger:model domain.Bike
type Bike struct {
	ID         string     `json:"id"`
	Version    int64      `json:"version"`
	BikeRegNum string     `json:"bikeRegNum" validate:"required,max=32"`
	BikeModel  string     `json:"bikeModel" validate:"max=100"`
	BikeStatus bool       `json:"bikeStatus"`
	CurrOwner  *string    `json:"currOwner"`
	AssignedAt *time.Time `json:"assignedAt"`
	ReturnedAt *time.Time `json:"returnedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func NewBike(regNum, model string, now time.Time) (*Bike, error) {
	bike := &Bike{
		BikeRegNum: strings.ToUpper(strings.TrimSpace(regNum)),
		BikeModel:  strings.TrimSpace(model),
		CreatedAt:  now,
	}
	if err := validateStruct(bike); err != nil {
		return nil, err
	}
	return bike, nil
}

func (b *Bike) SetMeta(id string, version int64) {
	b.ID = id
	b.Version = version
}

func (b *Bike) Holding() Holding {
	return Holding{Assigned: b.BikeStatus, Owner: b.CurrOwner, AssignedAt: b.AssignedAt, ReturnedAt: b.ReturnedAt}
}
