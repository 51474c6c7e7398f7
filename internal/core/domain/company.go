package domain

import (
	"strings"
	"time"
)

// swagger:model domain.Company
type Company struct {
	ID           string    `json:"id"`
	Version      int64     `json:"version"`
	CompanyName  string    `json:"companyName" validate:"required,max=100"`
	ContactName  string    `json:"contactName" validate:"max=100"`
	ContactPhone string    `json:"contactPhone" validate:"max=20"`
	Address      string    `json:"address" validate:"max=300"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewCompany(name, contactName, contactPhone, address string, now time.Time) (*Company, error) {
	company := &Company{
		CompanyName:  strings.TrimSpace(name),
		ContactName:  strings.TrimSpace(contactName),
		ContactPhone: strings.TrimSpace(contactPhone),
		Address:      strings.TrimSpace(address),
		CreatedAt:    now,
	}
	if err := validateStruct(company); err != nil {
		return nil, err
	}
	return company, nil
}

func (c *Company) SetMeta(id string, version int64) {
	c.ID = id
	c.Version = version
}
