package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Package is a sellable travel package.
type Package struct {
	ID           uuid.UUID       `json:"id"`
	OrgID        uuid.UUID       `json:"org_id"`
	Name         string          `json:"name"`
	Destination  *string         `json:"destination,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	DurationDays *int            `json:"duration_days,omitempty"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
