package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderFact is the slice of an order the dashboard aggregates over.
type OrderFact struct {
	ID          uuid.UUID
	Status      OrderStatus
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	ConfirmedAt *time.Time
}

// InstallmentFact is the slice of an installment the dashboard aggregates over.
type InstallmentFact struct {
	ID          uuid.UUID
	Amount      decimal.Decimal
	Status      InstallmentStatus
	DueDate     Date
	PaymentDate *Date
}
