package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

// Payment is the receivable for one order. Version increases on every write.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	OrgID         uuid.UUID       `json:"org_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       Date            `json:"due_date"`
	Status        PaymentStatus   `json:"status"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
	InstallmentStatusPartial InstallmentStatus = "partial"
)

type Installment struct {
	ID                uuid.UUID         `json:"id"`
	OrgID             uuid.UUID         `json:"org_id"`
	PaymentID         uuid.UUID         `json:"payment_id"`
	Sequence          int               `json:"sequence"`
	TotalInstallments int               `json:"total_installments"`
	Amount            decimal.Decimal   `json:"amount"`
	DueDate           Date              `json:"due_date"`
	PaymentDate       *Date             `json:"payment_date,omitempty"`
	Status            InstallmentStatus `json:"status"`
	PaymentMethod     *string           `json:"payment_method,omitempty"`
	Notes             *string           `json:"notes,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// PaymentSchedule is a payment with its installments ordered by sequence.
type PaymentSchedule struct {
	Payment      *Payment       `json:"payment"`
	Installments []*Installment `json:"installments"`
}

// ScheduleChange lists the installments a command created or modified.
type ScheduleChange struct {
	Created  []*Installment `json:"-"`
	Updated  []*Installment `json:"-"`
	Warnings []string       `json:"warnings,omitempty"`
}
