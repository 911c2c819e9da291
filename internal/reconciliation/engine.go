// Package reconciliation keeps installment amounts summing to their payment's
// amount and derives payment status from installment states. It does no I/O;
// callers load a schedule, apply one command and persist the returned change.
package reconciliation

import (
	"fmt"
	"sort"

	"tripdesk/internal/common"
	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinInstallments = 1
	MaxInstallments = 12
)

const (
	WarningAmountExceedsBalance = "the new amount exceeds the unpaid balance; the other open installments were set to zero"
	WarningTotalMismatch        = "no other open installments can absorb the difference; installments no longer sum to the payment amount"
)

// CreateEqualSplit generates count pending installments whose amounts sum to
// the payment amount. Due dates advance one calendar month per installment.
func CreateEqualSplit(s *models.PaymentSchedule, count int) (*models.ScheduleChange, error) {
	if len(s.Installments) > 0 {
		return nil, common.ErrInstallmentsExist
	}
	if count < MinInstallments || count > MaxInstallments {
		return nil, common.NewValidationError("installments", fmt.Sprintf("must be between %d and %d", MinInstallments, MaxInstallments))
	}

	p := s.Payment
	amounts := SplitCents(p.Amount, count)
	change := &models.ScheduleChange{}
	for i, amount := range amounts {
		inst := &models.Installment{
			ID:                uuid.New(),
			OrgID:             p.OrgID,
			PaymentID:         p.ID,
			Sequence:          i + 1,
			TotalInstallments: count,
			Amount:            amount,
			DueDate:           p.DueDate.AddMonths(i),
			Status:            models.InstallmentStatusPending,
		}
		if p.PaymentMethod != nil {
			m := *p.PaymentMethod
			inst.PaymentMethod = &m
		}
		s.Installments = append(s.Installments, inst)
		change.Created = append(change.Created, inst)
	}
	p.Status = models.PaymentStatusPending
	return change, nil
}

// EditAmount sets one open installment's amount and re-splits what is left of
// the unpaid balance evenly across the other open installments.
func EditAmount(s *models.PaymentSchedule, installmentID uuid.UUID, newAmount decimal.Decimal) (*models.ScheduleChange, error) {
	target, err := findOpen(s, installmentID)
	if err != nil {
		return nil, err
	}
	if newAmount.IsNegative() {
		return nil, common.NewValidationError("amount", "cannot be negative")
	}
	amount := newAmount.Round(2)
	change := &models.ScheduleChange{}

	paidSum := decimal.Zero
	var others []*models.Installment
	for _, inst := range sortedBySequence(s.Installments) {
		switch {
		case inst.IsPaid():
			paidSum = paidSum.Add(inst.Amount)
		case inst.ID != target.ID:
			others = append(others, inst)
		}
	}

	target.Amount = amount
	change.Updated = append(change.Updated, target)

	if len(others) == 0 {
		if !paidSum.Add(amount).Equal(s.Payment.Amount.Round(2)) {
			change.Warnings = append(change.Warnings, WarningTotalMismatch)
		}
		return change, nil
	}

	remaining := s.Payment.Amount.Sub(paidSum).Sub(amount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
		change.Warnings = append(change.Warnings, WarningAmountExceedsBalance)
	}

	for i, part := range SplitCents(remaining, len(others)) {
		others[i].Amount = part
		change.Updated = append(change.Updated, others[i])
	}
	return change, nil
}

// EditDueDate moves one open installment. Amounts are not touched; the
// installment's overdue flag and the payment status follow the new date.
func EditDueDate(s *models.PaymentSchedule, installmentID uuid.UUID, dueDate, today models.Date) (*models.ScheduleChange, error) {
	target, err := findOpen(s, installmentID)
	if err != nil {
		return nil, err
	}
	if dueDate.IsZero() {
		return nil, common.NewValidationError("due_date", "is required")
	}
	target.DueDate = dueDate
	if target.Status == models.InstallmentStatusPending || target.Status == models.InstallmentStatusOverdue {
		target.Status = models.InstallmentStatusPending
		if dueDate.Before(today) {
			target.Status = models.InstallmentStatusOverdue
		}
	}
	s.Payment.Status = DerivePaymentStatus(s.Installments, today)
	return &models.ScheduleChange{Updated: []*models.Installment{target}}, nil
}

// EditDetails replaces the payment method and notes of one open installment.
func EditDetails(s *models.PaymentSchedule, installmentID uuid.UUID, method, notes *string) (*models.ScheduleChange, error) {
	target, err := findOpen(s, installmentID)
	if err != nil {
		return nil, err
	}
	target.PaymentMethod = method
	target.Notes = notes
	return &models.ScheduleChange{Updated: []*models.Installment{target}}, nil
}

// LaunchPayment marks one installment paid. It is the only way into the paid state.
// The payment becomes paid once every installment is paid, partial otherwise.
func LaunchPayment(s *models.PaymentSchedule, installmentID uuid.UUID, paymentDate models.Date, method *string, defaultMethod string) (*models.ScheduleChange, error) {
	target, err := findOpen(s, installmentID)
	if err != nil {
		return nil, err
	}
	if paymentDate.IsZero() {
		return nil, common.NewValidationError("payment_date", "is required")
	}

	switch {
	case method != nil && *method != "":
		m := *method
		target.PaymentMethod = &m
	case target.PaymentMethod == nil || *target.PaymentMethod == "":
		m := defaultMethod
		target.PaymentMethod = &m
	}
	date := paymentDate
	target.PaymentDate = &date
	target.Status = models.InstallmentStatusPaid

	if allPaid(s.Installments) {
		s.Payment.Status = models.PaymentStatusPaid
	} else {
		s.Payment.Status = models.PaymentStatusPartial
	}
	return &models.ScheduleChange{Updated: []*models.Installment{target}}, nil
}

// MarkOverdue flags pending installments due before today, returns overdue
// ones that were rescheduled to pending, and refreshes the payment status.
func MarkOverdue(s *models.PaymentSchedule, today models.Date) *models.ScheduleChange {
	change := &models.ScheduleChange{}
	for _, inst := range s.Installments {
		switch {
		case inst.Status == models.InstallmentStatusPending && inst.DueDate.Before(today):
			inst.Status = models.InstallmentStatusOverdue
			change.Updated = append(change.Updated, inst)
		case inst.Status == models.InstallmentStatusOverdue && !inst.DueDate.Before(today):
			inst.Status = models.InstallmentStatusPending
			change.Updated = append(change.Updated, inst)
		}
	}
	if len(s.Installments) > 0 {
		s.Payment.Status = DerivePaymentStatus(s.Installments, today)
	} else if s.Payment.Status == models.PaymentStatusPending && s.Payment.DueDate.Before(today) {
		s.Payment.Status = models.PaymentStatusOverdue
	}
	return change
}

// DerivePaymentStatus: paid iff every installment is paid; partial when some
// are; overdue when an open installment is past due; pending otherwise.
func DerivePaymentStatus(installments []*models.Installment, today models.Date) models.PaymentStatus {
	if len(installments) == 0 {
		return models.PaymentStatusPending
	}
	paid, overdue := 0, false
	for _, inst := range installments {
		switch {
		case inst.IsPaid():
			paid++
		case inst.Status == models.InstallmentStatusOverdue, inst.DueDate.Before(today):
			overdue = true
		}
	}
	switch {
	case paid == len(installments):
		return models.PaymentStatusPaid
	case paid > 0:
		return models.PaymentStatusPartial
	case overdue:
		return models.PaymentStatusOverdue
	default:
		return models.PaymentStatusPending
	}
}

// Balanced reports whether the installments sum to the payment amount.
func Balanced(s *models.PaymentSchedule) bool {
	if len(s.Installments) == 0 {
		return true
	}
	amounts := make([]decimal.Decimal, len(s.Installments))
	for i, inst := range s.Installments {
		amounts[i] = inst.Amount
	}
	return Sum(amounts...).Equal(s.Payment.Amount.Round(2))
}

func findOpen(s *models.PaymentSchedule, id uuid.UUID) (*models.Installment, error) {
	for _, inst := range s.Installments {
		if inst.ID == id {
			if inst.IsPaid() {
				return nil, common.ErrInstallmentPaid
			}
			return inst, nil
		}
	}
	return nil, fmt.Errorf("installment %s: %w", id, common.ErrNotFound)
}

func allPaid(installments []*models.Installment) bool {
	for _, inst := range installments {
		if !inst.IsPaid() {
			return false
		}
	}
	return true
}

func sortedBySequence(installments []*models.Installment) []*models.Installment {
	out := make([]*models.Installment, len(installments))
	copy(out, installments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}
