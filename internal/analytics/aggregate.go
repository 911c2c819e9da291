package analytics

import (
	"time"

	"tripdesk/internal/models"

	"github.com/shopspring/decimal"
)

// Facts are the rows the repository returned for one window.
type Facts struct {
	Orders    []models.OrderFact
	Converted []models.OrderFact
	Paid      []models.InstallmentFact
	Open      []models.InstallmentFact
}

// Summary is the dashboard payload.
type Summary struct {
	Filter           string                     `json:"filter"`
	From             *models.Date               `json:"from"`
	To               *models.Date               `json:"to"`
	OrderCount       int                        `json:"order_count"`
	OrdersByStatus   map[models.OrderStatus]int `json:"orders_by_status"`
	Revenue          decimal.Decimal            `json:"revenue"`
	ConfirmedRevenue decimal.Decimal            `json:"confirmed_revenue"`
	Received         decimal.Decimal            `json:"received"`
	Overdue          decimal.Decimal            `json:"overdue"`
	OverdueCount     int                        `json:"overdue_count"`
	PendingBalance   decimal.Decimal            `json:"pending_balance"`
	ConversionRate   decimal.Decimal            `json:"conversion_rate"`
	GeneratedAt      time.Time                  `json:"generated_at"`
}

var hundred = decimal.NewFromInt(100)

// Aggregate folds the facts into a Summary. Every predicate is re-applied here,
// comparing date-only fields as plain dates, so over-fetched rows are ignored.
func Aggregate(window Range, today models.Date, loc *time.Location, facts Facts) *Summary {
	from, to := window.Days()
	s := &Summary{
		Filter:           window.Filter,
		From:             from,
		To:               to,
		OrdersByStatus:   map[models.OrderStatus]int{},
		Revenue:          decimal.Zero,
		ConfirmedRevenue: decimal.Zero,
		Received:         decimal.Zero,
		Overdue:          decimal.Zero,
		PendingBalance:   decimal.Zero,
		ConversionRate:   decimal.Zero,
	}

	converted := 0
	for _, o := range facts.Orders {
		if !window.ContainsTime(o.CreatedAt, loc) {
			continue
		}
		s.OrderCount++
		s.OrdersByStatus[o.Status]++
		s.Revenue = s.Revenue.Add(o.TotalAmount)
		if o.Status.Converted() {
			converted++
		}
	}
	if s.OrderCount > 0 {
		s.ConversionRate = decimal.NewFromInt(int64(converted)).
			Div(decimal.NewFromInt(int64(s.OrderCount))).
			Mul(hundred).
			Round(2)
	}

	for _, o := range facts.Converted {
		if !o.Status.Converted() {
			continue
		}
		at := o.CreatedAt
		if o.ConfirmedAt != nil {
			at = *o.ConfirmedAt
		}
		if window.ContainsTime(at, loc) {
			s.ConfirmedRevenue = s.ConfirmedRevenue.Add(o.TotalAmount)
		}
	}

	for _, i := range facts.Paid {
		if i.Status != models.InstallmentStatusPaid || i.PaymentDate == nil {
			continue
		}
		if window.SingleDay() && !i.PaymentDate.Equal(window.From) {
			continue
		}
		if window.Contains(*i.PaymentDate) {
			s.Received = s.Received.Add(i.Amount)
		}
	}

	for _, i := range facts.Open {
		if i.Status == models.InstallmentStatusPaid || !window.Contains(i.DueDate) {
			continue
		}
		s.PendingBalance = s.PendingBalance.Add(i.Amount)
		if IsOverdue(i, today) {
			s.Overdue = s.Overdue.Add(i.Amount)
			s.OverdueCount++
		}
	}

	return s
}

// IsOverdue is true for overdue installments and for pending ones already past due.
func IsOverdue(i models.InstallmentFact, today models.Date) bool {
	switch i.Status {
	case models.InstallmentStatusOverdue:
		return true
	case models.InstallmentStatusPending:
		return i.DueDate.Before(today)
	default:
		return false
	}
}
