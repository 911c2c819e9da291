package repositories

import (
	"context"
	"time"

	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DashboardRepository fetches pre-filtered rows; aggregation happens in the caller.
// Nil bounds mean unbounded.
type DashboardRepository interface {
	OrdersCreatedBetween(ctx context.Context, orgID uuid.UUID, start, end *time.Time) ([]models.OrderFact, error)
	ConvertedOrdersBetween(ctx context.Context, orgID uuid.UUID, start, end *time.Time) ([]models.OrderFact, error)
	PaidInstallments(ctx context.Context, orgID uuid.UUID, from, to *models.Date) ([]models.InstallmentFact, error)
	OpenInstallments(ctx context.Context, orgID uuid.UUID, from, to *models.Date) ([]models.InstallmentFact, error)
}

type dashboardRepo struct {
	db DBTX
}

func NewDashboardRepo(db DBTX) DashboardRepository {
	return &dashboardRepo{db: db}
}

func (r *dashboardRepo) OrdersCreatedBetween(ctx context.Context, orgID uuid.UUID, start, end *time.Time) ([]models.OrderFact, error) {
	query := `
		SELECT id, status, total_amount, created_at, confirmed_at
		FROM orders
		WHERE org_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)
	`
	return r.orderFacts(ctx, query, orgID, start, end)
}

func (r *dashboardRepo) ConvertedOrdersBetween(ctx context.Context, orgID uuid.UUID, start, end *time.Time) ([]models.OrderFact, error) {
	query := `
		SELECT id, status, total_amount, created_at, confirmed_at
		FROM orders
		WHERE org_id = $1
		  AND status IN ('confirmed', 'completed')
		  AND ($2::timestamptz IS NULL OR COALESCE(confirmed_at, created_at) >= $2)
		  AND ($3::timestamptz IS NULL OR COALESCE(confirmed_at, created_at) < $3)
	`
	return r.orderFacts(ctx, query, orgID, start, end)
}

func (r *dashboardRepo) orderFacts(ctx context.Context, query string, args ...any) ([]models.OrderFact, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []models.OrderFact
	for rows.Next() {
		var f models.OrderFact
		if err := rows.Scan(&f.ID, &f.Status, &f.TotalAmount, &f.CreatedAt, &f.ConfirmedAt); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// PaidInstallments uses an equality filter when the window is a single day.
func (r *dashboardRepo) PaidInstallments(ctx context.Context, orgID uuid.UUID, from, to *models.Date) ([]models.InstallmentFact, error) {
	base := `
		SELECT id, amount, status, due_date, payment_date
		FROM installments
		WHERE org_id = $1 AND status = 'paid' AND payment_date IS NOT NULL
	`
	switch {
	case from == nil || to == nil:
		return r.installmentFacts(ctx, base, orgID)
	case from.Equal(*to):
		return r.installmentFacts(ctx, base+` AND payment_date = $2`, orgID, *from)
	default:
		return r.installmentFacts(ctx, base+` AND payment_date BETWEEN $2 AND $3`, orgID, *from, *to)
	}
}

// OpenInstallments returns unpaid installments, restricted by due date when bounds are given.
func (r *dashboardRepo) OpenInstallments(ctx context.Context, orgID uuid.UUID, from, to *models.Date) ([]models.InstallmentFact, error) {
	base := `
		SELECT id, amount, status, due_date, payment_date
		FROM installments
		WHERE org_id = $1 AND status <> 'paid'
	`
	if from == nil || to == nil {
		return r.installmentFacts(ctx, base, orgID)
	}
	return r.installmentFacts(ctx, base+` AND due_date BETWEEN $2 AND $3`, orgID, *from, *to)
}

func (r *dashboardRepo) installmentFacts(ctx context.Context, query string, args ...any) ([]models.InstallmentFact, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.InstallmentFact, error) {
		var f models.InstallmentFact
		err := row.Scan(&f.ID, &f.Amount, &f.Status, &f.DueDate, &f.PaymentDate)
		return f, err
	})
}
