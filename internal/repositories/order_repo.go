package repositories

import (
	"context"
	"errors"
	"fmt"

	"tripdesk/internal/common"
	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	UpdateWithPaymentAmount(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	GenerateOrderNumber(ctx context.Context, orgID uuid.UUID, year int) (string, error)
}

type orderRepo struct {
	db DBTX
}

func NewOrderRepo(db DBTX) OrderRepository {
	return &orderRepo{db: db}
}

const orderColumns = `id, org_id, order_number, customer_id, package_id, status, travel_date, travelers, total_amount, notes, confirmed_at, created_by, created_at, updated_at`

func scanOrder(row pgx.Row, o *models.Order) error {
	return row.Scan(&o.ID, &o.OrgID, &o.OrderNumber, &o.CustomerID, &o.PackageID, &o.Status, &o.TravelDate, &o.Travelers, &o.TotalAmount, &o.Notes, &o.ConfirmedAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, org_id, order_number, customer_id, package_id, status, travel_date, travelers, total_amount, notes, confirmed_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, order.ID, order.OrgID, order.OrderNumber, order.CustomerID, order.PackageID, order.Status, order.TravelDate, order.Travelers, order.TotalAmount, order.Notes, order.ConfirmedAt, order.CreatedBy).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	return mapError(err)
}

func (r *orderRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE org_id = $1 AND id = $2`
	if err := scanOrder(r.db.QueryRow(ctx, query, orgID, id), order); err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

func (r *orderRepo) List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE org_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, orgID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := scanOrder(rows, order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *orderRepo) Update(ctx context.Context, order *models.Order) error {
	return r.updateOrder(ctx, r.db, order)
}

func (r *orderRepo) updateOrder(ctx context.Context, db DBTX, order *models.Order) error {
	query := `
		UPDATE orders
		SET customer_id = $1, package_id = $2, status = $3, travel_date = $4, travelers = $5, total_amount = $6, notes = $7, confirmed_at = $8, updated_at = NOW()
		WHERE org_id = $9 AND id = $10
	`
	return expectOne(db.Exec(ctx, query, order.CustomerID, order.PackageID, order.Status, order.TravelDate, order.Travelers, order.TotalAmount, order.Notes, order.ConfirmedAt, order.OrgID, order.ID))
}

// UpdateWithPaymentAmount writes the order and carries its total to the
// order's payment in one transaction. A payment that already has installments
// is left alone and ErrInstallmentsExist is returned; an order without a
// payment is simply updated.
func (r *orderRepo) UpdateWithPaymentAmount(ctx context.Context, order *models.Order) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			paymentID    uuid.UUID
			installments int
		)
		lock := `SELECT id FROM payments WHERE org_id = $1 AND order_id = $2 FOR UPDATE`
		err := tx.QueryRow(ctx, lock, order.OrgID, order.ID).Scan(&paymentID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return r.updateOrder(ctx, tx, order)
		case err != nil:
			return mapError(err)
		}

		count := `SELECT COUNT(*) FROM installments WHERE payment_id = $1`
		if err := tx.QueryRow(ctx, count, paymentID).Scan(&installments); err != nil {
			return mapError(err)
		}
		if installments > 0 {
			return common.ErrInstallmentsExist
		}

		if err := r.updateOrder(ctx, tx, order); err != nil {
			return err
		}
		update := `UPDATE payments SET amount = $1, version = version + 1, updated_at = NOW() WHERE id = $2`
		return expectOne(tx.Exec(ctx, update, order.TotalAmount, paymentID))
	})
}

// Delete removes the order; the payment and installments go with it through ON DELETE CASCADE.
func (r *orderRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	query := `DELETE FROM orders WHERE org_id = $1 AND id = $2`
	return expectOne(r.db.Exec(ctx, query, orgID, id))
}

// GenerateOrderNumber allocates the next number of the organization's yearly sequence.
func (r *orderRepo) GenerateOrderNumber(ctx context.Context, orgID uuid.UUID, year int) (string, error) {
	query := `
		INSERT INTO order_sequences (org_id, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (org_id, year)
		DO UPDATE SET last_number = order_sequences.last_number + 1
		RETURNING last_number
	`
	var next int
	if err := r.db.QueryRow(ctx, query, orgID, year).Scan(&next); err != nil {
		return "", fmt.Errorf("allocate order number: %w", err)
	}
	return fmt.Sprintf("ORD-%d-%05d", year, next), nil
}
