package repositories

import (
	"context"
	"fmt"

	"tripdesk/internal/common"
	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ScheduleCommand applies one change to a locked payment schedule.
type ScheduleCommand func(schedule *models.PaymentSchedule) (*models.ScheduleChange, error)

// OverdueCandidate identifies a payment that has something past due.
type OverdueCandidate struct {
	OrgID     uuid.UUID
	PaymentID uuid.UUID
}

type PaymentRepository interface {
	Create(ctx context.Context, schedule *models.PaymentSchedule) error
	GetSchedule(ctx context.Context, orgID, id uuid.UUID) (*models.PaymentSchedule, error)
	GetScheduleByOrder(ctx context.Context, orgID, orderID uuid.UUID) (*models.PaymentSchedule, error)
	List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Payment, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	GetInstallment(ctx context.Context, orgID, id uuid.UUID) (*models.Installment, error)
	Mutate(ctx context.Context, orgID, id uuid.UUID, expectedVersion *int, cmd ScheduleCommand) (*models.PaymentSchedule, *models.ScheduleChange, error)
	ListOverdueCandidates(ctx context.Context, today models.Date) ([]OverdueCandidate, error)
}

type paymentRepo struct {
	db DBTX
}

func NewPaymentRepo(db DBTX) PaymentRepository {
	return &paymentRepo{db: db}
}

const paymentColumns = `id, org_id, order_id, amount, due_date, status, payment_method, version, created_at, updated_at`

const installmentColumns = `id, org_id, payment_id, sequence, total_installments, amount, due_date, payment_date, status, payment_method, notes, created_at, updated_at`

func scanPayment(row pgx.Row, p *models.Payment) error {
	return row.Scan(&p.ID, &p.OrgID, &p.OrderID, &p.Amount, &p.DueDate, &p.Status, &p.PaymentMethod, &p.Version, &p.CreatedAt, &p.UpdatedAt)
}

func scanInstallment(row pgx.Row, i *models.Installment) error {
	return row.Scan(&i.ID, &i.OrgID, &i.PaymentID, &i.Sequence, &i.TotalInstallments, &i.Amount, &i.DueDate, &i.PaymentDate, &i.Status, &i.PaymentMethod, &i.Notes, &i.CreatedAt, &i.UpdatedAt)
}

// Create inserts the payment and any installments already attached to the schedule.
func (r *paymentRepo) Create(ctx context.Context, schedule *models.PaymentSchedule) error {
	p := schedule.Payment
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO payments (id, org_id, order_id, amount, due_date, status, payment_method, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1, NOW(), NOW())
			RETURNING version, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query, p.ID, p.OrgID, p.OrderID, p.Amount, p.DueDate, p.Status, p.PaymentMethod).
			Scan(&p.Version, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return mapError(err)
		}
		for _, inst := range schedule.Installments {
			if err := insertInstallment(ctx, tx, inst); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *paymentRepo) GetSchedule(ctx context.Context, orgID, id uuid.UUID) (*models.PaymentSchedule, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE org_id = $1 AND id = $2`
	return r.loadSchedule(ctx, r.db, query, orgID, id)
}

func (r *paymentRepo) GetScheduleByOrder(ctx context.Context, orgID, orderID uuid.UUID) (*models.PaymentSchedule, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE org_id = $1 AND order_id = $2`
	return r.loadSchedule(ctx, r.db, query, orgID, orderID)
}

func (r *paymentRepo) loadSchedule(ctx context.Context, db DBTX, query string, args ...any) (*models.PaymentSchedule, error) {
	p := &models.Payment{}
	if err := scanPayment(db.QueryRow(ctx, query, args...), p); err != nil {
		return nil, mapError(err)
	}
	installments, err := listInstallments(ctx, db, p.ID)
	if err != nil {
		return nil, err
	}
	return &models.PaymentSchedule{Payment: p, Installments: installments}, nil
}

func listInstallments(ctx context.Context, db DBTX, paymentID uuid.UUID) ([]*models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE payment_id = $1 ORDER BY sequence`
	rows, err := db.Query(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	installments := []*models.Installment{}
	for rows.Next() {
		inst := &models.Installment{}
		if err := scanInstallment(rows, inst); err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}

func (r *paymentRepo) List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE org_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY due_date, created_at
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, orgID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := scanPayment(rows, p); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *paymentRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	query := `DELETE FROM payments WHERE org_id = $1 AND id = $2`
	return expectOne(r.db.Exec(ctx, query, orgID, id))
}

func (r *paymentRepo) GetInstallment(ctx context.Context, orgID, id uuid.UUID) (*models.Installment, error) {
	inst := &models.Installment{}
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE org_id = $1 AND id = $2`
	if err := scanInstallment(r.db.QueryRow(ctx, query, orgID, id), inst); err != nil {
		return nil, mapError(err)
	}
	return inst, nil
}

// Mutate locks the payment row, checks the optimistic version, runs cmd over
// the authoritative schedule and persists the result, all in one transaction.
// Concurrent commands on the same payment serialize on the row lock; a caller
// holding a stale version gets ErrVersionConflict instead of overwriting.
func (r *paymentRepo) Mutate(ctx context.Context, orgID, id uuid.UUID, expectedVersion *int, cmd ScheduleCommand) (*models.PaymentSchedule, *models.ScheduleChange, error) {
	var (
		schedule *models.PaymentSchedule
		change   *models.ScheduleChange
	)
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		query := `SELECT ` + paymentColumns + ` FROM payments WHERE org_id = $1 AND id = $2 FOR UPDATE`
		schedule, err = r.loadSchedule(ctx, tx, query, orgID, id)
		if err != nil {
			return err
		}
		if expectedVersion != nil && *expectedVersion != schedule.Payment.Version {
			return fmt.Errorf("%w: expected version %d, current is %d", common.ErrVersionConflict, *expectedVersion, schedule.Payment.Version)
		}

		change, err = cmd(schedule)
		if err != nil {
			return err
		}

		for _, inst := range change.Created {
			if err := insertInstallment(ctx, tx, inst); err != nil {
				return err
			}
		}
		for _, inst := range change.Updated {
			if err := updateInstallment(ctx, tx, inst); err != nil {
				return err
			}
		}

		p := schedule.Payment
		update := `
			UPDATE payments
			SET amount = $1, due_date = $2, status = $3, payment_method = $4, version = version + 1, updated_at = NOW()
			WHERE id = $5
			RETURNING version, updated_at
		`
		return tx.QueryRow(ctx, update, p.Amount, p.DueDate, p.Status, p.PaymentMethod, p.ID).Scan(&p.Version, &p.UpdatedAt)
	})
	if err != nil {
		return nil, nil, err
	}
	return schedule, change, nil
}

func insertInstallment(ctx context.Context, tx DBTX, inst *models.Installment) error {
	query := `
		INSERT INTO installments (id, org_id, payment_id, sequence, total_installments, amount, due_date, payment_date, status, payment_method, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := tx.QueryRow(ctx, query, inst.ID, inst.OrgID, inst.PaymentID, inst.Sequence, inst.TotalInstallments, inst.Amount, inst.DueDate, inst.PaymentDate, inst.Status, inst.PaymentMethod, inst.Notes).
		Scan(&inst.CreatedAt, &inst.UpdatedAt)
	return mapError(err)
}

func updateInstallment(ctx context.Context, tx DBTX, inst *models.Installment) error {
	query := `
		UPDATE installments
		SET amount = $1, due_date = $2, payment_date = $3, status = $4, payment_method = $5, notes = $6, updated_at = NOW()
		WHERE id = $7 AND payment_id = $8
	`
	return expectOne(tx.Exec(ctx, query, inst.Amount, inst.DueDate, inst.PaymentDate, inst.Status, inst.PaymentMethod, inst.Notes, inst.ID, inst.PaymentID))
}

// ListOverdueCandidates finds payments with pending installments, or pending
// payments without installments, that fell due before today.
func (r *paymentRepo) ListOverdueCandidates(ctx context.Context, today models.Date) ([]OverdueCandidate, error) {
	query := `
		SELECT DISTINCT org_id, payment_id
		FROM installments
		WHERE status = 'pending' AND due_date < $1
		UNION
		SELECT p.org_id, p.id
		FROM payments p
		WHERE p.status = 'pending' AND p.due_date < $1
		  AND NOT EXISTS (SELECT 1 FROM installments i WHERE i.payment_id = p.id)
	`
	rows, err := r.db.Query(ctx, query, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverdueCandidate
	for rows.Next() {
		var c OverdueCandidate
		if err := rows.Scan(&c.OrgID, &c.PaymentID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
