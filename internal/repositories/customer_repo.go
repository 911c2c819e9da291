package repositories

import (
	"context"

	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type customerRepo struct {
	db DBTX
}

func NewCustomerRepo(db DBTX) CustomerRepository {
	return &customerRepo{db: db}
}

const customerColumns = `id, org_id, name, email, phone, document, notes, created_at, updated_at`

func scanCustomer(row pgx.Row, c *models.Customer) error {
	return row.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.Document, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
}

func (r *customerRepo) Create(ctx context.Context, customer *models.Customer) error {
	query := `
		INSERT INTO customers (id, org_id, name, email, phone, document, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, customer.ID, customer.OrgID, customer.Name, customer.Email, customer.Phone, customer.Document, customer.Notes).
		Scan(&customer.CreatedAt, &customer.UpdatedAt)
	return mapError(err)
}

func (r *customerRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE org_id = $1 AND id = $2`
	if err := scanCustomer(r.db.QueryRow(ctx, query, orgID, id), customer); err != nil {
		return nil, mapError(err)
	}
	return customer, nil
}

func (r *customerRepo) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE org_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, orgID, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer := &models.Customer{}
		if err := scanCustomer(rows, customer); err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

func (r *customerRepo) Update(ctx context.Context, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, document = $4, notes = $5, updated_at = NOW()
		WHERE org_id = $6 AND id = $7
	`
	return expectOne(r.db.Exec(ctx, query, customer.Name, customer.Email, customer.Phone, customer.Document, customer.Notes, customer.OrgID, customer.ID))
}

func (r *customerRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	query := `DELETE FROM customers WHERE org_id = $1 AND id = $2`
	return expectOne(r.db.Exec(ctx, query, orgID, id))
}
