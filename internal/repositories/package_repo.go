package repositories

import (
	"context"

	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PackageRepository interface {
	Create(ctx context.Context, pkg *models.Package) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Package, error)
	List(ctx context.Context, orgID uuid.UUID, search string, activeOnly bool, limit, offset int) ([]*models.Package, error)
	Update(ctx context.Context, pkg *models.Package) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type packageRepo struct {
	db DBTX
}

func NewPackageRepo(db DBTX) PackageRepository {
	return &packageRepo{db: db}
}

const packageColumns = `id, org_id, name, destination, description, price, duration_days, active, created_at, updated_at`

func scanPackage(row pgx.Row, p *models.Package) error {
	return row.Scan(&p.ID, &p.OrgID, &p.Name, &p.Destination, &p.Description, &p.Price, &p.DurationDays, &p.Active, &p.CreatedAt, &p.UpdatedAt)
}

func (r *packageRepo) Create(ctx context.Context, pkg *models.Package) error {
	query := `
		INSERT INTO packages (id, org_id, name, destination, description, price, duration_days, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, pkg.ID, pkg.OrgID, pkg.Name, pkg.Destination, pkg.Description, pkg.Price, pkg.DurationDays, pkg.Active).
		Scan(&pkg.CreatedAt, &pkg.UpdatedAt)
	return mapError(err)
}

func (r *packageRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Package, error) {
	pkg := &models.Package{}
	query := `SELECT ` + packageColumns + ` FROM packages WHERE org_id = $1 AND id = $2`
	if err := scanPackage(r.db.QueryRow(ctx, query, orgID, id), pkg); err != nil {
		return nil, mapError(err)
	}
	return pkg, nil
}

func (r *packageRepo) List(ctx context.Context, orgID uuid.UUID, search string, activeOnly bool, limit, offset int) ([]*models.Package, error) {
	query := `
		SELECT ` + packageColumns + `
		FROM packages
		WHERE org_id = $1
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR destination ILIKE '%' || $2 || '%')
		  AND (NOT $3 OR active)
		ORDER BY name
		LIMIT $4 OFFSET $5
	`
	rows, err := r.db.Query(ctx, query, orgID, search, activeOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pkgs []*models.Package
	for rows.Next() {
		pkg := &models.Package{}
		if err := scanPackage(rows, pkg); err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, rows.Err()
}

func (r *packageRepo) Update(ctx context.Context, pkg *models.Package) error {
	query := `
		UPDATE packages
		SET name = $1, destination = $2, description = $3, price = $4, duration_days = $5, active = $6, updated_at = NOW()
		WHERE org_id = $7 AND id = $8
	`
	return expectOne(r.db.Exec(ctx, query, pkg.Name, pkg.Destination, pkg.Description, pkg.Price, pkg.DurationDays, pkg.Active, pkg.OrgID, pkg.ID))
}

func (r *packageRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	query := `DELETE FROM packages WHERE org_id = $1 AND id = $2`
	return expectOne(r.db.Exec(ctx, query, orgID, id))
}
