package repositories

import (
	"context"

	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrganizationRepository interface {
	CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	UpdateLogo(ctx context.Context, id uuid.UUID, logoURL string) error
}

type organizationRepo struct {
	db DBTX
}

func NewOrganizationRepo(db DBTX) OrganizationRepository {
	return &organizationRepo{db: db}
}

const organizationColumns = `id, name, contact_email, tax_id, primary_color, secondary_color, tertiary_color, user_limit, logo_url, created_by, created_at, updated_at`

func scanOrganization(row pgx.Row, org *models.Organization) error {
	return row.Scan(&org.ID, &org.Name, &org.ContactEmail, &org.TaxID, &org.PrimaryColor, &org.SecondaryColor, &org.TertiaryColor, &org.UserLimit, &org.LogoURL, &org.CreatedBy, &org.CreatedAt, &org.UpdatedAt)
}

// CreateWithOwner inserts the organization and its owner membership atomically.
func (r *organizationRepo) CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.Member) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO organizations (id, name, contact_email, tax_id, primary_color, secondary_color, tertiary_color, user_limit, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query, org.ID, org.Name, org.ContactEmail, org.TaxID, org.PrimaryColor, org.SecondaryColor, org.TertiaryColor, org.UserLimit, org.CreatedBy).Scan(&org.CreatedAt, &org.UpdatedAt)
		if err != nil {
			return mapError(err)
		}

		memberQuery := `
			INSERT INTO organization_members (id, org_id, user_id, role, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		`
		_, err = tx.Exec(ctx, memberQuery, owner.ID, org.ID, owner.UserID, owner.Role)
		return mapError(err)
	})
}

func (r *organizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	org := &models.Organization{}
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	if err := scanOrganization(r.db.QueryRow(ctx, query, id), org); err != nil {
		return nil, mapError(err)
	}
	return org, nil
}

func (r *organizationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	query := `
		SELECT o.id, o.name, o.contact_email, o.tax_id, o.primary_color, o.secondary_color, o.tertiary_color, o.user_limit, o.logo_url, o.created_by, o.created_at, o.updated_at
		FROM organizations o
		JOIN organization_members m ON m.org_id = o.id
		WHERE m.user_id = $1 AND m.active
		ORDER BY o.name
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org := &models.Organization{}
		if err := scanOrganization(rows, org); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *organizationRepo) Update(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, contact_email = $2, tax_id = $3, primary_color = $4, secondary_color = $5, tertiary_color = $6, user_limit = $7, updated_at = NOW()
		WHERE id = $8
	`
	return expectOne(r.db.Exec(ctx, query, org.Name, org.ContactEmail, org.TaxID, org.PrimaryColor, org.SecondaryColor, org.TertiaryColor, org.UserLimit, org.ID))
}

func (r *organizationRepo) UpdateLogo(ctx context.Context, id uuid.UUID, logoURL string) error {
	query := `UPDATE organizations SET logo_url = $1, updated_at = NOW() WHERE id = $2`
	return expectOne(r.db.Exec(ctx, query, logoURL, id))
}
