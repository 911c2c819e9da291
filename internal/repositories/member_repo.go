package repositories

import (
	"context"

	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MemberRepository interface {
	GetByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Member, error)
	List(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error)
	UpdateRole(ctx context.Context, orgID, id uuid.UUID, role models.Role) error
	SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error
	CountActive(ctx context.Context, orgID uuid.UUID) (int, error)
}

type memberRepo struct {
	db DBTX
}

func NewMemberRepo(db DBTX) MemberRepository {
	return &memberRepo{db: db}
}

const memberSelect = `
	SELECT m.id, m.org_id, m.user_id, m.role, m.active, u.email, u.full_name, m.created_at, m.updated_at
	FROM organization_members m
	JOIN users u ON u.id = m.user_id
`

func scanMember(row pgx.Row, m *models.Member) error {
	return row.Scan(&m.ID, &m.OrgID, &m.UserID, &m.Role, &m.Active, &m.Email, &m.FullName, &m.CreatedAt, &m.UpdatedAt)
}

func (r *memberRepo) GetByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error) {
	m := &models.Member{}
	query := memberSelect + ` WHERE m.org_id = $1 AND m.user_id = $2`
	if err := scanMember(r.db.QueryRow(ctx, query, orgID, userID), m); err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *memberRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Member, error) {
	m := &models.Member{}
	query := memberSelect + ` WHERE m.org_id = $1 AND m.id = $2`
	if err := scanMember(r.db.QueryRow(ctx, query, orgID, id), m); err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *memberRepo) List(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	query := memberSelect + ` WHERE m.org_id = $1 ORDER BY m.active DESC, m.created_at`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m := &models.Member{}
		if err := scanMember(rows, m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *memberRepo) UpdateRole(ctx context.Context, orgID, id uuid.UUID, role models.Role) error {
	query := `UPDATE organization_members SET role = $1, updated_at = NOW() WHERE org_id = $2 AND id = $3`
	return expectOne(r.db.Exec(ctx, query, role, orgID, id))
}

func (r *memberRepo) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	query := `UPDATE organization_members SET active = $1, updated_at = NOW() WHERE org_id = $2 AND id = $3`
	return expectOne(r.db.Exec(ctx, query, active, orgID, id))
}

func (r *memberRepo) CountActive(ctx context.Context, orgID uuid.UUID) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM organization_members WHERE org_id = $1 AND active`
	err := r.db.QueryRow(ctx, query, orgID).Scan(&n)
	return n, err
}
