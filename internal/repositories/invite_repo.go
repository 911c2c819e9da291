package repositories

import (
	"context"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	GetOpenByEmail(ctx context.Context, orgID uuid.UUID, email string, now time.Time) (*models.Invite, error)
	GetByToken(ctx context.Context, token string) (*models.Invite, error)
	ListPending(ctx context.Context, orgID uuid.UUID, now time.Time) ([]*models.Invite, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	DeleteExpiredForEmail(ctx context.Context, orgID uuid.UUID, email string, now time.Time) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	Accept(ctx context.Context, invite *models.Invite, userID uuid.UUID, userLimit int) (*models.Member, error)
}

type inviteRepo struct {
	db DBTX
}

func NewInviteRepo(db DBTX) InviteRepository {
	return &inviteRepo{db: db}
}

const inviteColumns = `id, org_id, email, role, token, expires_at, accepted_at, invited_by, created_at`

func scanInvite(row pgx.Row, i *models.Invite) error {
	return row.Scan(&i.ID, &i.OrgID, &i.Email, &i.Role, &i.Token, &i.ExpiresAt, &i.AcceptedAt, &i.InvitedBy, &i.CreatedAt)
}

// Create inserts an invite. A second open invite for the same (org, email) is
// rejected by the partial unique index and surfaces as ErrConflict.
func (r *inviteRepo) Create(ctx context.Context, invite *models.Invite) error {
	query := `
		INSERT INTO invites (id, org_id, email, role, token, expires_at, invited_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, invite.ID, invite.OrgID, invite.Email, invite.Role, invite.Token, invite.ExpiresAt, invite.InvitedBy).Scan(&invite.CreatedAt)
	return mapError(err)
}

func (r *inviteRepo) GetOpenByEmail(ctx context.Context, orgID uuid.UUID, email string, now time.Time) (*models.Invite, error) {
	invite := &models.Invite{}
	query := `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE org_id = $1 AND lower(email) = lower($2) AND accepted_at IS NULL AND expires_at > $3
	`
	if err := scanInvite(r.db.QueryRow(ctx, query, orgID, email, now), invite); err != nil {
		return nil, mapError(err)
	}
	return invite, nil
}

func (r *inviteRepo) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	invite := &models.Invite{}
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE token = $1`
	if err := scanInvite(r.db.QueryRow(ctx, query, token), invite); err != nil {
		return nil, mapError(err)
	}
	return invite, nil
}

func (r *inviteRepo) ListPending(ctx context.Context, orgID uuid.UUID, now time.Time) ([]*models.Invite, error) {
	query := `
		SELECT ` + inviteColumns + `
		FROM invites
		WHERE org_id = $1 AND accepted_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, orgID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*models.Invite
	for rows.Next() {
		invite := &models.Invite{}
		if err := scanInvite(rows, invite); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (r *inviteRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	query := `DELETE FROM invites WHERE org_id = $1 AND id = $2 AND accepted_at IS NULL`
	return expectOne(r.db.Exec(ctx, query, orgID, id))
}

func (r *inviteRepo) DeleteExpiredForEmail(ctx context.Context, orgID uuid.UUID, email string, now time.Time) (int64, error) {
	query := `DELETE FROM invites WHERE org_id = $1 AND lower(email) = lower($2) AND accepted_at IS NULL AND expires_at <= $3`
	tag, err := r.db.Exec(ctx, query, orgID, email, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *inviteRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM invites WHERE accepted_at IS NULL AND expires_at <= $1`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Accept consumes the invite and creates or reactivates the membership in one
// transaction. The member limit counts active members excluding the invitee.
func (r *inviteRepo) Accept(ctx context.Context, invite *models.Invite, userID uuid.UUID, userLimit int) (*models.Member, error) {
	member := &models.Member{}
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var acceptedAt *time.Time
		lockQuery := `SELECT accepted_at FROM invites WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRow(ctx, lockQuery, invite.ID).Scan(&acceptedAt); err != nil {
			return mapError(err)
		}
		if acceptedAt != nil {
			return common.NewValidationError("token", "invite was already accepted")
		}

		var active int
		countQuery := `SELECT COUNT(*) FROM organization_members WHERE org_id = $1 AND active AND user_id <> $2`
		if err := tx.QueryRow(ctx, countQuery, invite.OrgID, userID).Scan(&active); err != nil {
			return err
		}
		if active >= userLimit {
			return common.NewValidationError("user_limit", "organization has reached its member limit")
		}

		upsert := `
			INSERT INTO organization_members (id, org_id, user_id, role, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
			ON CONFLICT (org_id, user_id) DO UPDATE SET role = EXCLUDED.role, active = TRUE, updated_at = NOW()
			RETURNING id, org_id, user_id, role, active, created_at, updated_at
		`
		err := tx.QueryRow(ctx, upsert, uuid.New(), invite.OrgID, userID, invite.Role).
			Scan(&member.ID, &member.OrgID, &member.UserID, &member.Role, &member.Active, &member.CreatedAt, &member.UpdatedAt)
		if err != nil {
			return mapError(err)
		}

		_, err = tx.Exec(ctx, `UPDATE invites SET accepted_at = NOW() WHERE id = $1`, invite.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	member.Email = invite.Email
	return member, nil
}
