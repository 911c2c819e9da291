package repositories

import (
	"context"

	"tripdesk/internal/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	Ensure(ctx context.Context, id uuid.UUID, email string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type userRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// Ensure mirrors an identity-provider user locally, keeping the email current.
func (r *userRepo) Ensure(ctx context.Context, id uuid.UUID, email string) error {
	query := `
		INSERT INTO users (id, email, system_role, created_at, updated_at)
		VALUES ($1, $2, 'user', NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = NOW()
		WHERE users.email <> EXCLUDED.email
	`
	_, err := r.db.Exec(ctx, query, id, email)
	return mapError(err)
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, full_name, system_role, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Email, &user.FullName, &user.SystemRole, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	return expectOne(r.db.Exec(ctx, query, hash, id))
}
