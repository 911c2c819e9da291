package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SystemRoleUser  = "user"
	SystemRoleAdmin = "admin"
)

// User mirrors an identity-provider account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     *string   `json:"full_name,omitempty"`
	SystemRole   string    `json:"system_role"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
