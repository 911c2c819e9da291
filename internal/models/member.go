package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleAgent, RoleViewer:
		return true
	}
	return false
}

// Invitable reports whether a role can be granted through an invite.
func (r Role) Invitable() bool {
	return r == RoleAdmin || r == RoleAgent || r == RoleViewer
}

// Member ties a user to an organization. Members are deactivated, never deleted.
type Member struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	Email     string    `json:"email,omitempty"`
	FullName  *string   `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
