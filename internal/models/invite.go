package models

import (
	"time"

	"github.com/google/uuid"
)

type Invite struct {
	ID         uuid.UUID  `json:"id"`
	OrgID      uuid.UUID  `json:"org_id"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Token      string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	InvitedBy  uuid.UUID  `json:"invited_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsOpen reports whether the invite can still be accepted at now.
func (i *Invite) IsOpen(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}

// InvitePreview is what an unauthenticated invitee may see before accepting.
type InvitePreview struct {
	OrganizationName string    `json:"organization_name"`
	Email            string    `json:"email"`
	Role             Role      `json:"role"`
	ExpiresAt        time.Time `json:"expires_at"`
}
