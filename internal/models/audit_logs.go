package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is one state-changing request made inside an organization.
type AuditLog struct {
	ID         uuid.UUID  `json:"id"`
	OrgID      uuid.UUID  `json:"org_id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Role       string     `json:"role"`
	Action     string     `json:"action"` // method and route, e.g. "PATCH /v1/orgs/:orgID/orders/:id"
	Resource   string     `json:"resource"`
	ResourceID *string    `json:"resource_id,omitempty"`
	Status     int        `json:"status"`
	Success    bool       `json:"success"`
	Error      *string    `json:"error,omitempty"`
	RequestID  *string    `json:"request_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AuditLogFilters narrows an audit listing. Zero values mean no filter.
type AuditLogFilters struct {
	UserID     *uuid.UUID
	Resource   string
	ResourceID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
