package services

import (
	"context"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/repositories"

	"github.com/google/uuid"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type AuditLogsService interface {
	Record(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, orgID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
	now           func() time.Time
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{auditLogsRepo: auditLogsRepo, now: time.Now}
}

func (s *auditLogsService) Record(ctx context.Context, entry *models.AuditLog) error {
	if entry.OrgID == uuid.Nil {
		return common.NewValidationError("org_id", "is required")
	}
	if entry.Action == "" {
		return common.NewValidationError("action", "is required")
	}
	if err := s.auditLogsRepo.Create(ctx, entry); err != nil {
		return common.SecureErrorMessage("record audit entry", err)
	}
	return nil
}

func (s *auditLogsService) List(ctx context.Context, orgID uuid.UUID, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}
	if filters.Limit <= 0 {
		filters.Limit = defaultAuditLimit
	}
	if filters.Limit > maxAuditLimit {
		return nil, common.NewValidationError("limit", "must be at most 500")
	}
	if filters.Offset < 0 {
		return nil, common.NewValidationError("offset", "must not be negative")
	}
	if filters.From != nil && filters.To != nil && !filters.From.Before(*filters.To) {
		return nil, common.NewValidationError("to", "must be after from")
	}

	entries, err := s.auditLogsRepo.List(ctx, orgID, filters)
	if err != nil {
		return nil, common.SecureErrorMessage("list audit entries", err)
	}
	return entries, nil
}

// PurgeOlderThan deletes entries past the retention window.
func (s *auditLogsService) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	n, err := s.auditLogsRepo.PurgeBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, common.SecureErrorMessage("purge audit entries", err)
	}
	return n, nil
}
