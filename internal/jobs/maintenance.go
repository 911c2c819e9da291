package jobs

import (
	"context"
	"time"

	"tripdesk/pkg/logger"

	"go.uber.org/zap"
)

// OverdueMarker flips past-due installments and payments to overdue.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int, error)
}

// InvitePurger removes invites that expired without being accepted.
type InvitePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// AuditPurger drops audit entries past their retention.
type AuditPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// OverdueSweep is the periodic pass that keeps overdue statuses current
// between user-triggered reconciliations.
type OverdueSweep struct {
	payments OverdueMarker
	timeout  time.Duration
}

func NewOverdueSweep(payments OverdueMarker, timeout time.Duration) *OverdueSweep {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &OverdueSweep{payments: payments, timeout: timeout}
}

func (s *OverdueSweep) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := logger.FromContext(ctx)
	start := time.Now()
	updated, err := s.payments.MarkOverdue(ctx)
	if err != nil {
		log.Error("overdue sweep failed", zap.Error(err))
		return err
	}
	log.Info("overdue sweep completed",
		zap.Int("payments_updated", updated),
		zap.Duration("took", time.Since(start)))
	return nil
}

type InviteCleanup struct {
	invites InvitePurger
}

func NewInviteCleanup(invites InvitePurger) *InviteCleanup {
	return &InviteCleanup{invites: invites}
}

func (j *InviteCleanup) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	purged, err := j.invites.PurgeExpired(ctx)
	if err != nil {
		log.Error("invite cleanup failed", zap.Error(err))
		return err
	}
	if purged > 0 {
		log.Info("expired invites purged", zap.Int64("count", purged))
	}
	return nil
}

type AuditRetention struct {
	audit     AuditPurger
	retention time.Duration
}

func NewAuditRetention(audit AuditPurger, retention time.Duration) *AuditRetention {
	return &AuditRetention{audit: audit, retention: retention}
}

func (j *AuditRetention) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return nil
	}
	purged, err := j.audit.PurgeOlderThan(ctx, j.retention)
	if err != nil {
		logger.FromContext(ctx).Error("audit retention failed", zap.Error(err))
		return err
	}
	if purged > 0 {
		logger.FromContext(ctx).Info("old audit entries purged", zap.Int64("count", purged))
	}
	return nil
}
