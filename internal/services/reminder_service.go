package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tripdesk/internal/caching"
	"tripdesk/internal/common"
	"tripdesk/internal/metrics"
	"tripdesk/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxReminderSubject = 200
	maxReminderMessage = 5000
)

type ReminderService interface {
	Send(ctx context.Context, callerID uuid.UUID, req *SendReminderRequest) error
}

type reminderService struct {
	mailer    Mailer
	cache     caching.CacheService
	metrics   *metrics.Metrics
	rateLimit int
}

func NewReminderService(mailer Mailer, cache caching.CacheService, m *metrics.Metrics, rateLimitPerMinute int) ReminderService {
	return &reminderService{mailer: mailer, cache: cache, metrics: m, rateLimit: rateLimitPerMinute}
}

type SendReminderRequest struct {
	To      string `json:"to" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (s *reminderService) Send(ctx context.Context, callerID uuid.UUID, req *SendReminderRequest) error {
	to, err := common.NormalizeEmail(req.To, "to")
	if err != nil {
		return err
	}
	subject := strings.TrimSpace(req.Subject)
	if err := common.ValidateRequiredString(subject, "subject"); err != nil {
		return err
	}
	if err := common.ValidateMaxLength(&subject, "subject", maxReminderSubject); err != nil {
		return err
	}
	if err := common.ValidateRequiredString(req.Message, "message"); err != nil {
		return err
	}
	if err := common.ValidateMaxLength(&req.Message, "message", maxReminderMessage); err != nil {
		return err
	}

	if s.cache != nil && s.rateLimit > 0 {
		limited, err := s.cache.IsRateLimited(ctx, fmt.Sprintf("reminder:%s", callerID), s.rateLimit, time.Minute)
		if err != nil {
			logger.FromContext(ctx).Warn("reminder rate limit check failed", zap.Error(err))
		} else if limited {
			return common.ErrRateLimited
		}
	}

	html, err := renderEmail(emailContent{Title: subject, Body: textToHTML(req.Message)})
	if err != nil {
		return common.SecureErrorMessage("render reminder", err)
	}
	if err := s.mailer.Send(ctx, Email{To: to, Subject: subject, HTML: html, Text: req.Message}); err != nil {
		return common.SecureErrorMessage("send reminder", err)
	}

	s.metrics.ReminderSent()
	logger.FromContext(ctx).Info("reminder email sent",
		zap.String("sender_id", callerID.String()),
		zap.String("to", to))
	return nil
}
