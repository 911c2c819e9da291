package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripdesk/internal/caching"
	"tripdesk/internal/common"
	"tripdesk/internal/metrics"
	"tripdesk/internal/models"
	"tripdesk/internal/policy"
	"tripdesk/internal/repositories"
	"tripdesk/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
	"go.uber.org/zap"
)

const inviteTokenLength = 48

type InviteService interface {
	Send(ctx context.Context, req *SendInviteRequest) (*SendInviteResult, error)
	ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.Invite, error)
	Revoke(ctx context.Context, orgID, id uuid.UUID) error
	Preview(ctx context.Context, token string) (*models.InvitePreview, error)
	Accept(ctx context.Context, token string, userID uuid.UUID, email string) (*models.Member, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type InviteSettings struct {
	TTL                time.Duration
	AppURL             string
	RateLimitPerMinute int
}

type inviteService struct {
	inviteRepo repositories.InviteRepository
	memberRepo repositories.MemberRepository
	orgRepo    repositories.OrganizationRepository
	cache      caching.CacheService
	mailer     Mailer
	metrics    *metrics.Metrics
	settings   InviteSettings
	now        func() time.Time
}

func NewInviteService(
	inviteRepo repositories.InviteRepository,
	memberRepo repositories.MemberRepository,
	orgRepo repositories.OrganizationRepository,
	cache caching.CacheService,
	mailer Mailer,
	m *metrics.Metrics,
	settings InviteSettings,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		memberRepo: memberRepo,
		orgRepo:    orgRepo,
		cache:      cache,
		mailer:     mailer,
		metrics:    m,
		settings:   settings,
		now:        time.Now,
	}
}

type SendInviteRequest struct {
	OrganizationID uuid.UUID   `json:"organization_id" validate:"required"`
	Email          string      `json:"email" validate:"required"`
	Role           models.Role `json:"role" validate:"required"`

	// Filled by the handler.
	InvitedBy uuid.UUID `json:"-"`
	Origin    string    `json:"-"`
}

type SendInviteResult struct {
	Success   bool      `json:"success"`
	InviteID  uuid.UUID `json:"invite_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Reused    bool      `json:"reused"`
	Warning   string    `json:"warning,omitempty"`
}

// Send issues an invite, reusing the open one for the same address when it
// exists. Delivery problems degrade to a warning; the invite stays valid.
func (s *inviteService) Send(ctx context.Context, req *SendInviteRequest) (*SendInviteResult, error) {
	log := logger.FromContext(ctx)

	email, err := common.NormalizeEmail(req.Email, "email")
	if err != nil {
		return nil, err
	}
	if !req.Role.Invitable() {
		return nil, common.NewValidationError("role", "role must be admin, agent or viewer")
	}

	if err := s.authorize(ctx, req.OrganizationID, req.InvitedBy); err != nil {
		return nil, err
	}
	if err := s.checkRateLimit(ctx, req.OrganizationID, req.InvitedBy); err != nil {
		return nil, err
	}

	org, err := s.orgRepo.GetByID(ctx, req.OrganizationID)
	if err != nil {
		return nil, common.SecureErrorMessage("get organization", err)
	}

	now := s.now()
	if n, err := s.inviteRepo.DeleteExpiredForEmail(ctx, org.ID, email, now); err != nil {
		return nil, common.SecureErrorMessage("clean up expired invites", err)
	} else if n > 0 {
		log.Debug("expired invites removed", zap.String("org_id", org.ID.String()), zap.Int64("count", n))
	}

	invite, reused, err := s.findOrCreate(ctx, org.ID, email, req.Role, req.InvitedBy, now)
	if err != nil {
		return nil, err
	}
	s.metrics.InviteSent(reused)

	result := &SendInviteResult{
		Success:   true,
		InviteID:  invite.ID,
		ExpiresAt: invite.ExpiresAt,
		Reused:    reused,
	}

	link := s.inviteLink(req.Origin, invite.Token)
	if err := s.sendInviteEmail(ctx, org, invite, link); err != nil {
		log.Warn("invite email failed",
			zap.String("org_id", org.ID.String()),
			zap.String("invite_id", invite.ID.String()),
			zap.Error(err))
		result.Warning = "The invite was created but the email could not be sent. Share the invite link manually."
	}
	return result, nil
}

func (s *inviteService) authorize(ctx context.Context, orgID, userID uuid.UUID) error {
	member, err := s.memberRepo.GetByOrgAndUser(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &common.ForbiddenError{Reason: "you are not a member of this organization"}
		}
		return common.SecureErrorMessage("get membership", err)
	}
	if !member.Active {
		return &common.ForbiddenError{Reason: "your membership in this organization is inactive"}
	}
	decision := policy.Decide(member.Role, policy.ActionInvitesManage)
	if !decision.Allowed {
		return &common.ForbiddenError{Reason: decision.Reason}
	}
	return nil
}

func (s *inviteService) checkRateLimit(ctx context.Context, orgID, userID uuid.UUID) error {
	if s.cache == nil || s.settings.RateLimitPerMinute <= 0 {
		return nil
	}
	key := fmt.Sprintf("invite:%s:%s", orgID, userID)
	limited, err := s.cache.IsRateLimited(ctx, key, s.settings.RateLimitPerMinute, time.Minute)
	if err != nil {
		// fail open when redis is unavailable
		logger.FromContext(ctx).Warn("invite rate limit check failed", zap.Error(err))
		return nil
	}
	if limited {
		return common.ErrRateLimited
	}
	return nil
}

func (s *inviteService) findOrCreate(ctx context.Context, orgID uuid.UUID, email string, role models.Role, invitedBy uuid.UUID, now time.Time) (*models.Invite, bool, error) {
	existing, err := s.inviteRepo.GetOpenByEmail(ctx, orgID, email, now)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, common.SecureErrorMessage("get invite", err)
	}

	invite := &models.Invite{
		ID:        uuid.New(),
		OrgID:     orgID,
		Email:     email,
		Role:      role,
		Token:     random.String(inviteTokenLength, random.Alphanumeric),
		ExpiresAt: now.Add(s.settings.TTL),
		InvitedBy: invitedBy,
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		if !errors.Is(err, common.ErrConflict) {
			return nil, false, common.SecureErrorMessage("create invite", err)
		}
		// Lost a race with a concurrent send for the same address.
		existing, getErr := s.inviteRepo.GetOpenByEmail(ctx, orgID, email, now)
		if getErr != nil {
			return nil, false, common.SecureErrorMessage("get invite", getErr)
		}
		return existing, true, nil
	}
	return invite, false, nil
}

func (s *inviteService) inviteLink(origin, token string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		origin = s.settings.AppURL
	}
	return fmt.Sprintf("%s/invite/%s", origin, token)
}

func (s *inviteService) sendInviteEmail(ctx context.Context, org *models.Organization, invite *models.Invite, link string) error {
	body := fmt.Sprintf("You have been invited to join %s as %s. The invite expires on %s.",
		org.Name, invite.Role, invite.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	html, err := renderEmail(emailContent{
		Title:       fmt.Sprintf("Join %s", org.Name),
		Body:        textToHTML(body),
		ActionURL:   link,
		ActionLabel: "Accept invite",
	})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, Email{
		To:      invite.Email,
		Subject: fmt.Sprintf("You're invited to %s", org.Name),
		HTML:    html,
		Text:    body + "\n\n" + link,
	})
}

func (s *inviteService) ListPending(ctx context.Context, orgID uuid.UUID) ([]*models.Invite, error) {
	invites, err := s.inviteRepo.ListPending(ctx, orgID, s.now())
	if err != nil {
		return nil, common.SecureErrorMessage("list invites", err)
	}
	return invites, nil
}

func (s *inviteService) Revoke(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.inviteRepo.Delete(ctx, orgID, id); err != nil {
		return common.SecureErrorMessage("revoke invite", err)
	}
	return nil
}

// Preview shows what an invite grants without requiring a session.
func (s *inviteService) Preview(ctx context.Context, token string) (*models.InvitePreview, error) {
	invite, err := s.openInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	org, err := s.orgRepo.GetByID(ctx, invite.OrgID)
	if err != nil {
		return nil, common.SecureErrorMessage("get organization", err)
	}
	return &models.InvitePreview{
		OrganizationName: org.Name,
		Email:            invite.Email,
		Role:             invite.Role,
		ExpiresAt:        invite.ExpiresAt,
	}, nil
}

func (s *inviteService) Accept(ctx context.Context, token string, userID uuid.UUID, email string) (*models.Member, error) {
	invite, err := s.openInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(email), invite.Email) {
		return nil, &common.ForbiddenError{Reason: "this invite was sent to a different email address"}
	}

	existing, err := s.memberRepo.GetByOrgAndUser(ctx, invite.OrgID, userID)
	switch {
	case err == nil && existing.Active:
		return nil, fmt.Errorf("%w: you are already a member of this organization", common.ErrConflict)
	case err != nil && !errors.Is(err, common.ErrNotFound):
		return nil, common.SecureErrorMessage("get membership", err)
	}

	org, err := s.orgRepo.GetByID(ctx, invite.OrgID)
	if err != nil {
		return nil, common.SecureErrorMessage("get organization", err)
	}
	member, err := s.inviteRepo.Accept(ctx, invite, userID, org.UserLimit)
	if err != nil {
		return nil, common.SecureErrorMessage("accept invite", err)
	}
	logger.FromContext(ctx).Info("invite accepted",
		zap.String("org_id", invite.OrgID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", string(member.Role)))
	return member, nil
}

func (s *inviteService) openInvite(ctx context.Context, token string) (*models.Invite, error) {
	if strings.TrimSpace(token) == "" {
		return nil, common.NewValidationError("token", "is required")
	}
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: invite is invalid or was revoked", common.ErrNotFound)
		}
		return nil, common.SecureErrorMessage("get invite", err)
	}
	if invite.AcceptedAt != nil {
		return nil, common.NewValidationError("token", "invite was already accepted")
	}
	if !invite.IsOpen(s.now()) {
		return nil, common.NewValidationError("token", "invite has expired")
	}
	return invite, nil
}

func (s *inviteService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.inviteRepo.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, common.SecureErrorMessage("purge invites", err)
	}
	return n, nil
}
