package services

import (
	"context"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/repositories"
	"tripdesk/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MemberService interface {
	List(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error)
	ChangeRole(ctx context.Context, orgID, actorID, memberID uuid.UUID, role models.Role) (*models.Member, error)
	Deactivate(ctx context.Context, orgID, actorID, memberID uuid.UUID) (*models.Member, error)
	Reactivate(ctx context.Context, orgID, memberID uuid.UUID) (*models.Member, error)
}

type memberService struct {
	memberRepo repositories.MemberRepository
	orgRepo    repositories.OrganizationRepository
}

func NewMemberService(memberRepo repositories.MemberRepository, orgRepo repositories.OrganizationRepository) MemberService {
	return &memberService{memberRepo: memberRepo, orgRepo: orgRepo}
}

func (s *memberService) List(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	members, err := s.memberRepo.List(ctx, orgID)
	if err != nil {
		return nil, common.SecureErrorMessage("list members", err)
	}
	return members, nil
}

func (s *memberService) ChangeRole(ctx context.Context, orgID, actorID, memberID uuid.UUID, role models.Role) (*models.Member, error) {
	if !role.Invitable() {
		return nil, common.NewValidationError("role", "role must be admin, agent or viewer")
	}
	member, err := s.memberRepo.GetByID(ctx, orgID, memberID)
	if err != nil {
		return nil, common.SecureErrorMessage("get member", err)
	}
	if member.Role == models.RoleOwner {
		return nil, &common.ForbiddenError{Reason: "the organization owner's role cannot be changed"}
	}
	if member.UserID == actorID {
		return nil, &common.ForbiddenError{Reason: "you cannot change your own role"}
	}

	if err := s.memberRepo.UpdateRole(ctx, orgID, memberID, role); err != nil {
		return nil, common.SecureErrorMessage("update member role", err)
	}
	logger.FromContext(ctx).Info("member role changed",
		zap.String("org_id", orgID.String()),
		zap.String("member_id", memberID.String()),
		zap.String("from", string(member.Role)),
		zap.String("to", string(role)))
	member.Role = role
	return member, nil
}

// Deactivate is a soft removal; the membership row and its history stay.
func (s *memberService) Deactivate(ctx context.Context, orgID, actorID, memberID uuid.UUID) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, orgID, memberID)
	if err != nil {
		return nil, common.SecureErrorMessage("get member", err)
	}
	if member.Role == models.RoleOwner {
		return nil, &common.ForbiddenError{Reason: "the organization owner cannot be deactivated"}
	}
	if member.UserID == actorID {
		return nil, &common.ForbiddenError{Reason: "you cannot deactivate yourself"}
	}
	if !member.Active {
		return member, nil
	}

	if err := s.memberRepo.SetActive(ctx, orgID, memberID, false); err != nil {
		return nil, common.SecureErrorMessage("deactivate member", err)
	}
	member.Active = false
	return member, nil
}

func (s *memberService) Reactivate(ctx context.Context, orgID, memberID uuid.UUID) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, orgID, memberID)
	if err != nil {
		return nil, common.SecureErrorMessage("get member", err)
	}
	if member.Active {
		return member, nil
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, common.SecureErrorMessage("get organization", err)
	}
	active, err := s.memberRepo.CountActive(ctx, orgID)
	if err != nil {
		return nil, common.SecureErrorMessage("count members", err)
	}
	if active >= org.UserLimit {
		return nil, common.NewValidationError("user_limit", "organization has reached its member limit")
	}

	if err := s.memberRepo.SetActive(ctx, orgID, memberID, true); err != nil {
		return nil, common.SecureErrorMessage("reactivate member", err)
	}
	member.Active = true
	return member, nil
}
