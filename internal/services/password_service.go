package services

import (
	"context"
	"errors"
	"unicode"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/repositories"
	"tripdesk/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// bcrypt only hashes the first 72 bytes and rejects anything longer.
const maxPasswordBytes = 72

type PasswordService interface {
	AdminUpdatePassword(ctx context.Context, callerID uuid.UUID, req *AdminUpdatePasswordRequest) error
}

type passwordService struct {
	userRepo repositories.UserRepository
	cost     int
}

func NewPasswordService(userRepo repositories.UserRepository) PasswordService {
	return &passwordService{userRepo: userRepo, cost: bcrypt.DefaultCost}
}

type AdminUpdatePasswordRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	NewPassword string    `json:"new_password" validate:"required"`
}

func (s *passwordService) AdminUpdatePassword(ctx context.Context, callerID uuid.UUID, req *AdminUpdatePasswordRequest) error {
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &common.ForbiddenError{Reason: "only system administrators can update passwords"}
		}
		return common.SecureErrorMessage("get caller", err)
	}
	if caller.SystemRole != models.SystemRoleAdmin {
		return &common.ForbiddenError{Reason: "only system administrators can update passwords"}
	}

	if err := ValidatePassword(req.NewPassword); err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return common.SecureErrorMessage("get user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return common.SecureErrorMessage("hash password", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, req.UserID, string(hash)); err != nil {
		return common.SecureErrorMessage("update password", err)
	}

	logger.FromContext(ctx).Info("password updated by administrator",
		zap.String("admin_id", callerID.String()),
		zap.String("user_id", req.UserID.String()))
	return nil
}

// ValidatePassword requires 8 characters to 72 bytes with a letter, a digit and a symbol.
func ValidatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return common.NewValidationError("new_password", "must be at least 8 characters long")
	}
	if len(password) > maxPasswordBytes {
		return common.NewValidationError("new_password", "must be at most 72 bytes long")
	}
	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !letter {
		return common.NewValidationError("new_password", "must contain at least one letter")
	}
	if !digit {
		return common.NewValidationError("new_password", "must contain at least one number")
	}
	if !symbol {
		return common.NewValidationError("new_password", "must contain at least one symbol")
	}
	return nil
}
