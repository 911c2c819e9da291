package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/repositories"
	"tripdesk/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxLogoSize is the largest accepted logo upload.
const MaxLogoSize = 2 << 20

var logoExtensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/svg+xml": "svg",
	"image/webp":    "webp",
}

type OrganizationService interface {
	Create(ctx context.Context, userID uuid.UUID, req *CreateOrganizationRequest) (*models.Organization, error)
	GetByID(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
	Update(ctx context.Context, orgID uuid.UUID, req *UpdateOrganizationRequest) (*models.Organization, error)
	UploadLogo(ctx context.Context, orgID uuid.UUID, upload *LogoUpload) (*models.Organization, string, error)
	Theme(ctx context.Context, orgID uuid.UUID) (*models.Theme, error)
}

type organizationService struct {
	orgRepo repositories.OrganizationRepository
	storage StorageService
	now     func() time.Time
}

func NewOrganizationService(orgRepo repositories.OrganizationRepository, storage StorageService) OrganizationService {
	return &organizationService{orgRepo: orgRepo, storage: storage, now: time.Now}
}

type CreateOrganizationRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	ContactEmail   *string `json:"contact_email"`
	TaxID          *string `json:"tax_id" validate:"omitempty,max=50"`
	PrimaryColor   string  `json:"primary_color"`
	SecondaryColor string  `json:"secondary_color"`
	TertiaryColor  string  `json:"tertiary_color"`
	UserLimit      *int    `json:"user_limit"`
}

// UpdateOrganizationRequest replaces only the fields that are set.
type UpdateOrganizationRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=200"`
	ContactEmail   *string `json:"contact_email"`
	TaxID          *string `json:"tax_id" validate:"omitempty,max=50"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
	TertiaryColor  *string `json:"tertiary_color"`
	UserLimit      *int    `json:"user_limit"`
}

type LogoUpload struct {
	ContentType string
	Size        int64
	Reader      io.Reader
}

func (s *organizationService) Create(ctx context.Context, userID uuid.UUID, req *CreateOrganizationRequest) (*models.Organization, error) {
	org := &models.Organization{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(req.Name),
		TaxID:          common.TrimOptional(req.TaxID),
		PrimaryColor:   orDefault(req.PrimaryColor, models.DefaultPrimaryColor),
		SecondaryColor: orDefault(req.SecondaryColor, models.DefaultSecondaryColor),
		TertiaryColor:  orDefault(req.TertiaryColor, models.DefaultTertiaryColor),
		UserLimit:      models.DefaultUserLimit,
		CreatedBy:      userID,
	}
	if req.UserLimit != nil {
		org.UserLimit = *req.UserLimit
	}
	if req.ContactEmail != nil && strings.TrimSpace(*req.ContactEmail) != "" {
		email, err := common.NormalizeEmail(*req.ContactEmail, "contact_email")
		if err != nil {
			return nil, err
		}
		org.ContactEmail = &email
	}
	if err := validateOrganization(org); err != nil {
		return nil, err
	}

	owner := &models.Member{
		ID:     uuid.New(),
		OrgID:  org.ID,
		UserID: userID,
		Role:   models.RoleOwner,
		Active: true,
	}
	if err := s.orgRepo.CreateWithOwner(ctx, org, owner); err != nil {
		return nil, common.SecureErrorMessage("create organization", err)
	}
	logger.FromContext(ctx).Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("owner_id", userID.String()))
	return org, nil
}

func (s *organizationService) GetByID(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, common.SecureErrorMessage("get organization", err)
	}
	return org, nil
}

func (s *organizationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	orgs, err := s.orgRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, common.SecureErrorMessage("list organizations", err)
	}
	return orgs, nil
}

func (s *organizationService) Update(ctx context.Context, orgID uuid.UUID, req *UpdateOrganizationRequest) (*models.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, common.SecureErrorMessage("get organization", err)
	}

	if req.Name != nil {
		org.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactEmail != nil {
		if strings.TrimSpace(*req.ContactEmail) == "" {
			org.ContactEmail = nil
		} else {
			email, err := common.NormalizeEmail(*req.ContactEmail, "contact_email")
			if err != nil {
				return nil, err
			}
			org.ContactEmail = &email
		}
	}
	if req.TaxID != nil {
		org.TaxID = common.TrimOptional(req.TaxID)
	}
	if req.PrimaryColor != nil {
		org.PrimaryColor = *req.PrimaryColor
	}
	if req.SecondaryColor != nil {
		org.SecondaryColor = *req.SecondaryColor
	}
	if req.TertiaryColor != nil {
		org.TertiaryColor = *req.TertiaryColor
	}
	if req.UserLimit != nil {
		org.UserLimit = *req.UserLimit
	}
	if err := validateOrganization(org); err != nil {
		return nil, err
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, common.SecureErrorMessage("update organization", err)
	}
	return org, nil
}

// UploadLogo stores the file and points the organization at it. A storage
// failure leaves the organization unchanged and comes back as a warning.
func (s *organizationService) UploadLogo(ctx context.Context, orgID uuid.UUID, upload *LogoUpload) (*models.Organization, string, error) {
	ext, ok := logoExtensions[upload.ContentType]
	if !ok {
		return nil, "", common.NewValidationError("file", "logo must be a PNG, JPEG, SVG or WebP image")
	}
	if upload.Size <= 0 || upload.Size > MaxLogoSize {
		return nil, "", common.NewValidationError("file", "logo must be at most 2 MB")
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, "", common.SecureErrorMessage("get organization", err)
	}

	objectName := fmt.Sprintf("%s/logo-%d.%s", orgID, s.now().Unix(), ext)
	url, err := s.storage.Upload(ctx, objectName, upload.ContentType, upload.Reader, upload.Size)
	if err != nil {
		logger.FromContext(ctx).Warn("logo upload failed",
			zap.String("org_id", orgID.String()),
			zap.String("object", objectName),
			zap.Error(err))
		return org, "Logo upload failed; the organization was saved without a new logo.", nil
	}

	if err := s.orgRepo.UpdateLogo(ctx, orgID, url); err != nil {
		return nil, "", common.SecureErrorMessage("update organization logo", err)
	}
	org.LogoURL = &url
	return org, "", nil
}

func (s *organizationService) Theme(ctx context.Context, orgID uuid.UUID) (*models.Theme, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, common.SecureErrorMessage("get organization", err)
	}
	return ThemeFor(org)
}

func validateOrganization(org *models.Organization) error {
	if err := common.ValidateRequiredString(org.Name, "name"); err != nil {
		return err
	}
	if len(org.Name) > 200 {
		return common.NewValidationError("name", "cannot exceed 200 characters")
	}
	if err := common.ValidateHexColor(org.PrimaryColor, "primary_color"); err != nil {
		return err
	}
	if err := common.ValidateHexColor(org.SecondaryColor, "secondary_color"); err != nil {
		return err
	}
	if err := common.ValidateHexColor(org.TertiaryColor, "tertiary_color"); err != nil {
		return err
	}
	if org.UserLimit < 1 {
		return common.NewValidationError("user_limit", "must be at least 1")
	}
	return nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
