package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PackageService interface {
	Create(ctx context.Context, orgID uuid.UUID, req *PackageRequest) (*models.Package, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Package, error)
	List(ctx context.Context, orgID uuid.UUID, search string, activeOnly bool, limit, offset int) ([]*models.Package, error)
	Update(ctx context.Context, orgID, id uuid.UUID, req *PackageRequest) (*models.Package, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type packageService struct {
	packageRepo repositories.PackageRepository
}

func NewPackageService(packageRepo repositories.PackageRepository) PackageService {
	return &packageService{packageRepo: packageRepo}
}

type PackageRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Destination  *string         `json:"destination" validate:"omitempty,max=200"`
	Description  *string         `json:"description" validate:"omitempty,max=5000"`
	Price        decimal.Decimal `json:"price"`
	DurationDays *int            `json:"duration_days"`
	Active       *bool           `json:"active"`
}

func (r *PackageRequest) apply(p *models.Package) error {
	p.Name = strings.TrimSpace(r.Name)
	if err := common.ValidateRequiredString(p.Name, "name"); err != nil {
		return err
	}
	if r.Price.IsNegative() {
		return common.NewValidationError("price", "cannot be negative")
	}
	if r.DurationDays != nil && *r.DurationDays < 1 {
		return common.NewValidationError("duration_days", "must be at least 1")
	}
	p.Destination = common.TrimOptional(r.Destination)
	p.Description = common.TrimOptional(r.Description)
	p.Price = r.Price.Round(2)
	p.DurationDays = r.DurationDays
	if r.Active != nil {
		p.Active = *r.Active
	}
	return nil
}

func (s *packageService) Create(ctx context.Context, orgID uuid.UUID, req *PackageRequest) (*models.Package, error) {
	pkg := &models.Package{ID: uuid.New(), OrgID: orgID, Active: true}
	if err := req.apply(pkg); err != nil {
		return nil, err
	}
	if err := s.packageRepo.Create(ctx, pkg); err != nil {
		return nil, common.SecureErrorMessage("create package", err)
	}
	return pkg, nil
}

func (s *packageService) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Package, error) {
	pkg, err := s.packageRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, common.SecureErrorMessage("get package", err)
	}
	return pkg, nil
}

func (s *packageService) List(ctx context.Context, orgID uuid.UUID, search string, activeOnly bool, limit, offset int) ([]*models.Package, error) {
	pkgs, err := s.packageRepo.List(ctx, orgID, common.SanitizeSearchQuery(search), activeOnly, limit, offset)
	if err != nil {
		return nil, common.SecureErrorMessage("list packages", err)
	}
	return pkgs, nil
}

func (s *packageService) Update(ctx context.Context, orgID, id uuid.UUID, req *PackageRequest) (*models.Package, error) {
	pkg, err := s.packageRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, common.SecureErrorMessage("get package", err)
	}
	if err := req.apply(pkg); err != nil {
		return nil, err
	}
	if err := s.packageRepo.Update(ctx, pkg); err != nil {
		return nil, common.SecureErrorMessage("update package", err)
	}
	return pkg, nil
}

func (s *packageService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.packageRepo.Delete(ctx, orgID, id); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("%w: package is used by orders and cannot be deleted", common.ErrConflict)
		}
		return common.SecureErrorMessage("delete package", err)
	}
	return nil
}
