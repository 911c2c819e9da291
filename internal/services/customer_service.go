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
)

type CustomerService interface {
	Create(ctx context.Context, orgID uuid.UUID, req *CustomerRequest) (*models.Customer, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error)
	Update(ctx context.Context, orgID, id uuid.UUID, req *CustomerRequest) (*models.Customer, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type customerService struct {
	customerRepo repositories.CustomerRepository
}

func NewCustomerService(customerRepo repositories.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

type CustomerRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Document *string `json:"document" validate:"omitempty,max=50"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

func (r *CustomerRequest) apply(c *models.Customer) error {
	c.Name = strings.TrimSpace(r.Name)
	if err := common.ValidateRequiredString(c.Name, "name"); err != nil {
		return err
	}
	c.Email = nil
	if email := common.TrimOptional(r.Email); email != nil {
		normalized, err := common.NormalizeEmail(*email, "email")
		if err != nil {
			return err
		}
		c.Email = &normalized
	}
	c.Phone = common.TrimOptional(r.Phone)
	c.Document = common.TrimOptional(r.Document)
	c.Notes = common.TrimOptional(r.Notes)
	return common.ValidateMaxLength(c.Notes, "notes", 2000)
}

func (s *customerService) Create(ctx context.Context, orgID uuid.UUID, req *CustomerRequest) (*models.Customer, error) {
	customer := &models.Customer{ID: uuid.New(), OrgID: orgID}
	if err := req.apply(customer); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, common.SecureErrorMessage("create customer", err)
	}
	return customer, nil
}

func (s *customerService) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, common.SecureErrorMessage("get customer", err)
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error) {
	customers, err := s.customerRepo.List(ctx, orgID, common.SanitizeSearchQuery(search), limit, offset)
	if err != nil {
		return nil, common.SecureErrorMessage("list customers", err)
	}
	return customers, nil
}

func (s *customerService) Update(ctx context.Context, orgID, id uuid.UUID, req *CustomerRequest) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, common.SecureErrorMessage("get customer", err)
	}
	if err := req.apply(customer); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, common.SecureErrorMessage("update customer", err)
	}
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.customerRepo.Delete(ctx, orgID, id); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return fmt.Errorf("%w: customer has orders and cannot be deleted", common.ErrConflict)
		}
		return common.SecureErrorMessage("delete customer", err)
	}
	return nil
}
