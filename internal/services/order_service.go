package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripdesk/internal/caching"
	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/repositories"
	"tripdesk/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderService interface {
	Create(ctx context.Context, orgID, userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error)
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Order, error)
	Update(ctx context.Context, orgID, id uuid.UUID, req *UpdateOrderRequest) (*models.Order, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

// orderTransitions lists the statuses each status may move to.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusCompleted, models.OrderStatusCancelled},
}

func canTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type orderService struct {
	orderRepo    repositories.OrderRepository
	customerRepo repositories.CustomerRepository
	packageRepo  repositories.PackageRepository
	cache        caching.CacheService
	now          func() time.Time
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	customerRepo repositories.CustomerRepository,
	packageRepo repositories.PackageRepository,
	cache caching.CacheService,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		packageRepo:  packageRepo,
		cache:        cache,
		now:          time.Now,
	}
}

type CreateOrderRequest struct {
	CustomerID  uuid.UUID        `json:"customer_id" validate:"required"`
	PackageID   uuid.UUID        `json:"package_id" validate:"required"`
	TravelDate  *models.Date     `json:"travel_date"`
	Travelers   int              `json:"travelers" validate:"gte=1"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	Notes       *string          `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateOrderRequest struct {
	Status      *models.OrderStatus `json:"status"`
	TravelDate  *models.Date        `json:"travel_date"`
	Travelers   *int                `json:"travelers"`
	TotalAmount *decimal.Decimal    `json:"total_amount"`
	Notes       *string             `json:"notes" validate:"omitempty,max=2000"`
}

func validateTotal(total decimal.Decimal) error {
	if total.IsNegative() {
		return common.NewValidationError("total_amount", "must not be negative")
	}
	return nil
}

// Create books a pending order. Without an explicit total the package price
// is charged per traveler.
func (s *orderService) Create(ctx context.Context, orgID, userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if req.Travelers < 1 {
		return nil, common.NewValidationError("travelers", "must be at least 1")
	}
	if err := common.ValidateMaxLength(req.Notes, "notes", 2000); err != nil {
		return nil, err
	}

	if _, err := s.customerRepo.GetByID(ctx, orgID, req.CustomerID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewValidationError("customer_id", "customer not found in this organization")
		}
		return nil, common.SecureErrorMessage("get customer", err)
	}
	pkg, err := s.packageRepo.GetByID(ctx, orgID, req.PackageID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewValidationError("package_id", "package not found in this organization")
		}
		return nil, common.SecureErrorMessage("get package", err)
	}
	if !pkg.Active {
		return nil, common.NewValidationError("package_id", "package is not active")
	}

	total := pkg.Price.Mul(decimal.NewFromInt(int64(req.Travelers)))
	if req.TotalAmount != nil {
		total = *req.TotalAmount
	}
	total = total.Round(2)
	if err := validateTotal(total); err != nil {
		return nil, err
	}

	number, err := s.orderRepo.GenerateOrderNumber(ctx, orgID, s.now().Year())
	if err != nil {
		return nil, common.SecureErrorMessage("generate order number", err)
	}

	createdBy := userID
	order := &models.Order{
		ID:          uuid.New(),
		OrgID:       orgID,
		OrderNumber: number,
		CustomerID:  req.CustomerID,
		PackageID:   req.PackageID,
		Status:      models.OrderStatusPending,
		TravelDate:  req.TravelDate,
		Travelers:   req.Travelers,
		TotalAmount: total,
		Notes:       common.TrimOptional(req.Notes),
		CreatedBy:   &createdBy,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, common.SecureErrorMessage("create order", err)
	}
	invalidateDashboard(ctx, s.cache, orgID)
	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, common.SecureErrorMessage("get order", err)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Order, error) {
	if status != "" && !models.OrderStatus(status).Valid() {
		return nil, common.NewValidationError("status", "unknown order status")
	}
	orders, err := s.orderRepo.List(ctx, orgID, status, limit, offset)
	if err != nil {
		return nil, common.SecureErrorMessage("list orders", err)
	}
	return orders, nil
}

// Update applies a partial change. Status follows orderTransitions, and a new
// total is written together with the payment amount as long as the payment
// has not been split.
func (s *orderService) Update(ctx context.Context, orgID, id uuid.UUID, req *UpdateOrderRequest) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, common.SecureErrorMessage("get order", err)
	}

	if req.Status != nil && *req.Status != order.Status {
		if !req.Status.Valid() {
			return nil, common.NewValidationError("status", "unknown order status")
		}
		if !canTransition(order.Status, *req.Status) {
			return nil, common.NewValidationError("status",
				fmt.Sprintf("cannot change status from %s to %s", order.Status, *req.Status))
		}
		order.Status = *req.Status
		if order.Status == models.OrderStatusConfirmed {
			confirmedAt := s.now().UTC()
			order.ConfirmedAt = &confirmedAt
		}
	}
	if req.TravelDate != nil {
		order.TravelDate = req.TravelDate
	}
	if req.Travelers != nil {
		if *req.Travelers < 1 {
			return nil, common.NewValidationError("travelers", "must be at least 1")
		}
		order.Travelers = *req.Travelers
	}
	if req.Notes != nil {
		if err := common.ValidateMaxLength(req.Notes, "notes", 2000); err != nil {
			return nil, err
		}
		order.Notes = common.TrimOptional(req.Notes)
	}

	totalChanged := false
	if req.TotalAmount != nil {
		total := req.TotalAmount.Round(2)
		if err := validateTotal(total); err != nil {
			return nil, err
		}
		if !total.Equal(order.TotalAmount) {
			order.TotalAmount = total
			totalChanged = true
		}
	}

	if totalChanged {
		err = s.orderRepo.UpdateWithPaymentAmount(ctx, order)
	} else {
		err = s.orderRepo.Update(ctx, order)
	}
	if err != nil {
		if errors.Is(err, common.ErrInstallmentsExist) {
			return nil, common.NewValidationError("total_amount", "payment already has installments; the order total can no longer change")
		}
		return nil, common.SecureErrorMessage("update order", err)
	}
	if totalChanged {
		logger.FromContext(ctx).Info("payment amount synced with order total",
			zap.String("order_id", order.ID.String()),
			zap.String("amount", order.TotalAmount.StringFixed(2)))
	}
	invalidateDashboard(ctx, s.cache, orgID)
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.orderRepo.Delete(ctx, orgID, id); err != nil {
		return common.SecureErrorMessage("delete order", err)
	}
	invalidateDashboard(ctx, s.cache, orgID)
	return nil
}
