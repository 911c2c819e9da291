package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripdesk/internal/caching"
	"tripdesk/internal/common"
	"tripdesk/internal/metrics"
	"tripdesk/internal/models"
	"tripdesk/internal/reconciliation"
	"tripdesk/internal/repositories"
	"tripdesk/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentService interface {
	Create(ctx context.Context, orgID uuid.UUID, req *CreatePaymentRequest) (*ScheduleResult, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*models.PaymentSchedule, error)
	GetByOrder(ctx context.Context, orgID, orderID uuid.UUID) (*models.PaymentSchedule, error)
	List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Payment, error)
	Update(ctx context.Context, orgID, id uuid.UUID, expectedVersion *int, req *UpdatePaymentRequest) (*ScheduleResult, error)
	CreateInstallments(ctx context.Context, orgID, id uuid.UUID, expectedVersion *int, count int) (*ScheduleResult, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error

	EditInstallmentAmount(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, amount decimal.Decimal) (*ScheduleResult, error)
	EditInstallmentDueDate(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, dueDate models.Date) (*ScheduleResult, error)
	EditInstallmentDetails(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, method, notes *string) (*ScheduleResult, error)
	LaunchInstallmentPayment(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, req *LaunchPaymentRequest) (*ScheduleResult, error)

	MarkOverdue(ctx context.Context) (int, error)
}

type PaymentSettings struct {
	Location      *time.Location
	DefaultMethod string
}

type paymentService struct {
	paymentRepo repositories.PaymentRepository
	orderRepo   repositories.OrderRepository
	cache       caching.CacheService
	metrics     *metrics.Metrics
	settings    PaymentSettings
	now         func() time.Time
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	orderRepo repositories.OrderRepository,
	cache caching.CacheService,
	m *metrics.Metrics,
	settings PaymentSettings,
) PaymentService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &paymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		cache:       cache,
		metrics:     m,
		settings:    settings,
		now:         time.Now,
	}
}

// ScheduleResult is a schedule after a command, with any non-fatal warnings.
type ScheduleResult struct {
	*models.PaymentSchedule
	Warnings []string `json:"warnings,omitempty"`
}

type CreatePaymentRequest struct {
	OrderID       uuid.UUID   `json:"order_id" validate:"required"`
	DueDate       models.Date `json:"due_date"`
	PaymentMethod *string     `json:"payment_method" validate:"omitempty,max=50"`
	Installments  int         `json:"installments" validate:"gte=0,lte=12"`
}

type UpdatePaymentRequest struct {
	DueDate       *models.Date `json:"due_date"`
	PaymentMethod *string      `json:"payment_method" validate:"omitempty,max=50"`
}

type LaunchPaymentRequest struct {
	PaymentDate   *models.Date `json:"payment_date"`
	PaymentMethod *string      `json:"payment_method" validate:"omitempty,max=50"`
}

func (s *paymentService) today() models.Date {
	return models.DateOf(s.now().In(s.settings.Location))
}

// Create opens the payment of an order for its full total, optionally split
// into equal installments in the same transaction.
func (s *paymentService) Create(ctx context.Context, orgID uuid.UUID, req *CreatePaymentRequest) (*ScheduleResult, error) {
	if req.DueDate.IsZero() {
		return nil, common.NewValidationError("due_date", "is required")
	}
	order, err := s.orderRepo.GetByID(ctx, orgID, req.OrderID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewValidationError("order_id", "order not found in this organization")
		}
		return nil, common.SecureErrorMessage("get order", err)
	}

	payment := &models.Payment{
		ID:            uuid.New(),
		OrgID:         orgID,
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		DueDate:       req.DueDate,
		Status:        models.PaymentStatusPending,
		PaymentMethod: common.TrimOptional(req.PaymentMethod),
	}
	schedule := &models.PaymentSchedule{Payment: payment, Installments: []*models.Installment{}}
	if req.Installments > 0 {
		if _, err := reconciliation.CreateEqualSplit(schedule, req.Installments); err != nil {
			return nil, err
		}
	}

	if err := s.paymentRepo.Create(ctx, schedule); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: order already has a payment", common.ErrConflict)
		}
		return nil, common.SecureErrorMessage("create payment", err)
	}
	s.invalidate(ctx, orgID)
	return &ScheduleResult{PaymentSchedule: schedule}, nil
}

func (s *paymentService) Get(ctx context.Context, orgID, id uuid.UUID) (*models.PaymentSchedule, error) {
	schedule, err := s.paymentRepo.GetSchedule(ctx, orgID, id)
	if err != nil {
		return nil, common.SecureErrorMessage("get payment", err)
	}
	return schedule, nil
}

func (s *paymentService) GetByOrder(ctx context.Context, orgID, orderID uuid.UUID) (*models.PaymentSchedule, error) {
	schedule, err := s.paymentRepo.GetScheduleByOrder(ctx, orgID, orderID)
	if err != nil {
		return nil, common.SecureErrorMessage("get payment", err)
	}
	return schedule, nil
}

func (s *paymentService) List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Payment, error) {
	if status != "" && !models.PaymentStatus(status).Valid() {
		return nil, common.NewValidationError("status", "unknown payment status")
	}
	payments, err := s.paymentRepo.List(ctx, orgID, status, limit, offset)
	if err != nil {
		return nil, common.SecureErrorMessage("list payments", err)
	}
	return payments, nil
}

// Update changes due date or method of a payment that has not been split yet.
func (s *paymentService) Update(ctx context.Context, orgID, id uuid.UUID, expectedVersion *int, req *UpdatePaymentRequest) (*ScheduleResult, error) {
	today := s.today()
	return s.mutate(ctx, orgID, id, expectedVersion, func(sc *models.PaymentSchedule) (*models.ScheduleChange, error) {
		if len(sc.Installments) > 0 {
			return nil, common.ErrInstallmentsExist
		}
		p := sc.Payment
		if req.DueDate != nil {
			if req.DueDate.IsZero() {
				return nil, common.NewValidationError("due_date", "is required")
			}
			p.DueDate = *req.DueDate
		}
		if req.PaymentMethod != nil {
			p.PaymentMethod = common.TrimOptional(req.PaymentMethod)
		}
		if p.Status != models.PaymentStatusPaid {
			p.Status = models.PaymentStatusPending
			if p.DueDate.Before(today) {
				p.Status = models.PaymentStatusOverdue
			}
		}
		return &models.ScheduleChange{}, nil
	})
}

func (s *paymentService) CreateInstallments(ctx context.Context, orgID, id uuid.UUID, expectedVersion *int, count int) (*ScheduleResult, error) {
	return s.mutate(ctx, orgID, id, expectedVersion, func(sc *models.PaymentSchedule) (*models.ScheduleChange, error) {
		return reconciliation.CreateEqualSplit(sc, count)
	})
}

func (s *paymentService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.paymentRepo.Delete(ctx, orgID, id); err != nil {
		return common.SecureErrorMessage("delete payment", err)
	}
	s.invalidate(ctx, orgID)
	return nil
}

func (s *paymentService) EditInstallmentAmount(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, amount decimal.Decimal) (*ScheduleResult, error) {
	return s.mutateInstallment(ctx, orgID, installmentID, expectedVersion, func(sc *models.PaymentSchedule) (*models.ScheduleChange, error) {
		return reconciliation.EditAmount(sc, installmentID, amount)
	})
}

func (s *paymentService) EditInstallmentDueDate(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, dueDate models.Date) (*ScheduleResult, error) {
	today := s.today()
	return s.mutateInstallment(ctx, orgID, installmentID, expectedVersion, func(sc *models.PaymentSchedule) (*models.ScheduleChange, error) {
		return reconciliation.EditDueDate(sc, installmentID, dueDate, today)
	})
}

func (s *paymentService) EditInstallmentDetails(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, method, notes *string) (*ScheduleResult, error) {
	if err := common.ValidateMaxLength(notes, "notes", 2000); err != nil {
		return nil, err
	}
	return s.mutateInstallment(ctx, orgID, installmentID, expectedVersion, func(sc *models.PaymentSchedule) (*models.ScheduleChange, error) {
		return reconciliation.EditDetails(sc, installmentID, common.TrimOptional(method), common.TrimOptional(notes))
	})
}

// LaunchInstallmentPayment records that an installment was paid, on today's
// date unless another is given.
func (s *paymentService) LaunchInstallmentPayment(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, req *LaunchPaymentRequest) (*ScheduleResult, error) {
	paymentDate := s.today()
	if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
		paymentDate = *req.PaymentDate
	}
	result, err := s.mutateInstallment(ctx, orgID, installmentID, expectedVersion, func(sc *models.PaymentSchedule) (*models.ScheduleChange, error) {
		return reconciliation.LaunchPayment(sc, installmentID, paymentDate, common.TrimOptional(req.PaymentMethod), s.settings.DefaultMethod)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.InstallmentPaid()
	return result, nil
}

// MarkOverdue moves every pending installment that fell due before today to
// overdue and refreshes the status of the affected payments. It returns the
// number of payments updated.
func (s *paymentService) MarkOverdue(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)
	today := s.today()

	candidates, err := s.paymentRepo.ListOverdueCandidates(ctx, today)
	if err != nil {
		return 0, common.SecureErrorMessage("list overdue payments", err)
	}

	updated, marked := 0, 0
	touched := map[uuid.UUID]bool{}
	for _, c := range candidates {
		_, change, err := s.paymentRepo.Mutate(ctx, c.OrgID, c.PaymentID, nil, func(sc *models.PaymentSchedule) (*models.ScheduleChange, error) {
			return reconciliation.MarkOverdue(sc, today), nil
		})
		if err != nil {
			log.Error("failed to mark payment overdue",
				zap.String("org_id", c.OrgID.String()),
				zap.String("payment_id", c.PaymentID.String()),
				zap.Error(err))
			continue
		}
		updated++
		for _, inst := range change.Updated {
			if inst.Status == models.InstallmentStatusOverdue {
				marked++
			}
		}
		touched[c.OrgID] = true
	}

	for orgID := range touched {
		s.invalidate(ctx, orgID)
	}
	s.metrics.OverdueMarked(marked)
	return updated, nil
}

func (s *paymentService) mutateInstallment(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, cmd repositories.ScheduleCommand) (*ScheduleResult, error) {
	inst, err := s.paymentRepo.GetInstallment(ctx, orgID, installmentID)
	if err != nil {
		return nil, common.SecureErrorMessage("get installment", err)
	}
	return s.mutate(ctx, orgID, inst.PaymentID, expectedVersion, cmd)
}

func (s *paymentService) mutate(ctx context.Context, orgID, paymentID uuid.UUID, expectedVersion *int, cmd repositories.ScheduleCommand) (*ScheduleResult, error) {
	schedule, change, err := s.paymentRepo.Mutate(ctx, orgID, paymentID, expectedVersion, cmd)
	if err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			s.metrics.VersionConflict()
		}
		return nil, common.SecureErrorMessage("update payment", err)
	}
	if len(change.Warnings) > 0 {
		logger.FromContext(ctx).Warn("payment schedule updated with warnings",
			zap.String("payment_id", paymentID.String()),
			zap.Strings("warnings", change.Warnings))
	}
	s.invalidate(ctx, orgID)
	return &ScheduleResult{PaymentSchedule: schedule, Warnings: change.Warnings}, nil
}

func (s *paymentService) invalidate(ctx context.Context, orgID uuid.UUID) {
	invalidateDashboard(ctx, s.cache, orgID)
}

// invalidateDashboard drops cached summaries after a write. Failure only costs freshness.
func invalidateDashboard(ctx context.Context, cache caching.CacheService, orgID uuid.UUID) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateDashboard(ctx, orgID); err != nil {
		logger.FromContext(ctx).Warn("dashboard cache invalidation failed",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
	}
}
