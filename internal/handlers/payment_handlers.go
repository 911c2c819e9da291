package handlers

import (
	"net/http"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// PaymentHandlers serves payments and their installments. Every write answers
// with the schedule and an ETag carrying the payment version; clients send it
// back through If-Match to avoid overwriting a concurrent change.
type PaymentHandlers struct {
	paymentService services.PaymentService
}

func NewPaymentHandlers(paymentService services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{paymentService: paymentService}
}

type createInstallmentsRequest struct {
	Installments int `json:"installments" validate:"gte=1,lte=12"`
}

type installmentAmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type installmentDueDateRequest struct {
	DueDate *models.Date `json:"due_date"`
}

type installmentDetailsRequest struct {
	PaymentMethod *string `json:"payment_method" validate:"omitempty,max=50"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *PaymentHandlers) schedule(c echo.Context, status int, s *models.PaymentSchedule) error {
	setETag(c, s.Payment.Version)
	return c.JSON(status, s)
}

func (h *PaymentHandlers) result(c echo.Context, status int, r *services.ScheduleResult) error {
	setETag(c, r.Payment.Version)
	return c.JSON(status, r)
}

// CreatePayment godoc
// @Summary      Open the payment of an order
// @Description  amount is the order total. installments > 0 splits it right away.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        orgID  path      string                         true  "Organization ID"
// @Param        body   body      services.CreatePaymentRequest  true  "Payment"
// @Success      201    {object}  services.ScheduleResult
// @Failure      409    {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/orgs/{orgID}/payments [post]
func (h *PaymentHandlers) CreatePayment(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	var req services.CreatePaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.paymentService.Create(c.Request().Context(), orgID, &req)
	if err != nil {
		return err
	}
	return h.result(c, http.StatusCreated, result)
}

// GetPayment godoc
// @Summary  Get a payment with its installments
// @Tags     payments
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Param    id     path      string  true  "Payment ID"
// @Success  200    {object}  models.PaymentSchedule
// @Header   200    {string}  ETag  "Payment version"
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/payments/{id} [get]
func (h *PaymentHandlers) GetPayment(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	s, err := h.paymentService.Get(c.Request().Context(), orgID, id)
	if err != nil {
		return err
	}
	return h.schedule(c, http.StatusOK, s)
}

// GetOrderPayment godoc
// @Summary  Get the payment of an order
// @Tags     payments
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Param    id     path      string  true  "Order ID"
// @Success  200    {object}  models.PaymentSchedule
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/orders/{id}/payment [get]
func (h *PaymentHandlers) GetOrderPayment(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	orderID, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	s, err := h.paymentService.GetByOrder(c.Request().Context(), orgID, orderID)
	if err != nil {
		return err
	}
	return h.schedule(c, http.StatusOK, s)
}

// ListPayments godoc
// @Summary  List payments
// @Tags     payments
// @Produce  json
// @Param    orgID   path     string  true   "Organization ID"
// @Param    status  query    string  false  "pending, partial, paid or overdue"
// @Param    limit   query    int     false  "Page size"
// @Param    offset  query    int     false  "Offset"
// @Success  200     {array}  models.Payment
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/payments [get]
func (h *PaymentHandlers) ListPayments(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}
	payments, err := h.paymentService.List(c.Request().Context(), orgID, c.QueryParam("status"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

// UpdatePayment godoc
// @Summary  Change due date or method of a payment without installments
// @Tags     payments
// @Accept   json
// @Produce  json
// @Param    orgID     path      string                         true   "Organization ID"
// @Param    id        path      string                         true   "Payment ID"
// @Param    If-Match  header    string                         false  "Expected payment version"
// @Param    body      body      services.UpdatePaymentRequest  true   "Changes"
// @Success  200       {object}  services.ScheduleResult
// @Failure  409       {object}  common.ErrorResponse
// @Failure  412       {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/payments/{id} [patch]
func (h *PaymentHandlers) UpdatePayment(c echo.Context) error {
	orgID, id, version, err := h.target(c)
	if err != nil {
		return err
	}
	var req services.UpdatePaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.paymentService.Update(c.Request().Context(), orgID, id, version, &req)
	if err != nil {
		return err
	}
	return h.result(c, http.StatusOK, result)
}

// CreateInstallments godoc
// @Summary  Split a payment into equal installments
// @Tags     payments
// @Accept   json
// @Produce  json
// @Param    orgID     path      string                     true   "Organization ID"
// @Param    id        path      string                     true   "Payment ID"
// @Param    If-Match  header    string                     false  "Expected payment version"
// @Param    body      body      createInstallmentsRequest  true   "Count"
// @Success  200       {object}  services.ScheduleResult
// @Failure  409       {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/payments/{id}/installments [post]
func (h *PaymentHandlers) CreateInstallments(c echo.Context) error {
	orgID, id, version, err := h.target(c)
	if err != nil {
		return err
	}
	var req createInstallmentsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.paymentService.CreateInstallments(c.Request().Context(), orgID, id, version, req.Installments)
	if err != nil {
		return err
	}
	return h.result(c, http.StatusOK, result)
}

// DeletePayment godoc
// @Summary  Delete a payment and its installments
// @Tags     payments
// @Param    orgID  path  string  true  "Organization ID"
// @Param    id     path  string  true  "Payment ID"
// @Success  204
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/payments/{id} [delete]
func (h *PaymentHandlers) DeletePayment(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.paymentService.Delete(c.Request().Context(), orgID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// EditInstallmentAmount godoc
// @Summary      Change an installment amount
// @Description  The rest of the unpaid balance is re-split across the other open installments.
// @Tags         installments
// @Accept       json
// @Produce      json
// @Param        orgID     path      string                    true   "Organization ID"
// @Param        id        path      string                    true   "Installment ID"
// @Param        If-Match  header    string                    false  "Expected payment version"
// @Param        body      body      installmentAmountRequest  true   "Amount"
// @Success      200       {object}  services.ScheduleResult
// @Failure      412       {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/orgs/{orgID}/installments/{id}/amount [patch]
func (h *PaymentHandlers) EditInstallmentAmount(c echo.Context) error {
	orgID, id, version, err := h.target(c)
	if err != nil {
		return err
	}
	var req installmentAmountRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Amount == nil {
		return common.NewValidationError("amount", "is required")
	}
	result, err := h.paymentService.EditInstallmentAmount(c.Request().Context(), orgID, id, version, *req.Amount)
	if err != nil {
		return err
	}
	return h.result(c, http.StatusOK, result)
}

// EditInstallmentDueDate godoc
// @Summary  Move an installment due date
// @Tags     installments
// @Accept   json
// @Produce  json
// @Param    orgID     path      string                     true   "Organization ID"
// @Param    id        path      string                     true   "Installment ID"
// @Param    If-Match  header    string                     false  "Expected payment version"
// @Param    body      body      installmentDueDateRequest  true   "Due date"
// @Success  200       {object}  services.ScheduleResult
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/installments/{id}/due-date [patch]
func (h *PaymentHandlers) EditInstallmentDueDate(c echo.Context) error {
	orgID, id, version, err := h.target(c)
	if err != nil {
		return err
	}
	var req installmentDueDateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.DueDate == nil || req.DueDate.IsZero() {
		return common.NewValidationError("due_date", "is required")
	}
	result, err := h.paymentService.EditInstallmentDueDate(c.Request().Context(), orgID, id, version, *req.DueDate)
	if err != nil {
		return err
	}
	return h.result(c, http.StatusOK, result)
}

// EditInstallmentDetails godoc
// @Summary  Change installment method and notes
// @Tags     installments
// @Accept   json
// @Produce  json
// @Param    orgID     path      string                     true   "Organization ID"
// @Param    id        path      string                     true   "Installment ID"
// @Param    If-Match  header    string                     false  "Expected payment version"
// @Param    body      body      installmentDetailsRequest  true   "Details"
// @Success  200       {object}  services.ScheduleResult
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/installments/{id}/details [patch]
func (h *PaymentHandlers) EditInstallmentDetails(c echo.Context) error {
	orgID, id, version, err := h.target(c)
	if err != nil {
		return err
	}
	var req installmentDetailsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.paymentService.EditInstallmentDetails(c.Request().Context(), orgID, id, version, req.PaymentMethod, req.Notes)
	if err != nil {
		return err
	}
	return h.result(c, http.StatusOK, result)
}

// LaunchInstallmentPayment godoc
// @Summary      Record an installment as paid
// @Description  payment_date defaults to today, payment_method to the installment's or the configured default.
// @Tags         installments
// @Accept       json
// @Produce      json
// @Param        orgID     path      string                         true   "Organization ID"
// @Param        id        path      string                         true   "Installment ID"
// @Param        If-Match  header    string                         false  "Expected payment version"
// @Param        body      body      services.LaunchPaymentRequest  false  "Payment"
// @Success      200       {object}  services.ScheduleResult
// @Security     BearerAuth
// @Router       /v1/orgs/{orgID}/installments/{id}/pay [post]
func (h *PaymentHandlers) LaunchInstallmentPayment(c echo.Context) error {
	orgID, id, version, err := h.target(c)
	if err != nil {
		return err
	}
	var req services.LaunchPaymentRequest
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	result, err := h.paymentService.LaunchInstallmentPayment(c.Request().Context(), orgID, id, version, &req)
	if err != nil {
		return err
	}
	return h.result(c, http.StatusOK, result)
}

func (h *PaymentHandlers) target(c echo.Context) (uuid.UUID, uuid.UUID, *int, error) {
	orgID, err := currentOrg(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, err
	}
	version, err := expectedVersion(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, err
	}
	return orgID, id, version, nil
}
