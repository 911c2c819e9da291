package handlers

import (
	"net/http"

	"tripdesk/internal/common"
	"tripdesk/internal/services"

	"github.com/labstack/echo/v4"
)

type OrderHandlers struct {
	orderService services.OrderService
}

func NewOrderHandlers(orderService services.OrderService) *OrderHandlers {
	return &OrderHandlers{orderService: orderService}
}

// CreateOrder godoc
// @Summary      Book an order
// @Description  total_amount defaults to package price times travelers.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        orgID  path      string                       true  "Organization ID"
// @Param        body   body      services.CreateOrderRequest  true  "Order"
// @Success      201    {object}  models.Order
// @Failure      400    {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/orgs/{orgID}/orders [post]
func (h *OrderHandlers) CreateOrder(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	var req services.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.orderService.Create(c.Request().Context(), orgID, userID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// GetOrder godoc
// @Summary  Get an order
// @Tags     orders
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Param    id     path      string  true  "Order ID"
// @Success  200    {object}  models.Order
// @Failure  404    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/orders/{id} [get]
func (h *OrderHandlers) GetOrder(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orderService.GetByID(c.Request().Context(), orgID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// ListOrders godoc
// @Summary  List orders, newest first
// @Tags     orders
// @Produce  json
// @Param    orgID   path     string  true   "Organization ID"
// @Param    status  query    string  false  "pending, confirmed, completed or cancelled"
// @Param    limit   query    int     false  "Page size"
// @Param    offset  query    int     false  "Offset"
// @Success  200     {array}  models.Order
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/orders [get]
func (h *OrderHandlers) ListOrders(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}
	orders, err := h.orderService.List(c.Request().Context(), orgID, c.QueryParam("status"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// UpdateOrder godoc
// @Summary      Update an order
// @Description  Status moves pending to confirmed or cancelled, confirmed to completed or cancelled.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        orgID  path      string                       true  "Organization ID"
// @Param        id     path      string                       true  "Order ID"
// @Param        body   body      services.UpdateOrderRequest  true  "Changes"
// @Success      200    {object}  models.Order
// @Failure      400    {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/orgs/{orgID}/orders/{id} [patch]
func (h *OrderHandlers) UpdateOrder(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req services.UpdateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	order, err := h.orderService.Update(c.Request().Context(), orgID, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// DeleteOrder godoc
// @Summary  Delete an order with its payment and installments
// @Tags     orders
// @Param    orgID  path  string  true  "Organization ID"
// @Param    id     path  string  true  "Order ID"
// @Success  204
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/orders/{id} [delete]
func (h *OrderHandlers) DeleteOrder(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.orderService.Delete(c.Request().Context(), orgID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
