package handlers

import (
	"net/http"

	"tripdesk/internal/common"
	"tripdesk/internal/services"

	"github.com/labstack/echo/v4"
)

type CustomerHandlers struct {
	customerService services.CustomerService
}

func NewCustomerHandlers(customerService services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService}
}

// CreateCustomer godoc
// @Summary  Create a customer
// @Tags     customers
// @Accept   json
// @Produce  json
// @Param    orgID  path      string                    true  "Organization ID"
// @Param    body   body      services.CustomerRequest  true  "Customer"
// @Success  201    {object}  models.Customer
// @Failure  400    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/customers [post]
func (h *CustomerHandlers) CreateCustomer(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	var req services.CustomerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	customer, err := h.customerService.Create(c.Request().Context(), orgID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, customer)
}

// GetCustomer godoc
// @Summary  Get a customer
// @Tags     customers
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Param    id     path      string  true  "Customer ID"
// @Success  200    {object}  models.Customer
// @Failure  404    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/customers/{id} [get]
func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	customer, err := h.customerService.GetByID(c.Request().Context(), orgID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// ListCustomers godoc
// @Summary  List customers
// @Tags     customers
// @Produce  json
// @Param    orgID   path     string  true   "Organization ID"
// @Param    q       query    string  false  "Search name or email"
// @Param    limit   query    int     false  "Page size"
// @Param    offset  query    int     false  "Offset"
// @Success  200     {array}  models.Customer
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/customers [get]
func (h *CustomerHandlers) ListCustomers(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}
	customers, err := h.customerService.List(c.Request().Context(), orgID, c.QueryParam("q"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customers)
}

// UpdateCustomer godoc
// @Summary  Replace a customer's details
// @Tags     customers
// @Accept   json
// @Produce  json
// @Param    orgID  path      string                    true  "Organization ID"
// @Param    id     path      string                    true  "Customer ID"
// @Param    body   body      services.CustomerRequest  true  "Customer"
// @Success  200    {object}  models.Customer
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/customers/{id} [put]
func (h *CustomerHandlers) UpdateCustomer(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req services.CustomerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	customer, err := h.customerService.Update(c.Request().Context(), orgID, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer godoc
// @Summary  Delete a customer without orders
// @Tags     customers
// @Param    orgID  path  string  true  "Organization ID"
// @Param    id     path  string  true  "Customer ID"
// @Success  204
// @Failure  409  {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/customers/{id} [delete]
func (h *CustomerHandlers) DeleteCustomer(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.customerService.Delete(c.Request().Context(), orgID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
