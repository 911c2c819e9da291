package handlers

import (
	"net/http"
	"strconv"

	"tripdesk/internal/common"
	"tripdesk/internal/services"

	"github.com/labstack/echo/v4"
)

type PackageHandlers struct {
	packageService services.PackageService
}

func NewPackageHandlers(packageService services.PackageService) *PackageHandlers {
	return &PackageHandlers{packageService: packageService}
}

// CreatePackage godoc
// @Summary  Create a package
// @Tags     packages
// @Accept   json
// @Produce  json
// @Param    orgID  path      string                    true  "Organization ID"
// @Param    body   body      services.PackageRequest  true  "Package"
// @Success  201    {object}  models.Package
// @Failure  400    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/packages [post]
func (h *PackageHandlers) CreatePackage(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	var req services.PackageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pkg, err := h.packageService.Create(c.Request().Context(), orgID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pkg)
}

// GetPackage godoc
// @Summary  Get a package
// @Tags     packages
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Param    id     path      string  true  "Package ID"
// @Success  200    {object}  models.Package
// @Failure  404    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/packages/{id} [get]
func (h *PackageHandlers) GetPackage(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	pkg, err := h.packageService.GetByID(c.Request().Context(), orgID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pkg)
}

// ListPackages godoc
// @Summary  List packages
// @Tags     packages
// @Produce  json
// @Param    orgID   path     string  true   "Organization ID"
// @Param    q       query    string  false  "Search name or destination"
// @Param    active  query    bool    false  "Only active packages"
// @Param    limit   query    int     false  "Page size"
// @Param    offset  query    int     false  "Offset"
// @Success  200     {array}  models.Package
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/packages [get]
func (h *PackageHandlers) ListPackages(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return err
	}
	activeOnly := false
	if v := c.QueryParam("active"); v != "" {
		activeOnly, err = strconv.ParseBool(v)
		if err != nil {
			return common.NewValidationError("active", "must be true or false")
		}
	}
	packages, err := h.packageService.List(c.Request().Context(), orgID, c.QueryParam("q"), activeOnly, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, packages)
}

// UpdatePackage godoc
// @Summary  Replace a package's details
// @Tags     packages
// @Accept   json
// @Produce  json
// @Param    orgID  path      string                    true  "Organization ID"
// @Param    id     path      string                    true  "Package ID"
// @Param    body   body      services.PackageRequest  true  "Package"
// @Success  200    {object}  models.Package
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/packages/{id} [put]
func (h *PackageHandlers) UpdatePackage(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req services.PackageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pkg, err := h.packageService.Update(c.Request().Context(), orgID, id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pkg)
}

// DeletePackage godoc
// @Summary  Delete a package no order uses
// @Tags     packages
// @Param    orgID  path  string  true  "Organization ID"
// @Param    id     path  string  true  "Package ID"
// @Success  204
// @Failure  409  {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/packages/{id} [delete]
func (h *PackageHandlers) DeletePackage(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.packageService.Delete(c.Request().Context(), orgID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
