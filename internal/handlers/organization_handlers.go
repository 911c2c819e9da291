package handlers

import (
	"net/http"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/policy"
	"tripdesk/internal/services"

	"github.com/labstack/echo/v4"
)

type OrganizationHandlers struct {
	orgService services.OrganizationService
}

func NewOrganizationHandlers(orgService services.OrganizationService) *OrganizationHandlers {
	return &OrganizationHandlers{orgService: orgService}
}

// CreateOrganization godoc
// @Summary      Create an organization
// @Description  The caller becomes its owner.
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        body  body      services.CreateOrganizationRequest  true  "Organization"
// @Success      201   {object}  models.Organization
// @Failure      400   {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/orgs [post]
func (h *OrganizationHandlers) CreateOrganization(c echo.Context) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	var req services.CreateOrganizationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	org, err := h.orgService.Create(c.Request().Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, org)
}

// ListMyOrganizations godoc
// @Summary  Organizations the caller is an active member of
// @Tags     organizations
// @Produce  json
// @Success  200  {array}  models.Organization
// @Security BearerAuth
// @Router   /v1/orgs [get]
func (h *OrganizationHandlers) ListMyOrganizations(c echo.Context) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	orgs, err := h.orgService.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orgs)
}

// GetOrganization godoc
// @Summary  Get an organization
// @Tags     organizations
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Success  200    {object}  models.Organization
// @Failure  403    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID} [get]
func (h *OrganizationHandlers) GetOrganization(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	org, err := h.orgService.GetByID(c.Request().Context(), orgID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, org)
}

// UpdateOrganization godoc
// @Summary  Update organization settings
// @Tags     organizations
// @Accept   json
// @Produce  json
// @Param    orgID  path      string                             true  "Organization ID"
// @Param    body   body      services.UpdateOrganizationRequest  true  "Changes"
// @Success  200    {object}  models.Organization
// @Failure  400    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID} [patch]
func (h *OrganizationHandlers) UpdateOrganization(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	var req services.UpdateOrganizationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	org, err := h.orgService.Update(c.Request().Context(), orgID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, org)
}

type logoResponse struct {
	Organization *models.Organization `json:"organization"`
	Warning      string               `json:"warning,omitempty"`
}

// UploadLogo godoc
// @Summary  Upload the organization logo
// @Tags     organizations
// @Accept   multipart/form-data
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Param    file   formData  file    true  "PNG, JPEG, SVG or WebP, at most 2 MB"
// @Success  200    {object}  logoResponse
// @Failure  400    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/logo [post]
func (h *OrganizationHandlers) UploadLogo(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return common.NewValidationError("file", "is required")
	}
	if fh.Size > services.MaxLogoSize {
		return common.NewValidationError("file", "logo must be at most 2 MB")
	}
	file, err := fh.Open()
	if err != nil {
		return common.SecureErrorMessage("read upload", err)
	}
	defer file.Close()

	org, warning, err := h.orgService.UploadLogo(c.Request().Context(), orgID, &services.LogoUpload{
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Reader:      file,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logoResponse{Organization: org, Warning: warning})
}

// GetTheme godoc
// @Summary  Organization colours as HSL
// @Tags     organizations
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Success  200    {object}  models.Theme
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/theme [get]
func (h *OrganizationHandlers) GetTheme(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	theme, err := h.orgService.Theme(c.Request().Context(), orgID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, theme)
}

type capabilitiesResponse struct {
	Role         models.Role                        `json:"role"`
	Capabilities map[policy.Action]policy.Decision `json:"capabilities"`
}

// GetCapabilities godoc
// @Summary  What the caller's role may do in the organization
// @Tags     organizations
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Success  200    {object}  capabilitiesResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/capabilities [get]
func (h *OrganizationHandlers) GetCapabilities(c echo.Context) error {
	role, _ := common.GetMemberRoleFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, capabilitiesResponse{
		Role:         models.Role(role),
		Capabilities: policy.Matrix(models.Role(role)),
	})
}
