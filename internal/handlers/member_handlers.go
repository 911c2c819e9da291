package handlers

import (
	"net/http"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/services"

	"github.com/labstack/echo/v4"
)

type MemberHandlers struct {
	memberService services.MemberService
}

func NewMemberHandlers(memberService services.MemberService) *MemberHandlers {
	return &MemberHandlers{memberService: memberService}
}

type changeRoleRequest struct {
	Role models.Role `json:"role" validate:"required"`
}

// ListMembers godoc
// @Summary  List members, active and inactive
// @Tags     members
// @Produce  json
// @Param    orgID  path     string  true  "Organization ID"
// @Success  200    {array}  models.Member
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/members [get]
func (h *MemberHandlers) ListMembers(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	members, err := h.memberService.List(c.Request().Context(), orgID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, members)
}

// ChangeRole godoc
// @Summary  Change a member's role
// @Tags     members
// @Accept   json
// @Produce  json
// @Param    orgID  path      string             true  "Organization ID"
// @Param    id     path      string             true  "Member ID"
// @Param    body   body      changeRoleRequest  true  "New role"
// @Success  200    {object}  models.Member
// @Failure  403    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/members/{id}/role [patch]
func (h *MemberHandlers) ChangeRole(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	actorID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	memberID, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req changeRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.memberService.ChangeRole(c.Request().Context(), orgID, actorID, memberID, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// DeactivateMember godoc
// @Summary  Deactivate a member
// @Tags     members
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Param    id     path      string  true  "Member ID"
// @Success  200    {object}  models.Member
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/members/{id}/deactivate [post]
func (h *MemberHandlers) DeactivateMember(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	actorID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	memberID, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	member, err := h.memberService.Deactivate(c.Request().Context(), orgID, actorID, memberID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}

// ReactivateMember godoc
// @Summary  Reactivate a member within the user limit
// @Tags     members
// @Produce  json
// @Param    orgID  path      string  true  "Organization ID"
// @Param    id     path      string  true  "Member ID"
// @Success  200    {object}  models.Member
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/members/{id}/reactivate [post]
func (h *MemberHandlers) ReactivateMember(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	memberID, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	member, err := h.memberService.Reactivate(c.Request().Context(), orgID, memberID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}
