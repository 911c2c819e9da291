package handlers

import (
	"net/http"

	"tripdesk/internal/common"
	"tripdesk/internal/services"

	"github.com/labstack/echo/v4"
)

type InviteHandlers struct {
	inviteService services.InviteService
}

func NewInviteHandlers(inviteService services.InviteService) *InviteHandlers {
	return &InviteHandlers{inviteService: inviteService}
}

// ListPendingInvites godoc
// @Summary  Invites that are neither accepted nor expired
// @Tags     invites
// @Produce  json
// @Param    orgID  path     string  true  "Organization ID"
// @Success  200    {array}  models.Invite
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/invites [get]
func (h *InviteHandlers) ListPendingInvites(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	invites, err := h.inviteService.ListPending(c.Request().Context(), orgID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invites)
}

// RevokeInvite godoc
// @Summary  Revoke an invite
// @Tags     invites
// @Param    orgID  path  string  true  "Organization ID"
// @Param    id     path  string  true  "Invite ID"
// @Success  204
// @Failure  404  {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/orgs/{orgID}/invites/{id} [delete]
func (h *InviteHandlers) RevokeInvite(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	id, err := common.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.inviteService.Revoke(c.Request().Context(), orgID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// PreviewInvite godoc
// @Summary  Public details of an invite before signing in
// @Tags     invites
// @Produce  json
// @Param    token  path      string  true  "Invite token"
// @Success  200    {object}  models.InvitePreview
// @Failure  404    {object}  common.ErrorResponse
// @Router   /v1/invites/{token} [get]
func (h *InviteHandlers) PreviewInvite(c echo.Context) error {
	preview, err := h.inviteService.Preview(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, preview)
}

// AcceptInvite godoc
// @Summary  Join the organization of an invite
// @Tags     invites
// @Produce  json
// @Param    token  path      string  true  "Invite token"
// @Success  200    {object}  models.Member
// @Failure  403    {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/invites/{token}/accept [post]
func (h *InviteHandlers) AcceptInvite(c echo.Context) error {
	userID, email, err := currentUser(c)
	if err != nil {
		return err
	}
	member, err := h.inviteService.Accept(c.Request().Context(), c.Param("token"), userID, email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, member)
}
