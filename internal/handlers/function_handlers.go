package handlers

import (
	"net/http"

	"tripdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// FunctionHandlers serves the privileged one-shot operations: invite
// issuance, administrative password changes and reminder emails.
type FunctionHandlers struct {
	inviteService   services.InviteService
	passwordService services.PasswordService
	reminderService services.ReminderService
}

func NewFunctionHandlers(inviteService services.InviteService, passwordService services.PasswordService, reminderService services.ReminderService) *FunctionHandlers {
	return &FunctionHandlers{
		inviteService:   inviteService,
		passwordService: passwordService,
		reminderService: reminderService,
	}
}

// SendInvite godoc
// @Summary      Invite someone to an organization
// @Description  Reuses the open invite for the same address. Email delivery failures come back as a warning.
// @Tags         functions
// @Accept       json
// @Produce      json
// @Param        body  body      services.SendInviteRequest  true  "Invite"
// @Success      200   {object}  services.SendInviteResult
// @Failure      403   {object}  common.ErrorResponse
// @Failure      429   {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/functions/send-invite [post]
func (h *FunctionHandlers) SendInvite(c echo.Context) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	var req services.SendInviteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.InvitedBy = userID
	req.Origin = c.Request().Header.Get(echo.HeaderOrigin)

	result, err := h.inviteService.Send(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// AdminUpdatePassword godoc
// @Summary  Set another user's password
// @Tags     functions
// @Accept   json
// @Produce  json
// @Param    body  body      services.AdminUpdatePasswordRequest  true  "Password change"
// @Success  200   {object}  map[string]bool
// @Failure  403   {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/functions/admin-update-password [post]
func (h *FunctionHandlers) AdminUpdatePassword(c echo.Context) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	var req services.AdminUpdatePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.passwordService.AdminUpdatePassword(c.Request().Context(), userID, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// SendReminder godoc
// @Summary  Email a payment reminder
// @Tags     functions
// @Accept   json
// @Produce  json
// @Param    body  body      services.SendReminderRequest  true  "Reminder"
// @Success  200   {object}  map[string]bool
// @Failure  429   {object}  common.ErrorResponse
// @Security BearerAuth
// @Router   /v1/functions/send-reminder [post]
func (h *FunctionHandlers) SendReminder(c echo.Context) error {
	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}
	var req services.SendReminderRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.reminderService.Send(c.Request().Context(), userID, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
