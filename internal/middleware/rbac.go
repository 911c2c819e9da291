package middleware

import (
	"net/http"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/policy"

	"github.com/labstack/echo/v4"
)

// RequireCapability lets the request through when the caller's role in the
// resolved organization may perform action. It must run after RequireMembership.
func RequireCapability(action policy.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := common.GetMemberRoleFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "organization membership not resolved")
			}
			decision := policy.Decide(models.Role(role), action)
			if !decision.Allowed {
				return &common.ForbiddenError{Reason: decision.Reason}
			}
			return next(c)
		}
	}
}
