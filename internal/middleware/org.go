package middleware

import (
	"errors"
	"net/http"

	"tripdesk/internal/common"
	"tripdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderOrganizationID = "X-Organization-ID"

// RequireMembership resolves the organization of the request from the
// :orgID path parameter or the X-Organization-ID header and loads the
// caller's active membership in it.
func RequireMembership(memberRepo repositories.MemberRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userID, ok := common.GetUserIDFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
			}

			raw := c.Param("orgID")
			if raw == "" {
				raw = c.Request().Header.Get(HeaderOrganizationID)
			}
			if raw == "" {
				return common.NewValidationError("organization_id", "organization is required")
			}
			orgID, err := uuid.Parse(raw)
			if err != nil {
				return common.NewValidationError("organization_id", "must be a valid UUID")
			}

			member, err := memberRepo.GetByOrgAndUser(ctx, orgID, userID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return &common.ForbiddenError{Reason: "you are not a member of this organization"}
				}
				return common.SecureErrorMessage("get membership", err)
			}
			if !member.Active {
				return &common.ForbiddenError{Reason: "your membership in this organization is inactive"}
			}

			c.SetRequest(c.Request().WithContext(common.WithMembership(ctx, orgID, string(member.Role))))
			return next(c)
		}
	}
}
