package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"tripdesk/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bind decodes the body into req and runs struct validation.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return common.NewValidationError("body", "invalid request format")
	}
	return c.Validate(req)
}

func currentUser(c echo.Context) (uuid.UUID, string, error) {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, "", echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	}
	email, _ := common.GetUserEmailFromContext(ctx)
	return userID, email, nil
}

func currentOrg(c echo.Context) (uuid.UUID, error) {
	orgID, ok := common.GetOrgIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "organization membership not resolved")
	}
	return orgID, nil
}

// expectedVersion reads the optimistic-concurrency precondition from If-Match
// ("3", W/"3") or the expected_version query parameter. Absent means unconditional.
func expectedVersion(c echo.Context) (*int, error) {
	raw := strings.TrimSpace(c.Request().Header.Get("If-Match"))
	field := "If-Match"
	if raw == "" || raw == "*" {
		raw = c.QueryParam("expected_version")
		field = "expected_version"
	}
	if raw == "" || raw == "*" {
		return nil, nil
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, common.NewValidationError(field, "must be a payment version number")
	}
	return &v, nil
}

func setETag(c echo.Context, version int) {
	c.Response().Header().Set("ETag", fmt.Sprintf(`"%d"`, version))
}
