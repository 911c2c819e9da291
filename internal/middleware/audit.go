package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

const auditWriteTimeout = 2 * time.Second

// Audit records one entry per state-changing request made inside an
// organization: who, in which role, what route and with which outcome.
// Denied attempts are recorded too. A failed write is logged and never fails
// the request.
func Audit(recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isMutation(c.Request().Method) {
				return next(c)
			}

			err := next(c)
			ctx := c.Request().Context()
			orgID, ok := common.GetOrgIDFromContext(ctx)
			if !ok {
				return err
			}
			if err != nil {
				// write the error response now so the status is known
				c.Error(err)
			}

			entry := &models.AuditLog{
				OrgID:    orgID,
				Action:   c.Request().Method + " " + c.Path(),
				Resource: auditResource(c.Path()),
				Status:   c.Response().Status,
				Success:  err == nil,
			}
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				entry.UserID = &userID
			}
			entry.Role, _ = common.GetMemberRoleFromContext(ctx)
			if id := auditResourceID(c); id != "" {
				entry.ResourceID = &id
			}
			if err != nil {
				msg := err.Error()
				entry.Error = &msg
			}
			if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
				entry.RequestID = &rid
			}

			log := logger.FromContext(ctx)
			log.Info("audit",
				zap.String("org_id", orgID.String()),
				zap.String("role", entry.Role),
				zap.String("action", entry.Action),
				zap.Int("status", entry.Status),
				zap.Bool("success", entry.Success))

			if recorder != nil {
				writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
				defer cancel()
				if rerr := recorder.Record(writeCtx, entry); rerr != nil {
					log.Warn("audit entry not persisted", zap.Error(rerr))
				}
			}
			return nil
		}
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// auditResource is the first route segment after the organization id,
// "organization" for routes on the organization itself.
func auditResource(path string) string {
	_, rest, found := strings.Cut(path, ":orgID")
	if !found {
		return "organization"
	}
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return "organization"
	}
	segment, _, _ := strings.Cut(rest, "/")
	if segment == "logo" {
		return "organization"
	}
	return segment
}

func auditResourceID(c echo.Context) string {
	for _, name := range c.ParamNames() {
		if name == "id" {
			return c.Param("id")
		}
	}
	return ""
}
