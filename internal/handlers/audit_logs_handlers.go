package handlers

import (
	"net/http"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers serves the organization activity log.
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// ListAuditLogs godoc
// @Summary      Organization activity log
// @Description  State-changing requests made in the organization, newest first. from and to are RFC 3339 timestamps.
// @Tags         audit
// @Produce      json
// @Param        orgID        path     string  true   "Organization ID"
// @Param        user_id      query    string  false  "Acting user"
// @Param        resource     query    string  false  "orders, payments, installments, members..."
// @Param        resource_id  query    string  false  "Resource ID"
// @Param        from         query    string  false  "Start, inclusive"
// @Param        to           query    string  false  "End, exclusive"
// @Param        limit        query    int     false  "Page size"
// @Param        offset       query    int     false  "Offset"
// @Success      200          {array}  models.AuditLog
// @Failure      403          {object} common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/orgs/{orgID}/audit-logs [get]
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	filters, err := auditFiltersFromQuery(c)
	if err != nil {
		return err
	}
	entries, err := h.auditLogsService.List(c.Request().Context(), orgID, filters)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*models.AuditLog{}
	}
	return c.JSON(http.StatusOK, entries)
}

func auditFiltersFromQuery(c echo.Context) (*models.AuditLogFilters, error) {
	limit, offset, err := common.PaginationFromQuery(c)
	if err != nil {
		return nil, err
	}
	filters := &models.AuditLogFilters{
		Resource:   c.QueryParam("resource"),
		ResourceID: c.QueryParam("resource_id"),
		Limit:      limit,
		Offset:     offset,
	}
	if v := c.QueryParam("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, common.NewValidationError("user_id", "must be a valid UUID")
		}
		filters.UserID = &id
	}
	for name, dst := range map[string]**time.Time{"from": &filters.From, "to": &filters.To} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, common.NewValidationError(name, "must be an RFC 3339 timestamp")
		}
		*dst = &t
	}
	return filters, nil
}
