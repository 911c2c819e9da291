package handlers

import (
	"net/http"

	"tripdesk/internal/analytics"

	"github.com/labstack/echo/v4"
)

type DashboardHandlers struct {
	analyticsService *analytics.AnalyticsService
}

func NewDashboardHandlers(analyticsService *analytics.AnalyticsService) *DashboardHandlers {
	return &DashboardHandlers{analyticsService: analyticsService}
}

// GetDashboard godoc
// @Summary      Dashboard summary
// @Description  Sales, receivables and overdue figures for a window. filter is one of today, this_week, this_month, this_year, last_7_days, last_30_days, last_90_days, all or custom (with from and to).
// @Tags         dashboard
// @Produce      json
// @Param        orgID   path      string  true   "Organization ID"
// @Param        filter  query     string  false  "Quick filter"  default(this_month)
// @Param        from    query     string  false  "First day, YYYY-MM-DD"
// @Param        to      query     string  false  "Last day, YYYY-MM-DD"
// @Success      200     {object}  analytics.Summary
// @Failure      400     {object}  common.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/orgs/{orgID}/dashboard [get]
func (h *DashboardHandlers) GetDashboard(c echo.Context) error {
	orgID, err := currentOrg(c)
	if err != nil {
		return err
	}
	summary, err := h.analyticsService.Summary(c.Request().Context(), orgID,
		c.QueryParam("filter"), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
