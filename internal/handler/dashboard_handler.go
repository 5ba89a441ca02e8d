package handler

import (
	"net/http"
	"time"

	"millorders/internal/middleware"
	"millorders/internal/service"
	"millorders/pkg/response"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type DashboardHandler struct {
	dashboardService service.DashboardService
	auth             *middleware.Auth
	now              func() time.Time
}

func NewDashboardHandler(dashboardService service.DashboardService, auth *middleware.Auth) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, auth: auth, now: time.Now}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard", h.auth.RequirePermission("dashboard.read"), h.GetSummary)
}

// GetSummary godoc
// @Summary      Dashboard summary
// @Description  Order counts by status, billed, paid and outstanding totals, overdue count and top products. Defaults to the last 30 days.
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "YYYY-MM-DD"
// @Param        end_date    query     string  false  "YYYY-MM-DD, inclusive"
// @Success      200  {object}  response.Response{data=model.DashboardSummary}
// @Failure      400  {object}  response.Response
// @Router       /api/dashboard [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	today := h.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -29)
	end := today

	if v := c.Query("start_date"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "start_date must be YYYY-MM-DD"))
			return
		}
		start = parsed
	}
	if v := c.Query("end_date"); v != "" {
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "end_date must be YYYY-MM-DD"))
			return
		}
		end = parsed
	}
	// end date is inclusive
	end = end.Add(24*time.Hour - time.Nanosecond)

	summary, err := h.dashboardService.GetSummary(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
