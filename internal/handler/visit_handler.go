package handler

import (
	"net/http"

	"millorders/internal/middleware"
	"millorders/internal/service"
	"millorders/pkg/pagination"
	"millorders/pkg/response"

	"github.com/gin-gonic/gin"
)

type VisitHandler struct {
	visitService service.VisitService
	auth         *middleware.Auth
}

func NewVisitHandler(visitService service.VisitService, auth *middleware.Auth) *VisitHandler {
	return &VisitHandler{visitService: visitService, auth: auth}
}

func (h *VisitHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/visits")
	{
		group.GET("", h.auth.RequirePermission("visits.read"), h.ListVisits)
		group.GET("/:id", h.auth.RequirePermission("visits.read"), h.GetVisit)
		group.POST("", h.auth.RequirePermission("visits.write"), h.CreateVisit)
		group.POST("/:id/status", h.auth.RequirePermission("visits.write"), h.UpdateVisitStatus)
	}
}

// ListVisits godoc
// @Summary      List visits
// @Tags         visits
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "pending, in_progress, completed, cancelled"
// @Param        customer_id  query     string  false  "Customer ID"
// @Param        assigned_to  query     string  false  "User ID; 'me' for the caller"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/visits [get]
func (h *VisitHandler) ListVisits(c *gin.Context) {
	p := pagination.Parse(c)
	assignedTo := c.Query("assigned_to")
	if assignedTo == "me" {
		assignedTo = middleware.ActorFrom(c).UserID.String()
	}

	visits, total, err := h.visitService.ListVisits(c.Request.Context(), service.VisitFilter{
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		AssignedTo: assignedTo,
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(visits, total, p.Page, p.Limit)))
}

// GetVisit godoc
// @Summary      Get visit
// @Tags         visits
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Visit ID"
// @Success      200  {object}  response.Response{data=service.VisitResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/visits/{id} [get]
func (h *VisitHandler) GetVisit(c *gin.Context) {
	v, err := h.visitService.GetVisit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, v))
}

// CreateVisit godoc
// @Summary      Schedule a customer visit
// @Tags         visits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateVisitRequest  true  "Visit"
// @Success      201      {object}  response.Response{data=service.VisitResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/visits [post]
func (h *VisitHandler) CreateVisit(c *gin.Context) {
	var req service.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	v, err := h.visitService.CreateVisit(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, v))
}

// UpdateVisitStatus godoc
// @Summary      Start, complete or cancel a visit
// @Description  Optionally records the visit location and photo URLs
// @Tags         visits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Visit ID"
// @Param        payload  body      service.UpdateVisitStatusRequest  true  "Action"
// @Success      200      {object}  response.Response{data=service.VisitResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/visits/{id}/status [post]
func (h *VisitHandler) UpdateVisitStatus(c *gin.Context) {
	var req service.UpdateVisitStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	v, err := h.visitService.UpdateVisitStatus(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, v))
}
