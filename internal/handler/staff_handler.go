package handler

import (
	"net/http"

	"millorders/internal/middleware"
	"millorders/internal/service"
	"millorders/pkg/pagination"
	"millorders/pkg/response"

	"github.com/gin-gonic/gin"
)

// StaffHandler manages the mill's staff accounts
type StaffHandler struct {
	userService service.UserService
	auth        *middleware.Auth
}

func NewStaffHandler(userService service.UserService, auth *middleware.Auth) *StaffHandler {
	return &StaffHandler{userService: userService, auth: auth}
}

func (h *StaffHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/staff")
	group.Use(h.auth.RequirePermission("users.manage"))
	{
		group.GET("", h.ListStaff)
		group.GET("/:id", h.GetStaff)
		group.POST("", h.CreateStaff)
	}
}

// ListStaff godoc
// @Summary      List staff
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        role   query     string  false  "admin, manager, sales or production"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /api/staff [get]
func (h *StaffHandler) ListStaff(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), c.Query("role"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(users, total, p.Page, p.Limit)))
}

// GetStaff godoc
// @Summary      Get staff member
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/staff/{id} [get]
func (h *StaffHandler) GetStaff(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CreateStaff godoc
// @Summary      Create staff account
// @Description  Creates an account with one of the built-in roles
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "New account"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/staff [post]
func (h *StaffHandler) CreateStaff(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}
