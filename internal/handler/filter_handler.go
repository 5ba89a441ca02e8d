package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"millorders/internal/middleware"
	"millorders/internal/service"
	"millorders/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxFilterBytes = 16 << 10

type FilterHandler struct {
	filterService service.FilterService
	auth          *middleware.Auth
}

func NewFilterHandler(filterService service.FilterService, auth *middleware.Auth) *FilterHandler {
	return &FilterHandler{filterService: filterService, auth: auth}
}

func (h *FilterHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/filters")
	group.Use(h.auth.Authenticated())
	{
		group.GET("/:key", h.GetFilter)
		group.PUT("/:key", h.SaveFilter)
		group.DELETE("/:key", h.DeleteFilter)
	}
}

// GetFilter godoc
// @Summary      Get saved filter
// @Description  The caller's saved filter for a list screen; {} when none is saved
// @Tags         filters
// @Security     BearerAuth
// @Produce      json
// @Param        key  path      string  true  "Filter key, e.g. orders.list"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/filters/{key} [get]
func (h *FilterHandler) GetFilter(c *gin.Context) {
	value, err := h.filterService.GetFilter(c.Request.Context(), middleware.ActorFrom(c), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, value))
}

// SaveFilter godoc
// @Summary      Save filter
// @Tags         filters
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        key      path      string  true  "Filter key"
// @Param        payload  body      object  true  "Any JSON value"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/filters/{key} [put]
func (h *FilterHandler) SaveFilter(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxFilterBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, response.Error(http.StatusRequestEntityTooLarge, "Filter is too large"))
			return
		}
		badRequest(c, err)
		return
	}

	if err := h.filterService.SaveFilter(c.Request.Context(), middleware.ActorFrom(c), c.Param("key"), json.RawMessage(body)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Filter saved"))
}

// DeleteFilter godoc
// @Summary      Delete filter
// @Tags         filters
// @Security     BearerAuth
// @Produce      json
// @Param        key  path      string  true  "Filter key"
// @Success      200  {object}  response.Response
// @Router       /api/filters/{key} [delete]
func (h *FilterHandler) DeleteFilter(c *gin.Context) {
	if err := h.filterService.DeleteFilter(c.Request.Context(), middleware.ActorFrom(c), c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Filter deleted"))
}
