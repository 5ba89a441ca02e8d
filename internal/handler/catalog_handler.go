package handler

import (
	"net/http"

	"millorders/internal/middleware"
	"millorders/internal/service"
	"millorders/pkg/pagination"
	"millorders/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	auth           *middleware.Auth
}

func NewCatalogHandler(catalogService service.CatalogService, auth *middleware.Auth) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, auth: auth}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/catalog")
	group.Use(h.auth.RequirePermission("catalog.read"))
	{
		group.GET("/products", h.ListProducts)
		group.GET("/quick/:customerId", h.QuickProducts)
	}
}

// ListProducts godoc
// @Summary      List products
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Name or SKU"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)
	products, total, err := h.catalogService.ListProducts(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(products, total, p.Page, p.Limit)))
}

// QuickProducts godoc
// @Summary      Quick order catalog
// @Description  Active products from godowns that serve the customer's city or area
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        customerId  path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=[]service.CatalogProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/catalog/quick/{customerId} [get]
func (h *CatalogHandler) QuickProducts(c *gin.Context) {
	products, err := h.catalogService.QuickProducts(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}
