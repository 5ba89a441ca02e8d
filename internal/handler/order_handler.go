package handler

import (
	"net/http"

	"millorders/internal/middleware"
	"millorders/internal/service"
	"millorders/pkg/pagination"
	"millorders/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
	auth         *middleware.Auth
}

func NewOrderHandler(orderService service.OrderService, auth *middleware.Auth) *OrderHandler {
	return &OrderHandler{orderService: orderService, auth: auth}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/orders")
	{
		group.GET("", h.auth.RequirePermission("orders.read"), h.ListOrders)
		group.GET("/:id", h.auth.RequirePermission("orders.read"), h.GetOrder)
		group.GET("/:id/actions", h.auth.RequirePermission("orders.read"), h.GetAvailableActions)
		group.POST("", h.auth.RequirePermission("orders.create"), h.CreateOrder)
		group.POST("/quick", h.auth.RequirePermission("orders.create"), h.CreateQuickOrder)
		group.PUT("/:id", h.auth.RequirePermission("orders.update"), h.UpdateOrder)
		// per-action permissions are enforced by the state machine
		group.POST("/:id/transitions", h.auth.RequirePermission("orders.read"), h.TransitionOrder)
		group.POST("/:id/payments", h.auth.RequirePermission("orders.update"), h.RecordPayment)
	}
}

// ListOrders godoc
// @Summary      List orders
// @Description  Paginated orders, newest first, filtered by status, payment status, customer or a search on number and customer name
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        status          query     string  false  "Order status"
// @Param        payment_status  query     string  false  "Payment status"
// @Param        customer_id     query     string  false  "Customer ID"
// @Param        search          query     string  false  "Order number or customer name"
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), middleware.ActorFrom(c), service.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		CustomerID:    c.Query("customer_id"),
		Search:        c.Query("search"),
		Page:          p.Page,
		Limit:         p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Page(orders, total, p.Page, p.Limit)))
}

// GetOrder godoc
// @Summary      Get order
// @Description  Order with items, totals and the actions the caller may take next
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.orderService.GetOrder(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, o))
}

// GetAvailableActions godoc
// @Summary      Available actions
// @Description  Lifecycle actions the caller may apply to the order now
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]string}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/actions [get]
func (h *OrderHandler) GetAvailableActions(c *gin.Context) {
	actions, err := h.orderService.AvailableActions(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, actions))
}

// CreateOrder godoc
// @Summary      Create itemized order
// @Description  Validates every item, prices the order and stores it as pending
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Order"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.orderService.CreateOrder(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, o))
}

// CreateQuickOrder godoc
// @Summary      Create quick order
// @Description  Builds an order from catalog products stocked by a godown serving the customer
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateQuickOrderRequest  true  "Quick order"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders/quick [post]
func (h *OrderHandler) CreateQuickOrder(c *gin.Context) {
	var req service.CreateQuickOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.orderService.CreateQuickOrder(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, o))
}

// UpdateOrder godoc
// @Summary      Update order
// @Description  Patches terms, notes, pricing inputs or items while the order is pending or approved
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.orderService.UpdateOrder(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, o))
}

// TransitionOrder godoc
// @Summary      Apply lifecycle action
// @Description  approve, reject (notes required), startProduction, markReady, dispatch, markDelivered, complete or cancel
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Order ID"
// @Param        payload  body      service.TransitionOrderRequest  true  "Action"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/transitions [post]
func (h *OrderHandler) TransitionOrder(c *gin.Context) {
	var req service.TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.orderService.TransitionOrder(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, o))
}

// RecordPayment godoc
// @Summary      Record payment
// @Description  Adds a received amount and re-derives the payment status
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Order ID"
// @Param        payload  body      service.RecordPaymentRequest  true  "Amount"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id}/payments [post]
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	o, err := h.orderService.RecordPayment(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, o))
}
