package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/dto"
	"github.com/prohmpiriya/payment-gateway/internal/middleware"
	"github.com/prohmpiriya/payment-gateway/internal/service"
	"github.com/prohmpiriya/payment-gateway/pkg/response"
)

// OrderHandler handles order HTTP endpoints
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &service.CreateOrderRequest{
		MerchantID: middleware.MerchantID(c),
		Amount:     req.Amount,
		Currency:   req.Currency,
		Receipt:    req.Receipt,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, order)
}

// GetOrder handles GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, order)
}
