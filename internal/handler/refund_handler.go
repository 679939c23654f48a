package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/dto"
	"github.com/prohmpiriya/payment-gateway/internal/middleware"
	"github.com/prohmpiriya/payment-gateway/internal/service"
	"github.com/prohmpiriya/payment-gateway/pkg/response"
)

// RefundHandler handles refund HTTP endpoints
type RefundHandler struct {
	refundService service.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService service.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// CreateRefund handles POST /api/v1/payments/:id/refunds
func (h *RefundHandler) CreateRefund(c *gin.Context) {
	var req dto.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	refund, err := h.refundService.CreateRefund(c.Request.Context(), &service.CreateRefundRequest{
		MerchantID: middleware.MerchantID(c),
		PaymentID:  c.Param("id"),
		Amount:     req.Amount,
		Reason:     req.Reason,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, refund)
}

// GetRefund handles GET /api/v1/refunds/:id
func (h *RefundHandler) GetRefund(c *gin.Context) {
	refund, err := h.refundService.GetRefund(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, refund)
}
