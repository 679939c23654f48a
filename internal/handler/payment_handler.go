package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/dto"
	"github.com/prohmpiriya/payment-gateway/internal/idempotency"
	"github.com/prohmpiriya/payment-gateway/internal/middleware"
	"github.com/prohmpiriya/payment-gateway/internal/service"
	"github.com/prohmpiriya/payment-gateway/pkg/response"
)

// IdempotencyKeyHeader lets merchants retry payment creation safely
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles payment HTTP endpoints
type PaymentHandler struct {
	paymentService service.PaymentService
	guard          *idempotency.Guard
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService service.PaymentService, guard *idempotency.Guard) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		guard:          guard,
	}
}

// CreatePayment handles POST /api/v1/payments.
// A repeated Idempotency-Key replays the first response byte for byte.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "order_id and method are required")
		return
	}

	svcReq := &service.CreatePaymentRequest{
		MerchantID: middleware.MerchantID(c),
		OrderID:    req.OrderID,
		Method:     req.Method,
		VPA:        req.VPA,
	}

	body, err := h.guard.Execute(c.Request.Context(), svcReq.MerchantID, c.GetHeader(IdempotencyKeyHeader),
		func(ctx context.Context) ([]byte, error) {
			payment, err := h.paymentService.CreatePayment(ctx, svcReq)
			if err != nil {
				return nil, err
			}
			data, err := json.Marshal(payment)
			if err != nil {
				return nil, fmt.Errorf("failed to encode payment: %w", err)
			}
			return data, nil
		})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Raw(c, http.StatusCreated, body)
}

// CreatePublicPayment handles POST /api/v1/payments/public, used by the
// hosted checkout without merchant credentials
func (h *PaymentHandler) CreatePublicPayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "order_id and method are required")
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), &service.CreatePaymentRequest{
		OrderID: req.OrderID,
		Method:  req.Method,
		VPA:     req.VPA,
		Public:  true,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, payment)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, payment)
}

// GetPublicPayment handles GET /api/v1/payments/:id/public for checkout status polling
func (h *PaymentHandler) GetPublicPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPublicPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, payment)
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	payments, err := h.paymentService.ListPayments(c.Request.Context(), middleware.MerchantID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, dto.FromPayments(payments))
}

// CapturePayment handles POST /api/v1/payments/:id/capture
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	payment, err := h.paymentService.CapturePayment(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, payment)
}
