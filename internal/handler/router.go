package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/middleware"
	"github.com/prohmpiriya/payment-gateway/internal/service"
)

// Handlers groups the API handlers
type Handlers struct {
	Health  *HealthHandler
	Order   *OrderHandler
	Payment *PaymentHandler
	Refund  *RefundHandler
	Test    *TestHandler
}

// RegisterRoutes mounts the API on r. Routes under /api/v1 require the
// X-Api-Key header except the public checkout and test endpoints.
func RegisterRoutes(r gin.IRouter, h *Handlers, merchants service.MerchantService) {
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)

	v1 := r.Group("/api/v1")

	test := v1.Group("/test")
	{
		test.GET("/merchant", h.Test.GetTestMerchant)
		test.GET("/jobs/status", h.Test.GetJobStatus)
	}

	payments := v1.Group("/payments")
	{
		payments.POST("/public", h.Payment.CreatePublicPayment)
		payments.GET("/:id/public", h.Payment.GetPublicPayment)
	}

	auth := middleware.MerchantAuth(merchants)

	orders := v1.Group("/orders", auth)
	{
		orders.POST("", h.Order.CreateOrder)
		orders.GET("/:id", h.Order.GetOrder)
	}

	authed := payments.Group("", auth)
	{
		authed.POST("", h.Payment.CreatePayment)
		authed.GET("", h.Payment.ListPayments)
		authed.GET("/:id", h.Payment.GetPayment)
		authed.POST("/:id/capture", h.Payment.CapturePayment)
		authed.POST("/:id/refunds", h.Refund.CreateRefund)
	}

	refunds := v1.Group("/refunds", auth)
	{
		refunds.GET("/:id", h.Refund.GetRefund)
	}
}
