package service

import (
	"context"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
)

// OrderService defines the interface for order business logic
type OrderService interface {
	// CreateOrder creates an order for the merchant
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error)

	// GetOrder retrieves an order owned by the merchant
	GetOrder(ctx context.Context, merchantID, orderID string) (*domain.Order, error)
}

// PaymentService defines the interface for payment business logic
type PaymentService interface {
	// CreatePayment inserts a pending payment and enqueues its processing job
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*domain.Payment, error)

	// GetPayment retrieves a payment owned by the merchant
	GetPayment(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error)

	// GetPublicPayment retrieves a payment for unauthenticated status polling
	GetPublicPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListPayments returns the merchant's payments, newest first
	ListPayments(ctx context.Context, merchantID string) ([]*domain.Payment, error)

	// CapturePayment captures a successful payment exactly once
	CapturePayment(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error)

	// ProcessPayment settles a pending payment. Called by the payment worker.
	ProcessPayment(ctx context.Context, paymentID string) error
}

// RefundService defines the interface for refund business logic
type RefundService interface {
	// CreateRefund inserts a pending refund within the payment's refundable balance
	CreateRefund(ctx context.Context, req *CreateRefundRequest) (*domain.Refund, error)

	// GetRefund retrieves a refund owned by the merchant
	GetRefund(ctx context.Context, merchantID, refundID string) (*domain.Refund, error)

	// ProcessRefund completes a pending refund. Called by the refund worker.
	ProcessRefund(ctx context.Context, refundID string) error
}

// MerchantService resolves merchants for authentication and test tooling
type MerchantService interface {
	// Authenticate resolves the merchant owning apiKey
	Authenticate(ctx context.Context, apiKey string) (*domain.Merchant, error)

	// GetTestMerchant returns the seeded test merchant
	GetTestMerchant(ctx context.Context) (*domain.Merchant, error)

	// SeedTestMerchant creates or refreshes the test merchant
	SeedTestMerchant(ctx context.Context, webhookURL string) (*domain.Merchant, error)
}

// CreateOrderRequest represents the input for creating an order
type CreateOrderRequest struct {
	MerchantID string
	Amount     int64
	Currency   string
	Receipt    string
}

// CreatePaymentRequest represents the input for creating a payment
type CreatePaymentRequest struct {
	MerchantID string
	OrderID    string
	Method     string
	VPA        string
	// Public resolves the order without merchant scoping, for hosted checkout
	Public bool
}

// CreateRefundRequest represents the input for creating a refund
type CreateRefundRequest struct {
	MerchantID string
	PaymentID  string
	Amount     int64
	Reason     string
}
