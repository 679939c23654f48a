package dto

import (
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
)

// CreatePaymentRequest represents a request to create a payment
type CreatePaymentRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Method  string `json:"method" binding:"required"`
	VPA     string `json:"vpa,omitempty"`
}

// PaymentSummary is the list view of a payment
type PaymentSummary struct {
	ID        string               `json:"id"`
	OrderID   string               `json:"order_id"`
	Amount    int64                `json:"amount"`
	Currency  string               `json:"currency"`
	Method    domain.PaymentMethod `json:"method"`
	Status    domain.PaymentStatus `json:"status"`
	Captured  bool                 `json:"captured"`
	CreatedAt time.Time            `json:"created_at"`
}

// PaymentListResponse represents a list of payments
type PaymentListResponse struct {
	Count int               `json:"count"`
	Items []*PaymentSummary `json:"items"`
}

// FromPayments converts domain payments to the list response
func FromPayments(payments []*domain.Payment) *PaymentListResponse {
	items := make([]*PaymentSummary, 0, len(payments))
	for _, p := range payments {
		items = append(items, &PaymentSummary{
			ID:        p.ID,
			OrderID:   p.OrderID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Method:    p.Method,
			Status:    p.Status,
			Captured:  p.Captured,
			CreatedAt: p.CreatedAt,
		})
	}
	return &PaymentListResponse{Count: len(items), Items: items}
}
