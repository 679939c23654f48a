package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
)

// Payload is the body POSTed to merchants
type Payload struct {
	Event     domain.Event `json:"event"`
	Timestamp int64        `json:"timestamp"`
	Data      PayloadData  `json:"data"`
}

// PayloadData holds exactly one of payment or refund
type PayloadData struct {
	Payment *PaymentData `json:"payment,omitempty"`
	Refund  *RefundData  `json:"refund,omitempty"`
}

// PaymentData is the payment snapshot sent to merchants
type PaymentData struct {
	ID        string               `json:"id"`
	OrderID   string               `json:"order_id"`
	Amount    int64                `json:"amount"`
	Currency  string               `json:"currency"`
	Method    domain.PaymentMethod `json:"method"`
	VPA       *string              `json:"vpa"`
	Status    domain.PaymentStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

// RefundData is the refund snapshot sent to merchants
type RefundData struct {
	ID          string              `json:"id"`
	PaymentID   string              `json:"payment_id"`
	Amount      int64               `json:"amount"`
	Status      domain.RefundStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	ProcessedAt *time.Time          `json:"processed_at"`
}

// NewPaymentPayload serializes the webhook body for a settled payment.
// The returned bytes are what gets signed and sent on every attempt.
func NewPaymentPayload(p *domain.Payment, at time.Time) (json.RawMessage, error) {
	return marshal(Payload{
		Event:     p.SettledEvent(),
		Timestamp: at.Unix(),
		Data: PayloadData{Payment: &PaymentData{
			ID:        p.ID,
			OrderID:   p.OrderID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Method:    p.Method,
			VPA:       p.VPA,
			Status:    p.Status,
			CreatedAt: p.CreatedAt,
		}},
	})
}

// NewRefundPayload serializes the webhook body for a processed refund
func NewRefundPayload(r *domain.Refund, at time.Time) (json.RawMessage, error) {
	return marshal(Payload{
		Event:     domain.EventRefundProcessed,
		Timestamp: at.Unix(),
		Data: PayloadData{Refund: &RefundData{
			ID:          r.ID,
			PaymentID:   r.PaymentID,
			Amount:      r.Amount,
			Status:      r.Status,
			CreatedAt:   r.CreatedAt,
			ProcessedAt: r.ProcessedAt,
		}},
	})
}

func marshal(p Payload) (json.RawMessage, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", p.Event, err)
	}
	return data, nil
}
