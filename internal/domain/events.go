package domain

import "time"

// Event names a lifecycle change delivered to merchants
type Event string

const (
	EventPaymentSuccess  Event = "payment.success"
	EventPaymentFailed   Event = "payment.failed"
	EventRefundProcessed Event = "refund.processed"
)

// LifecycleEvent is published to the event stream after a committed transition
type LifecycleEvent struct {
	Event      Event     `json:"event"`
	EntityID   string    `json:"entity_id"`
	MerchantID string    `json:"merchant_id"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentLifecycleEvent builds the stream event for a settled payment
func PaymentLifecycleEvent(p *Payment, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		Event:      p.SettledEvent(),
		EntityID:   p.ID,
		MerchantID: p.MerchantID,
		Amount:     p.Amount,
		OccurredAt: at,
	}
}

// RefundLifecycleEvent builds the stream event for a processed refund
func RefundLifecycleEvent(r *Refund, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		Event:      EventRefundProcessed,
		EntityID:   r.ID,
		MerchantID: r.MerchantID,
		Amount:     r.Amount,
		OccurredAt: at,
	}
}
