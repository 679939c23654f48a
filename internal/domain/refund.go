package domain

import "time"

// RefundStatus represents the status of a refund
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusProcessed RefundStatus = "processed"
)

// Refund returns part or all of a successful payment
type Refund struct {
	ID          string       `json:"id"`
	PaymentID   string       `json:"payment_id"`
	MerchantID  string       `json:"merchant_id"`
	Amount      int64        `json:"amount"`
	Reason      string       `json:"reason,omitempty"`
	Status      RefundStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at"`
}

// NewRefund creates a pending refund. refunded is the sum of all existing refunds on payment.
func NewRefund(payment *Payment, amount, refunded int64, reason string) (*Refund, error) {
	if amount <= 0 {
		return nil, ErrInvalidRefundAmount
	}
	if payment.Status != PaymentStatusSuccess {
		return nil, ErrPaymentNotRefundable
	}
	if amount > RemainingRefundable(payment, refunded) {
		return nil, ErrRefundExceedsAmount
	}

	return &Refund{
		ID:         NewRefundID(),
		PaymentID:  payment.ID,
		MerchantID: payment.MerchantID,
		Amount:     amount,
		Reason:     reason,
		Status:     RefundStatusPending,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// RemainingRefundable returns how much of payment can still be refunded
func RemainingRefundable(payment *Payment, refunded int64) int64 {
	remaining := payment.Amount - refunded
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MarkProcessed completes a pending refund
func (r *Refund) MarkProcessed(at time.Time) error {
	if r.Status != RefundStatusPending {
		return ErrInvalidTransition
	}
	r.Status = RefundStatusProcessed
	r.ProcessedAt = &at
	return nil
}

// IsFinal checks if the refund is in a final state
func (r *Refund) IsFinal() bool {
	return r.Status == RefundStatusProcessed
}
