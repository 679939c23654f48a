package domain

import (
	"regexp"
	"strings"
	"time"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// IsTerminal reports whether no further transition is possible
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// PaymentMethod represents how the customer pays
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)

// ParsePaymentMethod validates a method string
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentMethodUPI, PaymentMethodCard:
		return m, nil
	default:
		return "", ErrInvalidMethod
	}
}

var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,256}@[a-zA-Z]{2,64}$`)

// ValidVPA reports whether vpa looks like name@handle
func ValidVPA(vpa string) bool {
	return vpaPattern.MatchString(vpa)
}

// Payment represents a payment attempt against an order
type Payment struct {
	ID         string        `json:"id"`
	OrderID    string        `json:"order_id"`
	MerchantID string        `json:"merchant_id"`
	Amount     int64         `json:"amount"`
	Currency   string        `json:"currency"`
	Method     PaymentMethod `json:"method"`
	Status     PaymentStatus `json:"status"`
	Captured   bool          `json:"captured"`
	VPA        *string       `json:"vpa"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewPayment creates a pending payment for order. Amount and currency come from the order.
func NewPayment(order *Order, method string, vpa string) (*Payment, error) {
	m, err := ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}

	var vpaPtr *string
	if m == PaymentMethodUPI {
		vpa = strings.TrimSpace(vpa)
		if !ValidVPA(vpa) {
			return nil, ErrInvalidVPA
		}
		vpaPtr = &vpa
	}

	now := time.Now().UTC()
	return &Payment{
		ID:         NewPaymentID(),
		OrderID:    order.ID,
		MerchantID: order.MerchantID,
		Amount:     order.Amount,
		Currency:   order.Currency,
		Method:     m,
		Status:     PaymentStatusPending,
		VPA:        vpaPtr,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Settle moves a pending payment to success or failed
func (p *Payment) Settle(status PaymentStatus, at time.Time) error {
	if p.Status != PaymentStatusPending || !status.IsTerminal() {
		return ErrInvalidTransition
	}
	p.Status = status
	p.UpdatedAt = at
	return nil
}

// Capture marks a successful payment as captured
func (p *Payment) Capture(at time.Time) error {
	if err := p.CanCapture(); err != nil {
		return err
	}
	p.Captured = true
	p.UpdatedAt = at
	return nil
}

// CanCapture checks capture preconditions without mutating
func (p *Payment) CanCapture() error {
	if p.Status != PaymentStatusSuccess {
		return ErrPaymentNotCapturable
	}
	if p.Captured {
		return ErrPaymentAlreadyCaptured
	}
	return nil
}

// IsFinal checks if the payment is in a final state
func (p *Payment) IsFinal() bool {
	return p.Status.IsTerminal()
}

// SettledEvent returns the webhook event for the payment's terminal status
func (p *Payment) SettledEvent() Event {
	if p.Status == PaymentStatusSuccess {
		return EventPaymentSuccess
	}
	return EventPaymentFailed
}
