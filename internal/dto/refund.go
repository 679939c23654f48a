package dto

// CreateRefundRequest represents a request to refund part or all of a payment
type CreateRefundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}
