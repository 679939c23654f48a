package dto

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
	Receipt  string `json:"receipt,omitempty"`
}
