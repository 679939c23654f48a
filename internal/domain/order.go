package domain

import (
	"regexp"
	"strings"
	"time"
)

// OrderStatusCreated is the only order status, orders are not settled here
const OrderStatusCreated = "created"

// DefaultCurrency is used when an order is created without one
const DefaultCurrency = "INR"

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Order is what a payment pays for. Amount is in minor units.
type Order struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchant_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Receipt    string    `json:"receipt,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewOrder validates and creates an order
func NewOrder(merchantID string, amount int64, currency, receipt string) (*Order, error) {
	if amount < 1 {
		return nil, ErrInvalidAmount
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if !currencyPattern.MatchString(currency) {
		return nil, ErrInvalidCurrency
	}

	return &Order{
		ID:         NewOrderID(),
		MerchantID: merchantID,
		Amount:     amount,
		Currency:   currency,
		Receipt:    receipt,
		Status:     OrderStatusCreated,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
