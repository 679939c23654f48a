package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ID prefixes
const (
	PaymentIDPrefix = "pay_"
	RefundIDPrefix  = "rfnd_"
	OrderIDPrefix   = "order_"
)

const idRandomLength = 16

// NewPaymentID returns a new payment id such as pay_3f9a0c1b2d4e5f60
func NewPaymentID() string { return newID(PaymentIDPrefix) }

// NewRefundID returns a new refund id
func NewRefundID() string { return newID(RefundIDPrefix) }

// NewOrderID returns a new order id
func NewOrderID() string { return newID(OrderIDPrefix) }

func newID(prefix string) string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + raw[:idRandomLength]
}
