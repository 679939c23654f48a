package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Create creates a new order record
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by id regardless of owner
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByIDForMerchant retrieves an order owned by merchantID
	GetByIDForMerchant(ctx context.Context, merchantID, id string) (*domain.Order, error)
}

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by its ID
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByIDForMerchant retrieves a payment owned by merchantID
	GetByIDForMerchant(ctx context.Context, merchantID, id string) (*domain.Payment, error)

	// ListByMerchant returns the merchant's payments, newest first
	ListByMerchant(ctx context.Context, merchantID string) ([]*domain.Payment, error)

	// UpdateStatusIfPending settles a payment only if it is still pending.
	// It reports false when another writer already settled it.
	UpdateStatusIfPending(ctx context.Context, id string, status domain.PaymentStatus, at time.Time) (bool, error)

	// MarkCaptured sets captured only if the payment succeeded and is not yet captured
	MarkCaptured(ctx context.Context, merchantID, id string, at time.Time) (bool, error)
}

// RefundBuilder validates a refund against the locked payment and the amount already refunded
type RefundBuilder func(payment *domain.Payment, refunded int64) (*domain.Refund, error)

// RefundRepository defines the interface for refund data access
type RefundRepository interface {
	// CreateForPayment locks the merchant's payment, sums its refunds, and inserts
	// what build returns, all atomically
	CreateForPayment(ctx context.Context, merchantID, paymentID string, build RefundBuilder) (*domain.Refund, error)

	// GetByID retrieves a refund by its ID
	GetByID(ctx context.Context, id string) (*domain.Refund, error)

	// GetByIDForMerchant retrieves a refund owned by merchantID
	GetByIDForMerchant(ctx context.Context, merchantID, id string) (*domain.Refund, error)

	// MarkProcessedIfPending completes a refund only if it is still pending
	MarkProcessedIfPending(ctx context.Context, id string, at time.Time) (bool, error)
}

// IdempotencyRepository stores replayable responses
type IdempotencyRepository interface {
	// Get returns the unexpired record for (key, merchantID) at now,
	// or domain.ErrIdempotencyRecordNotFound
	Get(ctx context.Context, key, merchantID string, now time.Time) (*domain.IdempotencyRecord, error)

	// Insert stores record unless an unexpired one exists for the pair.
	// It reports whether this call's record was stored.
	Insert(ctx context.Context, record *domain.IdempotencyRecord) (bool, error)
}

// MerchantRepository defines the interface for merchant data access
type MerchantRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*domain.Merchant, error)

	// Upsert inserts the merchant or updates credentials of the one with the same email.
	// merchant.ID is set to the stored id.
	Upsert(ctx context.Context, merchant *domain.Merchant) error
}
