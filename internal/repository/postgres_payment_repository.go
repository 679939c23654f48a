package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/pkg/database"
)

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymentRepository creates a new PostgreSQL payment repository
func NewPostgresPaymentRepository(db *database.PostgresDB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// paymentColumns defines the columns to select for payment queries
const paymentColumns = `
	id, order_id, merchant_id, amount, currency, method, status, captured, vpa, created_at, updated_at
`

// Create creates a new payment record
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Pool().Exec(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.MerchantID,
		payment.Amount,
		payment.Currency,
		string(payment.Method),
		string(payment.Status),
		payment.Captured,
		payment.VPA,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByIDForMerchant retrieves a payment owned by merchantID
func (r *PostgresPaymentRepository) GetByIDForMerchant(ctx context.Context, merchantID, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND merchant_id = $2`
	return scanPayment(r.db.Pool().QueryRow(ctx, query, id, merchantID))
}

// ListByMerchant returns all payments of a merchant, newest first
func (r *PostgresPaymentRepository) ListByMerchant(ctx context.Context, merchantID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE merchant_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool().Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// UpdateStatusIfPending settles a pending payment
func (r *PostgresPaymentRepository) UpdateStatusIfPending(ctx context.Context, id string, status domain.PaymentStatus, at time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.Pool().Exec(ctx, query, id, string(status), at)
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkCaptured captures a successful, uncaptured payment
func (r *PostgresPaymentRepository) MarkCaptured(ctx context.Context, merchantID, id string, at time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET captured = TRUE, updated_at = $3
		WHERE id = $1 AND merchant_id = $2 AND status = 'success' AND captured = FALSE`

	result, err := r.db.Pool().Exec(ctx, query, id, merchantID, at)
	if err != nil {
		return false, fmt.Errorf("failed to capture payment: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// scanPayment scans a single payment from a row or rows
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var method, status string

	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.MerchantID,
		&p.Amount,
		&p.Currency,
		&method,
		&status,
		&p.Captured,
		&p.VPA,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}
