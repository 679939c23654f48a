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

// PostgresRefundRepository implements RefundRepository using PostgreSQL
type PostgresRefundRepository struct {
	db *database.PostgresDB
}

// NewPostgresRefundRepository creates a new PostgreSQL refund repository
func NewPostgresRefundRepository(db *database.PostgresDB) *PostgresRefundRepository {
	return &PostgresRefundRepository{db: db}
}

const refundColumns = `id, payment_id, merchant_id, amount, reason, status, created_at, processed_at`

// CreateForPayment inserts a refund while holding a row lock on the payment,
// so concurrent refunds of the same payment are serialized
func (r *PostgresRefundRepository) CreateForPayment(ctx context.Context, merchantID, paymentID string, build RefundBuilder) (*domain.Refund, error) {
	var refund *domain.Refund

	err := database.InTx(ctx, r.db.Pool(), func(tx pgx.Tx) error {
		lockQuery := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND merchant_id = $2 FOR UPDATE`
		payment, err := scanPayment(tx.QueryRow(ctx, lockQuery, paymentID, merchantID))
		if err != nil {
			return err
		}

		var refunded int64
		sumQuery := `SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE payment_id = $1`
		if err := tx.QueryRow(ctx, sumQuery, paymentID).Scan(&refunded); err != nil {
			return fmt.Errorf("failed to sum refunds: %w", err)
		}

		refund, err = build(payment, refunded)
		if err != nil {
			return err
		}

		insertQuery := `INSERT INTO refunds (` + refundColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err = tx.Exec(ctx, insertQuery,
			refund.ID,
			refund.PaymentID,
			refund.MerchantID,
			refund.Amount,
			nullString(refund.Reason),
			string(refund.Status),
			refund.CreatedAt,
			refund.ProcessedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create refund: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// GetByID retrieves a refund by its ID
func (r *PostgresRefundRepository) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`
	return scanRefund(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByIDForMerchant retrieves a refund owned by merchantID
func (r *PostgresRefundRepository) GetByIDForMerchant(ctx context.Context, merchantID, id string) (*domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1 AND merchant_id = $2`
	return scanRefund(r.db.Pool().QueryRow(ctx, query, id, merchantID))
}

// MarkProcessedIfPending completes a pending refund
func (r *PostgresRefundRepository) MarkProcessedIfPending(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE refunds
		SET status = 'processed', processed_at = $2
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.Pool().Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to update refund status: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func scanRefund(row pgx.Row) (*domain.Refund, error) {
	var rf domain.Refund
	var reason *string
	var status string

	err := row.Scan(&rf.ID, &rf.PaymentID, &rf.MerchantID, &rf.Amount, &reason, &status, &rf.CreatedAt, &rf.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to scan refund: %w", err)
	}

	rf.Status = domain.RefundStatus(status)
	if reason != nil {
		rf.Reason = *reason
	}
	return &rf, nil
}
