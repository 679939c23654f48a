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

// PostgresIdempotencyRepository implements IdempotencyRepository using PostgreSQL
type PostgresIdempotencyRepository struct {
	db *database.PostgresDB
}

// NewPostgresIdempotencyRepository creates a new PostgreSQL idempotency repository
func NewPostgresIdempotencyRepository(db *database.PostgresDB) *PostgresIdempotencyRepository {
	return &PostgresIdempotencyRepository{db: db}
}

// Get returns the unexpired record for the pair
func (r *PostgresIdempotencyRepository) Get(ctx context.Context, key, merchantID string, now time.Time) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT key, merchant_id, response, created_at, expires_at
		FROM idempotency_keys
		WHERE key = $1 AND merchant_id = $2 AND expires_at > $3`

	var rec domain.IdempotencyRecord
	err := r.db.Pool().QueryRow(ctx, query, key, merchantID, now).Scan(
		&rec.Key, &rec.MerchantID, &rec.Response, &rec.CreatedAt, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdempotencyRecordNotFound
		}
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}
	return &rec, nil
}

// Insert stores the record. A live row for the pair wins, an expired one is replaced.
func (r *PostgresIdempotencyRepository) Insert(ctx context.Context, record *domain.IdempotencyRecord) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (key, merchant_id, response, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key, merchant_id) DO UPDATE
		SET response = EXCLUDED.response,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		WHERE idempotency_keys.expires_at <= EXCLUDED.created_at`

	result, err := r.db.Pool().Exec(ctx, query,
		record.Key,
		record.MerchantID,
		record.Response,
		record.CreatedAt,
		record.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert idempotency record: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
