package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/pkg/database"
)

// PostgresMerchantRepository implements MerchantRepository using PostgreSQL
type PostgresMerchantRepository struct {
	db *database.PostgresDB
}

// NewPostgresMerchantRepository creates a new PostgreSQL merchant repository
func NewPostgresMerchantRepository(db *database.PostgresDB) *PostgresMerchantRepository {
	return &PostgresMerchantRepository{db: db}
}

const merchantColumns = `id, name, email, api_key, webhook_url, webhook_secret, created_at`

func (r *PostgresMerchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`
	return scanMerchant(r.db.Pool().QueryRow(ctx, query, id))
}

func (r *PostgresMerchantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE api_key = $1`
	return scanMerchant(r.db.Pool().QueryRow(ctx, query, apiKey))
}

func (r *PostgresMerchantRepository) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE email = $1`
	return scanMerchant(r.db.Pool().QueryRow(ctx, query, email))
}

// Upsert inserts the merchant or refreshes credentials of the existing one
func (r *PostgresMerchantRepository) Upsert(ctx context.Context, m *domain.Merchant) error {
	query := `
		INSERT INTO merchants (` + merchantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE
		SET api_key = EXCLUDED.api_key,
		    webhook_url = EXCLUDED.webhook_url,
		    webhook_secret = EXCLUDED.webhook_secret
		RETURNING id`

	err := r.db.Pool().QueryRow(ctx, query,
		m.ID,
		m.Name,
		m.Email,
		m.APIKey,
		nullString(m.WebhookURL),
		nullString(m.WebhookSecret),
		m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert merchant: %w", err)
	}
	return nil
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	var m domain.Merchant
	var webhookURL, webhookSecret *string

	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.APIKey, &webhookURL, &webhookSecret, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to scan merchant: %w", err)
	}
	if webhookURL != nil {
		m.WebhookURL = *webhookURL
	}
	if webhookSecret != nil {
		m.WebhookSecret = *webhookSecret
	}
	return &m, nil
}
