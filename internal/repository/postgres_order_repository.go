package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/pkg/database"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *database.PostgresDB
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository
func NewPostgresOrderRepository(db *database.PostgresDB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

const orderColumns = `id, merchant_id, amount, currency, receipt, status, created_at`

// Create creates a new order record
func (r *PostgresOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Pool().Exec(ctx, query,
		order.ID,
		order.MerchantID,
		order.Amount,
		order.Currency,
		nullString(order.Receipt),
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by its ID
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByIDForMerchant retrieves an order owned by merchantID
func (r *PostgresOrderRepository) GetByIDForMerchant(ctx context.Context, merchantID, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND merchant_id = $2`
	return scanOrder(r.db.Pool().QueryRow(ctx, query, id, merchantID))
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var receipt *string

	err := row.Scan(&o.ID, &o.MerchantID, &o.Amount, &o.Currency, &receipt, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	if receipt != nil {
		o.Receipt = *receipt
	}
	return &o, nil
}

// nullString returns nil if string is empty, otherwise returns pointer to string
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
