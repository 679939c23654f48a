package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/prohmpiriya/payment-gateway/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the gateway tables if they do not exist
func EnsureSchema(ctx context.Context, db *database.PostgresDB) error {
	if err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
