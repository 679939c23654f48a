package repository

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/pkg/database"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func setupTestDB(t *testing.T) *database.PostgresDB {
	ctx := context.Background()

	cfg := database.DefaultPostgresConfig()
	cfg.Host = getEnv("DB_HOST", "localhost")
	cfg.Port, _ = strconv.Atoi(getEnv("DB_PORT", "5432"))
	cfg.User = getEnv("DB_USER", "gateway_user")
	cfg.Password = getEnv("DB_PASSWORD", "gateway_pass")
	cfg.Database = getEnv("DB_NAME", "payment_gateway")
	cfg.MaxRetries = 1

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	t.Cleanup(db.Close)

	merchants := NewPostgresMerchantRepository(db)
	if err := merchants.Upsert(ctx, domain.NewTestMerchant("")); err != nil {
		t.Fatalf("Failed to seed merchant: %v", err)
	}
	return db
}

func TestPostgresPaymentLifecycle(t *testing.T) {
	skipIfNoIntegration(t)
	ctx := context.Background()
	db := setupTestDB(t)

	orders := NewPostgresOrderRepository(db)
	payments := NewPostgresPaymentRepository(db)
	refunds := NewPostgresRefundRepository(db)

	order, _ := domain.NewOrder(domain.TestMerchantID, 50000, "INR", "it")
	if err := orders.Create(ctx, order); err != nil {
		t.Fatalf("Create order: %v", err)
	}
	payment, _ := domain.NewPayment(order, "upi", "user@paytm")
	if err := payments.Create(ctx, payment); err != nil {
		t.Fatalf("Create payment: %v", err)
	}

	ok, err := payments.UpdateStatusIfPending(ctx, payment.ID, domain.PaymentStatusSuccess, time.Now())
	if err != nil || !ok {
		t.Fatalf("UpdateStatusIfPending = %v, %v", ok, err)
	}
	ok, _ = payments.UpdateStatusIfPending(ctx, payment.ID, domain.PaymentStatusFailed, time.Now())
	if ok {
		t.Error("second transition committed")
	}

	got, err := payments.GetByIDForMerchant(ctx, domain.TestMerchantID, payment.ID)
	if err != nil {
		t.Fatalf("GetByIDForMerchant: %v", err)
	}
	if got.Status != domain.PaymentStatusSuccess || got.VPA == nil || *got.VPA != "user@paytm" {
		t.Errorf("unexpected payment %+v", got)
	}

	build := func(p *domain.Payment, refunded int64) (*domain.Refund, error) {
		return domain.NewRefund(p, 30000, refunded, "")
	}
	if _, err := refunds.CreateForPayment(ctx, domain.TestMerchantID, payment.ID, build); err != nil {
		t.Fatalf("first refund: %v", err)
	}
	if _, err := refunds.CreateForPayment(ctx, domain.TestMerchantID, payment.ID, build); err != domain.ErrRefundExceedsAmount {
		t.Errorf("second refund error = %v, want ErrRefundExceedsAmount", err)
	}
}

func TestPostgresIdempotencyRepository(t *testing.T) {
	skipIfNoIntegration(t)
	ctx := context.Background()
	repo := NewPostgresIdempotencyRepository(setupTestDB(t))

	now := time.Now().UTC()
	key := "it-" + strconv.FormatInt(now.UnixNano(), 10)
	rec := &domain.IdempotencyRecord{
		Key: key, MerchantID: domain.TestMerchantID, Response: []byte(`{"a": 1,"b":2}`),
		CreatedAt: now, ExpiresAt: now.Add(domain.IdempotencyTTL),
	}

	stored, err := repo.Insert(ctx, rec)
	if err != nil || !stored {
		t.Fatalf("Insert = %v, %v", stored, err)
	}
	stored, _ = repo.Insert(ctx, rec)
	if stored {
		t.Error("duplicate insert stored")
	}

	got, err := repo.Get(ctx, key, domain.TestMerchantID, now)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Response) != `{"a": 1,"b":2}` {
		t.Errorf("response not byte-identical: %s", got.Response)
	}
}
