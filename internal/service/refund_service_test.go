package service

import (
	"context"
	"strings"
	"testing"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRefund(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	p := env.settledPayment(t, "m1", 50000)

	r, err := env.refundSvc.CreateRefund(ctx, &CreateRefundRequest{
		MerchantID: "m1", PaymentID: p.ID, Amount: 20000, Reason: "customer request",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.ID, "rfnd_"))
	assert.Equal(t, domain.RefundStatusPending, r.Status)

	jobs := env.queue.Enqueued(queue.RefundProcessing)
	require.Len(t, jobs, 1)
	assert.Equal(t, queue.RefundJob{RefundID: r.ID}, jobs[0])
}

func TestCreateRefund_BalanceNeverExceeded(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	p := env.settledPayment(t, "m1", 50000)

	_, err := env.refundSvc.CreateRefund(ctx, &CreateRefundRequest{MerchantID: "m1", PaymentID: p.ID, Amount: 30000})
	require.NoError(t, err)

	_, err = env.refundSvc.CreateRefund(ctx, &CreateRefundRequest{MerchantID: "m1", PaymentID: p.ID, Amount: 20001})
	assert.ErrorIs(t, err, domain.ErrRefundExceedsAmount)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))

	_, err = env.refundSvc.CreateRefund(ctx, &CreateRefundRequest{MerchantID: "m1", PaymentID: p.ID, Amount: 20000})
	require.NoError(t, err)

	_, err = env.refundSvc.CreateRefund(ctx, &CreateRefundRequest{MerchantID: "m1", PaymentID: p.ID, Amount: 1})
	assert.ErrorIs(t, err, domain.ErrRefundExceedsAmount, "fully refunded payment has no balance left")
}

func TestCreateRefund_Errors(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	settled := env.settledPayment(t, "m1", 500)

	order := env.createOrder(t, "m1", 500)
	pending, _ := env.paymentSvc.CreatePayment(ctx, &CreatePaymentRequest{MerchantID: "m1", OrderID: order.ID, Method: "card"})

	tests := []struct {
		name    string
		req     *CreateRefundRequest
		wantErr error
	}{
		{name: "zero amount", req: &CreateRefundRequest{MerchantID: "m1", PaymentID: settled.ID, Amount: 0}, wantErr: domain.ErrInvalidRefundAmount},
		{name: "unknown payment", req: &CreateRefundRequest{MerchantID: "m1", PaymentID: "pay_x", Amount: 1}, wantErr: domain.ErrPaymentNotFound},
		{name: "other merchant", req: &CreateRefundRequest{MerchantID: "m2", PaymentID: settled.ID, Amount: 1}, wantErr: domain.ErrPaymentNotFound},
		{name: "pending payment", req: &CreateRefundRequest{MerchantID: "m1", PaymentID: pending.ID, Amount: 1}, wantErr: domain.ErrPaymentNotRefundable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.refundSvc.CreateRefund(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProcessRefund(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	p := env.settledPayment(t, "m1", 500)
	r, err := env.refundSvc.CreateRefund(ctx, &CreateRefundRequest{MerchantID: "m1", PaymentID: p.ID, Amount: 100})
	require.NoError(t, err)

	require.NoError(t, env.refundSvc.ProcessRefund(ctx, r.ID))
	require.NoError(t, env.refundSvc.ProcessRefund(ctx, r.ID), "redelivered job is a no-op")

	got, err := env.refundSvc.GetRefund(ctx, "m1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusProcessed, got.Status)
	assert.NotNil(t, got.ProcessedAt)

	var refundHooks int
	for _, j := range env.queue.Enqueued(queue.WebhookDelivery) {
		if j.(queue.WebhookJob).Event == domain.EventRefundProcessed {
			refundHooks++
		}
	}
	assert.Equal(t, 1, refundHooks)
}

func TestProcessRefund_MissingIsAcknowledged(t *testing.T) {
	env := setupTestEnv(t)
	assert.NoError(t, env.refundSvc.ProcessRefund(context.Background(), "rfnd_missing"))
}
