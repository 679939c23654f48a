package service

import (
	"context"
	"sync"
	"testing"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/prohmpiriya/payment-gateway/internal/repository"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
)

// fixedNetwork settles every payment with status and never sleeps
type fixedNetwork struct {
	status domain.PaymentStatus
	err    error
}

func (n *fixedNetwork) AuthorizePayment(ctx context.Context, p *domain.Payment) (domain.PaymentStatus, error) {
	return n.status, n.err
}

func (n *fixedNetwork) SettleRefund(ctx context.Context, r *domain.Refund) error {
	return n.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type testEnv struct {
	orders    *repository.MemoryOrderRepository
	payments  *repository.MemoryPaymentRepository
	refunds   *repository.MemoryRefundRepository
	queue     *queue.MemoryQueue
	network   *fixedNetwork
	publisher *recordingPublisher

	orderSvc   OrderService
	paymentSvc PaymentService
	refundSvc  RefundService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		orders:    repository.NewMemoryOrderRepository(),
		payments:  repository.NewMemoryPaymentRepository(),
		queue:     queue.NewMemoryQueue(nil),
		network:   &fixedNetwork{status: domain.PaymentStatusSuccess},
		publisher: &recordingPublisher{},
	}
	env.refunds = repository.NewMemoryRefundRepository(env.payments)

	log := logger.NewNop()
	env.orderSvc = NewOrderService(env.orders)
	env.paymentSvc = NewPaymentService(env.orders, env.payments, env.queue, env.network, env.publisher, log)
	env.refundSvc = NewRefundService(env.payments, env.refunds, env.queue, env.network, env.publisher, log)
	return env
}

func (e *testEnv) createOrder(t *testing.T, merchantID string, amount int64) *domain.Order {
	t.Helper()
	order, err := e.orderSvc.CreateOrder(context.Background(), &CreateOrderRequest{
		MerchantID: merchantID,
		Amount:     amount,
		Currency:   "INR",
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	return order
}

func (e *testEnv) settledPayment(t *testing.T, merchantID string, amount int64) *domain.Payment {
	t.Helper()
	ctx := context.Background()
	order := e.createOrder(t, merchantID, amount)
	p, err := e.paymentSvc.CreatePayment(ctx, &CreatePaymentRequest{
		MerchantID: merchantID, OrderID: order.ID, Method: "card",
	})
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if err := e.paymentSvc.ProcessPayment(ctx, p.ID); err != nil {
		t.Fatalf("ProcessPayment() error = %v", err)
	}
	p, err = e.paymentSvc.GetPayment(ctx, merchantID, p.ID)
	if err != nil {
		t.Fatalf("GetPayment() error = %v", err)
	}
	return p
}
