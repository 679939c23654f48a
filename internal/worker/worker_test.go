package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/prohmpiriya/payment-gateway/internal/service"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"github.com/prohmpiriya/payment-gateway/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPaymentService mocks the worker-facing part of service.PaymentService
type MockPaymentService struct {
	service.PaymentService
	mock.Mock
}

func (m *MockPaymentService) ProcessPayment(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

// MockRefundService mocks the worker-facing part of service.RefundService
type MockRefundService struct {
	service.RefundService
	mock.Mock
}

func (m *MockRefundService) ProcessRefund(ctx context.Context, refundID string) error {
	args := m.Called(ctx, refundID)
	return args.Error(0)
}

// MockDeliverer is a mock implementation of WebhookDeliverer
type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, job queue.WebhookJob, d queue.Delivery) error {
	args := m.Called(ctx, job, d)
	return args.Error(0)
}

var _ WebhookDeliverer = (*MockDeliverer)(nil)

func TestProcessor_RoutesJobs(t *testing.T) {
	payments := new(MockPaymentService)
	refunds := new(MockRefundService)
	deliverer := new(MockDeliverer)
	p := NewProcessor(payments, refunds, deliverer, logger.NewNop())
	ctx := context.Background()

	webhookJob := queue.WebhookJob{MerchantID: "m", Event: "payment.success"}
	webhookDelivery := queue.Delivery{Queue: queue.WebhookDelivery, Attempt: 3, MaxAttempts: 5}

	payments.On("ProcessPayment", mock.Anything, "pay_1").Return(nil).Once()
	refunds.On("ProcessRefund", mock.Anything, "rfnd_1").Return(nil).Once()
	deliverer.On("Deliver", mock.Anything, webhookJob, webhookDelivery).Return(nil).Once()

	assert.NoError(t, queue.Dispatch(ctx, p, queue.PaymentJob{PaymentID: "pay_1"}, queue.Delivery{Queue: queue.PaymentProcessing, Attempt: 1, MaxAttempts: 4}))
	assert.NoError(t, queue.Dispatch(ctx, p, queue.RefundJob{RefundID: "rfnd_1"}, queue.Delivery{Queue: queue.RefundProcessing, Attempt: 1, MaxAttempts: 4}))
	assert.NoError(t, queue.Dispatch(ctx, p, webhookJob, webhookDelivery))

	payments.AssertExpectations(t)
	refunds.AssertExpectations(t)
	deliverer.AssertExpectations(t)
}

func TestProcessor_PropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	payments := new(MockPaymentService)
	deliverer := new(MockDeliverer)
	p := NewProcessor(payments, new(MockRefundService), deliverer, logger.NewNop())

	payments.On("ProcessPayment", mock.Anything, "pay_1").Return(boom)
	deliverer.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return(retry.Permanent(errors.New("410")))

	err := p.HandlePayment(context.Background(), queue.PaymentJob{PaymentID: "pay_1"}, queue.Delivery{Queue: queue.PaymentProcessing, Attempt: 1})
	assert.ErrorIs(t, err, boom)

	err = p.HandleWebhook(context.Background(), queue.WebhookJob{}, queue.Delivery{Queue: queue.WebhookDelivery, Attempt: 1})
	assert.True(t, retry.IsPermanent(err))
}

func TestPoolsConfig_RetryDelay(t *testing.T) {
	cfg := DefaultPoolsConfig()
	cfg.WebhookSchedule = retry.TestSchedule
	cfg.ProcessingBackoff = &retry.Config{InitialInterval: time.Second, MaxInterval: 10 * time.Second, Multiplier: 2}

	webhook := cfg.RetryDelay(queue.WebhookDelivery)
	// n is the number of retries already made
	assert.Equal(t, 5*time.Second, webhook(0, nil, nil))
	assert.Equal(t, 10*time.Second, webhook(1, nil, nil))
	assert.Equal(t, 20*time.Second, webhook(3, nil, nil))
	assert.Equal(t, 20*time.Second, webhook(10, nil, nil))

	payment := cfg.RetryDelay(queue.PaymentProcessing)
	assert.Equal(t, time.Second, payment(0, nil, nil))
	assert.Equal(t, 4*time.Second, payment(2, nil, nil))
	assert.Equal(t, 10*time.Second, payment(8, nil, nil))
}

func TestPoolsConfig_Concurrency(t *testing.T) {
	cfg := &PoolsConfig{PaymentConcurrency: 3, RefundConcurrency: 2, WebhookConcurrency: 7}

	assert.Equal(t, 3, cfg.Concurrency(queue.PaymentProcessing))
	assert.Equal(t, 2, cfg.Concurrency(queue.RefundProcessing))
	assert.Equal(t, 7, cfg.Concurrency(queue.WebhookDelivery))
}
