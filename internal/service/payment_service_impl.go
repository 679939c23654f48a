package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/metrics"
	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/prohmpiriya/payment-gateway/internal/repository"
	"github.com/prohmpiriya/payment-gateway/internal/webhook"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"github.com/prohmpiriya/payment-gateway/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PaymentNetwork decides outcomes of payments and refunds.
// It is satisfied by gateway.Simulator.
type PaymentNetwork interface {
	AuthorizePayment(ctx context.Context, p *domain.Payment) (domain.PaymentStatus, error)
	SettleRefund(ctx context.Context, r *domain.Refund) error
}

// paymentServiceImpl implements PaymentService
type paymentServiceImpl struct {
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	producer  queue.Producer
	network   PaymentNetwork
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	producer queue.Producer,
	network PaymentNetwork,
	publisher EventPublisher,
	log *logger.Logger,
) PaymentService {
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	if log == nil {
		log = logger.Get()
	}

	return &paymentServiceImpl{
		orders:    orders,
		payments:  payments,
		producer:  producer,
		network:   network,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreatePayment creates a pending payment for an order and enqueues its processing
func (s *paymentServiceImpl) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*domain.Payment, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	var (
		order *domain.Order
		err   error
	)
	if req.Public {
		order, err = s.orders.GetByID(ctx, req.OrderID)
	} else {
		order, err = s.orders.GetByIDForMerchant(ctx, req.MerchantID, req.OrderID)
	}
	if err != nil {
		return nil, err
	}

	payment, err := domain.NewPayment(order, req.Method, req.VPA)
	if err != nil {
		return nil, err
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	if err := s.producer.Enqueue(ctx, queue.PaymentJob{PaymentID: payment.ID}); err != nil {
		s.log.Error("Failed to enqueue payment job", zap.String("payment_id", payment.ID), zap.Error(err))
		return nil, err
	}

	metrics.RecordPaymentCreated(string(payment.Method))
	s.log.Info("Payment created",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID),
		zap.String("method", string(payment.Method)),
	)
	return payment, nil
}

// GetPayment retrieves a payment by ID
func (s *paymentServiceImpl) GetPayment(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	return s.payments.GetByIDForMerchant(ctx, merchantID, paymentID)
}

// GetPublicPayment retrieves a payment by ID without merchant scoping
func (s *paymentServiceImpl) GetPublicPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.payments.GetByID(ctx, paymentID)
}

// ListPayments retrieves all payments of a merchant
func (s *paymentServiceImpl) ListPayments(ctx context.Context, merchantID string) ([]*domain.Payment, error) {
	return s.payments.ListByMerchant(ctx, merchantID)
}

// CapturePayment captures a successful payment
func (s *paymentServiceImpl) CapturePayment(ctx context.Context, merchantID, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByIDForMerchant(ctx, merchantID, paymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.CanCapture(); err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.payments.MarkCaptured(ctx, merchantID, paymentID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another capture.
		return nil, domain.ErrPaymentAlreadyCaptured
	}

	if err := payment.Capture(now); err != nil {
		return nil, err
	}
	metrics.RecordPaymentCaptured()
	return payment, nil
}

// ProcessPayment settles a pending payment. A missing or already settled
// payment is acknowledged without side effects.
func (s *paymentServiceImpl) ProcessPayment(ctx context.Context, paymentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "payment.process")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	log := s.log.With(zap.String("payment_id", paymentID))
	start := time.Now()

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			log.Warn("Payment not found, dropping job")
			return nil
		}
		telemetry.SetSpanError(span, err)
		return err
	}
	if payment.IsFinal() {
		log.Info("Payment already settled, skipping", zap.String("status", string(payment.Status)))
		return nil
	}

	status, err := s.network.AuthorizePayment(ctx, payment)
	if err != nil {
		return err
	}

	now := s.now()
	ok, err := s.payments.UpdateStatusIfPending(ctx, paymentID, status, now)
	if err != nil {
		telemetry.SetSpanError(span, err)
		return err
	}
	if !ok {
		log.Info("Payment settled by another worker, skipping webhook")
		return nil
	}
	if err := payment.Settle(status, now); err != nil {
		return err
	}

	metrics.RecordPaymentProcessed(string(payment.Method), string(status), time.Since(start))
	log.Info("Payment settled", zap.String("status", string(status)))
	span.SetAttributes(attribute.String("payment.status", string(status)))

	payload, err := webhook.NewPaymentPayload(payment, now)
	if err != nil {
		log.Error("Failed to build webhook payload", zap.Error(err))
		return nil
	}
	notify(ctx, log, s.producer, s.publisher, queue.WebhookJob{
		MerchantID: payment.MerchantID,
		Event:      payment.SettledEvent(),
		Payload:    payload,
	}, domain.PaymentLifecycleEvent(payment, now))
	return nil
}

// notify enqueues the merchant webhook and publishes the lifecycle event.
// The transition is already committed, so failures are logged only.
func notify(ctx context.Context, log *logger.Logger, producer queue.Producer, publisher EventPublisher, job queue.WebhookJob, event domain.LifecycleEvent) {
	if err := producer.Enqueue(ctx, job); err != nil {
		log.Error("Failed to enqueue webhook job", zap.String("event", string(job.Event)), zap.Error(err))
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish lifecycle event", zap.String("event", string(event.Event)), zap.Error(err))
	}
}
