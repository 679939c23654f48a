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

// refundServiceImpl implements RefundService
type refundServiceImpl struct {
	payments  repository.PaymentRepository
	refunds   repository.RefundRepository
	producer  queue.Producer
	network   PaymentNetwork
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewRefundService creates a new RefundService
func NewRefundService(
	payments repository.PaymentRepository,
	refunds repository.RefundRepository,
	producer queue.Producer,
	network PaymentNetwork,
	publisher EventPublisher,
	log *logger.Logger,
) RefundService {
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	if log == nil {
		log = logger.Get()
	}

	return &refundServiceImpl{
		payments:  payments,
		refunds:   refunds,
		producer:  producer,
		network:   network,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateRefund creates a pending refund. The balance check and the insert
// happen atomically in the repository.
func (s *refundServiceImpl) CreateRefund(ctx context.Context, req *CreateRefundRequest) (*domain.Refund, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidRefundAmount
	}

	refund, err := s.refunds.CreateForPayment(ctx, req.MerchantID, req.PaymentID,
		func(payment *domain.Payment, refunded int64) (*domain.Refund, error) {
			return domain.NewRefund(payment, req.Amount, refunded, req.Reason)
		})
	if err != nil {
		return nil, err
	}

	if err := s.producer.Enqueue(ctx, queue.RefundJob{RefundID: refund.ID}); err != nil {
		s.log.Error("Failed to enqueue refund job", zap.String("refund_id", refund.ID), zap.Error(err))
		return nil, err
	}

	metrics.RecordRefundCreated(refund.Amount)
	s.log.Info("Refund created",
		zap.String("refund_id", refund.ID),
		zap.String("payment_id", refund.PaymentID),
		zap.Int64("amount", refund.Amount),
	)
	return refund, nil
}

// GetRefund retrieves a refund by ID
func (s *refundServiceImpl) GetRefund(ctx context.Context, merchantID, refundID string) (*domain.Refund, error) {
	return s.refunds.GetByIDForMerchant(ctx, merchantID, refundID)
}

// ProcessRefund completes a pending refund. A missing or already processed
// refund is acknowledged without side effects.
func (s *refundServiceImpl) ProcessRefund(ctx context.Context, refundID string) error {
	ctx, span := telemetry.StartSpan(ctx, "refund.process")
	defer span.End()
	span.SetAttributes(attribute.String("refund.id", refundID))

	log := s.log.With(zap.String("refund_id", refundID))

	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		if errors.Is(err, domain.ErrRefundNotFound) {
			log.Warn("Refund not found, dropping job")
			return nil
		}
		telemetry.SetSpanError(span, err)
		return err
	}
	if refund.IsFinal() {
		log.Info("Refund already processed, skipping")
		return nil
	}

	if _, err := s.payments.GetByID(ctx, refund.PaymentID); err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			log.Warn("Payment of refund not found, dropping job", zap.String("payment_id", refund.PaymentID))
			return nil
		}
		return err
	}

	if err := s.network.SettleRefund(ctx, refund); err != nil {
		return err
	}

	now := s.now()
	ok, err := s.refunds.MarkProcessedIfPending(ctx, refundID, now)
	if err != nil {
		telemetry.SetSpanError(span, err)
		return err
	}
	if !ok {
		log.Info("Refund processed by another worker, skipping webhook")
		return nil
	}
	if err := refund.MarkProcessed(now); err != nil {
		return err
	}

	metrics.RecordRefundProcessed()
	log.Info("Refund processed", zap.String("payment_id", refund.PaymentID))

	payload, err := webhook.NewRefundPayload(refund, now)
	if err != nil {
		log.Error("Failed to build webhook payload", zap.Error(err))
		return nil
	}
	notify(ctx, log, s.producer, s.publisher, queue.WebhookJob{
		MerchantID: refund.MerchantID,
		Event:      domain.EventRefundProcessed,
		Payload:    payload,
	}, domain.RefundLifecycleEvent(refund, now))
	return nil
}
