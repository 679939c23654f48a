package worker

import (
	"context"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/metrics"
	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/prohmpiriya/payment-gateway/internal/service"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"go.uber.org/zap"
)

// WebhookDeliverer makes one webhook delivery attempt
type WebhookDeliverer interface {
	Deliver(ctx context.Context, job queue.WebhookJob, d queue.Delivery) error
}

// Processor routes jobs to the services that own them
type Processor struct {
	payments  service.PaymentService
	refunds   service.RefundService
	deliverer WebhookDeliverer
	logger    *logger.Logger
}

// NewProcessor creates a new processor
func NewProcessor(payments service.PaymentService, refunds service.RefundService, deliverer WebhookDeliverer, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Get()
	}
	return &Processor{
		payments:  payments,
		refunds:   refunds,
		deliverer: deliverer,
		logger:    log,
	}
}

// HandlePayment settles a pending payment
func (p *Processor) HandlePayment(ctx context.Context, job queue.PaymentJob, d queue.Delivery) error {
	return p.run(d, zap.String("payment_id", job.PaymentID), func() error {
		return p.payments.ProcessPayment(ctx, job.PaymentID)
	})
}

// HandleRefund processes a pending refund
func (p *Processor) HandleRefund(ctx context.Context, job queue.RefundJob, d queue.Delivery) error {
	return p.run(d, zap.String("refund_id", job.RefundID), func() error {
		return p.refunds.ProcessRefund(ctx, job.RefundID)
	})
}

// HandleWebhook delivers a webhook
func (p *Processor) HandleWebhook(ctx context.Context, job queue.WebhookJob, d queue.Delivery) error {
	return p.run(d, zap.String("event", string(job.Event)), func() error {
		return p.deliverer.Deliver(ctx, job, d)
	})
}

func (p *Processor) run(d queue.Delivery, id zap.Field, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordJob(d.Queue, err)

	if err != nil {
		p.logger.Debug("Job failed",
			zap.String("queue", d.Queue),
			id,
			zap.Int("attempt", d.Attempt),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
	return err
}
