// Package webhook signs and delivers merchant notifications.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/metrics"
	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/prohmpiriya/payment-gateway/internal/repository"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"github.com/prohmpiriya/payment-gateway/pkg/retry"
	"github.com/prohmpiriya/payment-gateway/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single delivery request
const DefaultTimeout = 5 * time.Second

// Deliverer POSTs signed webhook bodies to merchant endpoints
type Deliverer struct {
	merchants repository.MerchantRepository
	client    *http.Client
	log       *logger.Logger
}

// NewDeliverer creates a deliverer. A nil client gets one with DefaultTimeout.
// Redirects are never followed, so a 3xx reaches the outcome rule as is.
func NewDeliverer(merchants repository.MerchantRepository, client *http.Client, log *logger.Logger) *Deliverer {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	noRedirect := *client
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if log == nil {
		log = logger.Get()
	}
	return &Deliverer{merchants: merchants, client: &noRedirect, log: log}
}

// Deliver makes one delivery attempt. It returns nil on 2xx or when the
// merchant cannot receive webhooks, a retry.Retryable error on network
// errors, timeouts and 5xx, and a retry.Permanent error on any other status.
func (d *Deliverer) Deliver(ctx context.Context, job queue.WebhookJob, del queue.Delivery) error {
	ctx, span := telemetry.StartSpan(ctx, "webhook.deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("webhook.event", string(job.Event)),
		attribute.String("merchant.id", job.MerchantID),
		attribute.Int("webhook.attempt", del.Attempt),
	)

	log := d.log.With(
		zap.String("event", string(job.Event)),
		zap.String("merchant_id", job.MerchantID),
		zap.Int("attempt", del.Attempt),
	)

	merchant, err := d.merchants.GetByID(ctx, job.MerchantID)
	if err != nil {
		if errors.Is(err, domain.ErrMerchantNotFound) {
			log.Warn("Dropping webhook for unknown merchant")
			metrics.RecordWebhookDelivery(string(job.Event), metrics.OutcomeDropped, 0)
			return nil
		}
		telemetry.SetSpanError(span, err)
		return retry.Retryable(fmt.Errorf("failed to load merchant: %w", err))
	}
	if !merchant.HasWebhook() {
		log.Info("Merchant has no webhook endpoint, skipping")
		metrics.RecordWebhookDelivery(string(job.Event), metrics.OutcomeDropped, 0)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, merchant.WebhookURL, bytes.NewReader(job.Payload))
	if err != nil {
		log.Error("Invalid webhook URL", zap.String("url", merchant.WebhookURL), zap.Error(err))
		metrics.RecordWebhookDelivery(string(job.Event), metrics.OutcomeRejected, 0)
		return retry.Permanent(fmt.Errorf("invalid webhook url: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(merchant.WebhookSecret, job.Payload))

	start := time.Now()
	resp, err := d.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		telemetry.SetSpanError(span, err)
		return d.retryable(log, job, del, elapsed, fmt.Errorf("webhook request failed: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		log.Info("Webhook delivered", zap.Int("status", resp.StatusCode), zap.Duration("duration", elapsed))
		metrics.RecordWebhookDelivery(string(job.Event), metrics.OutcomeDelivered, elapsed)
		return nil
	case resp.StatusCode >= 500:
		return d.retryable(log, job, del, elapsed, fmt.Errorf("webhook endpoint returned %d", resp.StatusCode))
	default:
		log.Warn("Webhook rejected by merchant, not retrying", zap.Int("status", resp.StatusCode))
		metrics.RecordWebhookDelivery(string(job.Event), metrics.OutcomeRejected, elapsed)
		return retry.Permanent(fmt.Errorf("webhook endpoint returned %d", resp.StatusCode))
	}
}

func (d *Deliverer) retryable(log *logger.Logger, job queue.WebhookJob, del queue.Delivery, elapsed time.Duration, err error) error {
	if del.IsLast() {
		log.Error("Webhook abandoned after final attempt", zap.Error(err))
		metrics.RecordWebhookDelivery(string(job.Event), metrics.OutcomeAbandoned, elapsed)
	} else {
		log.Warn("Webhook delivery failed, will retry", zap.Error(err))
		metrics.RecordWebhookDelivery(string(job.Event), metrics.OutcomeRetry, elapsed)
	}
	return retry.Retryable(err)
}
