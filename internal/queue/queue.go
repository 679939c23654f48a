// Package queue defines the background jobs of the gateway and the
// producer/consumer contracts over the durable queue backend.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prohmpiriya/payment-gateway/internal/domain"
)

// Queue names
const (
	PaymentProcessing = "payment-processing"
	RefundProcessing  = "refund-processing"
	WebhookDelivery   = "webhook-delivery"
)

// Names lists every queue the gateway consumes
var Names = []string{PaymentProcessing, RefundProcessing, WebhookDelivery}

// Job is a unit of background work. The set of jobs is closed.
type Job interface {
	Queue() string
	job()
}

// PaymentJob asks a worker to settle a pending payment
type PaymentJob struct {
	PaymentID string `json:"paymentId"`
}

// RefundJob asks a worker to process a pending refund
type RefundJob struct {
	RefundID string `json:"refundId"`
}

// WebhookJob carries a pre-serialized webhook body to a merchant
type WebhookJob struct {
	MerchantID string          `json:"merchantId"`
	Event      domain.Event    `json:"event"`
	Payload    json.RawMessage `json:"payload"`
}

func (PaymentJob) Queue() string { return PaymentProcessing }
func (RefundJob) Queue() string  { return RefundProcessing }
func (WebhookJob) Queue() string { return WebhookDelivery }

func (PaymentJob) job() {}
func (RefundJob) job()  {}
func (WebhookJob) job() {}

// Delivery describes the current attempt of a job. Attempt starts at 1.
type Delivery struct {
	Queue       string
	Attempt     int
	MaxAttempts int
}

// IsLast reports whether a failure of this attempt abandons the job
func (d Delivery) IsLast() bool {
	return d.MaxAttempts > 0 && d.Attempt >= d.MaxAttempts
}

// Producer enqueues jobs. Enqueue returns once the backend has persisted the job.
type Producer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Handlers consumes every job variant
type Handlers interface {
	HandlePayment(ctx context.Context, job PaymentJob, d Delivery) error
	HandleRefund(ctx context.Context, job RefundJob, d Delivery) error
	HandleWebhook(ctx context.Context, job WebhookJob, d Delivery) error
}

// Dispatch routes job to the matching handler method
func Dispatch(ctx context.Context, h Handlers, job Job, d Delivery) error {
	switch j := job.(type) {
	case PaymentJob:
		return h.HandlePayment(ctx, j, d)
	case RefundJob:
		return h.HandleRefund(ctx, j, d)
	case WebhookJob:
		return h.HandleWebhook(ctx, j, d)
	default:
		return fmt.Errorf("unknown job type %T", job)
	}
}

// Encode serializes job for the wire
func Encode(job Job) ([]byte, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s job: %w", job.Queue(), err)
	}
	return data, nil
}

// Decode parses a job payload taken from queueName
func Decode(queueName string, data []byte) (Job, error) {
	var (
		job Job
		err error
	)

	switch queueName {
	case PaymentProcessing:
		var j PaymentJob
		err = json.Unmarshal(data, &j)
		job = j
	case RefundProcessing:
		var j RefundJob
		err = json.Unmarshal(data, &j)
		job = j
	case WebhookDelivery:
		var j WebhookJob
		err = json.Unmarshal(data, &j)
		job = j
	default:
		return nil, fmt.Errorf("unknown queue %q", queueName)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s job: %w", queueName, err)
	}
	return job, nil
}

// Stats is a snapshot of a queue's job counts
type Stats struct {
	Queue      string `json:"queue"`
	Pending    int    `json:"pending"`
	Processing int    `json:"processing"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
}

// Inspector reports queue statistics
type Inspector interface {
	Stats(ctx context.Context, queueName string) (*Stats, error)
}
