package queue

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prohmpiriya/payment-gateway/pkg/redis"
	"github.com/prohmpiriya/payment-gateway/pkg/retry"
)

// RedisOpt converts the shared redis config into asynq connection options
func RedisOpt(cfg *redis.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	}
}

// ProducerConfig holds per-queue retry limits
type ProducerConfig struct {
	// MaxRetry applies to payment and refund processing
	MaxRetry int
	// WebhookSchedule drives webhook attempts, one attempt per entry
	WebhookSchedule retry.Schedule
	// TaskTimeout bounds a single handler run
	TaskTimeout time.Duration
}

// DefaultProducerConfig returns the default limits
func DefaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		MaxRetry:        3,
		WebhookSchedule: retry.ProductionSchedule,
		TaskTimeout:     2 * time.Minute,
	}
}

// MaxRetryFor returns the retry limit of queueName
func (c *ProducerConfig) MaxRetryFor(queueName string) int {
	if queueName == WebhookDelivery {
		if n := c.WebhookSchedule.Attempts() - 1; n > 0 {
			return n
		}
		return 0
	}
	return c.MaxRetry
}

// AsynqProducer enqueues jobs into asynq
type AsynqProducer struct {
	client *asynq.Client
	config *ProducerConfig
}

// NewAsynqProducer creates a producer over an asynq client
func NewAsynqProducer(client *asynq.Client, cfg *ProducerConfig) *AsynqProducer {
	if cfg == nil {
		cfg = DefaultProducerConfig()
	}
	return &AsynqProducer{client: client, config: cfg}
}

// Enqueue persists job on its queue. The task type is the queue name.
func (p *AsynqProducer) Enqueue(ctx context.Context, job Job) error {
	payload, err := Encode(job)
	if err != nil {
		return err
	}

	name := job.Queue()
	task := asynq.NewTask(name, payload)
	_, err = p.client.EnqueueContext(ctx, task,
		asynq.Queue(name),
		asynq.MaxRetry(p.config.MaxRetryFor(name)),
		asynq.Timeout(p.config.TaskTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", name, err)
	}
	return nil
}

// Close closes the underlying client
func (p *AsynqProducer) Close() error {
	return p.client.Close()
}

// AsynqInspector reads queue statistics from asynq
type AsynqInspector struct {
	inspector *asynq.Inspector
}

// NewAsynqInspector creates an inspector
func NewAsynqInspector(inspector *asynq.Inspector) *AsynqInspector {
	return &AsynqInspector{inspector: inspector}
}

// Stats returns counts for queueName. A queue that never received a job reports zeros.
func (i *AsynqInspector) Stats(ctx context.Context, queueName string) (*Stats, error) {
	queues, err := i.inspector.Queues()
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	if !slices.Contains(queues, queueName) {
		return &Stats{Queue: queueName}, nil
	}

	info, err := i.inspector.GetQueueInfo(queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue info: %w", err)
	}

	return &Stats{
		Queue:      queueName,
		Pending:    info.Pending + info.Scheduled + info.Retry,
		Processing: info.Active,
		Completed:  info.ProcessedTotal - info.FailedTotal,
		Failed:     info.FailedTotal,
	}, nil
}

// Close closes the underlying inspector
func (i *AsynqInspector) Close() error {
	return i.inspector.Close()
}

// NewServeMux routes every queue's task type to h. Permanent failures skip
// asynq's retry so the task is archived immediately.
func NewServeMux(h Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, name := range Names {
		mux.HandleFunc(name, taskHandler(h, name))
	}
	return mux
}

func taskHandler(h Handlers, queueName string) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		job, err := Decode(queueName, task.Payload())
		if err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}

		if err := Dispatch(ctx, h, job, DeliveryFromContext(ctx, queueName)); err != nil {
			if retry.IsPermanent(err) {
				return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
			}
			return err
		}
		return nil
	}
}

// DeliveryFromContext reads attempt metadata asynq attaches to a handler context
func DeliveryFromContext(ctx context.Context, queueName string) Delivery {
	d := Delivery{Queue: queueName, Attempt: 1}
	if retried, ok := asynq.GetRetryCount(ctx); ok {
		d.Attempt = retried + 1
	}
	if maxRetry, ok := asynq.GetMaxRetry(ctx); ok {
		d.MaxAttempts = maxRetry + 1
	}
	return d
}
