// Package worker runs the queue consumers. Each queue gets its own pool
// with its own concurrency, so slow webhook endpoints never starve
// payment processing.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"github.com/prohmpiriya/payment-gateway/pkg/retry"
	"go.uber.org/zap"
)

// PoolsConfig contains configuration for the worker pools
type PoolsConfig struct {
	PaymentConcurrency int
	RefundConcurrency  int
	WebhookConcurrency int

	// WebhookSchedule spaces webhook attempts
	WebhookSchedule retry.Schedule
	// ProcessingBackoff spaces retries of payment and refund jobs
	ProcessingBackoff retry.Policy

	ShutdownTimeout time.Duration
}

// DefaultPoolsConfig returns default configuration
func DefaultPoolsConfig() *PoolsConfig {
	return &PoolsConfig{
		PaymentConcurrency: 10,
		RefundConcurrency:  5,
		WebhookConcurrency: 10,
		WebhookSchedule:    retry.ProductionSchedule,
		ProcessingBackoff: &retry.Config{
			InitialInterval: 5 * time.Second,
			MaxInterval:     time.Minute,
			Multiplier:      2.0,
		},
		ShutdownTimeout: 30 * time.Second,
	}
}

// Concurrency returns the pool size of queueName
func (c *PoolsConfig) Concurrency(queueName string) int {
	switch queueName {
	case queue.PaymentProcessing:
		return c.PaymentConcurrency
	case queue.RefundProcessing:
		return c.RefundConcurrency
	default:
		return c.WebhookConcurrency
	}
}

// RetryDelay returns the asynq retry delay function of queueName.
// asynq passes how many times the task was already retried, so the next
// attempt index is n+1.
func (c *PoolsConfig) RetryDelay(queueName string) asynq.RetryDelayFunc {
	if queueName == queue.WebhookDelivery {
		return func(n int, err error, t *asynq.Task) time.Duration {
			return c.WebhookSchedule.Delay(n + 1)
		}
	}
	return func(n int, err error, t *asynq.Task) time.Duration {
		return c.ProcessingBackoff.Delay(n + 1)
	}
}

// Pools runs one asynq server per queue
type Pools struct {
	servers map[string]*asynq.Server
	handler *asynq.ServeMux
	logger  *logger.Logger
	mu      sync.Mutex
	running bool
}

// NewPools creates the worker pools
func NewPools(redisOpt asynq.RedisConnOpt, cfg *PoolsConfig, handlers queue.Handlers, log *logger.Logger) *Pools {
	if cfg == nil {
		cfg = DefaultPoolsConfig()
	}
	if log == nil {
		log = logger.Get()
	}

	servers := make(map[string]*asynq.Server, len(queue.Names))
	for _, name := range queue.Names {
		servers[name] = asynq.NewServer(redisOpt, asynq.Config{
			Concurrency:     cfg.Concurrency(name),
			Queues:          map[string]int{name: 1},
			RetryDelayFunc:  cfg.RetryDelay(name),
			ShutdownTimeout: cfg.ShutdownTimeout,
			Logger:          log.With(zap.String("queue", name)).Sugar(),
			LogLevel:        asynq.WarnLevel,
			ErrorHandler:    errorHandler(log, name),
		})
	}

	return &Pools{
		servers: servers,
		handler: queue.NewServeMux(handlers),
		logger:  log,
	}
}

// Start starts every pool. It returns an error if any pool fails to start;
// pools already started are shut down.
func (p *Pools) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("worker pools are already running")
	}

	started := make([]*asynq.Server, 0, len(p.servers))
	for _, name := range queue.Names {
		srv := p.servers[name]
		if err := srv.Start(p.handler); err != nil {
			for _, s := range started {
				s.Shutdown()
			}
			return fmt.Errorf("failed to start %s pool: %w", name, err)
		}
		started = append(started, srv)
		p.logger.Info("Worker pool started", zap.String("queue", name))
	}

	p.running = true
	return nil
}

// Stop waits for in-flight jobs up to the shutdown timeout. Unfinished
// jobs are returned to their queue by asynq.
func (p *Pools) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	var wg sync.WaitGroup
	for name, srv := range p.servers {
		wg.Add(1)
		go func(name string, srv *asynq.Server) {
			defer wg.Done()
			srv.Shutdown()
			p.logger.Info("Worker pool stopped", zap.String("queue", name))
		}(name, srv)
	}
	wg.Wait()
	p.running = false
}

// Run starts the pools and blocks until ctx is done
func (p *Pools) Run(ctx context.Context) error {
	if err := p.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	p.Stop()
	return nil
}

func errorHandler(log *logger.Logger, queueName string) asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		d := queue.DeliveryFromContext(ctx, queueName)
		fields := []zap.Field{
			zap.String("queue", queueName),
			zap.Int("attempt", d.Attempt),
			zap.Int("max_attempts", d.MaxAttempts),
			zap.Error(err),
		}
		if errors.Is(err, asynq.SkipRetry) || retry.IsPermanent(err) || d.IsLast() {
			log.Error("Job abandoned", fields...)
			return
		}
		log.Warn("Job failed, will retry", fields...)
	})
}
