// Package di builds the dependency graph shared by the API and worker binaries.
package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/prohmpiriya/payment-gateway/internal/gateway"
	"github.com/prohmpiriya/payment-gateway/internal/handler"
	"github.com/prohmpiriya/payment-gateway/internal/idempotency"
	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/prohmpiriya/payment-gateway/internal/repository"
	"github.com/prohmpiriya/payment-gateway/internal/service"
	"github.com/prohmpiriya/payment-gateway/internal/webhook"
	"github.com/prohmpiriya/payment-gateway/internal/worker"
	"github.com/prohmpiriya/payment-gateway/pkg/config"
	"github.com/prohmpiriya/payment-gateway/pkg/database"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	pkgredis "github.com/prohmpiriya/payment-gateway/pkg/redis"
	"github.com/prohmpiriya/payment-gateway/pkg/retry"
	"go.uber.org/zap"
)

// Container holds all dependencies of the gateway
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	// Infrastructure
	DB    *database.PostgresDB
	Redis *pkgredis.Client

	// Repositories
	OrderRepo       repository.OrderRepository
	PaymentRepo     repository.PaymentRepository
	RefundRepo      repository.RefundRepository
	IdempotencyRepo repository.IdempotencyRepository
	MerchantRepo    repository.MerchantRepository

	// Queue
	Producer  queue.Producer
	Inspector queue.Inspector

	// Collaborators
	Network   *gateway.Simulator
	Publisher service.EventPublisher
	Guard     *idempotency.Guard
	Deliverer *webhook.Deliverer

	// Services
	OrderService    service.OrderService
	PaymentService  service.PaymentService
	RefundService   service.RefundService
	MerchantService service.MerchantService

	closers []func()
}

// NewContainer connects to the backing stores and wires every component.
// An unreachable Postgres or Redis is an error unless App.MemoryFallback is
// set, in which case repositories and the job queue live in process memory.
func NewContainer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.Get()
	}
	c := &Container{Config: cfg, Logger: log}

	if err := c.initStores(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.initQueue()
	c.initPublisher(ctx)

	c.Network = gateway.NewSimulator(SimulatorConfigFrom(cfg))

	var guardOpts []idempotency.Option
	if c.Redis != nil {
		guardOpts = append(guardOpts, idempotency.WithCache(idempotency.NewRedisCache(c.Redis)))
	}
	c.Guard = idempotency.NewGuard(c.IdempotencyRepo, log, guardOpts...)
	c.Deliverer = webhook.NewDeliverer(c.MerchantRepo, &http.Client{Timeout: cfg.Webhook.Timeout}, log)

	c.OrderService = service.NewOrderService(c.OrderRepo)
	c.PaymentService = service.NewPaymentService(c.OrderRepo, c.PaymentRepo, c.Producer, c.Network, c.Publisher, log)
	c.RefundService = service.NewRefundService(c.PaymentRepo, c.RefundRepo, c.Producer, c.Network, c.Publisher, log)
	c.MerchantService = service.NewMerchantService(c.MerchantRepo)

	if cfg.App.SeedTestMerchant {
		m, err := c.MerchantService.SeedTestMerchant(ctx, cfg.Webhook.TestMerchantURL)
		if err != nil {
			c.Close()
			return nil, err
		}
		log.Info("Test merchant seeded", zap.String("merchant_id", m.ID))
	}

	return c, nil
}

func (c *Container) initStores(ctx context.Context) error {
	db, err := database.NewPostgres(ctx, database.PostgresConfigFrom(c.Config))
	if err != nil {
		if !c.Config.App.MemoryFallback {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.Logger.Warn("Database connection failed, using in-memory repositories", zap.Error(err))
		payments := repository.NewMemoryPaymentRepository()
		c.OrderRepo = repository.NewMemoryOrderRepository()
		c.PaymentRepo = payments
		c.RefundRepo = repository.NewMemoryRefundRepository(payments)
		c.IdempotencyRepo = repository.NewMemoryIdempotencyRepository()
		c.MerchantRepo = repository.NewMemoryMerchantRepository()
	} else {
		c.DB = db
		c.closers = append(c.closers, db.Close)

		if c.Config.Database.AutoMigrate {
			if err := repository.EnsureSchema(ctx, db); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}

		c.OrderRepo = repository.NewPostgresOrderRepository(db)
		c.PaymentRepo = repository.NewPostgresPaymentRepository(db)
		c.RefundRepo = repository.NewPostgresRefundRepository(db)
		c.IdempotencyRepo = repository.NewPostgresIdempotencyRepository(db)
		c.MerchantRepo = repository.NewPostgresMerchantRepository(db)
		c.Logger.Info("Using PostgreSQL repositories")
	}

	redisClient, err := pkgredis.NewClient(ctx, pkgredis.ConfigFrom(c.Config))
	if err != nil {
		if !c.Config.App.MemoryFallback {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.Logger.Warn("Redis connection failed", zap.Error(err))
		return nil
	}
	c.Redis = redisClient
	c.closers = append(c.closers, func() { _ = redisClient.Close() })
	return nil
}

func (c *Container) initQueue() {
	producerCfg := ProducerConfigFrom(c.Config)

	if c.Redis == nil {
		mq := queue.NewMemoryQueue(producerCfg)
		c.Producer = mq
		c.Inspector = mq
		c.Logger.Warn("Using in-memory job queue (jobs will not reach the worker)")
		return
	}

	opt := c.RedisOpt()
	producer := queue.NewAsynqProducer(asynq.NewClient(opt), producerCfg)
	inspector := queue.NewAsynqInspector(asynq.NewInspector(opt))
	c.Producer = producer
	c.Inspector = inspector
	c.closers = append(c.closers,
		func() { _ = producer.Close() },
		func() { _ = inspector.Close() },
	)
}

func (c *Container) initPublisher(ctx context.Context) {
	c.Publisher = service.NewNoOpEventPublisher()
	if !c.Config.Kafka.Enabled() {
		return
	}

	publisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
		Brokers:     c.Config.Kafka.Brokers,
		Topic:       c.Config.Kafka.EventsTopic,
		ServiceName: c.Config.App.Name,
		ClientID:    c.Config.Kafka.ClientID,
	})
	if err != nil {
		c.Logger.Warn("Kafka unavailable, lifecycle events disabled", zap.Error(err))
		return
	}
	c.Publisher = publisher
	c.closers = append(c.closers, func() { _ = publisher.Close() })
}

// RedisOpt returns the asynq connection options for the configured Redis
func (c *Container) RedisOpt() asynq.RedisClientOpt {
	return queue.RedisOpt(pkgredis.ConfigFrom(c.Config))
}

// Handlers builds the HTTP handlers
func (c *Container) Handlers() *handler.Handlers {
	checks := map[string]handler.HealthChecker{}
	if c.DB != nil {
		checks["postgres"] = c.DB
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}

	return &handler.Handlers{
		Health:  handler.NewHealthHandler(c.Config.App.Name, c.Config.App.Version, checks),
		Order:   handler.NewOrderHandler(c.OrderService),
		Payment: handler.NewPaymentHandler(c.PaymentService, c.Guard),
		Refund:  handler.NewRefundHandler(c.RefundService),
		Test:    handler.NewTestHandler(c.MerchantService, c.Inspector, c.Logger),
	}
}

// Processor builds the job processor used by the worker pools
func (c *Container) Processor() *worker.Processor {
	return worker.NewProcessor(c.PaymentService, c.RefundService, c.Deliverer, c.Logger)
}

// Close releases every client the container opened, in reverse order
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// SimulatorConfigFrom maps the simulation settings onto the payment network
func SimulatorConfigFrom(cfg *config.Config) *gateway.SimulatorConfig {
	sc := gateway.DefaultSimulatorConfig()
	sc.TestMode = cfg.Simulation.TestMode
	sc.TestDelay = cfg.Simulation.ProcessingDelay
	sc.TestSuccess = cfg.Simulation.PaymentSuccess
	return sc
}

// ProducerConfigFrom maps the retry settings onto the queue producer
func ProducerConfigFrom(cfg *config.Config) *queue.ProducerConfig {
	pc := queue.DefaultProducerConfig()
	pc.MaxRetry = cfg.Worker.MaxRetry
	pc.WebhookSchedule = retry.SelectSchedule(cfg.Webhook.TestRetrySchedule)
	return pc
}

// PoolsConfigFrom maps the worker settings onto the worker pools
func PoolsConfigFrom(cfg *config.Config) *worker.PoolsConfig {
	pc := worker.DefaultPoolsConfig()
	pc.PaymentConcurrency = cfg.Worker.PaymentConcurrency
	pc.RefundConcurrency = cfg.Worker.RefundConcurrency
	pc.WebhookConcurrency = cfg.Worker.WebhookConcurrency
	pc.WebhookSchedule = retry.SelectSchedule(cfg.Webhook.TestRetrySchedule)
	if cfg.Worker.ShutdownTimeout > 0 {
		pc.ShutdownTimeout = cfg.Worker.ShutdownTimeout
	}
	return pc
}
