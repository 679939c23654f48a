package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/di"
	"github.com/prohmpiriya/payment-gateway/internal/metrics"
	"github.com/prohmpiriya/payment-gateway/internal/worker"
	"github.com/prohmpiriya/payment-gateway/pkg/config"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"github.com/prohmpiriya/payment-gateway/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "payment-gateway-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting payment gateway worker...",
		zap.Bool("test_mode", cfg.Simulation.TestMode),
		zap.Bool("test_retry_schedule", cfg.Webhook.TestRetrySchedule),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := telemetry.Init(ctx, telemetry.ConfigFrom(cfg, serviceName)); err != nil {
		appLog.Warn("Failed to initialize telemetry", zap.Error(err))
	}
	metrics.Init()

	container, err := di.NewContainer(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to build dependencies", zap.Error(err))
	}
	defer container.Close()

	if container.DB == nil {
		appLog.Fatal("Worker requires PostgreSQL, in-memory repositories cannot see API data")
	}
	if container.Redis == nil {
		appLog.Fatal("Worker requires Redis for the job queues")
	}

	pools := worker.NewPools(container.RedisOpt(), di.PoolsConfigFrom(cfg), container.Processor(), appLog)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.MetricsPort),
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pools.Run(gctx)
	})
	g.Go(func() error {
		appLog.Info("Worker metrics listening", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLog.Error("Worker stopped with error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("Failed to flush traces", zap.Error(err))
	}

	appLog.Info("Worker exited")
}
