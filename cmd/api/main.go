package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/di"
	"github.com/prohmpiriya/payment-gateway/internal/handler"
	"github.com/prohmpiriya/payment-gateway/internal/metrics"
	"github.com/prohmpiriya/payment-gateway/internal/middleware"
	"github.com/prohmpiriya/payment-gateway/pkg/config"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	pkgmiddleware "github.com/prohmpiriya/payment-gateway/pkg/middleware"
	"github.com/prohmpiriya/payment-gateway/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "payment-gateway-api"

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
	appLog.Info("Starting payment gateway API...")

	ctx := context.Background()

	if _, err := telemetry.Init(ctx, telemetry.ConfigFrom(cfg, serviceName)); err != nil {
		appLog.Warn("Failed to initialize telemetry", zap.Error(err))
	}
	metrics.Init()

	container, err := di.NewContainer(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to build dependencies", zap.Error(err))
	}
	defer container.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		pkgmiddleware.Recovery(appLog),
		pkgmiddleware.RequestID(),
		telemetry.TracingMiddleware(),
		pkgmiddleware.Logger(appLog),
		middleware.Metrics(),
	)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.RegisterRoutes(router, container.Handlers(), container.MerchantService)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info("API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("Failed to flush traces", zap.Error(err))
	}

	appLog.Info("Server exited")
}
