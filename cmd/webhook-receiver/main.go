// Command webhook-receiver is a stand-in merchant endpoint. It verifies the
// signature of every delivery and logs the event.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/webhook"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("WEBHOOK_SECRET", domain.TestMerchantWebhookSecret)
	v.SetDefault("RECEIVER_PORT", 4000)
	v.SetDefault("LOG_LEVEL", "info")

	if err := logger.Init(&logger.Config{
		Level:       v.GetString("LOG_LEVEL"),
		ServiceName: "webhook-receiver",
		Development: true,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLog := logger.Get()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/webhook", newReceiver(v.GetString("WEBHOOK_SECRET"), appLog))

	addr := fmt.Sprintf(":%d", v.GetInt("RECEIVER_PORT"))
	appLog.Info("Webhook receiver listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Fatal("Receiver stopped", zap.Error(err))
	}
}

func newReceiver(secret string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}

		if !webhook.Verify(secret, body, c.GetHeader(webhook.SignatureHeader)) {
			log.Warn("Invalid webhook signature")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}

		var payload webhook.Payload
		if err := json.Unmarshal(body, &payload); err != nil {
			log.Warn("Undecodable webhook payload", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		fields := []zap.Field{
			zap.String("event", string(payload.Event)),
			zap.Int64("timestamp", payload.Timestamp),
		}
		if p := payload.Data.Payment; p != nil {
			fields = append(fields, zap.String("payment_id", p.ID), zap.Int64("amount", p.Amount), zap.String("status", string(p.Status)))
		}
		if r := payload.Data.Refund; r != nil {
			fields = append(fields, zap.String("refund_id", r.ID), zap.Int64("amount", r.Amount), zap.String("status", string(r.Status)))
		}
		log.Info("Webhook verified", fields...)

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
