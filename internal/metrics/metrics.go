package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "payment_gateway"

// Webhook delivery outcomes
const (
	OutcomeDelivered = "delivered"
	OutcomeRetry     = "retry"
	OutcomeRejected  = "rejected"
	OutcomeAbandoned = "abandoned"
	OutcomeDropped   = "dropped"
)

var (
	// Payment metrics
	PaymentsCreated   *prometheus.CounterVec
	PaymentsProcessed *prometheus.CounterVec
	PaymentDuration   *prometheus.HistogramVec
	PaymentsCaptured  prometheus.Counter

	// Refund metrics
	RefundsCreated   prometheus.Counter
	RefundsProcessed prometheus.Counter
	RefundAmount     prometheus.Histogram

	// Webhook metrics
	WebhookDeliveries       *prometheus.CounterVec
	WebhookDeliveryDuration *prometheus.HistogramVec

	// Queue metrics
	JobsHandled *prometheus.CounterVec

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec

	initOnce sync.Once
)

// Init registers all gateway metrics with the default registerer
func Init() {
	initOnce.Do(func() {
		initMetrics(prometheus.DefaultRegisterer)
	})
}

func initMetrics(reg prometheus.Registerer) {
	PaymentsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_created_total",
		Help:      "Total number of payments created",
	}, []string{"method"})

	PaymentsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_processed_total",
		Help:      "Total number of payments settled by the worker",
	}, []string{"method", "status"})

	PaymentDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_processing_duration_seconds",
		Help:      "Time from job start to settled payment",
		Buckets:   []float64{0.5, 1, 2.5, 5, 7.5, 10, 15, 30}, // 500ms to 30s
	}, []string{"method"})

	PaymentsCaptured = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_captured_total",
		Help:      "Total number of captured payments",
	})

	RefundsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refunds_created_total",
		Help:      "Total number of refunds created",
	})

	RefundsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refunds_processed_total",
		Help:      "Total number of refunds processed",
	})

	RefundAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refund_amount_minor_units",
		Help:      "Refund amounts distribution",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6), // 100 to 10M minor units
	})

	WebhookDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_deliveries_total",
		Help:      "Webhook delivery attempts by outcome",
	}, []string{"event", "outcome"})

	WebhookDeliveryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "webhook_delivery_duration_seconds",
		Help:      "Duration of outbound webhook requests",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}, // 10ms to 5s
	}, []string{"event"})

	JobsHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_handled_total",
		Help:      "Jobs handled by queue and result",
	}, []string{"queue", "result"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}, // 5ms to 5s
	}, []string{"method", "route", "status"})

	reg.MustRegister(
		PaymentsCreated,
		PaymentsProcessed,
		PaymentDuration,
		PaymentsCaptured,
		RefundsCreated,
		RefundsProcessed,
		RefundAmount,
		WebhookDeliveries,
		WebhookDeliveryDuration,
		JobsHandled,
		RequestDuration,
	)
}

// RecordPaymentCreated records a payment creation metric
func RecordPaymentCreated(method string) {
	if PaymentsCreated != nil {
		PaymentsCreated.WithLabelValues(method).Inc()
	}
}

// RecordPaymentProcessed records a settled payment
func RecordPaymentProcessed(method, status string, duration time.Duration) {
	if PaymentsProcessed != nil {
		PaymentsProcessed.WithLabelValues(method, status).Inc()
	}
	if PaymentDuration != nil {
		PaymentDuration.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// RecordPaymentCaptured records a capture
func RecordPaymentCaptured() {
	if PaymentsCaptured != nil {
		PaymentsCaptured.Inc()
	}
}

// RecordRefundCreated records a refund creation metric
func RecordRefundCreated(amount int64) {
	if RefundsCreated != nil {
		RefundsCreated.Inc()
	}
	if RefundAmount != nil {
		RefundAmount.Observe(float64(amount))
	}
}

// RecordRefundProcessed records a processed refund
func RecordRefundProcessed() {
	if RefundsProcessed != nil {
		RefundsProcessed.Inc()
	}
}

// RecordWebhookDelivery records one delivery attempt. duration is zero when no request was sent.
func RecordWebhookDelivery(event, outcome string, duration time.Duration) {
	if WebhookDeliveries != nil {
		WebhookDeliveries.WithLabelValues(event, outcome).Inc()
	}
	if duration > 0 && WebhookDeliveryDuration != nil {
		WebhookDeliveryDuration.WithLabelValues(event).Observe(duration.Seconds())
	}
}

// RecordJob records a handled job
func RecordJob(queue string, err error) {
	if JobsHandled == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	JobsHandled.WithLabelValues(queue, result).Inc()
}

// RecordRequest records HTTP request duration
func RecordRequest(method, route string, status int, duration time.Duration) {
	if RequestDuration != nil {
		RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	}
}
