package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	prevTelemetry := globalTelemetry
	globalTelemetry = &Telemetry{provider: tp, tracer: tp.Tracer("test")}

	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		globalTelemetry = prevTelemetry
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestInit_Disabled(t *testing.T) {
	tel, err := Init(context.Background(), &Config{ServiceName: "svc"})
	require.NoError(t, err)
	assert.Nil(t, tel.provider)
	assert.NoError(t, Shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.Empty(t, GetTraceID(ctx), "no-op spans carry no trace ID")
}

func TestStartSpan_RecordsError(t *testing.T) {
	sr := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "payment.process")
	assert.NotEmpty(t, GetTraceID(ctx))
	SetSpanError(span, errors.New("boom"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "payment.process", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTracingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := withRecorder(t)

	r := gin.New()
	r.Use(TracingMiddleware())
	r.GET("/orders/:id", func(c *gin.Context) {
		c.Set("merchant_id", "m_1")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/order_1", nil))

	assert.NotEmpty(t, w.Header().Get(TraceIDHeader))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /orders/:id", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("merchant.id", "m_1"))
}
