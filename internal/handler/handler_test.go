package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/dto"
	"github.com/prohmpiriya/payment-gateway/internal/gateway"
	"github.com/prohmpiriya/payment-gateway/internal/idempotency"
	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/prohmpiriya/payment-gateway/internal/repository"
	"github.com/prohmpiriya/payment-gateway/internal/service"
	"github.com/prohmpiriya/payment-gateway/internal/worker"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"github.com/prohmpiriya/payment-gateway/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiEnv struct {
	router    *gin.Engine
	queue     *queue.MemoryQueue
	processor *worker.Processor
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()
	log := logger.NewNop()

	orders := repository.NewMemoryOrderRepository()
	payments := repository.NewMemoryPaymentRepository()
	refunds := repository.NewMemoryRefundRepository(payments)
	merchantRepo := repository.NewMemoryMerchantRepository()
	idemRepo := repository.NewMemoryIdempotencyRepository()
	q := queue.NewMemoryQueue(nil)

	sim := gateway.NewSimulator(
		&gateway.SimulatorConfig{TestMode: true, TestSuccess: true},
		gateway.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }),
	)

	merchantSvc := service.NewMerchantService(merchantRepo)
	_, err := merchantSvc.SeedTestMerchant(context.Background(), "")
	require.NoError(t, err)

	paymentSvc := service.NewPaymentService(orders, payments, q, sim, nil, log)
	refundSvc := service.NewRefundService(payments, refunds, q, sim, nil, log)

	h := &Handlers{
		Health:  NewHealthHandler("payment-gateway", "test", nil),
		Order:   NewOrderHandler(service.NewOrderService(orders)),
		Payment: NewPaymentHandler(paymentSvc, idempotency.NewGuard(idemRepo, log)),
		Refund:  NewRefundHandler(refundSvc),
		Test:    NewTestHandler(merchantSvc, q, log),
	}

	r := gin.New()
	RegisterRoutes(r, h, merchantSvc)

	return &apiEnv{
		router:    r,
		queue:     q,
		processor: worker.NewProcessor(paymentSvc, refundSvc, nil, log),
	}
}

func (e *apiEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

var authHeaders = map[string]string{"X-Api-Key": domain.TestMerchantAPIKey}

func (e *apiEnv) createOrder(t *testing.T, amount int64) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/orders", dto.CreateOrderRequest{Amount: amount}, authHeaders)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	return order.ID
}

func (e *apiEnv) createPayment(t *testing.T, orderID string) *domain.Payment {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/payments", dto.CreatePaymentRequest{OrderID: orderID, Method: "card"}, authHeaders)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p domain.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return &p
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorData {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestAuth_RejectsMissingAndUnknownKeys(t *testing.T) {
	env := setupAPI(t)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "missing", headers: nil},
		{name: "unknown", headers: map[string]string{"X-Api-Key": "key_nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/v1/payments", nil, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, response.CodeAuthentication, decodeError(t, w).Code)
		})
	}
}

func TestCreatePayment_InvalidVPA(t *testing.T) {
	env := setupAPI(t)
	orderID := env.createOrder(t, 50000)

	w := env.do(http.MethodPost, "/api/v1/payments",
		dto.CreatePaymentRequest{OrderID: orderID, Method: "upi", VPA: "not-a-vpa"}, authHeaders)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrorData{Code: "INVALID_VPA", Description: "Invalid VPA"}, decodeError(t, w))
	assert.Equal(t, 0, env.queue.Len(queue.PaymentProcessing))
}

func TestCreatePayment_UnknownOrder(t *testing.T) {
	env := setupAPI(t)

	w := env.do(http.MethodPost, "/api/v1/payments",
		dto.CreatePaymentRequest{OrderID: "order_missing", Method: "card"}, authHeaders)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeNotFound, decodeError(t, w).Code)
}

func TestCreatePayment_IdempotencyKeyReplaysResponse(t *testing.T) {
	env := setupAPI(t)
	orderID := env.createOrder(t, 50000)

	headers := map[string]string{"X-Api-Key": domain.TestMerchantAPIKey, IdempotencyKeyHeader: "checkout-42"}
	req := dto.CreatePaymentRequest{OrderID: orderID, Method: "upi", VPA: "user@okbank"}

	first := env.do(http.MethodPost, "/api/v1/payments", req, headers)
	second := env.do(http.MethodPost, "/api/v1/payments", req, headers)

	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, env.queue.Len(queue.PaymentProcessing), "replay must not enqueue again")
}

func TestCreatePayment_FailuresAreNotRecorded(t *testing.T) {
	env := setupAPI(t)
	orderID := env.createOrder(t, 50000)
	headers := map[string]string{"X-Api-Key": domain.TestMerchantAPIKey, IdempotencyKeyHeader: "retry-me"}

	w := env.do(http.MethodPost, "/api/v1/payments",
		dto.CreatePaymentRequest{OrderID: orderID, Method: "upi", VPA: "bad"}, headers)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/v1/payments",
		dto.CreatePaymentRequest{OrderID: orderID, Method: "upi", VPA: "user@okbank"}, headers)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPaymentLifecycle(t *testing.T) {
	env := setupAPI(t)
	ctx := context.Background()
	p := env.createPayment(t, env.createOrder(t, 50000))
	assert.Equal(t, domain.PaymentStatusPending, p.Status)

	w := env.do(http.MethodPost, "/api/v1/payments/"+p.ID+"/capture", nil, authHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code, "pending payments cannot be captured")

	require.Equal(t, 1, env.queue.Drain(ctx, queue.PaymentProcessing, env.processor))

	w = env.do(http.MethodGet, "/api/v1/payments/"+p.ID, nil, authHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domain.PaymentStatusSuccess, got.Status)

	w = env.do(http.MethodPost, "/api/v1/payments/"+p.ID+"/capture", nil, authHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Captured)

	w = env.do(http.MethodPost, "/api/v1/payments/"+p.ID+"/capture", nil, authHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrPaymentAlreadyCaptured.Message, decodeError(t, w).Description)

	w = env.do(http.MethodPost, "/api/v1/payments/"+p.ID+"/refunds", dto.CreateRefundRequest{Amount: 60000}, authHeaders)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrRefundExceedsAmount.Message, decodeError(t, w).Description)

	w = env.do(http.MethodPost, "/api/v1/payments/"+p.ID+"/refunds", dto.CreateRefundRequest{Amount: 20000, Reason: "damaged"}, authHeaders)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var refund domain.Refund
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refund))
	assert.Equal(t, domain.RefundStatusPending, refund.Status)

	require.Equal(t, 1, env.queue.Drain(ctx, queue.RefundProcessing, env.processor))

	w = env.do(http.MethodGet, "/api/v1/refunds/"+refund.ID, nil, authHeaders)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refund))
	assert.Equal(t, domain.RefundStatusProcessed, refund.Status)
	assert.NotNil(t, refund.ProcessedAt)
}

func TestListPayments(t *testing.T) {
	env := setupAPI(t)
	env.createPayment(t, env.createOrder(t, 100))
	env.createPayment(t, env.createOrder(t, 200))

	w := env.do(http.MethodGet, "/api/v1/payments", nil, authHeaders)
	require.Equal(t, http.StatusOK, w.Code)

	var list dto.PaymentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Len(t, list.Items, 2)
}

func TestPublicPaymentEndpoints(t *testing.T) {
	env := setupAPI(t)
	orderID := env.createOrder(t, 50000)

	w := env.do(http.MethodPost, "/api/v1/payments/public", dto.CreatePaymentRequest{OrderID: orderID, Method: "card"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p domain.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, domain.TestMerchantID, p.MerchantID, "public payments belong to the order's merchant")

	w = env.do(http.MethodGet, "/api/v1/payments/"+p.ID+"/public", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/v1/payments/pay_missing/public", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTestEndpoints(t *testing.T) {
	env := setupAPI(t)

	w := env.do(http.MethodGet, "/api/v1/test/merchant", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var merchant dto.TestMerchantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &merchant))
	assert.Equal(t, dto.TestMerchantResponse{
		ID:     domain.TestMerchantID,
		Email:  domain.TestMerchantEmail,
		APIKey: domain.TestMerchantAPIKey,
		Seeded: true,
	}, merchant)

	env.createPayment(t, env.createOrder(t, 100))

	w = env.do(http.MethodGet, "/api/v1/test/jobs/status", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status dto.JobStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, dto.JobStatusResponse{Pending: 1, WorkerStatus: dto.WorkerRunning}, status)
}

type failingInspector struct{}

func (failingInspector) Stats(ctx context.Context, queueName string) (*queue.Stats, error) {
	return nil, errors.New("redis unavailable")
}

func TestGetJobStatus_BackendDown(t *testing.T) {
	h := NewTestHandler(nil, failingInspector{}, logger.NewNop())
	r := gin.New()
	r.GET("/status", h.GetJobStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pending":0,"processing":0,"completed":0,"failed":0,"worker_status":"stopped"}`, w.Body.String())
}

type brokenOrderService struct {
	service.OrderService
}

func (brokenOrderService) GetOrder(ctx context.Context, merchantID, orderID string) (*domain.Order, error) {
	return nil, errors.New("connection refused")
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	h := NewOrderHandler(brokenOrderService{})
	r := gin.New()
	r.GET("/orders/:id", h.GetOrder)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/order_1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","description":"Internal error"}}`, w.Body.String())
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(ctx context.Context) error { return s.err }

func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]HealthChecker
		wantCode int
	}{
		{name: "all healthy", checks: map[string]HealthChecker{"postgres": stubChecker{}, "redis": stubChecker{}}, wantCode: http.StatusOK},
		{name: "redis down", checks: map[string]HealthChecker{"postgres": stubChecker{}, "redis": stubChecker{err: errors.New("dial tcp")}}, wantCode: http.StatusServiceUnavailable},
		{name: "nil checker skipped", checks: map[string]HealthChecker{"postgres": nil}, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("payment-gateway", "test", tt.checks)
			r := gin.New()
			r.GET("/ready", h.Ready)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
