package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/dto"
	"github.com/prohmpiriya/payment-gateway/internal/queue"
	"github.com/prohmpiriya/payment-gateway/internal/service"
	"github.com/prohmpiriya/payment-gateway/pkg/logger"
	"github.com/prohmpiriya/payment-gateway/pkg/response"
	"go.uber.org/zap"
)

// TestHandler serves the unauthenticated endpoints used by integration checks
type TestHandler struct {
	merchantService service.MerchantService
	inspector       queue.Inspector
	logger          *logger.Logger
}

// NewTestHandler creates a new TestHandler
func NewTestHandler(merchantService service.MerchantService, inspector queue.Inspector, log *logger.Logger) *TestHandler {
	if log == nil {
		log = logger.Get()
	}
	return &TestHandler{
		merchantService: merchantService,
		inspector:       inspector,
		logger:          log,
	}
}

// GetTestMerchant handles GET /api/v1/test/merchant
func (h *TestHandler) GetTestMerchant(c *gin.Context) {
	merchant, err := h.merchantService.GetTestMerchant(c.Request.Context())
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			response.NotFound(c, "Test merchant not found")
			return
		}
		response.InternalError(c, err)
		return
	}

	response.OK(c, dto.FromTestMerchant(merchant))
}

// GetJobStatus handles GET /api/v1/test/jobs/status. It reports the payment
// queue and never fails: an unreachable backend reads as a stopped worker.
func (h *TestHandler) GetJobStatus(c *gin.Context) {
	resp := &dto.JobStatusResponse{WorkerStatus: dto.WorkerStopped}
	if h.inspector == nil {
		response.OK(c, resp)
		return
	}

	stats, err := h.inspector.Stats(c.Request.Context(), queue.PaymentProcessing)
	if err != nil {
		h.logger.Warn("Failed to read queue stats", zap.Error(err))
		response.OK(c, resp)
		return
	}

	resp.Pending = stats.Pending
	resp.Processing = stats.Processing
	resp.Completed = stats.Completed
	resp.Failed = stats.Failed
	resp.WorkerStatus = dto.WorkerRunning
	response.OK(c, resp)
}
