package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/pkg/response"
)

// writeError maps a service error to its HTTP response. Anything that is
// not a domain error is reported as an opaque 500.
func writeError(c *gin.Context, err error) {
	de, ok := domain.AsError(err)
	if !ok {
		response.InternalError(c, err)
		return
	}

	switch de.Kind {
	case domain.KindNotFound:
		response.Error(c, http.StatusNotFound, de.Code, de.Message)
	case domain.KindInvalidInput, domain.KindInvalidState:
		response.Error(c, http.StatusBadRequest, de.Code, de.Message)
	default:
		response.InternalError(c, err)
	}
}
