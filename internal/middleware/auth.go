// Package middleware holds the gin middleware specific to the gateway API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/payment-gateway/internal/domain"
	"github.com/prohmpiriya/payment-gateway/internal/service"
	pkgmiddleware "github.com/prohmpiriya/payment-gateway/pkg/middleware"
	"github.com/prohmpiriya/payment-gateway/pkg/response"
)

// APIKeyHeader carries the merchant's API key
const APIKeyHeader = "X-Api-Key"

// MerchantAuth resolves the calling merchant from the API key header and
// stores its ID under pkgmiddleware.MerchantIDKey
func MerchantAuth(merchants service.MerchantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(APIKeyHeader)
		if apiKey == "" {
			response.Unauthorized(c, "Invalid API credentials")
			return
		}

		merchant, err := merchants.Authenticate(c.Request.Context(), apiKey)
		if err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				response.Unauthorized(c, "Invalid API credentials")
				return
			}
			response.InternalError(c, err)
			return
		}

		c.Set(pkgmiddleware.MerchantIDKey, merchant.ID)
		c.Next()
	}
}

// MerchantID returns the authenticated merchant's ID
func MerchantID(c *gin.Context) string {
	return c.GetString(pkgmiddleware.MerchantIDKey)
}
