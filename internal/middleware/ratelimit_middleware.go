// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"net/http"

	"crm-service/internal/pkg/ratelimit"
	"crm-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware throttles a route per client IP. It fails open when
// Redis is unavailable rather than blocking intake.
func RateLimitMiddleware(limiter *ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, "too many requests, please try again later", nil)
			return
		}

		c.Set("ratelimit_remaining", remaining)
		c.Next()
	}
}
