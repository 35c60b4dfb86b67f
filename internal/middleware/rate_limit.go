package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tapolio/tapolio-server/internal/dto"
	"github.com/tapolio/tapolio-server/internal/metrics"
	"github.com/tapolio/tapolio-server/internal/ratelimit"
)

const MsgTooManyRequests = "Too many requests, please try again later"

// RateLimit admits requests per client IP through limiter. Limiter failures let the request through.
func RateLimit(limiter ratelimit.Limiter, m *metrics.Metrics, skip ...string) gin.HandlerFunc {
	skipped := toSet(skip)
	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		ip := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Warn().Err(err).Str("client_ip", ip).Msg("Rate limiter unavailable, admitting request")
			c.Next()
			return
		}
		if !allowed {
			if m != nil {
				m.RateLimited.Inc()
			}
			log.Warn().Str("client_ip", ip).Str("path", c.Request.URL.Path).Msg("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: MsgTooManyRequests})
			return
		}
		c.Next()
	}
}
