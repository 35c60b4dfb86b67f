package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tapolio/tapolio-server/internal/dto"
)

// Logger writes one zerolog line per request instead of gin's text log.
func Logger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		evt := log.Info()
		if param.StatusCode >= http.StatusInternalServerError {
			evt = log.Error()
		}
		requestID, _ := param.Keys[RequestIDKey].(string)
		evt.Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("request_id", requestID).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	})
}

// Recovery turns a panic into a generic 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	})
}
