package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, puts a request-scoped logger
// into the request context and logs the outcome.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)

		reqLog := logger.WithRequestID(log, requestID)
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), reqLog))

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			reqLog.Error("request failed", fields...)
		case status >= 400:
			reqLog.Warn("request rejected", fields...)
		default:
			reqLog.Debug("request completed", fields...)
		}
	}
}
