package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func abortMetricsAuth(c *gin.Context, description string) {
	c.Header("WWW-Authenticate", `Bearer realm="Metrics"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             "unauthorized",
		"error_description": description,
	})
}

// MetricsAuthMiddleware protects /metrics with a static Bearer token. An
// empty token leaves the endpoint open.
func MetricsAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || provided == "" {
			abortMetricsAuth(c, "Bearer token required")
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			abortMetricsAuth(c, "Invalid token")
			return
		}

		c.Next()
	}
}
