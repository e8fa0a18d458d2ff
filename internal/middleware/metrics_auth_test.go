package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMetricsAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const token = "test-secret-token-123"

	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{name: "open when no token configured", configured: "", wantStatus: http.StatusOK},
		{name: "valid bearer", configured: token, header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", configured: token, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", configured: token, header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", configured: token, header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", configured: token, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(MetricsAuthMiddleware(tt.configured))
			r.GET("/metrics", func(c *gin.Context) {
				c.String(http.StatusOK, "metrics")
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Bearer realm="Metrics"`, w.Header().Get("WWW-Authenticate"))
				assert.Contains(t, w.Body.String(), "unauthorized")
			}
		})
	}
}
