package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/adsynq/adsynq/internal/util"
)

const (
	csrfTokenKey    = "csrf_token"
	csrfHeaderField = "X-CSRF-Token"
)

// CSRFMiddleware keeps a per-session token, echoes it in the X-CSRF-Token
// response header and requires it back on state-changing requests.
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		token, _ := session.Get(csrfTokenKey).(string)
		if token == "" {
			var err error
			token, err = util.CryptoRandomString(32)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":             "server_error",
					"error_description": "Failed to generate CSRF token",
				})
				return
			}
			session.Set(csrfTokenKey, token)
			if err := session.Save(); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":             "server_error",
					"error_description": "Failed to save CSRF token",
				})
				return
			}
		}

		c.Header(csrfHeaderField, token)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		submitted := c.GetHeader(csrfHeaderField)
		if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":             "csrf_failed",
				"error_description": "CSRF token validation failed. Reload and try again.",
			})
			return
		}

		c.Next()
	}
}
