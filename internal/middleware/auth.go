package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/adsynq/adsynq/internal/models"
)

const SessionUserID = "user_id"

// LoginPath is where the UI sends users without a backend session. It is
// set once at startup from LOGIN_URL.
var LoginPath = "/login"

// AbortLoginRequired ends the request with the login-boundary response.
func AbortLoginRequired(c *gin.Context, description string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             "login_required",
		"error_description": description,
		"redirect":          LoginPath,
	})
}

// RequireSession rejects requests whose cookie session carries no user.
// The user id is exposed to handlers through the gin and request contexts.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(SessionUserID).(string)
		if userID == "" {
			AbortLoginRequired(c, "Sign in to continue")
			return
		}

		c.Set(models.ContextUserIDKey, userID)
		c.Request = c.Request.WithContext(models.SetUserIDContext(c.Request.Context(), userID))
		c.Next()
	}
}
