package models

import (
	"context"

	"github.com/gin-gonic/gin"
)

type contextKey string

const userIDKey contextKey = "user_id"

// ContextUserIDKey is the gin context key set by RequireSession.
const ContextUserIDKey = "user_id"

// SetUserIDContext stores the signed-in user id in ctx.
func SetUserIDContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the signed-in user id, or "" when none is set.
// Gin contexts are checked first, then plain context values.
func UserIDFromContext(ctx context.Context) string {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		if id := ginCtx.GetString(ContextUserIDKey); id != "" {
			return id
		}
		ctx = ginCtx.Request.Context()
	}
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
