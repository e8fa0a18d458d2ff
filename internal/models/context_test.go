package models

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestUserIDContext(t *testing.T) {
	ctx := SetUserIDContext(context.Background(), "user-123")
	if got := UserIDFromContext(ctx); got != "user-123" {
		t.Errorf("UserIDFromContext() = %q, want user-123", got)
	}

	if got := UserIDFromContext(context.Background()); got != "" {
		t.Errorf("UserIDFromContext() on empty context = %q, want empty", got)
	}
}

func TestUserIDFromGinContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)

	if got := UserIDFromContext(c); got != "" {
		t.Errorf("UserIDFromContext() = %q, want empty", got)
	}

	c.Set(ContextUserIDKey, "user-456")
	if got := UserIDFromContext(c); got != "user-456" {
		t.Errorf("UserIDFromContext() = %q, want user-456", got)
	}

	c.Request = c.Request.WithContext(SetUserIDContext(c.Request.Context(), "user-789"))
	c.Set(ContextUserIDKey, "")
	if got := UserIDFromContext(c); got != "user-789" {
		t.Errorf("UserIDFromContext() = %q, want user-789", got)
	}
}
