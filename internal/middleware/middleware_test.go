package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adsynq/adsynq/internal/logger"
	"github.com/adsynq/adsynq/internal/models"
)

// sessionRouter mounts a cookie session, a /login helper that signs a
// user in and the middleware under test on /api.
func sessionRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("adsynq", cookie.NewStore([]byte("test-session-secret"))))
	r.GET("/login/:user", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(SessionUserID, c.Param("user"))
		_ = s.Save()
		c.Status(http.StatusNoContent)
	})

	api := r.Group("/api", mw...)
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString(models.ContextUserIDKey),
			"from_ctx": models.UserIDFromContext(c.Request.Context()),
		})
	}
	api.GET("/me", handler)
	api.POST("/me", handler)
	return r
}

func login(t *testing.T, r *gin.Engine, user string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/"+user, nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	return w.Result().Cookies()
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestRequireSession_NoSession(t *testing.T) {
	r := sessionRouter(RequireSession())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"login_required"`)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)
}

func TestRequireSession_SignedIn(t *testing.T) {
	r := sessionRouter(RequireSession())
	cookies := login(t, r, "u-42")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withCookies(httptest.NewRequest(http.MethodGet, "/api/me", nil), cookies))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u-42","from_ctx":"u-42"}`, w.Body.String())
}

func TestCSRFMiddleware(t *testing.T) {
	r := sessionRouter(CSRFMiddleware())
	cookies := login(t, r, "u-1")

	// A safe request hands out the token and may refresh the cookie.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, withCookies(httptest.NewRequest(http.MethodGet, "/api/me", nil), cookies))
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Header().Get(csrfHeaderField)
	require.NotEmpty(t, token)
	if fresh := w.Result().Cookies(); len(fresh) > 0 {
		cookies = fresh
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, withCookies(httptest.NewRequest(http.MethodPost, "/api/me", nil), cookies))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "csrf_failed")

	req := withCookies(httptest.NewRequest(http.MethodPost, "/api/me", nil), cookies)
	req.Header.Set(csrfHeaderField, "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = withCookies(httptest.NewRequest(http.MethodPost, "/api/me", nil), cookies)
	req.Header.Set(csrfHeaderField, token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) {
		logger.FromContext(c.Request.Context(), nil).Info("inside handler")
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))

	inside := logs.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	assert.Equal(t, "req-123", inside[0].ContextMap()["request_id"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(http.StatusBadGateway), failed[0].ContextMap()["status"])
}
