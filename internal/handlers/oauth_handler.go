package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/services"
	"github.com/adsynq/adsynq/internal/util"
)

const (
	sessionOAuthState = "oauth_state"
	sessionReturnTo   = "oauth_return_to"
)

// ConnectionHandler runs the platform authorization redirect and callback
// and manages stored connections.
type ConnectionHandler struct {
	svc *services.ConnectionService
	// landing is where the browser goes once a callback is handled,
	// unless the connect request named a safe return_to on baseURL.
	landing string
	baseURL string
}

func NewConnectionHandler(svc *services.ConnectionService, landing, baseURL string) *ConnectionHandler {
	return &ConnectionHandler{svc: svc, landing: landing, baseURL: baseURL}
}

// Connect starts the authorization of one platform. The state is kept in
// the cookie session and the browser is sent to the provider.
func (h *ConnectionHandler) Connect(c *gin.Context) {
	p, err := models.ParsePlatform(c.Param("platform"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	authURL, state, err := h.svc.Connect(p, c.Query("shop"))
	if err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionOAuthState, state)
	if rt := c.Query("return_to"); rt != "" && util.IsRedirectSafe(rt, h.baseURL) {
		session.Set(sessionReturnTo, rt)
	} else {
		session.Delete(sessionReturnTo)
	}
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback completes the authorization. Whatever the outcome, the browser
// is redirected to the landing page so the code never stays in the
// address bar.
func (h *ConnectionHandler) Callback(c *gin.Context) {
	session := sessions.Default(c)
	expected, _ := session.Get(sessionOAuthState).(string)
	returnTo, _ := session.Get(sessionReturnTo).(string)
	session.Delete(sessionOAuthState)
	session.Delete(sessionReturnTo)
	target := util.SafeRedirect(returnTo, h.baseURL, h.landing)
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}

	query := c.Request.URL.Query()
	params := services.CallbackParams{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
		Shop:             query.Get("shop"),
		Query:            query,
	}

	result, err := h.svc.HandleCallback(c.Request.Context(), models.UserIDFromContext(c), params, expected)
	if err != nil {
		_ = c.Error(err)
		e := classify(err)
		land(c, target, url.Values{"error": {e.code}})
		return
	}

	land(c, target, url.Values{
		"connected":     {result.Connection.Platform.String()},
		"connection_id": {result.Connection.ID},
	})
}

func land(c *gin.Context, target string, q url.Values) {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	c.Redirect(http.StatusFound, target+sep+q.Encode())
}

// List returns the user's connections.
func (h *ConnectionHandler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context(), models.UserIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": views})
}

// Refresh renews the platform token of one connection. Tokens never leave
// the server; the response only reports the new expiry.
func (h *ConnectionHandler) Refresh(c *gin.Context) {
	ts, err := h.svc.RefreshToken(c.Request.Context(), models.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"connection_id": c.Param("id"), "token_valid": !ts.IsExpired()}
	if !ts.ExpiresAt.IsZero() {
		body["expires_at"] = ts.ExpiresAt
	}
	c.JSON(http.StatusOK, body)
}

// Disconnect removes one connection.
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	if err := h.svc.Disconnect(c.Request.Context(), models.UserIDFromContext(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
