package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/adsynq/adsynq/internal/middleware"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/services"
)

// SessionHandler attaches the backend session to the browser session.
type SessionHandler struct {
	svc *services.SessionService
}

func NewSessionHandler(svc *services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Attach stores the backend tokens from the login boundary and signs the
// browser session in as their user.
func (h *SessionHandler) Attach(c *gin.Context) {
	var in services.SessionTokens
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "access token is required")
		return
	}

	userID, err := h.svc.Attach(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserID, userID)
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}

// Drop signs the browser session out and forgets the backend tokens.
func (h *SessionHandler) Drop(c *gin.Context) {
	userID := models.UserIDFromContext(c)
	if err := h.svc.Drop(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
