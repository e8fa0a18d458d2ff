package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/services"
)

// SelectionHandler serves the account and campaign pickers.
type SelectionHandler struct {
	svc *services.SelectionService
}

func NewSelectionHandler(svc *services.SelectionService) *SelectionHandler {
	return &SelectionHandler{svc: svc}
}

type selectRequest struct {
	CustomerIDs []string `json:"customer_ids"`
	CampaignIDs []string `json:"campaign_ids"`
}

// Submit stores the selection of a connection after the plan check.
func (h *SelectionHandler) Submit(c *gin.Context) {
	var in selectRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid selection body")
		return
	}

	sel, err := h.svc.SelectEntities(c.Request.Context(), models.UserIDFromContext(c),
		c.Param("id"), in.CustomerIDs, in.CampaignIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": sel})
}

// Get returns the stored selection of a connection.
func (h *SelectionHandler) Get(c *gin.Context) {
	sel, err := h.svc.Current(c.Request.Context(), models.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": sel})
}

// Toggle applies one picker click. A rejected click is a normal outcome
// and answers 200 with decision "rejected".
func (h *SelectionHandler) Toggle(c *gin.Context) {
	var in services.ToggleRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid toggle body")
		return
	}
	if in.Platform != "" && !in.Platform.Valid() {
		badRequest(c, "unsupported platform")
		return
	}

	out, err := h.svc.Toggle(c.Request.Context(), models.UserIDFromContext(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
