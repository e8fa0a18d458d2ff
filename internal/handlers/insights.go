package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/services"
)

const (
	dateLayout         = "2006-01-02"
	defaultInsightDays = 7
	maxInsightDays     = 366
)

// InsightsHandler serves the cross-platform dashboard numbers.
type InsightsHandler struct {
	svc *services.InsightsService
	now func() time.Time
}

func NewInsightsHandler(svc *services.InsightsService) *InsightsHandler {
	return &InsightsHandler{svc: svc, now: time.Now}
}

// parseRange reads from/to (YYYY-MM-DD). Both default to the last seven
// days ending today.
func (h *InsightsHandler) parseRange(c *gin.Context) (from, to time.Time, ok bool) {
	today := h.now().UTC().Truncate(24 * time.Hour)
	to, from = today, today.AddDate(0, 0, -(defaultInsightDays-1))

	var err error
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(dateLayout, v); err != nil {
			badRequest(c, "to must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from = to.AddDate(0, 0, -(defaultInsightDays - 1))
	}
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(dateLayout, v); err != nil {
			badRequest(c, "from must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
	}

	switch {
	case from.After(to):
		badRequest(c, "from is after to")
		return time.Time{}, time.Time{}, false
	case to.Sub(from) > maxInsightDays*24*time.Hour:
		badRequest(c, "date range is too long")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// Summary aggregates stats of every connected platform.
func (h *InsightsHandler) Summary(c *gin.Context) {
	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	sum, err := h.svc.Summary(c.Request.Context(), models.UserIDFromContext(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from":    from.Format(dateLayout),
		"to":      to.Format(dateLayout),
		"summary": sum,
	})
}
