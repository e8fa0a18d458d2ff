package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/apiclient"
	"github.com/adsynq/adsynq/internal/insights"
	"github.com/adsynq/adsynq/internal/logger"
	"github.com/adsynq/adsynq/internal/middleware"
	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/selection"
	"github.com/adsynq/adsynq/internal/services"
)

// apiError is the JSON body of every failed request.
type apiError struct {
	status      int
	code        string
	description string
	extra       gin.H
}

// classify maps a service error to its HTTP response.
func classify(err error) apiError {
	var (
		exchangeErr *platform.ExchangeError
		violation   *selection.ViolationError
		backendErr  *apiclient.APIError
	)

	switch {
	case errors.Is(err, apiclient.ErrLoginRequired):
		return apiError{status: http.StatusUnauthorized, code: "login_required", description: "Sign in again to continue"}
	case errors.Is(err, services.ErrOAuthValidation):
		return apiError{status: http.StatusBadRequest, code: "invalid_request", description: err.Error()}
	case errors.As(err, &exchangeErr):
		return apiError{
			status:      http.StatusBadGateway,
			code:        "token_exchange_failed",
			description: err.Error(),
			extra:       gin.H{"stage": exchangeErr.Stage, "provider_error": exchangeErr.Code},
		}
	case errors.Is(err, platform.ErrProfileFetch):
		return apiError{status: http.StatusBadGateway, code: "profile_fetch_failed", description: err.Error()}
	case errors.As(err, &violation):
		return apiError{
			status:      http.StatusUnprocessableEntity,
			code:        "selection_limit",
			description: violation.Detail,
			extra:       gin.H{"rule": violation.Rule},
		}
	case errors.Is(err, platform.ErrUnknownPlatform),
		errors.Is(err, platform.ErrMissingShop),
		errors.Is(err, services.ErrInvalidSession),
		errors.Is(err, services.ErrInvalidToggle):
		return apiError{status: http.StatusBadRequest, code: "invalid_request", description: err.Error()}
	case errors.Is(err, platform.ErrPlatformDisabled):
		return apiError{status: http.StatusNotFound, code: "platform_disabled", description: err.Error()}
	case errors.Is(err, services.ErrConnectionNotFound):
		return apiError{status: http.StatusNotFound, code: "not_found", description: "Connection not found"}
	case errors.Is(err, insights.ErrNoData):
		return apiError{status: http.StatusBadGateway, code: "stats_unavailable", description: err.Error()}
	case errors.Is(err, apiclient.ErrUnauthorized), errors.As(err, &backendErr):
		return apiError{status: http.StatusBadGateway, code: "backend_error", description: "The backend rejected the request"}
	}
	return apiError{status: http.StatusInternalServerError, code: "server_error", description: "Internal server error"}
}

// respondError logs err and writes the JSON error body. Login-boundary
// errors carry the redirect the UI follows.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	e := classify(err)

	log := logger.FromContext(c.Request.Context(), nil)
	if e.status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("code", e.code), zap.Error(err))
	} else {
		log.Info("request rejected", zap.String("code", e.code), zap.Error(err))
	}

	if e.code == "login_required" {
		middleware.AbortLoginRequired(c, e.description)
		return
	}

	body := gin.H{"error": e.code, "error_description": e.description}
	for k, v := range e.extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(e.status, body)
}

func badRequest(c *gin.Context, description string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":             "invalid_request",
		"error_description": description,
	})
}
