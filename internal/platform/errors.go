package platform

import (
	"errors"
	"fmt"

	"github.com/adsynq/adsynq/internal/models"
)

var (
	// ErrOAuthValidation matches every problem with the callback input itself.
	ErrOAuthValidation = errors.New("invalid oauth callback")
	// ErrMissingCode is returned before any network call when code is empty.
	ErrMissingCode = fmt.Errorf("%w: authorization code is required", ErrOAuthValidation)

	ErrTokenExchange     = errors.New("token exchange failed")
	ErrLongLivedExchange = errors.New("long-lived token exchange failed")
	ErrProfileFetch      = errors.New("profile fetch failed")

	ErrUnknownPlatform     = errors.New("unknown platform")
	ErrPlatformDisabled    = errors.New("platform is not enabled")
	ErrRefreshUnsupported  = errors.New("platform does not support token refresh")
	ErrMissingShop         = errors.New("shopify shop domain is required")
	ErrInvalidCallbackHMAC = fmt.Errorf("%w: callback signature mismatch", ErrOAuthValidation)
)

// ExchangeError is returned when the provider rejects a code, a long-lived
// upgrade or a refresh. Codes are single-use: the caller must restart the
// authorization redirect rather than retry.
type ExchangeError struct {
	Platform    models.Platform
	Stage       Stage
	Code        string // provider error code, e.g. invalid_grant
	Description string
	Err         error
}

func (e *ExchangeError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Platform, e.Stage)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

func (e *ExchangeError) Is(target error) bool {
	switch target {
	case ErrTokenExchange:
		return true
	case ErrLongLivedExchange:
		return e.Stage == StageLongLivedExchangeFailed
	}
	return false
}

// ProfileFetchError is returned when tokens were obtained but the identity
// call failed. Tokens stay usable; FetchProfile may be retried with them.
type ProfileFetchError struct {
	Platform models.Platform
	Tokens   models.TokenSet
	Err      error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("%s profile fetch failed: %v", e.Platform, e.Err)
}

func (e *ProfileFetchError) Unwrap() error {
	return e.Err
}

func (e *ProfileFetchError) Is(target error) bool {
	return target == ErrProfileFetch
}

// StatusError is a non-2xx answer from a provider endpoint.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Operation, e.StatusCode, e.Body)
}
