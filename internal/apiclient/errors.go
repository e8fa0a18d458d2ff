package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrLoginRequired means the user must sign in again. It is returned
	// without any network call when no token is stored.
	ErrLoginRequired = errors.New("login required")
	// ErrUnauthorized is a 401 on a request already retried after refresh.
	ErrUnauthorized = errors.New("unauthorized after token refresh")
	// ErrRefreshFailed matches every *RefreshError.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrMalformedResponse is a body that is not a {result} or {results}
	// envelope.
	ErrMalformedResponse = errors.New("malformed response envelope")

	errNoRefreshToken = errors.New("no refresh token stored")
	errSessionEnded   = errors.New("session ended by a concurrent refresh failure")
)

// RefreshError is the failure of one refresh cycle. Every request queued
// behind the cycle receives the same error. It also matches
// ErrLoginRequired because a failed refresh ends the session.
type RefreshError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RefreshError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("token refresh failed: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("token refresh failed: status %d: %s", e.StatusCode, e.Body)
	default:
		return "token refresh failed"
	}
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

func (e *RefreshError) Is(target error) bool {
	return target == ErrRefreshFailed || target == ErrLoginRequired
}

// APIError is a non-2xx answer other than 401.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
