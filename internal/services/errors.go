package services

import (
	"errors"
	"fmt"

	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/store"
)

var (
	// ErrOAuthValidation matches every rejected callback, including a
	// missing code detected by the provider.
	ErrOAuthValidation = platform.ErrOAuthValidation

	ErrInvalidCallback = fmt.Errorf("%w: state is missing or malformed", ErrOAuthValidation)
	ErrStateMismatch   = fmt.Errorf("%w: state does not match the session", ErrOAuthValidation)
	ErrProviderDenied  = fmt.Errorf("%w: provider returned an error", ErrOAuthValidation)

	ErrConnectionNotFound = store.ErrConnectionNotFound
	ErrInvalidSession     = errors.New("session tokens are invalid")
	ErrInvalidToggle      = errors.New("toggle needs an account id")
)
