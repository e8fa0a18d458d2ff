package tokens

import "errors"

var (
	// ErrNoTokens means nothing is stored for the requested slot.
	ErrNoTokens = errors.New("tokens: no tokens stored")

	// ErrEmptyAccessToken rejects a TokenSet without an access token.
	ErrEmptyAccessToken = errors.New("tokens: access token is empty")

	// ErrUntrustedToken means a session token failed signature or claim checks.
	ErrUntrustedToken = errors.New("tokens: session token is not trusted")

	// ErrNoVerificationKey means no key is configured to verify session tokens.
	ErrNoVerificationKey = errors.New("tokens: no session verification key")
)
