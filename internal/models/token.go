package models

import "time"

// TokenSet is the credential pair issued by a provider or by the backend.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"` // seconds
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
}

// NewTokenSet builds a TokenSet whose ExpiresAt is now+expiresIn.
// A non-positive expiresIn leaves ExpiresAt unset.
func NewTokenSet(now time.Time, access, refresh string, expiresIn int64) TokenSet {
	ts := TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
		TokenType:    "Bearer",
	}
	if expiresIn > 0 {
		ts.ExpiresAt = now.Add(time.Duration(expiresIn) * time.Second)
	}
	return ts
}

// ValidAt reports whether the access token is usable at now.
func (t TokenSet) ValidAt(now time.Time) bool {
	if t.AccessToken == "" || t.ExpiresAt.IsZero() {
		return false
	}
	return t.ExpiresAt.After(now)
}

// IsExpired is ValidAt inverted against the wall clock.
func (t TokenSet) IsExpired() bool {
	return !t.ValidAt(time.Now())
}

// CanRefresh reports whether a refresh token is available.
func (t TokenSet) CanRefresh() bool {
	return t.RefreshToken != ""
}
