package util

import (
	"net/url"
	"strings"
)

// IsRedirectSafe reports whether redirectURL may be used as a post-callback
// destination. Relative paths are allowed except "//host" and backslash
// forms; absolute URLs must be http(s) on the same host as baseURL.
func IsRedirectSafe(redirectURL, baseURL string) bool {
	if redirectURL == "" {
		return true
	}
	if strings.ContainsAny(redirectURL, "\r\n") {
		return false
	}

	if strings.HasPrefix(redirectURL, "/") {
		return !strings.HasPrefix(redirectURL, "//") && !strings.Contains(redirectURL, "\\")
	}

	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return false
	}
	return parsed.Host == base.Host
}

// SafeRedirect returns target when it is safe, fallback otherwise.
func SafeRedirect(target, baseURL, fallback string) string {
	if target == "" || !IsRedirectSafe(target, baseURL) {
		return fallback
	}
	return target
}
