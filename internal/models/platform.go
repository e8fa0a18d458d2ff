package models

import (
	"fmt"
	"strings"
)

// Platform identifies an advertising or commerce platform a user can connect.
type Platform string

const (
	PlatformGoogle  Platform = "google"
	PlatformMeta    Platform = "meta"
	PlatformTikTok  Platform = "tiktok"
	PlatformShopify Platform = "shopify"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformGoogle, PlatformMeta, PlatformTikTok, PlatformShopify}

// ParsePlatform normalizes s and rejects unknown platforms.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unsupported platform %q", s)
	}
	return p, nil
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformGoogle, PlatformMeta, PlatformTikTok, PlatformShopify:
		return true
	}
	return false
}

// MultiAccount reports whether a user may hold several connections of p.
func (p Platform) MultiAccount() bool {
	return p == PlatformGoogle || p == PlatformMeta
}

func (p Platform) String() string {
	return string(p)
}
