package models

import (
	"testing"
	"time"
)

func TestTokenSet_ValidAt(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		ts   TokenSet
		want bool
	}{
		{
			name: "expires in the future",
			ts:   NewTokenSet(now, "access", "refresh", 3600),
			want: true,
		},
		{
			name: "expires exactly now",
			ts:   TokenSet{AccessToken: "access", ExpiresAt: now},
			want: false,
		},
		{
			name: "already expired",
			ts:   TokenSet{AccessToken: "access", ExpiresAt: now.Add(-time.Second)},
			want: false,
		},
		{
			name: "no expiry",
			ts:   NewTokenSet(now, "access", "", 0),
			want: false,
		},
		{
			name: "no access token",
			ts:   TokenSet{ExpiresAt: now.Add(time.Hour)},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ts.ValidAt(now); got != tt.want {
				t.Errorf("ValidAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewTokenSet_ExpiresAt(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ts := NewTokenSet(now, "a", "r", 5184000)

	want := now.Add(60 * 24 * time.Hour)
	if !ts.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", ts.ExpiresAt, want)
	}
	if ts.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", ts.TokenType)
	}
	if !ts.CanRefresh() {
		t.Error("CanRefresh() = false, want true")
	}
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{in: "google", want: PlatformGoogle},
		{in: " Meta ", want: PlatformMeta},
		{in: "TIKTOK", want: PlatformTikTok},
		{in: "shopify", want: PlatformShopify},
		{in: "linkedin", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlatform(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePlatform(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePlatform(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlatform_MultiAccount(t *testing.T) {
	if !PlatformGoogle.MultiAccount() || !PlatformMeta.MultiAccount() {
		t.Error("google and meta should allow multiple connections")
	}
	if PlatformTikTok.MultiAccount() || PlatformShopify.MultiAccount() {
		t.Error("tiktok and shopify should allow a single connection")
	}
}
