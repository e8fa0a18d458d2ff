package models

import (
	"time"
)

// PlatformConnection is a user's authorized link to one platform account.
type PlatformConnection struct {
	ID                string   `gorm:"primaryKey" json:"id"`
	UserID            string   `gorm:"not null;uniqueIndex:idx_conn_user_platform_account,priority:1" json:"user_id"`
	Platform          Platform `gorm:"not null;uniqueIndex:idx_conn_user_platform_account,priority:2" json:"platform"`
	ExternalAccountID string   `gorm:"not null;uniqueIndex:idx_conn_user_platform_account,priority:3" json:"external_account_id"`

	// Profile snapshot taken at connect time
	ProfileName  string `json:"profile_name"`
	ProfileEmail string `json:"profile_email"`
	PictureURL   string `json:"picture_url"`

	// Sealed with util.Sealer, never returned to clients
	AccessToken  string    `gorm:"type:text" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	TokenExpiry  time.Time `json:"token_expiry"`
	Scope        string    `json:"scope,omitempty"`

	// Backend record id, empty until the backend confirms the save
	BackendID string `gorm:"index" json:"backend_id,omitempty"`

	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (PlatformConnection) TableName() string {
	return "platform_connections"
}

// UserProfile is the identity returned by a provider.
type UserProfile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	PictureURL string `json:"picture,omitempty"`
}

// AdAccount is a platform advertising account (Google customer, Meta ad
// account, TikTok advertiser).
type AdAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Currency string `json:"currency,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Page is a Meta page managed by the connected user.
type Page struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}
