package models

import "time"

// SelectedEntity is one persisted selection row. Account-level rows leave
// CampaignID empty.
type SelectedEntity struct {
	ID           string `gorm:"primaryKey"`
	ConnectionID string `gorm:"not null;index"`
	AccountID    string `gorm:"not null"`
	CampaignID   string
	Position     int
	CreatedAt    time.Time
}

func (SelectedEntity) TableName() string {
	return "selected_entities"
}

// IsCampaign reports whether the row selects a campaign rather than an account.
func (s SelectedEntity) IsCampaign() bool {
	return s.CampaignID != ""
}
