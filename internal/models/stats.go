package models

// PlatformStats are the performance totals reported for one platform.
type PlatformStats struct {
	Platform    Platform `json:"platform"`
	Spend       float64  `json:"spend"`
	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	Conversions float64  `json:"conversions"`
	Currency    string   `json:"currency,omitempty"`
}
