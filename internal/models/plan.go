package models

// PlanType is the subscription tier of the signed-in user.
type PlanType string

const (
	PlanFree       PlanType = "free"
	PlanPremium    PlanType = "premium"
	PlanEnterprise PlanType = "enterprise"
)

// SubscriptionPlan is read from the backend and never modified locally.
type SubscriptionPlan struct {
	ID            int             `json:"id"`
	PlanType      PlanType        `json:"plan_type"`
	MaxAdAccounts int             `json:"max_ad_accounts"`
	MaxCampaigns  int             `json:"max_campaigns"`
	Features      map[string]bool `json:"features,omitempty"`
}

// HasFeature reports whether the plan enables the named feature flag.
func (p SubscriptionPlan) HasFeature(name string) bool {
	return p.Features[name]
}
