package selection

import (
	"slices"
	"strings"

	"github.com/adsynq/adsynq/internal/models"
)

// Unbounded is returned by MaxAccounts for plans without an account cap.
const Unbounded = -1

// maxCampaigns is the campaign cap of every picker that allows campaigns.
const maxCampaigns = 1

// metaCampaignSubscriptionID is the subscription id under which the Meta
// picker offers campaigns. Google keys off the plan type instead.
const metaCampaignSubscriptionID = 1

// Picker identifies which entity picker a toggle comes from.
type Picker string

const (
	PickerGoogle Picker = "google"
	PickerMeta   Picker = "meta"
)

// PickerFor maps a platform to its picker. Platforms without a campaign
// picker fall back to the Google rules.
func PickerFor(p models.Platform) Picker {
	if p == models.PlatformMeta {
		return PickerMeta
	}
	return PickerGoogle
}

// PlanContext is everything the policy needs to know about the user.
type PlanContext struct {
	Plan   models.SubscriptionPlan
	Picker Picker
}

// Decision is the outcome of one interactive toggle.
type Decision string

const (
	Applied  Decision = "applied"
	Removed  Decision = "removed"
	Swapped  Decision = "swapped"
	Rejected Decision = "rejected"
)

// Outcome carries the resulting selection. On Rejected, Selection is the
// unchanged input and Reason says why.
type Outcome struct {
	Selection Selection `json:"selection"`
	Decision  Decision  `json:"decision"`
	Reason    Rule      `json:"reason,omitempty"`
}

func reject(cur Selection, why Rule) Outcome {
	return Outcome{Selection: cur.Clone(), Decision: Rejected, Reason: why}
}

// tier normalises a plan type. Empty and unknown tiers are treated as free
// everywhere in the policy.
func tier(planType models.PlanType) models.PlanType {
	switch t := models.PlanType(strings.ToLower(strings.TrimSpace(string(planType)))); t {
	case models.PlanPremium, models.PlanEnterprise:
		return t
	default:
		return models.PlanFree
	}
}

// MaxAccounts returns the account cap of a plan tier. Unknown tiers get the
// free cap.
func MaxAccounts(planType models.PlanType) int {
	switch tier(planType) {
	case models.PlanEnterprise:
		return Unbounded
	case models.PlanPremium:
		return 2
	default:
		return 1
	}
}

// CampaignsSelectable reports whether the picker offers campaigns at all.
func CampaignsSelectable(pc PlanContext) bool {
	switch pc.Picker {
	case PickerMeta:
		return pc.Plan.ID == metaCampaignSubscriptionID
	default:
		return isFree(pc)
	}
}

func isFree(pc PlanContext) bool {
	return tier(pc.Plan.PlanType) == models.PlanFree
}

// ToggleAccount selects or deselects accountID.
//
// Deselecting removes the campaigns recorded under the account. On the free
// plan a new account replaces the selected one together with its campaigns.
// Other capped plans reject once full.
func ToggleAccount(cur Selection, accountID string, pc PlanContext) Outcome {
	next := cur.Clone()

	if next.HasAccount(accountID) {
		next.dropAccount(accountID)
		return Outcome{Selection: next, Decision: Removed}
	}

	limit := MaxAccounts(pc.Plan.PlanType)
	if limit != Unbounded && len(next.Accounts) >= limit {
		if !isFree(pc) {
			return reject(cur, RuleAccountLimit)
		}
		for _, old := range slices.Clone(next.Accounts) {
			next.dropAccount(old)
		}
		next.Accounts = append(next.Accounts, accountID)
		return Outcome{Selection: next, Decision: Swapped}
	}

	next.Accounts = append(next.Accounts, accountID)
	return Outcome{Selection: next, Decision: Applied}
}

// ToggleCampaign selects or deselects campaignID under accountID. At most
// one campaign may be selected across all accounts; a second one is
// rejected rather than swapped.
func ToggleCampaign(cur Selection, accountID, campaignID string, pc PlanContext) Outcome {
	if cur.HasCampaign(accountID, campaignID) {
		next := cur.Clone()
		next.Campaigns[accountID] = slices.DeleteFunc(next.Campaigns[accountID], func(id string) bool {
			return id == campaignID
		})
		if len(next.Campaigns[accountID]) == 0 {
			delete(next.Campaigns, accountID)
		}
		return Outcome{Selection: next, Decision: Removed}
	}

	switch {
	case !CampaignsSelectable(pc):
		return reject(cur, RuleCampaignsDisabled)
	case !cur.HasAccount(accountID):
		return reject(cur, RuleOrphanCampaign)
	case cur.CampaignCount() >= maxCampaigns:
		return reject(cur, RuleCampaignLimit)
	}

	next := cur.Clone()
	next.Campaigns[accountID] = append(next.Campaigns[accountID], campaignID)
	return Outcome{Selection: next, Decision: Applied}
}

// CanSubmit reports whether the selection may be saved. The free plan needs
// exactly one account and exactly one campaign; other plans need at least
// one account and ignore campaigns.
func CanSubmit(s Selection, pc PlanContext) bool {
	if isFree(pc) {
		return len(s.Accounts) == 1 && s.CampaignCount() == 1
	}
	return len(s.Accounts) >= 1
}

// Validate checks a whole submitted selection against the plan and returns
// a *ViolationError naming the first broken rule.
func Validate(s Selection, pc PlanContext) error {
	seen := make(map[string]struct{}, len(s.Accounts))
	for _, id := range s.Accounts {
		if _, dup := seen[id]; dup {
			return violation(RuleDuplicateAccount, "account %s listed twice", id)
		}
		seen[id] = struct{}{}
	}

	if len(s.Accounts) == 0 {
		return violation(RuleNoAccount, "select at least one account")
	}
	if limit := MaxAccounts(pc.Plan.PlanType); limit != Unbounded && len(s.Accounts) > limit {
		return violation(RuleAccountLimit, "%d accounts selected, plan allows %d", len(s.Accounts), limit)
	}

	campaigns := s.CampaignCount()
	if campaigns > 0 {
		if !CampaignsSelectable(pc) {
			return violation(RuleCampaignsDisabled, "campaigns cannot be selected on this plan")
		}
		for acc, ids := range s.Campaigns {
			if len(ids) > 0 && !s.HasAccount(acc) {
				return violation(RuleOrphanCampaign, "campaign selected under unselected account %s", acc)
			}
		}
		if campaigns > maxCampaigns {
			return violation(RuleCampaignLimit, "%d campaigns selected, plan allows %d", campaigns, maxCampaigns)
		}
	}

	if !CanSubmit(s, pc) {
		return violation(RuleCampaignRequired, "%s plan needs exactly one account and one campaign", planName(pc))
	}
	return nil
}

func planName(pc PlanContext) string {
	return string(tier(pc.Plan.PlanType))
}
