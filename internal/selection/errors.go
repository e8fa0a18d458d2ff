package selection

import (
	"errors"
	"fmt"
)

// ErrPolicyViolation matches every *ViolationError.
var ErrPolicyViolation = errors.New("selection violates plan limits")

// Rule names the limit a submitted selection broke.
type Rule string

const (
	RuleAccountLimit      Rule = "account_limit"
	RuleNoAccount         Rule = "no_account"
	RuleCampaignsDisabled Rule = "campaigns_not_selectable"
	RuleCampaignLimit     Rule = "campaign_limit"
	RuleCampaignRequired  Rule = "campaign_required"
	RuleOrphanCampaign    Rule = "campaign_without_account"
	RuleDuplicateAccount  Rule = "duplicate_account"
)

// ViolationError is returned when a whole submitted selection is illegal.
// Interactive toggles never produce it; they return a Rejected decision.
type ViolationError struct {
	Rule   Rule
	Detail string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Detail)
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrPolicyViolation
}

func violation(rule Rule, format string, args ...any) error {
	return &ViolationError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}
