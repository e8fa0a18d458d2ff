package selection

import "slices"

// Selection is the picker state of one connection: the selected accounts in
// selection order and the campaigns selected under each account.
type Selection struct {
	Accounts  []string            `json:"accounts"`
	Campaigns map[string][]string `json:"campaigns"`
}

// New builds a Selection from submitted ids. Campaign ids are filed under
// the first account, which is how the single-campaign pickers submit them.
func New(accountIDs, campaignIDs []string) Selection {
	s := Selection{Accounts: slices.Clone(accountIDs), Campaigns: map[string][]string{}}
	if len(campaignIDs) > 0 && len(accountIDs) > 0 {
		s.Campaigns[accountIDs[0]] = slices.Clone(campaignIDs)
	}
	return s
}

// Clone returns a deep copy; policy functions never mutate their input.
func (s Selection) Clone() Selection {
	out := Selection{
		Accounts:  slices.Clone(s.Accounts),
		Campaigns: make(map[string][]string, len(s.Campaigns)),
	}
	for acc, ids := range s.Campaigns {
		if len(ids) > 0 {
			out.Campaigns[acc] = slices.Clone(ids)
		}
	}
	return out
}

// HasAccount reports whether accountID is selected.
func (s Selection) HasAccount(accountID string) bool {
	return slices.Contains(s.Accounts, accountID)
}

// HasCampaign reports whether campaignID is selected under accountID.
func (s Selection) HasCampaign(accountID, campaignID string) bool {
	return slices.Contains(s.Campaigns[accountID], campaignID)
}

// CampaignCount is the number of campaigns selected across all accounts.
func (s Selection) CampaignCount() int {
	n := 0
	for _, ids := range s.Campaigns {
		n += len(ids)
	}
	return n
}

// CampaignIDs flattens the campaign map in account order.
func (s Selection) CampaignIDs() []string {
	var out []string
	for _, acc := range s.Accounts {
		out = append(out, s.Campaigns[acc]...)
	}
	return out
}

func (s *Selection) dropAccount(accountID string) {
	s.Accounts = slices.DeleteFunc(s.Accounts, func(id string) bool { return id == accountID })
	delete(s.Campaigns, accountID)
}
