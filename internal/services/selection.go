package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/selection"
)

// ToggleKind says which picker row was clicked.
type ToggleKind string

const (
	ToggleAccount  ToggleKind = "account"
	ToggleCampaign ToggleKind = "campaign"
)

// ToggleRequest is one interactive click together with the picker state
// the client currently shows.
type ToggleRequest struct {
	Platform   models.Platform     `json:"platform"`
	Kind       ToggleKind          `json:"kind"`
	AccountID  string              `json:"account_id"`
	CampaignID string              `json:"campaign_id,omitempty"`
	Current    selection.Selection `json:"current"`
}

// SelectionService applies the plan limits to account and campaign
// selections.
type SelectionService struct {
	backend Backend
	store   Store
	metrics core.Recorder
	log     *zap.Logger
}

func NewSelectionService(b Backend, s Store, m core.Recorder, logger *zap.Logger) *SelectionService {
	return &SelectionService{backend: b, store: s, metrics: m, log: logger}
}

func (s *SelectionService) planContext(ctx context.Context, userID string, p models.Platform) (selection.PlanContext, error) {
	plan, err := s.backend.CurrentSubscription(ctx, userID)
	if err != nil {
		return selection.PlanContext{}, err
	}
	return selection.PlanContext{Plan: plan, Picker: selection.PickerFor(p)}, nil
}

// SelectEntities submits the selection of a connection. It is validated
// against the user's plan, sent to the backend and then stored.
func (s *SelectionService) SelectEntities(
	ctx context.Context,
	userID, connectionID string,
	customerIDs, campaignIDs []string,
) (selection.Selection, error) {
	conn, err := s.store.GetConnection(ctx, userID, connectionID)
	if err != nil {
		return selection.Selection{}, err
	}
	pc, err := s.planContext(ctx, userID, conn.Platform)
	if err != nil {
		return selection.Selection{}, err
	}

	sel := selection.New(customerIDs, campaignIDs)
	if err := selection.Validate(sel, pc); err != nil {
		s.metrics.RecordSelectionSubmit(conn.Platform.String(), false)
		s.log.Info("selection rejected",
			zap.String("platform", conn.Platform.String()),
			zap.String("user_id", userID),
			zap.Error(err))
		return selection.Selection{}, err
	}

	if err := s.backend.SaveSelection(ctx, userID, conn.Platform, conn.ExternalAccountID,
		sel.Accounts, sel.CampaignIDs()); err != nil {
		return selection.Selection{}, err
	}
	if err := s.store.ReplaceSelection(ctx, conn.ID, sel); err != nil {
		return selection.Selection{}, err
	}

	s.metrics.RecordSelectionSubmit(conn.Platform.String(), true)
	return sel, nil
}

// Current returns the stored selection of a connection.
func (s *SelectionService) Current(ctx context.Context, userID, connectionID string) (selection.Selection, error) {
	conn, err := s.store.GetConnection(ctx, userID, connectionID)
	if err != nil {
		return selection.Selection{}, err
	}
	return s.store.LoadSelection(ctx, conn.ID)
}

// Toggle applies one click to req.Current. Nothing is stored.
func (s *SelectionService) Toggle(ctx context.Context, userID string, req ToggleRequest) (selection.Outcome, error) {
	if req.AccountID == "" {
		return selection.Outcome{}, ErrInvalidToggle
	}
	pc, err := s.planContext(ctx, userID, req.Platform)
	if err != nil {
		return selection.Outcome{}, err
	}

	var out selection.Outcome
	switch req.Kind {
	case ToggleCampaign:
		if req.CampaignID == "" {
			return selection.Outcome{}, ErrInvalidToggle
		}
		out = selection.ToggleCampaign(req.Current, req.AccountID, req.CampaignID, pc)
	default:
		out = selection.ToggleAccount(req.Current, req.AccountID, pc)
	}

	s.metrics.RecordSelectionDecision(string(pc.Picker), string(out.Decision))
	return out, nil
}
