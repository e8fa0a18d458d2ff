package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/tokens"
)

// SessionTokens are the backend tokens a signed-in user hands over.
type SessionTokens struct {
	Access  string `json:"access"  binding:"required"`
	Refresh string `json:"refresh"`
}

// clientForgetter drops the cached per-user API client.
type clientForgetter interface {
	Forget(userID string)
}

// SessionService attaches and drops the backend session of a user.
type SessionService struct {
	tokens  *tokens.Store
	clients clientForgetter
	backend Backend
	// jwtKey verifies the backend's signature on session tokens.
	jwtKey []byte
	log    *zap.Logger
}

func NewSessionService(
	ts *tokens.Store,
	clients clientForgetter,
	b Backend,
	jwtKey []byte,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{tokens: ts, clients: clients, backend: b, jwtKey: jwtKey, log: logger}
}

// Attach stores the backend tokens and returns the user they belong to.
// The access token must carry a valid backend signature; nothing is
// stored otherwise.
func (s *SessionService) Attach(ctx context.Context, in SessionTokens) (string, error) {
	userID, err := tokens.VerifySubject(in.Access, s.jwtKey)
	if err != nil {
		s.log.Warn("rejected session token", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	err = s.tokens.SetTokens(ctx, userID, tokens.SessionSlot, models.TokenSet{
		AccessToken:  in.Access,
		RefreshToken: in.Refresh,
		TokenType:    "Bearer",
	})
	if err != nil {
		return "", err
	}

	// A new session may come with a new plan.
	if err := s.backend.InvalidatePlan(ctx, userID); err != nil {
		s.log.Warn("failed to invalidate cached plan", zap.String("user_id", userID), zap.Error(err))
	}
	s.clients.Forget(userID)
	return userID, nil
}

// Drop forgets the backend session of userID.
func (s *SessionService) Drop(ctx context.Context, userID string) error {
	s.clients.Forget(userID)
	return s.tokens.Clear(ctx, userID, tokens.SessionSlot)
}
