package core

import (
	"context"

	"github.com/adsynq/adsynq/internal/models"
)

// TokenSource is one slot of the token store: the tokens of one user for
// one platform connection or for the backend session.
type TokenSource interface {
	Get(ctx context.Context) (models.TokenSet, error)
	Set(ctx context.Context, ts models.TokenSet) error
	Clear(ctx context.Context) error
}
