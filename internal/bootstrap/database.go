package bootstrap

import (
	"context"
	"fmt"

	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/store"
	"github.com/adsynq/adsynq/internal/util"
)

// initializeDatabase creates the sealer and opens the database
func initializeDatabase(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	sealer, err := util.NewSealer(cfg.TokenSealSecret, cfg.TokenSealSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to create token sealer: %w", err)
	}

	// Create timeout context for this specific operation
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, sealer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
