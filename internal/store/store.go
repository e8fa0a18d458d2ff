package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/selection"
	"github.com/adsynq/adsynq/internal/util"
)

var _ core.ConnectionCounter = (*Store)(nil)

// Store persists platform connections and their selections. Tokens are
// sealed before they reach the database.
type Store struct {
	db     *gorm.DB
	sealer *util.Sealer
}

// New opens the database and migrates the schema.
func New(ctx context.Context, driver, dsn string, sealer *util.Sealer) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.PlatformConnection{},
		&models.SelectedEntity{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db, sealer: sealer}, nil
}

// UpsertConnection creates or updates the connection identified by
// (user, platform, external account) and stores its sealed tokens. For
// single-account platforms other connections of the same platform are
// removed; their ids are returned so their tokens can be dropped too. A
// reconnect without a refresh token keeps the stored one.
func (s *Store) UpsertConnection(
	ctx context.Context,
	conn *models.PlatformConnection,
	ts models.TokenSet,
) ([]string, error) {
	access, err := s.sealer.Seal(ts.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sealer.Seal(ts.RefreshToken)
	if err != nil {
		return nil, err
	}

	var replaced []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PlatformConnection
		created := false
		err := tx.Where("user_id = ? AND platform = ? AND external_account_id = ?",
			conn.UserID, conn.Platform, conn.ExternalAccountID).First(&existing).Error
		switch {
		case err == nil:
			conn.ID = existing.ID
			conn.CreatedAt = existing.CreatedAt
			if ts.RefreshToken == "" {
				refresh = existing.RefreshToken
			}
			if conn.BackendID == "" {
				conn.BackendID = existing.BackendID
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			conn.ID = uuid.New().String()
			created = true
		default:
			return err
		}

		conn.AccessToken = access
		conn.RefreshToken = refresh
		conn.TokenExpiry = ts.ExpiresAt
		conn.Scope = ts.Scope
		conn.LastUsedAt = time.Now()
		write := tx.Save
		if created {
			write = tx.Create
		}
		if err := write(conn).Error; err != nil {
			return err
		}

		if conn.Platform.MultiAccount() {
			return nil
		}
		if err := tx.Model(&models.PlatformConnection{}).
			Where("user_id = ? AND platform = ? AND id <> ?", conn.UserID, conn.Platform, conn.ID).
			Pluck("id", &replaced).Error; err != nil {
			return err
		}
		if len(replaced) == 0 {
			return nil
		}
		if err := tx.Where("connection_id IN ?", replaced).Delete(&models.SelectedEntity{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", replaced).Delete(&models.PlatformConnection{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}
	return replaced, nil
}

// GetConnection returns the connection id of userID.
func (s *Store) GetConnection(ctx context.Context, userID, id string) (*models.PlatformConnection, error) {
	var conn models.PlatformConnection
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// ListConnections returns the user's connections, newest first.
func (s *Store) ListConnections(ctx context.Context, userID string) ([]models.PlatformConnection, error) {
	var conns []models.PlatformConnection
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&conns).Error
	return conns, err
}

// ConnectionTokens unseals the stored tokens of conn.
func (s *Store) ConnectionTokens(conn *models.PlatformConnection) (models.TokenSet, error) {
	access, err := s.sealer.Open(conn.AccessToken)
	if err != nil {
		return models.TokenSet{}, err
	}
	refresh, err := s.sealer.Open(conn.RefreshToken)
	if err != nil {
		return models.TokenSet{}, err
	}
	ts := models.TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    conn.TokenExpiry,
		TokenType:    "Bearer",
		Scope:        conn.Scope,
	}
	if !conn.TokenExpiry.IsZero() {
		ts.ExpiresIn = int64(time.Until(conn.TokenExpiry).Seconds())
	}
	return ts, nil
}

// UpdateConnectionTokens replaces the sealed tokens after a refresh. An
// empty refresh token keeps the stored one.
func (s *Store) UpdateConnectionTokens(ctx context.Context, id string, ts models.TokenSet) error {
	access, err := s.sealer.Seal(ts.AccessToken)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"access_token": access,
		"token_expiry": ts.ExpiresAt,
		"last_used_at": time.Now(),
	}
	if ts.RefreshToken != "" {
		refresh, err := s.sealer.Seal(ts.RefreshToken)
		if err != nil {
			return err
		}
		updates["refresh_token"] = refresh
	}
	res := s.db.WithContext(ctx).Model(&models.PlatformConnection{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConnectionNotFound
	}
	return nil
}

// DeleteConnection removes the connection and its selection rows.
func (s *Store) DeleteConnection(ctx context.Context, userID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.PlatformConnection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConnectionNotFound
		}
		return tx.Where("connection_id = ?", id).Delete(&models.SelectedEntity{}).Error
	})
}

// ReplaceSelection stores sel as the whole selection of connectionID.
func (s *Store) ReplaceSelection(ctx context.Context, connectionID string, sel selection.Selection) error {
	rows := make([]models.SelectedEntity, 0, len(sel.Accounts)+sel.CampaignCount())
	for _, acc := range sel.Accounts {
		rows = append(rows, models.SelectedEntity{
			ID:           uuid.New().String(),
			ConnectionID: connectionID,
			AccountID:    acc,
			Position:     len(rows),
		})
		for _, camp := range sel.Campaigns[acc] {
			rows = append(rows, models.SelectedEntity{
				ID:           uuid.New().String(),
				ConnectionID: connectionID,
				AccountID:    acc,
				CampaignID:   camp,
				Position:     len(rows),
			})
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("connection_id = ?", connectionID).Delete(&models.SelectedEntity{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// LoadSelection rebuilds the selection of connectionID.
func (s *Store) LoadSelection(ctx context.Context, connectionID string) (selection.Selection, error) {
	var rows []models.SelectedEntity
	err := s.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return selection.Selection{}, err
	}

	sel := selection.Selection{Campaigns: map[string][]string{}}
	for _, r := range rows {
		if !r.IsCampaign() {
			sel.Accounts = append(sel.Accounts, r.AccountID)
		}
	}
	for _, r := range rows {
		if r.IsCampaign() {
			sel.Campaigns[r.AccountID] = append(sel.Campaigns[r.AccountID], r.CampaignID)
		}
	}
	return sel, nil
}

// CountConnectionsByPlatform counts stored connections of one platform
// across all users.
func (s *Store) CountConnectionsByPlatform(platform string) (int64, error) {
	var n int64
	err := s.db.Model(&models.PlatformConnection{}).Where("platform = ?", platform).Count(&n).Error
	return n, err
}

// Health checks the database connection
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
