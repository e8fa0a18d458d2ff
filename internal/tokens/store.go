package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adsynq/adsynq/internal/cache"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/models"
)

// SessionSlot holds the backend session tokens of a user. Platform
// connections use their connection id as slot.
const SessionSlot = "session"

// Store keeps TokenSets keyed by user and slot.
//
// Entries live for the store TTL, not for the access-token lifetime, so an
// expired access token still carries its refresh token.
type Store struct {
	cache core.Cache[models.TokenSet]
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a token store on top of c.
func NewStore(c core.Cache[models.TokenSet], ttl time.Duration, opts ...Option) *Store {
	s := &Store{cache: c, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(userID, slot string) string {
	return userID + ":" + slot
}

// SetTokens stores ts for (userID, slot). ExpiresAt is derived from
// ExpiresIn at the store clock, or from the JWT exp claim when the issuer
// sent no lifetime. A missing refresh token keeps the one already stored.
func (s *Store) SetTokens(ctx context.Context, userID, slot string, ts models.TokenSet) error {
	if ts.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	now := s.now()
	switch {
	case ts.ExpiresIn > 0:
		ts.ExpiresAt = now.Add(time.Duration(ts.ExpiresIn) * time.Second)
	case ts.ExpiresAt.IsZero():
		if exp, ok := ExpiryFromJWT(ts.AccessToken); ok {
			ts.ExpiresAt = exp
			ts.ExpiresIn = int64(exp.Sub(now).Seconds())
		}
	}

	if ts.RefreshToken == "" {
		if prev, err := s.Get(ctx, userID, slot); err == nil {
			ts.RefreshToken = prev.RefreshToken
		}
	}

	if err := s.cache.Set(ctx, key(userID, slot), ts, s.ttl); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}
	return nil
}

// Get returns the stored tokens or ErrNoTokens.
func (s *Store) Get(ctx context.Context, userID, slot string) (models.TokenSet, error) {
	ts, err := s.cache.Get(ctx, key(userID, slot))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return models.TokenSet{}, ErrNoTokens
		}
		return models.TokenSet{}, fmt.Errorf("failed to load tokens: %w", err)
	}
	return ts, nil
}

// IsValid is false when nothing is stored, no expiry is known or the
// expiry has passed.
func (s *Store) IsValid(ctx context.Context, userID, slot string) bool {
	ts, err := s.Get(ctx, userID, slot)
	if err != nil {
		return false
	}
	return ts.ValidAt(s.now())
}

// ValidSlots reports IsValid for several slots with one cache round trip.
func (s *Store) ValidSlots(ctx context.Context, userID string, slots []string) (map[string]bool, error) {
	keys := make([]string, len(slots))
	for i, slot := range slots {
		keys[i] = key(userID, slot)
	}

	found, err := s.cache.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	now := s.now()
	out := make(map[string]bool, len(slots))
	for i, slot := range slots {
		ts, ok := found[keys[i]]
		out[slot] = ok && ts.ValidAt(now)
	}
	return out, nil
}

// Clear removes the tokens of (userID, slot).
func (s *Store) Clear(ctx context.Context, userID, slot string) error {
	if err := s.cache.Delete(ctx, key(userID, slot)); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

// Scoped binds the store to one slot.
func (s *Store) Scoped(userID, slot string) *Slot {
	return &Slot{store: s, userID: userID, slot: slot}
}

var _ core.TokenSource = (*Slot)(nil)

// Slot is a Store bound to one (user, slot) pair.
type Slot struct {
	store  *Store
	userID string
	slot   string
}

func (s *Slot) Get(ctx context.Context) (models.TokenSet, error) {
	return s.store.Get(ctx, s.userID, s.slot)
}

func (s *Slot) Set(ctx context.Context, ts models.TokenSet) error {
	return s.store.SetTokens(ctx, s.userID, s.slot, ts)
}

func (s *Slot) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.userID, s.slot)
}

func (s *Slot) IsValid(ctx context.Context) bool {
	return s.store.IsValid(ctx, s.userID, s.slot)
}
