package apiclient

import (
	"sync"

	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/tokens"
)

// Manager hands out one Client per user session so that each user has
// exactly one refresh cycle at a time.
type Manager struct {
	mu       sync.Mutex
	clients  map[string]*Client
	store    *tokens.Store
	opts     Options
	onLogout func(userID string, err error)
}

// NewManager creates a manager whose clients read the session slot of
// store. onLogout receives the user whose session ended.
func NewManager(store *tokens.Store, opts Options, onLogout func(userID string, err error)) *Manager {
	return &Manager{
		clients:  make(map[string]*Client),
		store:    store,
		opts:     opts,
		onLogout: onLogout,
	}
}

// Client returns the client of userID, creating it on first use.
func (m *Manager) Client(userID string) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.clients[userID]; ok {
		return c
	}

	opts := m.opts
	if opts.Logger != nil {
		opts.Logger = opts.Logger.With(zap.String("user_id", userID))
	}
	opts.OnLogout = func(err error) {
		m.Forget(userID)
		if m.onLogout != nil {
			m.onLogout(userID, err)
		}
	}

	c := New(m.store.Scoped(userID, tokens.SessionSlot), opts)
	m.clients[userID] = c
	return c
}

// Forget drops the client of userID. Its tokens are left to the caller.
func (m *Manager) Forget(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, userID)
}
