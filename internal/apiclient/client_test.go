package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsynq/adsynq/internal/cache"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/tokens"
)

type fakeBackend struct {
	t            *testing.T
	expect401    int32
	seen401      atomic.Int32
	all401       chan struct{}
	closeOnce    sync.Once
	refreshCalls atomic.Int32
	freshHits    atomic.Int32
	refreshFails bool
	alwaysDeny   bool
}

func newFakeBackend(t *testing.T, expect401 int32) *fakeBackend {
	return &fakeBackend{t: t, expect401: expect401, all401: make(chan struct{})}
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		assert.Empty(f.t, r.Header.Get("Authorization"), "refresh endpoint is unauthenticated")

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		// hold the refresh until every request has seen its 401
		select {
		case <-f.all401:
		case <-time.After(2 * time.Second):
		}

		w.Header().Set("Content-Type", "application/json")
		if f.refreshFails || body["refresh"] != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access":"fresh","refresh":"refresh-2"}`))
	})
	mux.HandleFunc("/data/", func(w http.ResponseWriter, r *http.Request) {
		if f.alwaysDeny || r.Header.Get("Authorization") != "Bearer fresh" {
			if f.seen401.Add(1) == f.expect401 {
				f.closeOnce.Do(func() { close(f.all401) })
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.freshHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"id":"x"}}`))
	})
	return mux
}

type logoutRecorder struct {
	mu    sync.Mutex
	calls []error
}

func (l *logoutRecorder) record(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, err)
}

func (l *logoutRecorder) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func newTestClient(t *testing.T, f *fakeBackend, seed bool) (*Client, *tokens.Slot, *logoutRecorder) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	store := tokens.NewStore(cache.NewMemoryCache[models.TokenSet](), time.Hour)
	slot := store.Scoped("user-1", tokens.SessionSlot)
	if seed {
		require.NoError(t, slot.Set(context.Background(),
			models.NewTokenSet(time.Now(), "stale", "refresh-1", 60)))
	}

	logouts := &logoutRecorder{}
	c := New(slot, Options{BaseURL: srv.URL, OnLogout: logouts.record})
	return c, slot, logouts
}

func TestClient_SingleFlightRefresh(t *testing.T) {
	const n = 6
	f := newFakeBackend(t, n)
	c, slot, logouts := newTestClient(t, f, true)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out struct {
				ID string `json:"id"`
			}
			err := c.Get(context.Background(), "data", "/data/", nil, &out)
			if err == nil && out.ID != "x" {
				err = errors.New("unexpected payload")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.refreshCalls.Load(), "exactly one refresh call")
	assert.Equal(t, int32(n), f.freshHits.Load(), "every request retried with the new token")
	assert.Zero(t, logouts.count())

	ts, err := slot.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", ts.AccessToken)
	assert.Equal(t, "refresh-2", ts.RefreshToken)
}

func TestClient_RetriedRequestIsNotRefreshedAgain(t *testing.T) {
	f := newFakeBackend(t, 1)
	c, _, _ := newTestClient(t, f, true)

	_, err := c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/data/", retried: true})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, f.refreshCalls.Load())
}

func TestClient_SecondUnauthorizedAfterRefreshIsFinal(t *testing.T) {
	f := newFakeBackend(t, 1)
	f.alwaysDeny = true
	c, _, _ := newTestClient(t, f, true)

	_, err := c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/data/"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), f.refreshCalls.Load())
	assert.Equal(t, int32(2), f.seen401.Load(), "original plus one retry")
}

func TestClient_RefreshFailureRejectsAllAndLogsOut(t *testing.T) {
	const n = 4
	f := newFakeBackend(t, n)
	f.refreshFails = true
	c, slot, logouts := newTestClient(t, f, true)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Do(context.Background(), &Request{Path: "/data/"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrRefreshFailed)
		assert.ErrorIs(t, err, ErrLoginRequired)
	}
	assert.Equal(t, int32(1), f.refreshCalls.Load())
	assert.Equal(t, 1, logouts.count(), "logout fires once per lost session")

	_, err := slot.Get(context.Background())
	assert.ErrorIs(t, err, tokens.ErrNoTokens, "tokens cleared")
}

func TestClient_NoTokenGoesStraightToLogin(t *testing.T) {
	f := newFakeBackend(t, 1)
	c, _, logouts := newTestClient(t, f, false)

	_, err := c.Do(context.Background(), &Request{Path: "/data/"})
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.False(t, errors.Is(err, ErrRefreshFailed))
	assert.Zero(t, f.seen401.Load(), "no request sent")
	assert.Zero(t, f.refreshCalls.Load())
	assert.Equal(t, 1, logouts.count())
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"plan limit"}`))
	}))
	defer srv.Close()

	store := tokens.NewStore(cache.NewMemoryCache[models.TokenSet](), time.Hour)
	slot := store.Scoped("u", tokens.SessionSlot)
	require.NoError(t, slot.Set(context.Background(), models.NewTokenSet(time.Now(), "tok", "", 60)))

	c := New(slot, Options{BaseURL: srv.URL})
	err := c.Send(context.Background(), "save", http.MethodPost, "/things/", map[string]int{"a": 1}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "plan limit")
}

func TestManager_OneClientPerUser(t *testing.T) {
	store := tokens.NewStore(cache.NewMemoryCache[models.TokenSet](), time.Hour)
	var loggedOut []string
	m := NewManager(store, Options{BaseURL: "http://backend.invalid"}, func(userID string, _ error) {
		loggedOut = append(loggedOut, userID)
	})

	a := m.Client("alice")
	assert.Same(t, a, m.Client("alice"))
	assert.NotSame(t, a, m.Client("bob"))

	_, err := a.Do(context.Background(), &Request{Path: "/x/"})
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, []string{"alice"}, loggedOut)
	assert.NotSame(t, a, m.Client("alice"), "client dropped after logout")
}
