package apiclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitingCount(r *Refresher) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}

func TestRefresher_SingleFlight(t *testing.T) {
	const n = 8
	var observedWaiters atomic.Int32
	r := NewRefresher(func(err error, waiters int) {
		observedWaiters.Store(int32(waiters))
	})

	var calls atomic.Int32
	gate := make(chan struct{})
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-gate
		return "fresh", nil
	}

	var wg sync.WaitGroup
	results := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			access, err := r.Do(context.Background(), "stale", fn)
			assert.NoError(t, err)
			results[i] = access
		}()
	}

	require.Eventually(t, func() bool { return waitingCount(r) == n-1 }, time.Second, time.Millisecond)
	assert.True(t, r.Refreshing())
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(n-1), observedWaiters.Load())
	for _, access := range results {
		assert.Equal(t, "fresh", access)
	}
	assert.False(t, r.Refreshing())
}

func TestRefresher_FailureReachesEveryWaiter(t *testing.T) {
	r := NewRefresher(nil)
	boom := errors.New("boom")
	gate := make(chan struct{})

	errs := make(chan error, 3)
	for range 3 {
		go func() {
			_, err := r.Do(context.Background(), "stale", func(context.Context) (string, error) {
				<-gate
				return "", boom
			})
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return waitingCount(r) == 2 }, time.Second, time.Millisecond)
	close(gate)
	for range 3 {
		assert.ErrorIs(t, <-errs, boom)
	}
}

func TestRefresher_CancelledWaiterLeavesCycleRunning(t *testing.T) {
	r := NewRefresher(nil)
	gate := make(chan struct{})
	leaderDone := make(chan string, 1)

	go func() {
		access, _ := r.Do(context.Background(), "stale", func(context.Context) (string, error) {
			<-gate
			return "fresh", nil
		})
		leaderDone <- access
	}()
	require.Eventually(t, r.Refreshing, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Do(ctx, "stale", func(context.Context) (string, error) {
		t.Error("waiter must not run the refresh")
		return "", nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	close(gate)
	assert.Equal(t, "fresh", <-leaderDone)
}

func TestRefresher_LateCallerReusesFinishedCycle(t *testing.T) {
	r := NewRefresher(nil)
	var calls atomic.Int32
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		return "fresh", nil
	}

	access, err := r.Do(context.Background(), "stale", fn)
	require.NoError(t, err)
	assert.Equal(t, "fresh", access)

	// its 401 was for the token the cycle above already replaced
	access, err = r.Do(context.Background(), "stale", fn)
	require.NoError(t, err)
	assert.Equal(t, "fresh", access)
	assert.Equal(t, int32(1), calls.Load())

	// the refreshed token itself expiring starts a new cycle
	_, err = r.Do(context.Background(), "fresh", fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRefresher_LateCallerSeesFinishedFailure(t *testing.T) {
	r := NewRefresher(nil)
	boom := errors.New("boom")

	_, err := r.Do(context.Background(), "stale", func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	_, err = r.Do(context.Background(), "stale", func(context.Context) (string, error) {
		t.Error("a failed cycle must not be repeated for the same token")
		return "", nil
	})
	assert.ErrorIs(t, err, boom)
}
