package apiclient

import (
	"context"
	"sync"
)

type refreshResult struct {
	access string
	err    error
}

// cycle is a finished refresh: the token it replaced and its outcome.
type cycle struct {
	from string
	res  refreshResult
}

// Refresher lets one caller run a refresh while concurrent callers wait
// for its result instead of starting their own.
type Refresher struct {
	mu         sync.Mutex
	refreshing bool
	from       string
	last       *cycle
	waiters    []chan refreshResult
	observe    func(err error, waiters int)
}

// NewRefresher creates a Refresher. observe, if set, is told the outcome
// and queue length of every completed cycle.
func NewRefresher(observe func(err error, waiters int)) *Refresher {
	return &Refresher{observe: observe}
}

// acquireOrWait makes the caller the leader when no cycle is running and
// stale has not been replaced already. A caller whose stale token was the
// input of the last finished cycle gets that cycle's result in done. A
// caller arriving during a cycle gets a channel for the leader's result.
func (r *Refresher) acquireOrWait(stale string) (leader bool, wait <-chan refreshResult, done *refreshResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refreshing {
		ch := make(chan refreshResult, 1)
		r.waiters = append(r.waiters, ch)
		return false, ch, nil
	}
	if r.last != nil && r.last.from == stale {
		res := r.last.res
		return false, nil, &res
	}
	r.refreshing = true
	r.from = stale
	return true, nil, nil
}

// release ends the cycle and hands res to every waiter. It returns how
// many were waiting.
func (r *Refresher) release(res refreshResult) int {
	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.refreshing = false
	r.last = &cycle{from: r.from, res: res}
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- res
	}
	return len(waiters)
}

// Refreshing reports whether a cycle is in flight.
func (r *Refresher) Refreshing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshing
}

// Do replaces the rejected access token stale. It runs fn as the leader,
// waits for the running cycle, or reuses the result of the cycle that
// already replaced stale. The leader's fn runs detached from its caller's
// cancellation so waiters always get an answer; a waiter whose ctx ends
// stops waiting without affecting others.
func (r *Refresher) Do(ctx context.Context, stale string, fn func(context.Context) (string, error)) (string, error) {
	leader, wait, done := r.acquireOrWait(stale)
	if done != nil {
		return done.access, done.err
	}
	if !leader {
		select {
		case res := <-wait:
			return res.access, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	access, err := fn(context.WithoutCancel(ctx))
	n := r.release(refreshResult{access: access, err: err})
	if r.observe != nil {
		r.observe(err, n)
	}
	return access, err
}
