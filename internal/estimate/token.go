package estimate

import (
	"context"
	"sync/atomic"
)

// CancelToken is the cooperative-cancellation mechanism every estimator
// polls at its documented suspension points (spec §5, §9: "the cancel
// token as a polled boolean... avoid any language-specific exception-based
// cancellation mechanism"). It is safe for concurrent use.
type CancelToken struct {
	cancelled atomic.Bool
	done      chan struct{}
}

// NewCancelToken returns a token that is not yet cancelled.
func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// FromContext returns a token that cancels itself when ctx is done (HTTP
// request cancellation and the soft run deadline share this mechanism,
// per SPEC_FULL.md §5). The caller calls the returned stop func once the
// run completes to end the background goroutine; stop does not cancel
// the token.
func FromContext(ctx context.Context) (*CancelToken, func()) {
	t := NewCancelToken()
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			t.Cancel()
		case <-stop:
		}
	}()
	return t, func() { close(stop) }
}

// Cancel marks the token cancelled. Safe to call more than once.
func (t *CancelToken) Cancel() {
	if t.cancelled.CompareAndSwap(false, true) {
		close(t.done)
	}
}

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool {
	return t.cancelled.Load()
}

// Done returns a channel closed when the token is cancelled.
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}
