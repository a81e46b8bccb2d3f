package estimate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCancelToken_StartsNotCancelled(t *testing.T) {
	tok := NewCancelToken()
	assert.False(t, tok.Cancelled())
	select {
	case <-tok.Done():
		t.Fatal("Done channel should not be closed before Cancel")
	default:
	}
}

func TestCancelToken_CancelClosesDone(t *testing.T) {
	tok := NewCancelToken()
	tok.Cancel()
	assert.True(t, tok.Cancelled())
	select {
	case <-tok.Done():
	default:
		t.Fatal("Done channel should be closed after Cancel")
	}
}

func TestCancelToken_CancelIsIdempotent(t *testing.T) {
	tok := NewCancelToken()
	tok.Cancel()
	assert.NotPanics(t, func() { tok.Cancel() })
	assert.True(t, tok.Cancelled())
}

func TestFromContext_CancelsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tok, stop := FromContext(ctx)
	defer stop()

	assert.False(t, tok.Cancelled())
	cancel()

	select {
	case <-tok.Done():
	case <-time.After(time.Second):
		t.Fatal("token was not cancelled after context was cancelled")
	}
}

func TestFromContext_StopPreventsLateCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tok, stop := FromContext(ctx)
	stop()

	select {
	case <-tok.Done():
		t.Fatal("token should not be cancelled after stop without context cancellation")
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, tok.Cancelled())
}
