package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mye-app/mye-backend/internal/logger"
)

type blockingDispatcher struct {
	mu      sync.Mutex
	release chan struct{}
	got     []Event
	ctxErrs []error
	err     error
}

func (b *blockingDispatcher) Dispatch(ctx context.Context, ev Event) error {
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, ev)
	b.ctxErrs = append(b.ctxErrs, ctx.Err())
	return b.err
}

func TestAsyncDispatcherDoesNotBlock(t *testing.T) {
	next := &blockingDispatcher{release: make(chan struct{}), err: errBoom}
	d := NewAsyncDispatcher(next, time.Minute, logger.Discard())

	reqCtx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	assert.NoError(t, d.Dispatch(reqCtx, Event{RecipientID: 1, Type: TypeMatch}))
	assert.NoError(t, d.Dispatch(reqCtx, Event{RecipientID: 2, Type: TypeMatch}))
	assert.Less(t, time.Since(start), time.Second)

	// The request finishing must not cancel delivery.
	cancel()
	close(next.release)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, d.Wait(waitCtx))

	assert.Len(t, next.got, 2)
	for _, err := range next.ctxErrs {
		assert.NoError(t, err)
	}
}

func TestAsyncDispatcherWaitTimesOut(t *testing.T) {
	next := &blockingDispatcher{release: make(chan struct{})}
	d := NewAsyncDispatcher(next, time.Minute, logger.Discard())
	require.NoError(t, d.Dispatch(context.Background(), Event{RecipientID: 1, Type: TypeMatch}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)

	close(next.release)
	require.NoError(t, d.Wait(context.Background()))
}
