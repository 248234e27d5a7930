// internal/notifications/dispatcher.go

package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AsyncDispatcher runs each dispatch on its own goroutine so producers never
// wait on delivery. Failures are logged and counted, never returned.
type AsyncDispatcher struct {
	next    Dispatcher
	timeout time.Duration
	log     *logrus.Entry
	wg      sync.WaitGroup
}

func NewAsyncDispatcher(next Dispatcher, timeout time.Duration, log *logrus.Entry) *AsyncDispatcher {
	return &AsyncDispatcher{next: next, timeout: timeout, log: log}
}

// Dispatch always returns nil. The request context is detached so that the
// delivery outlives the request that triggered it.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, ev Event) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.next.Dispatch(ctx, ev); err != nil {
			dispatchFailures.WithLabelValues(string(ev.Type)).Inc()
			d.log.WithError(err).WithFields(logrus.Fields{
				"user_id": ev.RecipientID,
				"type":    ev.Type,
			}).Warn("notification delivery failed")
		}
	}()
	return nil
}

// Wait blocks until in-flight dispatches finish or ctx is done.
func (d *AsyncDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
