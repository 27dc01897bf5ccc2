package browser

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCaptureTimeout is returned when no console message arrives within
// the capture's own window.
var ErrCaptureTimeout = errors.New("console capture timed out")

// ConsoleCapture is a one-shot future holding the text of the first
// console message observed after the listener was attached. It is empty
// until fulfilled exactly once, then holds the value permanently.
type ConsoleCapture struct {
	timeout time.Duration
	cancel  context.CancelFunc

	once sync.Once
	done chan struct{}
	text string
}

// NewConsoleCapture returns an unattached capture with the given
// timeout. Session.WatchConsole attaches captures to a live page; this
// constructor exists for tests and alternative Page implementations.
func NewConsoleCapture(timeout time.Duration) *ConsoleCapture {
	return &ConsoleCapture{
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// Fulfill resolves the capture. Only the first call wins; later calls
// are no-ops.
func (c *ConsoleCapture) Fulfill(text string) {
	c.once.Do(func() {
		c.text = text
		close(c.done)
	})
}

// Wait blocks until the message arrives, the capture's own timeout
// elapses, or ctx is done. The timeout is deliberately independent of
// any deadline the caller carries, so a missed signal surfaces as a
// local, reportable error rather than an opaque external abort.
func (c *ConsoleCapture) Wait(ctx context.Context) (string, error) {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return c.text, nil
	case <-timer.C:
		return "", ErrCaptureTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Cancel detaches the underlying listener, if any. Safe to call more
// than once and after fulfillment.
func (c *ConsoleCapture) Cancel() {
	if c.cancel != nil {
		c.cancel()
	}
}
