package handoff

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// errorCollector consumes feeder errors until in is closed and aggregates them.
// When cancel is set (StopOnError), the first error cancels the feeders' context.
// The owner controls lifecycle: errorCollector does not close any channels.
type errorCollector struct {
	in     <-chan error
	cancel context.CancelFunc

	mu   sync.Mutex
	err  error
	errs []error
}

func newErrorCollector(in <-chan error, cancel context.CancelFunc) *errorCollector {
	return &errorCollector{in: in, cancel: cancel}
}

func (c *errorCollector) run() {
	for e := range c.in {
		if e == nil {
			continue
		}
		if c.cancel != nil {
			c.cancel()
		}
		c.mu.Lock()
		c.err = multierr.Append(c.err, e)
		c.errs = append(c.errs, e)
		c.mu.Unlock()
	}
}

// result returns the aggregate of everything collected so far (nil if nothing).
func (c *errorCollector) result() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// errors returns the collected errors as they were received.
// multierr.Errors is not used here: it would split a single *FeedError into its parts.
func (c *errorCollector) errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}
