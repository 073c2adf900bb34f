// Package cancel provides the stop signal polled by harness workers.
//
// Workers check Done() once per transfer, millions of times per second, so
// the check is a single atomic load rather than a select on ctx.Done().
// A Flag can be tied to a context with Bind so that signal handling and
// deadlines expressed as contexts still reach the hot loop.
package cancel

import (
	"context"
	"sync/atomic"
)

// Canceler provides cancellation signaling to workers.
//
// Implementations must be safe for concurrent use:
//   - Multiple goroutines may call Done() concurrently
//   - Cancel() may be called concurrently with Done()
type Canceler interface {
	// Done returns true if cancellation has been triggered.
	Done() bool

	// Cancel triggers cancellation. Safe to call multiple times.
	Cancel()
}

// Flag is an atomic.Bool-backed Canceler.
type Flag struct {
	done atomic.Bool
}

var _ Canceler = (*Flag)(nil)

// New creates a Flag that has not been cancelled.
func New() *Flag {
	return &Flag{}
}

// Done returns true if cancellation has been triggered.
func (f *Flag) Done() bool {
	return f.done.Load()
}

// Cancel triggers cancellation. Subsequent calls are no-ops.
func (f *Flag) Cancel() {
	f.done.Store(true)
}

// Reset clears the flag. Not safe to call concurrently with Done or Cancel.
func (f *Flag) Reset() {
	f.done.Store(false)
}

// Bind cancels c when ctx is done. The returned stop function detaches c
// from ctx and reports whether it did so before ctx fired.
func Bind(ctx context.Context, c Canceler) (stop func() bool) {
	return context.AfterFunc(ctx, c.Cancel)
}

// WithContext returns a new Flag bound to ctx and the function that detaches it.
func WithContext(ctx context.Context) (*Flag, func() bool) {
	f := New()
	return f, Bind(ctx, f)
}
