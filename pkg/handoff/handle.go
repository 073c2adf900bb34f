package handoff

import (
	"runtime"
	"sync/atomic"

	"github.com/randomizedcoder/handoff/internal/errs"
)

// ref is one counted reference to a queue. It is kept separate from the
// public handle so a runtime cleanup can release it once the handle is
// unreachable. Every handle method that reaches the queue ends with
// runtime.KeepAlive on its receiver, so the cleanup cannot tear the queue
// down under a call that is still running.
type ref[T any] struct {
	q        *queue[T]
	released atomic.Bool
}

func newRef[T any](q *queue[T]) *ref[T] {
	q.retain()
	return &ref[T]{q: q}
}

func (r *ref[T]) release() {
	if r.released.CompareAndSwap(false, true) {
		r.q.unref()
	}
}

func (r *ref[T]) queue() *queue[T] {
	if r.released.Load() {
		panic("handoff: use of released handle")
	}
	return r.q
}

// Sender is the producing side of a queue.
//
// An SPSC Sender must only be used by one goroutine at a time; MPMC Senders
// may be shared or cloned freely.
type Sender[T any] struct {
	r       *ref[T]
	cleanup runtime.Cleanup
}

func newSender[T any](q *queue[T]) *Sender[T] {
	s := &Sender[T]{r: newRef(q)}
	s.cleanup = runtime.AddCleanup(s, func(r *ref[T]) { r.release() }, s.r)
	return s
}

// Send enqueues v, waiting according to the queue's WaitMode while the queue
// is full. It never drops v and cannot be interrupted.
func (s *Sender[T]) Send(v T) {
	s.r.queue().d.push(v)
	runtime.KeepAlive(s)
}

// TrySend enqueues v if a slot is free and reports whether it did.
func (s *Sender[T]) TrySend(v T) bool {
	ok := s.r.queue().d.tryPush(v)
	runtime.KeepAlive(s)
	return ok
}

// Clone returns another Sender sharing the same queue. Only MPMC queues
// can be cloned.
func (s *Sender[T]) Clone() (*Sender[T], error) {
	q := s.r.queue()
	if q.topology != MPMC {
		return nil, errs.WrapInvalid(errs.ErrNotCloneable, "handoff", "Sender.Clone", "SPSC queue has a single producer")
	}
	c := newSender(q)
	runtime.KeepAlive(s)
	return c, nil
}

// Release drops this handle's reference. When the last Sender and Receiver
// are released, elements still queued are passed to the drop callback and
// the slot storage is freed. Release is idempotent; other methods panic
// after it.
func (s *Sender[T]) Release() {
	s.cleanup.Stop()
	s.r.release()
}

// Len returns the number of elements currently queued.
func (s *Sender[T]) Len() int {
	n := s.r.queue().buf.Count()
	runtime.KeepAlive(s)
	return int(n)
}

// Cap returns the fixed capacity.
func (s *Sender[T]) Cap() int { return int(s.r.queue().buf.Cap()) }

// Mode returns the queue's wait mode.
func (s *Sender[T]) Mode() WaitMode { return s.r.queue().mode }

// Topology returns the queue's topology.
func (s *Sender[T]) Topology() Topology { return s.r.queue().topology }

// Stats returns the queue's statistics, shared by all handles.
func (s *Sender[T]) Stats() *Statistics { return s.r.queue().stats }

// Receiver is the consuming side of a queue.
//
// An SPSC Receiver must only be used by one goroutine at a time; MPMC
// Receivers may be shared or cloned freely.
type Receiver[T any] struct {
	r       *ref[T]
	cleanup runtime.Cleanup
}

func newReceiver[T any](q *queue[T]) *Receiver[T] {
	rv := &Receiver[T]{r: newRef(q)}
	rv.cleanup = runtime.AddCleanup(rv, func(r *ref[T]) { r.release() }, rv.r)
	return rv
}

// Recv dequeues the oldest element, waiting according to the queue's
// WaitMode while the queue is empty.
func (rv *Receiver[T]) Recv() T {
	v := rv.r.queue().d.pop()
	runtime.KeepAlive(rv)
	return v
}

// TryRecv dequeues the oldest element if there is one.
func (rv *Receiver[T]) TryRecv() (T, bool) {
	v, ok := rv.r.queue().d.tryPop()
	runtime.KeepAlive(rv)
	return v, ok
}

// Clone returns another Receiver sharing the same queue. Only MPMC queues
// can be cloned.
func (rv *Receiver[T]) Clone() (*Receiver[T], error) {
	q := rv.r.queue()
	if q.topology != MPMC {
		return nil, errs.WrapInvalid(errs.ErrNotCloneable, "handoff", "Receiver.Clone", "SPSC queue has a single consumer")
	}
	c := newReceiver(q)
	runtime.KeepAlive(rv)
	return c, nil
}

// Release drops this handle's reference. See Sender.Release.
func (rv *Receiver[T]) Release() {
	rv.cleanup.Stop()
	rv.r.release()
}

// Len returns the number of elements currently queued.
func (rv *Receiver[T]) Len() int {
	n := rv.r.queue().buf.Count()
	runtime.KeepAlive(rv)
	return int(n)
}

// Cap returns the fixed capacity.
func (rv *Receiver[T]) Cap() int { return int(rv.r.queue().buf.Cap()) }

// Mode returns the queue's wait mode.
func (rv *Receiver[T]) Mode() WaitMode { return rv.r.queue().mode }

// Topology returns the queue's topology.
func (rv *Receiver[T]) Topology() Topology { return rv.r.queue().topology }

// Stats returns the queue's statistics, shared by all handles.
func (rv *Receiver[T]) Stats() *Statistics { return rv.r.queue().stats }
