package handoff

import "golang.org/x/sys/cpu"

// spscSpin: one producer owns head, one consumer owns tail, no lock at all.
type spscSpin[T any] struct {
	*core[T]
	sendGuard guard
	_         cpu.CacheLinePad
	recvGuard guard
}

func newSPSCSpin[T any](c *core[T]) *spscSpin[T] {
	return &spscSpin[T]{
		core:      c,
		sendGuard: guard{msg: "handoff: concurrent Send on SPSC queue - only one producer allowed"},
		recvGuard: guard{msg: "handoff: concurrent Recv on SPSC queue - only one consumer allowed"},
	}
}

func (q *spscSpin[T]) push(v T) {
	q.sendGuard.enter()
	defer q.sendGuard.exit()

	if q.buf.Full() {
		q.fullWait()
		var b backoff
		for q.buf.Full() {
			b.once()
		}
	}
	q.buf.Write(v)
	q.sent(q.buf.Add(1))
}

func (q *spscSpin[T]) tryPush(v T) bool {
	q.sendGuard.enter()
	defer q.sendGuard.exit()

	if q.buf.Full() {
		return false
	}
	q.buf.Write(v)
	q.sent(q.buf.Add(1))
	return true
}

func (q *spscSpin[T]) pop() T {
	q.recvGuard.enter()
	defer q.recvGuard.exit()

	if q.buf.Empty() {
		q.emptyWait()
		var b backoff
		for q.buf.Empty() {
			b.once()
		}
	}
	v := q.buf.Read()
	q.received(q.buf.Add(-1))
	return v
}

func (q *spscSpin[T]) tryPop() (T, bool) {
	q.recvGuard.enter()
	defer q.recvGuard.exit()

	if q.buf.Empty() {
		var zero T
		return zero, false
	}
	v := q.buf.Read()
	q.received(q.buf.Add(-1))
	return v, true
}

// mpmcSpin serializes producers with one spin lock and consumers with another.
// A side waits for the count to change before taking its lock, so the lock is
// only ever held across a write or read and never across a wait.
type mpmcSpin[T any] struct {
	*core[T]
	_    cpu.CacheLinePad
	prod spinLock
	_    cpu.CacheLinePad
	cons spinLock
	_    cpu.CacheLinePad
}

func newMPMCSpin[T any](c *core[T]) *mpmcSpin[T] {
	return &mpmcSpin[T]{core: c}
}

func (q *mpmcSpin[T]) push(v T) {
	var b backoff
	waited := false
	for {
		for q.buf.Full() {
			if !waited {
				waited = true
				q.fullWait()
			}
			b.once()
		}
		q.prod.lock()
		if !q.buf.Full() {
			break
		}
		// Another producer took the last slot first.
		q.prod.unlock()
		b.reset()
	}
	q.buf.Write(v)
	n := q.buf.Add(1)
	q.prod.unlock()
	q.sent(n)
}

func (q *mpmcSpin[T]) tryPush(v T) bool {
	q.prod.lock()
	if q.buf.Full() {
		q.prod.unlock()
		return false
	}
	q.buf.Write(v)
	n := q.buf.Add(1)
	q.prod.unlock()
	q.sent(n)
	return true
}

func (q *mpmcSpin[T]) pop() T {
	var b backoff
	waited := false
	for {
		for q.buf.Empty() {
			if !waited {
				waited = true
				q.emptyWait()
			}
			b.once()
		}
		q.cons.lock()
		if !q.buf.Empty() {
			break
		}
		q.cons.unlock()
		b.reset()
	}
	v := q.buf.Read()
	n := q.buf.Add(-1)
	q.cons.unlock()
	q.received(n)
	return v
}

func (q *mpmcSpin[T]) tryPop() (T, bool) {
	q.cons.lock()
	if q.buf.Empty() {
		q.cons.unlock()
		var zero T
		return zero, false
	}
	v := q.buf.Read()
	n := q.buf.Add(-1)
	q.cons.unlock()
	q.received(n)
	return v, true
}
