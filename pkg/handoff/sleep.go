package handoff

import "golang.org/x/sys/cpu"

// spscSleep parks on the gate when full or empty. The waker only signals on
// the empty->non-empty and full->non-full transitions, after updating the
// count, and the waiter re-checks the count under the same mutex, so a signal
// cannot fall between the check and the wait.
type spscSleep[T any] struct {
	*core[T]
	g         *gate
	sendGuard guard
	_         cpu.CacheLinePad
	recvGuard guard
}

func newSPSCSleep[T any](c *core[T]) *spscSleep[T] {
	return &spscSleep[T]{
		core:      c,
		g:         newGate(),
		sendGuard: guard{msg: "handoff: concurrent Send on SPSC queue - only one producer allowed"},
		recvGuard: guard{msg: "handoff: concurrent Recv on SPSC queue - only one consumer allowed"},
	}
}

func (q *spscSleep[T]) push(v T) {
	q.sendGuard.enter()
	defer q.sendGuard.exit()

	if q.buf.Full() {
		q.fullWait()
		q.g.roomMu.Lock()
		for q.buf.Full() {
			q.g.room.Wait()
		}
		q.g.roomMu.Unlock()
	}
	q.write(v)
}

func (q *spscSleep[T]) tryPush(v T) bool {
	q.sendGuard.enter()
	defer q.sendGuard.exit()

	if q.buf.Full() {
		return false
	}
	q.write(v)
	return true
}

func (q *spscSleep[T]) write(v T) {
	q.buf.Write(v)
	n := q.buf.Add(1)
	q.sent(n)
	if n == 1 {
		q.g.notifyElem()
	}
}

func (q *spscSleep[T]) pop() T {
	q.recvGuard.enter()
	defer q.recvGuard.exit()

	if q.buf.Empty() {
		q.emptyWait()
		q.g.elemMu.Lock()
		for q.buf.Empty() {
			q.g.elem.Wait()
		}
		q.g.elemMu.Unlock()
	}
	return q.read()
}

func (q *spscSleep[T]) tryPop() (T, bool) {
	q.recvGuard.enter()
	defer q.recvGuard.exit()

	if q.buf.Empty() {
		var zero T
		return zero, false
	}
	return q.read(), true
}

func (q *spscSleep[T]) read() T {
	v := q.buf.Read()
	n := q.buf.Add(-1)
	q.received(n)
	if n+1 == q.buf.Cap() {
		q.g.notifyRoom()
	}
	return v
}

// mpmcSleep runs the whole push under the room mutex and the whole pop under
// the element mutex, so the mutex that guards waiting also guards the cursor.
// Producers and consumers still proceed concurrently with each other.
//
// A side that leaves room (or elements) behind signals the next waiter on its
// own side, chaining wakes when several goroutines are parked. The cross-side
// notify happens after the critical section; a duplicate or early signal only
// causes an extra re-check in the waiter's loop.
type mpmcSleep[T any] struct {
	*core[T]
	g *gate
}

func newMPMCSleep[T any](c *core[T]) *mpmcSleep[T] {
	return &mpmcSleep[T]{core: c, g: newGate()}
}

func (q *mpmcSleep[T]) push(v T) {
	q.g.roomMu.Lock()
	if q.buf.Full() {
		q.fullWait()
		for q.buf.Full() {
			q.g.room.Wait()
		}
	}
	q.writeLocked(v)
}

func (q *mpmcSleep[T]) tryPush(v T) bool {
	q.g.roomMu.Lock()
	if q.buf.Full() {
		q.g.roomMu.Unlock()
		return false
	}
	q.writeLocked(v)
	return true
}

// writeLocked is entered with roomMu held and releases it.
func (q *mpmcSleep[T]) writeLocked(v T) {
	q.buf.Write(v)
	n := q.buf.Add(1)
	if n < q.buf.Cap() {
		q.g.room.Signal()
	}
	q.g.roomMu.Unlock()

	q.sent(n)
	if n == 1 {
		q.g.notifyElem()
	}
}

func (q *mpmcSleep[T]) pop() T {
	q.g.elemMu.Lock()
	if q.buf.Empty() {
		q.emptyWait()
		for q.buf.Empty() {
			q.g.elem.Wait()
		}
	}
	return q.readLocked()
}

func (q *mpmcSleep[T]) tryPop() (T, bool) {
	q.g.elemMu.Lock()
	if q.buf.Empty() {
		q.g.elemMu.Unlock()
		var zero T
		return zero, false
	}
	return q.readLocked(), true
}

// readLocked is entered with elemMu held and releases it.
func (q *mpmcSleep[T]) readLocked() T {
	v := q.buf.Read()
	n := q.buf.Add(-1)
	if n > 0 {
		q.g.elem.Signal()
	}
	q.g.elemMu.Unlock()

	q.received(n)
	if n+1 == q.buf.Cap() {
		q.g.notifyRoom()
	}
	return v
}
