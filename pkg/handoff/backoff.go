package handoff

import (
	"runtime"
	"sync/atomic"
)

const (
	spinLimit  = 6
	yieldLimit = 10
)

// backoff paces a busy-wait loop: exponentially longer pause loops up to
// 2^spinLimit iterations, then runtime.Gosched on every step. It never parks
// the goroutine.
type backoff struct {
	step uint
}

//go:noinline
func pause() {}

func (b *backoff) once() {
	if b.step < spinLimit {
		for i := 0; i < 1<<b.step; i++ {
			pause()
		}
	} else {
		runtime.Gosched()
	}
	if b.step <= yieldLimit {
		b.step++
	}
}

func (b *backoff) reset() {
	b.step = 0
}

// spinLock serializes one side of an MPMC busy-spin queue.
type spinLock struct {
	held atomic.Bool
}

func (l *spinLock) lock() {
	var b backoff
	for !l.held.CompareAndSwap(false, true) {
		b.once()
	}
}

func (l *spinLock) unlock() {
	l.held.Store(false)
}

// guard detects concurrent use of one side of an SPSC queue.
type guard struct {
	active atomic.Uint32
	msg    string
}

func (g *guard) enter() {
	if !g.active.CompareAndSwap(0, 1) {
		panic(g.msg)
	}
}

func (g *guard) exit() {
	g.active.Store(0)
}
