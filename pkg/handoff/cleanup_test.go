package handoff

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillAndAbandon sends values into a new queue and returns it with both
// handles unreachable and never released.
//
//go:noinline
func fillAndAbandon(t *testing.T, mode WaitMode, record func(int), values ...int) *queue[int] {
	tx, _, err := NewSPSC[int](8, mode, WithDropCallback[int](record))
	require.NoError(t, err)
	for _, v := range values {
		tx.Send(v)
	}
	return tx.r.queue()
}

func TestCleanup_UnreachableHandlesDrainOnce(t *testing.T) {
	for _, mode := range []WaitMode{BusySpin, CondVar} {
		t.Run(mode.String(), func(t *testing.T) {
			var mu sync.Mutex
			var dropped []int
			record := func(v int) {
				mu.Lock()
				dropped = append(dropped, v)
				mu.Unlock()
			}

			q := fillAndAbandon(t, mode, record, 1, 2, 3)

			require.Eventually(t, func() bool {
				runtime.GC()
				mu.Lock()
				defer mu.Unlock()
				return len(dropped) == 3
			}, 5*time.Second, 5*time.Millisecond)

			// Further collections must not drain again.
			for i := 0; i < 5; i++ {
				runtime.GC()
			}
			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, []int{1, 2, 3}, dropped)
			assert.Equal(t, int64(3), q.stats.Drops())
			assert.Equal(t, int64(0), q.refs.Load())
		})
	}
}

//go:noinline
func sendAndSignal(tx *Sender[int], v int, done chan<- struct{}) {
	tx.Send(v)
	close(done)
}

// A Send parked on a full queue is the only thing keeping its Sender alive.
// Collections while it waits must not tear the queue down under it.
func TestCleanup_InFlightSendKeepsQueue(t *testing.T) {
	for _, mode := range []WaitMode{BusySpin, CondVar} {
		t.Run(mode.String(), func(t *testing.T) {
			var drops atomic.Int64
			tx, rx, err := NewSPSC[int](1, mode, WithDropCallback[int](func(int) { drops.Add(1) }))
			require.NoError(t, err)

			q := tx.r.queue()
			rx.Release()
			tx.Send(1)

			done := make(chan struct{})
			go sendAndSignal(tx, 2, done)
			tx = nil

			require.Eventually(t, func() bool { return q.stats.FullWaits() == 1 },
				5*time.Second, time.Millisecond)

			for i := 0; i < 10; i++ {
				runtime.GC()
			}
			time.Sleep(20 * time.Millisecond)

			assert.Equal(t, int64(0), drops.Load())
			assert.Equal(t, int64(1), q.refs.Load())

			// Act as the consumer so the parked Send can finish.
			assert.Equal(t, 1, q.d.pop())
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("parked Send did not complete")
			}
			assert.Equal(t, 2, q.d.pop())

			// With the sending goroutine gone the Sender is collectable, and the
			// queue it leaves behind is empty.
			require.Eventually(t, func() bool {
				runtime.GC()
				return q.refs.Load() == 0
			}, 5*time.Second, 5*time.Millisecond)
			assert.Equal(t, int64(0), drops.Load())
		})
	}
}
