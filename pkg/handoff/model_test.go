package handoff_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/eapache/queue"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/handoff/pkg/handoff"
)

// TestModel_RandomOps drives a queue with a random mix of non-blocking sends
// and receives from one goroutine and compares every result with an
// unbounded reference FIFO capped at the same capacity.
func TestModel_RandomOps(t *testing.T) {
	for _, topology := range []handoff.Topology{handoff.SPSC, handoff.MPMC} {
		for _, mode := range modes {
			for _, capacity := range []int{1, 4, 32} {
				name := fmt.Sprintf("%s/%s/cap%d", topology, mode, capacity)
				t.Run(name, func(t *testing.T) {
					tx, rx, err := handoff.New[int](capacity, mode, handoff.WithTopology[int](topology))
					require.NoError(t, err)
					defer tx.Release()
					defer rx.Release()

					model := queue.New()
					rng := rand.New(rand.NewPCG(uint64(capacity), 0x5eed))

					for step := 0; step < 10000; step++ {
						if rng.IntN(2) == 0 {
							ok := tx.TrySend(step)
							require.Equal(t, model.Length() < capacity, ok, "step %d send", step)
							if ok {
								model.Add(step)
							}
						} else {
							v, ok := rx.TryRecv()
							require.Equal(t, model.Length() > 0, ok, "step %d recv", step)
							if ok {
								require.Equal(t, model.Remove().(int), v, "step %d recv", step)
							}
						}
						require.Equal(t, model.Length(), rx.Len(), "step %d len", step)
					}
				})
			}
		}
	}
}
