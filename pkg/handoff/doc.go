// Package handoff provides a fixed-capacity ring buffer for handing values
// between goroutines without allocating per transfer.
//
// # Overview
//
// A queue is created once with a power-of-two capacity, a Topology and a
// WaitMode, and is used through two capability-restricted handles:
//
//	tx, rx, err := handoff.NewSPSC[int](1024, handoff.CondVar)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer tx.Release()
//	defer rx.Release()
//
//	go func() {
//		for i := 0; i < 10; i++ {
//			tx.Send(i)
//		}
//	}()
//	for i := 0; i < 10; i++ {
//		fmt.Println(rx.Recv())
//	}
//
// Send waits while the queue is full and Recv waits while it is empty. There
// is no close or disconnect signal; callers that need shutdown must agree on
// one, for example a sentinel value per consumer.
//
// # Topologies
//
//   - SPSC: exactly one goroutine sends and one receives. Each cursor has a
//     single owner, so the only shared state is the live count. Concurrent
//     Send (or Recv) calls are detected and panic.
//   - MPMC: any number of goroutines send and receive. Producers are
//     serialized against each other and consumers against each other.
//     Handles can be cloned.
//
// Ordering: SPSC is strict FIFO. MPMC preserves each producer's own order;
// the order across producers is whatever order their critical sections ran in.
//
// # Wait Modes
//
//   - BusySpin: poll the live count with a short exponential pause, then
//     runtime.Gosched. Never parks, burns a core while waiting.
//   - CondVar: park on a condition variable; the other side signals one
//     waiter when the queue leaves the full or empty state.
//
// # Lifecycle
//
// Every handle holds one reference to the queue. Release drops it (a runtime
// cleanup does the same for handles that become unreachable). When the last
// reference goes, elements still queued are drained in FIFO order into the
// WithDropCallback function, exactly once each, and the slot storage is
// released. Release must not race with Send or Recv on other handles of the
// same queue.
//
// # Observability
//
// Statistics are always collected and available from any handle's Stats.
// WithMetrics additionally exports them as Prometheus counters and gauges.
// WithLogger receives Debug-level lifecycle events.
package handoff
