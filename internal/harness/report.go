package harness

import (
	"fmt"
	"io"
)

const rule = "─────────────────────────────────────────────────────────"

// Print writes a human-readable report of r to w.
func (r Result) Print(w io.Writer) {
	cfg := r.Config

	fmt.Fprintf(w, "Handoff %s/%s/%s (capacity %d, %d producers, %d consumers)\n",
		cfg.Backend, cfg.Topology, cfg.Mode, cfg.Capacity, cfg.Producers, cfg.Consumers)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Sent:      %d\n", r.Sent)
	fmt.Fprintf(w, "  Received:  %d\n", r.Received)
	fmt.Fprintf(w, "  Elapsed:   %v\n", r.Elapsed)
	fmt.Fprintf(w, "  Rate:      %.0f recv/ms, %.2f ns/recv\n", r.RecvPerMs(), r.NsPerRecv())
	if cfg.Verify {
		fmt.Fprintf(w, "  Ordering:  %d violations\n", r.OrderViolations)
	}

	if r.Queue != nil {
		q := r.Queue
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Queue statistics:")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "  Sends:       %d (full waits %d)\n", q.Sends, q.FullWaits)
		fmt.Fprintf(w, "  Recvs:       %d (empty waits %d)\n", q.Recvs, q.EmptyWaits)
		fmt.Fprintf(w, "  Max depth:   %d of %d\n", q.MaxDepth, cfg.Capacity)
	}
}
