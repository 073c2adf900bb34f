// Package combined holds benchmarks that put the handoff queue next to the
// alternatives a caller would otherwise reach for: buffered channels and the
// sharded lock-free ring from github.com/randomizedcoder/go-lock-free-ring.
//
// These benchmarks are more representative than the per-package ones, as
// they capture the cumulative cost of a worker hot loop: a cancellation check
// and a queue operation on every iteration.
package combined
