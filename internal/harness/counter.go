package harness

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Counter is a per-worker transfer count, padded so workers incrementing
// neighbouring counters do not share a cache line.
type Counter struct {
	n atomic.Int64
	_ cpu.CacheLinePad
}

// Inc adds one transfer.
func (c *Counter) Inc() {
	c.n.Add(1)
}

// Load returns the current count.
func (c *Counter) Load() int64 {
	return c.n.Load()
}

// Sum adds up a set of counters.
func Sum(counters []Counter) int64 {
	var total int64
	for i := range counters {
		total += counters[i].Load()
	}
	return total
}
