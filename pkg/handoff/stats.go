package handoff

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// Statistics tracks queue activity. It is always collected and safe for
// concurrent use. Producer-side and consumer-side counters live on separate
// cache lines so the two sides do not contend on them.
type Statistics struct {
	_          cpu.CacheLinePad
	sends      atomic.Int64
	fullWaits  atomic.Int64
	maxDepth   atomic.Int64
	_          cpu.CacheLinePad
	recvs      atomic.Int64
	emptyWaits atomic.Int64
	_          cpu.CacheLinePad
	drops      atomic.Int64

	startTime time.Time
}

func newStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

func (s *Statistics) recordSend(depth int64) {
	s.sends.Add(1)
	for {
		cur := s.maxDepth.Load()
		if depth <= cur || s.maxDepth.CompareAndSwap(cur, depth) {
			return
		}
	}
}

func (s *Statistics) recordRecv()      { s.recvs.Add(1) }
func (s *Statistics) recordFullWait()  { s.fullWaits.Add(1) }
func (s *Statistics) recordEmptyWait() { s.emptyWaits.Add(1) }
func (s *Statistics) recordDrop()      { s.drops.Add(1) }

// Sends returns the number of completed Send and TrySend calls.
func (s *Statistics) Sends() int64 { return s.sends.Load() }

// Recvs returns the number of completed Recv and TryRecv calls.
func (s *Statistics) Recvs() int64 { return s.recvs.Load() }

// FullWaits returns how many sends found the queue full and had to wait.
func (s *Statistics) FullWaits() int64 { return s.fullWaits.Load() }

// EmptyWaits returns how many receives found the queue empty and had to wait.
func (s *Statistics) EmptyWaits() int64 { return s.emptyWaits.Load() }

// Drops returns how many elements were drained at teardown.
func (s *Statistics) Drops() int64 { return s.drops.Load() }

// MaxDepth returns the highest live count observed after a send.
func (s *Statistics) MaxDepth() int64 { return s.maxDepth.Load() }

// Uptime returns how long ago the queue was created.
func (s *Statistics) Uptime() time.Duration { return time.Since(s.startTime) }

// Throughput returns the average number of sends per second.
func (s *Statistics) Throughput() float64 {
	elapsed := time.Since(s.startTime)
	if elapsed <= 0 {
		return 0.0
	}
	return float64(s.Sends()) / elapsed.Seconds()
}

// RecvThroughput returns the average number of receives per second.
func (s *Statistics) RecvThroughput() float64 {
	elapsed := time.Since(s.startTime)
	if elapsed <= 0 {
		return 0.0
	}
	return float64(s.Recvs()) / elapsed.Seconds()
}

// StatsSummary is a point-in-time snapshot of Statistics.
type StatsSummary struct {
	Sends          int64         `json:"sends"`
	Recvs          int64         `json:"recvs"`
	FullWaits      int64         `json:"full_waits"`
	EmptyWaits     int64         `json:"empty_waits"`
	Drops          int64         `json:"drops"`
	MaxDepth       int64         `json:"max_depth"`
	Throughput     float64       `json:"throughput"`
	RecvThroughput float64       `json:"recv_throughput"`
	Uptime         time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Sends:          s.Sends(),
		Recvs:          s.Recvs(),
		FullWaits:      s.FullWaits(),
		EmptyWaits:     s.EmptyWaits(),
		Drops:          s.Drops(),
		MaxDepth:       s.MaxDepth(),
		Throughput:     s.Throughput(),
		RecvThroughput: s.RecvThroughput(),
		Uptime:         s.Uptime(),
	}
}
