// Package harness drives a configurable producer/consumer workload through a
// handoff queue (or a channel baseline) and measures its throughput.
//
// Each producer sends values that encode its id and a per-producer sequence
// number. When every producer is done, one stop value per consumer is sent
// through the queue itself, so shutdown needs no side channel.
package harness

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/handoff/internal/cancel"
	"github.com/randomizedcoder/handoff/pkg/handoff"
)

const (
	seqBits   = 40
	seqMask   = 1<<seqBits - 1
	stopValue = -1

	maxProducers = 1 << (63 - seqBits)
)

// Encode packs a producer id and sequence number into one non-negative value.
func Encode(producer int, seq int64) int64 {
	return int64(producer)<<seqBits | seq&seqMask
}

// Decode splits a value produced by Encode.
func Decode(v int64) (producer int, seq int64) {
	return int(v >> seqBits), v & seqMask
}

// orderChecker tracks the last sequence number seen from each producer by one
// consumer. Each producer's values must arrive in increasing order.
type orderChecker struct {
	next       []int64
	violations int64
}

func newOrderChecker(producers int) *orderChecker {
	return &orderChecker{next: make([]int64, producers)}
}

func (c *orderChecker) observe(v int64) {
	p, seq := Decode(v)
	if p < 0 || p >= len(c.next) || seq < c.next[p] {
		c.violations++
		return
	}
	c.next[p] = seq + 1
}

// Result summarizes one run.
type Result struct {
	Config          Config
	Sent            int64
	Received        int64
	Elapsed         time.Duration
	OrderViolations int64

	// Queue is nil for the channel backend.
	Queue *handoff.StatsSummary
}

// SendPerMs returns the average send rate.
func (r Result) SendPerMs() float64 { return PerMs(r.Sent, r.Elapsed) }

// RecvPerMs returns the average receive rate.
func (r Result) RecvPerMs() float64 { return PerMs(r.Received, r.Elapsed) }

// NsPerRecv returns the average time per received value.
func (r Result) NsPerRecv() float64 { return NsPer(r.Received, r.Elapsed) }

// Run executes the workload described by cfg until every producer has sent
// cfg.Transfers values, cfg.Duration elapses, or ctx is cancelled.
// registerer may be nil.
func Run(ctx context.Context, cfg Config, logger *slog.Logger, registerer prometheus.Registerer) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	b, err := newBackend(cfg, logger, registerer)
	if err != nil {
		return Result{}, err
	}
	defer b.release()

	stop, detach := cancel.WithContext(ctx)
	defer detach()
	if cfg.Transfers == 0 {
		timer := time.AfterFunc(cfg.Duration, stop.Cancel)
		defer timer.Stop()
	}

	sent := make([]Counter, cfg.Producers)
	received := make([]Counter, cfg.Consumers)
	checkers := make([]*orderChecker, cfg.Consumers)

	logger.Info("run starting",
		"backend", cfg.Backend,
		"topology", cfg.Topology,
		"mode", cfg.Mode,
		"capacity", cfg.Capacity,
		"producers", cfg.Producers,
		"consumers", cfg.Consumers,
		"transfers", cfg.Transfers,
		"duration", cfg.Duration)

	samplerCtx, stopSampler := context.WithCancel(context.Background())
	var samplerWg sync.WaitGroup
	if cfg.Interval > 0 {
		samplerWg.Add(1)
		go func() {
			defer samplerWg.Done()
			NewSampler(sent, received, cfg.Interval, logger).Run(samplerCtx)
		}()
	}

	start := time.Now()

	var consumerWg sync.WaitGroup
	for i, c := range b.consumers {
		if cfg.Verify {
			checkers[i] = newOrderChecker(cfg.Producers)
		}
		consumerWg.Add(1)
		go func(c Consumer, count *Counter, chk *orderChecker) {
			defer consumerWg.Done()
			for {
				v := c.Recv()
				if v == stopValue {
					return
				}
				if chk != nil {
					chk.observe(v)
				}
				count.Inc()
			}
		}(c, &received[i], checkers[i])
	}

	var producerWg sync.WaitGroup
	for i, p := range b.producers {
		producerWg.Add(1)
		go func(id int, p Producer, count *Counter) {
			defer producerWg.Done()
			for seq := int64(0); cfg.Transfers == 0 || seq < cfg.Transfers; seq++ {
				if stop.Done() {
					return
				}
				p.Send(Encode(id, seq))
				count.Inc()
			}
		}(i, p, &sent[i])
	}

	producerWg.Wait()
	for range b.consumers {
		b.control.Send(stopValue)
	}
	consumerWg.Wait()
	elapsed := time.Since(start)

	stopSampler()
	samplerWg.Wait()

	res := Result{
		Config:   cfg,
		Sent:     Sum(sent),
		Received: Sum(received),
		Elapsed:  elapsed,
	}
	for _, chk := range checkers {
		if chk != nil {
			res.OrderViolations += chk.violations
		}
	}
	if b.stats != nil {
		s := b.stats.Summary()
		res.Queue = &s
	}

	logger.Info("run finished",
		"sent", res.Sent,
		"received", res.Received,
		"elapsed", res.Elapsed,
		"recv_per_ms", int64(res.RecvPerMs()),
		"order_violations", res.OrderViolations)

	return res, nil
}
