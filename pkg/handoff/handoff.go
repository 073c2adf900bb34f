package handoff

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/randomizedcoder/handoff/internal/errs"
	"github.com/randomizedcoder/handoff/internal/ring"
)

// discipline is one (topology, wait mode) combination. It is chosen once in
// newQueue and every Send/Recv dispatches through it.
type discipline[T any] interface {
	push(v T)
	pop() T
	tryPush(v T) bool
	tryPop() (T, bool)
}

// core is the state every discipline shares: the slot engine plus the
// always-on statistics and optional metrics.
type core[T any] struct {
	buf     *ring.Buffer[T]
	stats   *Statistics
	metrics *queueMetrics
}

func (c *core[T]) sent(depth int64) {
	c.stats.recordSend(depth)
	if c.metrics != nil {
		c.metrics.recordSend()
	}
}

func (c *core[T]) received(depth int64) {
	c.stats.recordRecv()
	if c.metrics != nil {
		c.metrics.recordRecv()
	}
}

func (c *core[T]) fullWait() {
	c.stats.recordFullWait()
	if c.metrics != nil {
		c.metrics.fullWaits.Inc()
	}
}

func (c *core[T]) emptyWait() {
	c.stats.recordEmptyWait()
	if c.metrics != nil {
		c.metrics.emptyWaits.Inc()
	}
}

// queue owns the ring buffer and is shared by every Sender and Receiver.
type queue[T any] struct {
	core[T]
	d        discipline[T]
	mode     WaitMode
	topology Topology
	opts     *options[T]
	logger   *slog.Logger

	refs     atomic.Int64
	teardown sync.Once
}

// New creates a queue with exactly capacity slots and returns its two
// capability-restricted handles. capacity must be a power of two >= 1 and T
// must have non-zero size. The topology defaults to SPSC; see WithTopology.
func New[T any](capacity int, mode WaitMode, opts ...Option[T]) (*Sender[T], *Receiver[T], error) {
	q, err := newQueue(capacity, mode, applyOptions(opts...))
	if err != nil {
		return nil, nil, err
	}
	return newSender(q), newReceiver(q), nil
}

// NewSPSC creates a single-producer single-consumer queue.
func NewSPSC[T any](capacity int, mode WaitMode, opts ...Option[T]) (*Sender[T], *Receiver[T], error) {
	return New(capacity, mode, append(opts[:len(opts):len(opts)], WithTopology[T](SPSC))...)
}

// NewMPMC creates a multi-producer multi-consumer queue. Its handles can be cloned.
func NewMPMC[T any](capacity int, mode WaitMode, opts ...Option[T]) (*Sender[T], *Receiver[T], error) {
	return New(capacity, mode, append(opts[:len(opts):len(opts)], WithTopology[T](MPMC))...)
}

func newQueue[T any](capacity int, mode WaitMode, opts *options[T]) (*queue[T], error) {
	if mode != BusySpin && mode != CondVar {
		return nil, errs.WrapInvalid(errs.ErrInvalidConfig, "handoff", "New",
			fmt.Sprintf("unknown wait mode %d", int(mode)))
	}
	if opts.topology != SPSC && opts.topology != MPMC {
		return nil, errs.WrapInvalid(errs.ErrInvalidConfig, "handoff", "New",
			fmt.Sprintf("unknown topology %d", int(opts.topology)))
	}

	buf, err := ring.New[T](capacity)
	if err != nil {
		return nil, err
	}

	q := &queue[T]{
		core: core[T]{
			buf:   buf,
			stats: newStatistics(),
		},
		mode:     mode,
		topology: opts.topology,
		opts:     opts,
		logger:   opts.logger,
	}

	if opts.registerer != nil {
		q.metrics, err = newQueueMetrics(opts.registerer, opts.metricsName, buf.Cap(), buf.Count)
		if err != nil {
			return nil, errs.WrapTransient(fmt.Errorf("%w: %w", errs.ErrMetricsRegistration, err),
				"handoff", "New", "queue "+opts.metricsName)
		}
	}

	switch {
	case q.topology == SPSC && mode == BusySpin:
		q.d = newSPSCSpin(&q.core)
	case q.topology == SPSC && mode == CondVar:
		q.d = newSPSCSleep(&q.core)
	case q.topology == MPMC && mode == BusySpin:
		q.d = newMPMCSpin(&q.core)
	default:
		q.d = newMPMCSleep(&q.core)
	}

	q.logger.Debug("handoff queue created",
		"topology", q.topology.String(),
		"mode", mode.String(),
		"capacity", capacity,
		"metrics", opts.metricsName)

	return q, nil
}

func (q *queue[T]) retain() {
	q.refs.Add(1)
}

// unref drops one handle reference; the last one drains and frees the queue.
func (q *queue[T]) unref() {
	n := q.refs.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("handoff: handle reference count %d below zero", n))
	}
	if n == 0 {
		q.teardown.Do(q.release)
	}
}

// release must not run concurrently with any Send or Recv. It holds because
// it only runs once no handle remains.
func (q *queue[T]) release() {
	drained := q.buf.Drain(func(v T) {
		q.stats.recordDrop()
		if q.metrics != nil {
			q.metrics.recordDrop()
		}
		if q.opts.dropCallback != nil {
			q.opts.dropCallback(v)
		}
	})
	q.buf.Release()

	q.logger.Debug("handoff queue released",
		"topology", q.topology.String(),
		"mode", q.mode.String(),
		"drained", drained,
		"sends", q.stats.Sends(),
		"recvs", q.stats.Recvs())
}
