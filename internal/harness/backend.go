package harness

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/handoff/pkg/handoff"
)

// Producer is the sending half a worker sees.
type Producer interface {
	Send(v int64)
}

// Consumer is the receiving half a worker sees.
type Consumer interface {
	Recv() int64
}

// backend hands out one endpoint per worker plus a control producer used
// to deliver stop values after every producer has finished.
type backend struct {
	producers []Producer
	consumers []Consumer
	control   Producer
	stats     *handoff.Statistics
	release   func()
}

func newBackend(cfg Config, logger *slog.Logger, registerer prometheus.Registerer) (*backend, error) {
	if cfg.Backend == BackendChannel {
		return newChannelBackend(cfg), nil
	}
	return newRingBackend(cfg, logger, registerer)
}

func newRingBackend(cfg Config, logger *slog.Logger, registerer prometheus.Registerer) (*backend, error) {
	opts := []handoff.Option[int64]{
		handoff.WithTopology[int64](cfg.Topology),
		handoff.WithLogger[int64](logger),
	}
	if registerer != nil {
		opts = append(opts, handoff.WithMetrics[int64](registerer, "ringbench"))
	}

	tx, rx, err := handoff.New[int64](cfg.Capacity, cfg.Mode, opts...)
	if err != nil {
		return nil, err
	}

	b := &backend{control: tx, stats: tx.Stats()}
	var senders []*handoff.Sender[int64]
	var receivers []*handoff.Receiver[int64]

	if cfg.Topology == handoff.SPSC {
		// The control sends happen after the producer exits, so sharing tx
		// keeps a single producer at any moment.
		senders = append(senders, tx)
		receivers = append(receivers, rx)
	} else {
		for i := 0; i < cfg.Producers; i++ {
			s, err := tx.Clone()
			if err != nil {
				return nil, err
			}
			senders = append(senders, s)
		}
		for i := 0; i < cfg.Consumers; i++ {
			r, err := rx.Clone()
			if err != nil {
				return nil, err
			}
			receivers = append(receivers, r)
		}
	}

	for _, s := range senders {
		b.producers = append(b.producers, s)
	}
	for _, r := range receivers {
		b.consumers = append(b.consumers, r)
	}

	b.release = func() {
		for _, s := range senders {
			s.Release()
		}
		for _, r := range receivers {
			r.Release()
		}
		tx.Release()
		rx.Release()
	}
	return b, nil
}
