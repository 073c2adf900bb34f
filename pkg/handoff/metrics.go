package handoff

import (
	"github.com/prometheus/client_golang/prometheus"
)

// queueMetrics mirrors Statistics into Prometheus.
type queueMetrics struct {
	sends      prometheus.Counter
	recvs      prometheus.Counter
	fullWaits  prometheus.Counter
	emptyWaits prometheus.Counter
	drops      prometheus.Counter

	depth    prometheus.GaugeFunc // read from the live count at scrape time
	capacity prometheus.Gauge
}

func newQueueMetrics(registerer prometheus.Registerer, name string, capacity int64, depth func() int64) (*queueMetrics, error) {
	labels := prometheus.Labels{"queue": name}
	counter := func(metric, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "handoff",
			Subsystem:   "queue",
			Name:        metric,
			ConstLabels: labels,
			Help:        help,
		})
	}
	gauge := func(metric, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "handoff",
			Subsystem:   "queue",
			Name:        metric,
			ConstLabels: labels,
			Help:        help,
		})
	}

	depthGauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   "handoff",
		Subsystem:   "queue",
		Name:        "depth",
		ConstLabels: labels,
		Help:        "Current number of live elements",
	}, func() float64 { return float64(depth()) })

	m := &queueMetrics{
		sends:      counter("sends_total", "Total number of elements sent"),
		recvs:      counter("recvs_total", "Total number of elements received"),
		fullWaits:  counter("full_waits_total", "Total number of sends that waited for room"),
		emptyWaits: counter("empty_waits_total", "Total number of receives that waited for an element"),
		drops:      counter("drops_total", "Total number of elements drained at teardown"),
		depth:      depthGauge,
		capacity:   gauge("capacity", "Fixed number of slots"),
	}

	collectors := []prometheus.Collector{
		m.sends, m.recvs, m.fullWaits, m.emptyWaits, m.drops, m.depth, m.capacity,
	}
	for i, c := range collectors {
		if err := registerer.Register(c); err != nil {
			for _, done := range collectors[:i] {
				registerer.Unregister(done)
			}
			return nil, err
		}
	}

	m.capacity.Set(float64(capacity))
	return m, nil
}

func (m *queueMetrics) recordSend() { m.sends.Inc() }

func (m *queueMetrics) recordRecv() { m.recvs.Inc() }

func (m *queueMetrics) recordDrop() { m.drops.Inc() }
