package harness

import (
	"context"
	"log/slog"
	"time"
)

// Sample is one reading of the cumulative send and receive counts.
type Sample struct {
	Sent     int64
	Received int64
	Elapsed  time.Duration // since the sampler started

	DeltaSent     int64
	DeltaReceived int64
	Window        time.Duration // since the previous sample
}

// PerMs converts a count over a duration into transfers per millisecond.
func PerMs(n int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / (float64(d) / float64(time.Millisecond))
}

// NsPer converts a count over a duration into nanoseconds per transfer.
func NsPer(n int64, d time.Duration) float64 {
	if n <= 0 {
		return 0
	}
	return float64(d.Nanoseconds()) / float64(n)
}

// Sampler periodically sums the worker counters and reports total and
// windowed throughput.
type Sampler struct {
	sent     []Counter
	received []Counter
	interval time.Duration
	logger   *slog.Logger

	// OnSample, if set, receives every sample after it is logged.
	OnSample func(Sample)
}

// NewSampler creates a Sampler over the given counters.
func NewSampler(sent, received []Counter, interval time.Duration, logger *slog.Logger) *Sampler {
	return &Sampler{
		sent:     sent,
		received: received,
		interval: interval,
		logger:   logger,
	}
}

// Run samples every interval until ctx is done.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	begin := time.Now()
	last := Sample{}
	lastAt := begin

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cur := Sample{
				Sent:     Sum(s.sent),
				Received: Sum(s.received),
				Elapsed:  now.Sub(begin),
				Window:   now.Sub(lastAt),
			}
			cur.DeltaSent = cur.Sent - last.Sent
			cur.DeltaReceived = cur.Received - last.Received

			s.logger.Info("throughput",
				"elapsed", cur.Elapsed.Round(time.Millisecond),
				"send_per_ms", int64(PerMs(cur.Sent, cur.Elapsed)),
				"ns_per_send", int64(NsPer(cur.Sent, cur.Elapsed)),
				"delta_send_per_ms", int64(PerMs(cur.DeltaSent, cur.Window)),
				"recv_per_ms", int64(PerMs(cur.Received, cur.Elapsed)),
				"ns_per_recv", int64(NsPer(cur.Received, cur.Elapsed)),
				"delta_recv_per_ms", int64(PerMs(cur.DeltaReceived, cur.Window)))

			if s.OnSample != nil {
				s.OnSample(cur)
			}
			last, lastAt = cur, now
		}
	}
}
