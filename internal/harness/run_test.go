package harness

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/handoff/pkg/handoff"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func countConfig(backend string, topology handoff.Topology, mode handoff.WaitMode, producers, consumers int) Config {
	cfg := DefaultConfig()
	cfg.Backend = backend
	cfg.Topology = topology
	cfg.Mode = mode
	cfg.Capacity = 16
	cfg.Producers = producers
	cfg.Consumers = consumers
	cfg.Transfers = 2000
	cfg.Interval = 0
	return cfg
}

func TestEncodeDecode(t *testing.T) {
	for _, tc := range []struct {
		producer int
		seq      int64
	}{
		{0, 0},
		{0, 1},
		{3, 12345},
		{maxProducers - 1, maxTransfers - 1},
	} {
		v := Encode(tc.producer, tc.seq)
		assert.GreaterOrEqual(t, v, int64(0))
		p, seq := Decode(v)
		assert.Equal(t, tc.producer, p)
		assert.Equal(t, tc.seq, seq)
	}
}

func TestOrderChecker(t *testing.T) {
	c := newOrderChecker(2)

	// Interleaved producers, each in order.
	for _, v := range []int64{Encode(0, 0), Encode(1, 0), Encode(0, 1), Encode(1, 5), Encode(0, 2)} {
		c.observe(v)
	}
	assert.Equal(t, int64(0), c.violations)

	c.observe(Encode(1, 3)) // went backwards
	c.observe(Encode(0, 2)) // duplicate
	c.observe(Encode(7, 0)) // unknown producer
	assert.Equal(t, int64(3), c.violations)
}

func TestRun_FixedCount(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"ring spsc busy-spin", countConfig(BackendRing, handoff.SPSC, handoff.BusySpin, 1, 1)},
		{"ring spsc condvar", countConfig(BackendRing, handoff.SPSC, handoff.CondVar, 1, 1)},
		{"ring mpmc busy-spin", countConfig(BackendRing, handoff.MPMC, handoff.BusySpin, 4, 3)},
		{"ring mpmc condvar", countConfig(BackendRing, handoff.MPMC, handoff.CondVar, 4, 3)},
		{"channel", countConfig(BackendChannel, handoff.MPMC, handoff.CondVar, 4, 3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Run(context.Background(), tc.cfg, discardLogger(), nil)
			require.NoError(t, err)

			want := tc.cfg.Transfers * int64(tc.cfg.Producers)
			assert.Equal(t, want, res.Sent)
			assert.Equal(t, want, res.Received)
			assert.Equal(t, int64(0), res.OrderViolations)
			assert.Positive(t, res.Elapsed)

			if tc.cfg.Backend == BackendChannel {
				assert.Nil(t, res.Queue)
				return
			}
			require.NotNil(t, res.Queue)
			// Stop values travel through the queue too.
			assert.Equal(t, want+int64(tc.cfg.Consumers), res.Queue.Sends)
			assert.Equal(t, want+int64(tc.cfg.Consumers), res.Queue.Recvs)
			assert.LessOrEqual(t, res.Queue.MaxDepth, int64(tc.cfg.Capacity))
		})
	}
}

func TestRun_Duration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Duration = 50 * time.Millisecond
	cfg.Interval = 0

	res, err := Run(context.Background(), cfg, discardLogger(), nil)
	require.NoError(t, err)

	assert.Positive(t, res.Sent)
	assert.Equal(t, res.Sent, res.Received)
	assert.Equal(t, int64(0), res.OrderViolations)
	assert.Positive(t, res.Elapsed)
}

func TestRun_ContextCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Duration = time.Hour
	cfg.Interval = 0

	ctx, cancelRun := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancelRun()

	done := make(chan Result, 1)
	go func() {
		res, err := Run(ctx, cfg, discardLogger(), nil)
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case res := <-done:
		assert.Equal(t, res.Sent, res.Received)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 3

	_, err := Run(context.Background(), cfg, discardLogger(), nil)
	require.Error(t, err)
}

func TestRun_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := countConfig(BackendRing, handoff.MPMC, handoff.CondVar, 2, 2)

	res, err := Run(context.Background(), cfg, discardLogger(), reg)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "handoff_queue_recvs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, res.Received+int64(cfg.Consumers), res.Queue.Recvs)
}

func TestRun_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := countConfig(BackendRing, handoff.SPSC, handoff.CondVar, 1, 1)
	_, err := Run(context.Background(), cfg, logger, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "run starting")
	assert.Contains(t, out, "run finished")
	assert.Contains(t, out, "received=2000")
}

func TestSampler(t *testing.T) {
	sent := make([]Counter, 2)
	received := make([]Counter, 1)

	var samples atomic.Int64
	var last atomic.Value
	s := NewSampler(sent, received, 5*time.Millisecond, discardLogger())
	s.OnSample = func(smp Sample) {
		samples.Add(1)
		last.Store(smp)
	}

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	for i := 0; i < 10; i++ {
		sent[0].Inc()
		sent[1].Inc()
		received[0].Inc()
	}

	require.Eventually(t, func() bool {
		v, ok := last.Load().(Sample)
		return ok && v.Sent == 20 && v.Received == 10
	}, 5*time.Second, time.Millisecond)

	stop()
	<-done
	assert.Positive(t, samples.Load())
}

func TestRates(t *testing.T) {
	assert.InDelta(t, 1000.0, PerMs(1_000_000, time.Second), 1e-9)
	assert.InDelta(t, 1000.0, NsPer(1_000_000, time.Second), 1e-9)
	assert.Zero(t, PerMs(10, 0))
	assert.Zero(t, NsPer(0, time.Second))
}

func TestResult_Print(t *testing.T) {
	cfg := countConfig(BackendRing, handoff.SPSC, handoff.BusySpin, 1, 1)
	res, err := Run(context.Background(), cfg, discardLogger(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	res.Print(&buf)
	out := buf.String()

	assert.Contains(t, out, "ring/spsc/busy-spin")
	assert.Contains(t, out, "Received:  2000")
	assert.Contains(t, out, "0 violations")
	assert.Contains(t, out, "Queue statistics:")
}

func TestCounter_Sum(t *testing.T) {
	cs := make([]Counter, 3)
	cs[0].Inc()
	cs[2].Inc()
	cs[2].Inc()
	assert.Equal(t, int64(3), Sum(cs))
	assert.Equal(t, int64(2), cs[2].Load())
}
