package harness

import (
	"bytes"
	"fmt"
	"math/bits"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/randomizedcoder/handoff/internal/errs"
	"github.com/randomizedcoder/handoff/pkg/handoff"
)

const (
	// BackendRing runs the workload through a handoff queue.
	BackendRing = "ring"
	// BackendChannel runs the same workload through a buffered channel as a baseline.
	BackendChannel = "channel"
)

// maxTransfers keeps sequence numbers inside the low bits of an encoded value.
const maxTransfers = 1 << seqBits

// Config describes one harness run.
type Config struct {
	Backend   string           `yaml:"backend"`
	Topology  handoff.Topology `yaml:"topology"`
	Mode      handoff.WaitMode `yaml:"mode"`
	Capacity  int              `yaml:"capacity"`
	Producers int              `yaml:"producers"`
	Consumers int              `yaml:"consumers"`

	// Transfers is the number of values each producer sends. Zero means run
	// until Duration elapses or the context is cancelled.
	Transfers int64         `yaml:"transfers"`
	Duration  time.Duration `yaml:"duration"`

	// Interval between throughput samples. Zero disables sampling.
	Interval time.Duration `yaml:"interval"`

	// Verify checks per-producer ordering at every consumer.
	Verify bool `yaml:"verify"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns a one-producer, one-consumer CondVar run.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendRing,
		Topology:  handoff.SPSC,
		Mode:      handoff.CondVar,
		Capacity:  2 << 16,
		Producers: 1,
		Consumers: 1,
		Duration:  10 * time.Second,
		Interval:  time.Second,
		Verify:    true,
	}
}

// Load reads a YAML config file on top of DefaultConfig and validates it.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errs.WrapInvalid(err, "harness", "Load", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errs.WrapInvalid(fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err), "harness", "Load", path)
	}

	return cfg, cfg.Validate()
}

// Validate reports the first problem with the configuration.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errs.WrapInvalid(errs.ErrInvalidConfig, "harness", "Validate", fmt.Sprintf(format, args...))
	}

	switch c.Backend {
	case BackendRing, BackendChannel:
	default:
		return invalid("unknown backend %q", c.Backend)
	}
	if c.Capacity <= 0 {
		return invalid("capacity %d must be positive", c.Capacity)
	}
	if c.Backend == BackendRing && bits.OnesCount(uint(c.Capacity)) != 1 {
		return invalid("capacity %d must be a power of two", c.Capacity)
	}
	if c.Producers < 1 || c.Consumers < 1 {
		return invalid("need at least one producer and one consumer, got %d/%d", c.Producers, c.Consumers)
	}
	if c.Topology == handoff.SPSC && (c.Producers != 1 || c.Consumers != 1) {
		return invalid("spsc topology needs exactly one producer and one consumer, got %d/%d",
			c.Producers, c.Consumers)
	}
	if c.Producers > maxProducers {
		return invalid("at most %d producers, got %d", maxProducers, c.Producers)
	}
	if c.Transfers < 0 || c.Transfers >= maxTransfers {
		return invalid("transfers %d outside [0, %d)", c.Transfers, int64(maxTransfers))
	}
	if c.Transfers == 0 && c.Duration <= 0 {
		return invalid("either transfers or duration must be set")
	}
	if c.Interval < 0 {
		return invalid("interval %s must not be negative", c.Interval)
	}
	return nil
}
