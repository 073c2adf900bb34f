package handoff

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a queue using the functional options pattern.
type Option[T any] func(*options[T])

// DropCallback receives each element still live in the queue when the last
// handle is released. It is called exactly once per element, in FIFO order.
type DropCallback[T any] func(item T)

type options[T any] struct {
	topology     Topology
	dropCallback DropCallback[T]

	// registerer is optional; when set, statistics are also exported as Prometheus metrics
	registerer  prometheus.Registerer
	metricsName string

	logger *slog.Logger
}

// WithTopology selects SPSC (the default) or MPMC.
func WithTopology[T any](topology Topology) Option[T] {
	return func(opts *options[T]) {
		opts.topology = topology
	}
}

// WithDropCallback sets the function that receives undelivered elements at teardown.
func WithDropCallback[T any](callback DropCallback[T]) Option[T] {
	return func(opts *options[T]) {
		opts.dropCallback = callback
	}
}

// WithMetrics exports queue statistics through Prometheus, labelled with name.
// The option is ignored when registerer is nil or name is empty.
func WithMetrics[T any](registerer prometheus.Registerer, name string) Option[T] {
	return func(opts *options[T]) {
		if registerer != nil && name != "" {
			opts.registerer = registerer
			opts.metricsName = name
		}
	}
}

// WithLogger sets the logger used for lifecycle events. Defaults to slog.Default().
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(opts *options[T]) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

func applyOptions[T any](opts ...Option[T]) *options[T] {
	o := &options[T]{
		topology: SPSC,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
