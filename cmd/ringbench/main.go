// Command ringbench drives producers and consumers through a handoff queue
// and reports throughput.
//
// Usage:
//
//	go run ./cmd/ringbench -topology spsc -mode condvar -duration 10s
//	go run ./cmd/ringbench -topology mpmc -mode busy-spin -p 4 -c 4 -n 1000000
//	go run ./cmd/ringbench -backend channel -topology mpmc -p 4 -c 4 -n 1000000
//	go run ./cmd/ringbench -config ringbench.yaml -metrics-addr :9090
//
// Flags given on the command line override values from -config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randomizedcoder/handoff/internal/harness"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ringbench:", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := harness.DefaultConfig()
	flagCfg := defaults

	configPath := flag.String("config", "", "YAML config file")
	flag.StringVar(&flagCfg.Backend, "backend", defaults.Backend, "queue backend: ring or channel")
	flag.TextVar(&flagCfg.Topology, "topology", defaults.Topology, "spsc or mpmc")
	flag.TextVar(&flagCfg.Mode, "mode", defaults.Mode, "busy-spin or condvar")
	flag.IntVar(&flagCfg.Capacity, "capacity", defaults.Capacity, "queue capacity (power of two for ring)")
	flag.IntVar(&flagCfg.Producers, "p", defaults.Producers, "number of producers")
	flag.IntVar(&flagCfg.Consumers, "c", defaults.Consumers, "number of consumers")
	flag.Int64Var(&flagCfg.Transfers, "n", defaults.Transfers, "values per producer (0 runs for -duration)")
	flag.DurationVar(&flagCfg.Duration, "duration", defaults.Duration, "run time when -n is 0")
	flag.DurationVar(&flagCfg.Interval, "interval", defaults.Interval, "throughput sample interval (0 disables)")
	flag.BoolVar(&flagCfg.Verify, "verify", defaults.Verify, "check per-producer ordering")
	flag.StringVar(&flagCfg.MetricsAddr, "metrics-addr", defaults.MetricsAddr, "serve Prometheus metrics on this address")

	var level slog.Level
	flag.TextVar(&level, "log-level", slog.LevelInfo, "log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "log as JSON")
	flag.Parse()

	cfg := defaults
	if *configPath != "" {
		var err error
		if cfg, err = harness.Load(*configPath); err != nil {
			return err
		}
	}
	applyFlags(&cfg, flagCfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(level, *logJSON)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var registerer prometheus.Registerer
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer = reg

		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	res, err := harness.Run(ctx, cfg, logger, registerer)
	if err != nil {
		return err
	}

	fmt.Println()
	res.Print(os.Stdout)

	if res.OrderViolations > 0 {
		return fmt.Errorf("%d ordering violations", res.OrderViolations)
	}
	return nil
}

// applyFlags copies every flag the user set explicitly from src into cfg.
func applyFlags(cfg *harness.Config, src harness.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = src.Backend
		case "topology":
			cfg.Topology = src.Topology
		case "mode":
			cfg.Mode = src.Mode
		case "capacity":
			cfg.Capacity = src.Capacity
		case "p":
			cfg.Producers = src.Producers
		case "c":
			cfg.Consumers = src.Consumers
		case "n":
			cfg.Transfers = src.Transfers
		case "duration":
			cfg.Duration = src.Duration
		case "interval":
			cfg.Interval = src.Interval
		case "verify":
			cfg.Verify = src.Verify
		case "metrics-addr":
			cfg.MetricsAddr = src.MetricsAddr
		}
	})
}

func newLogger(level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
