package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/encodeous/sensornet/perf"
	"github.com/encodeous/sensornet/state"
	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogmulti "github.com/samber/slog-multi"
)

// NewLogger writes to the console and, if logPath is not empty, to logPath as well.
// The returned closer releases the log file.
func NewLogger(prefix, logPath string, level slog.Level) (*slog.Logger, io.Closer, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        level,
			AddSource:    false,
			CustomPrefix: prefix,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	var closer io.Closer = io.NopCloser(nil)
	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, nil, err
		}
		closer = f
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

func ReadScenario(scenarioPath string) (*state.ScenarioCfg, error) {
	cfg := state.DefaultScenario()
	file, err := os.ReadFile(scenarioPath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	state.ExpandScenario(&cfg)
	return &cfg, nil
}

func WriteScenario(scenarioPath string, cfg *state.ScenarioCfg) error {
	bytes, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(scenarioPath, bytes, 0600)
}

func WriteStats(statsPath string, stats *SimStats) error {
	bytes, err := yaml.Marshal(stats)
	if err != nil {
		return err
	}
	return os.WriteFile(statsPath, bytes, 0600)
}

type StartOptions struct {
	Level slog.Level
	// MetricsAddr serves /metrics and /debug/metrics when not empty
	MetricsAddr string
	// OnReady is called after the network has converged for the first time
	OnReady func(sim *Simulation)
}

// Start validates the scenario, runs it to completion and returns its statistics. SIGINT or
// SIGTERM stops the run after the current step.
func Start(cfg state.ScenarioCfg, opts StartOptions) (*SimStats, error) {
	state.ExpandScenario(&cfg)
	if err := state.ScenarioValidator(&cfg); err != nil {
		return nil, err
	}
	logger, closer, err := NewLogger(cfg.Name, cfg.LogPath, opts.Level)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sim := NewSimulation(cfg, logger)
	logger.Info("starting simulation", "run", sim.RunId, "seed", cfg.Seed, "nodes", sim.Net.Len(), "steps", cfg.TimeSteps)

	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(perf.NewAccountingCollector(sim.Counters))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.Handle("/debug/metrics", http.DefaultServeMux)
		mux.Handle("/debug/vars", http.DefaultServeMux)
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", "err", err)
			}
		}()
		defer srv.Close()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	go func() {
		select {
		case <-c:
			cancel(errors.New("received shutdown signal"))
		case <-ctx.Done():
			return
		}
	}()

	if err := sim.Setup(); err != nil {
		return nil, err
	}
	if opts.OnReady != nil {
		opts.OnReady(sim)
	}
	return sim.Run(ctx)
}
