// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/vidplug/vidplug/internal/config"
	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/internal/logging"
	"github.com/vidplug/vidplug/internal/media"
	"github.com/vidplug/vidplug/internal/observability"
	"github.com/vidplug/vidplug/internal/pipeline"
	"github.com/vidplug/vidplug/internal/xdg"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one plugin over generated input streams",
		Long: `Loads the configured plugin, feeds it one frame per input source per step,
drains it at end of stream and writes every output frame to a sink.

Each --inputs entry is a source: "testsrc" (moving gradient over colour bars),
"color:#rrggbb" or "color:r,g,b".`,
		Example: `  vidplug run --plugin blur --params ksize=7 --sink png --output-dir out
  vidplug run --plugin blend --inputs testsrc,color:#0000ff --sink hash`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipelineWithDeps(cmd.Context(), cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runPipelineWithDeps runs one pipeline with injectable dependencies.
// If deps is nil, default implementations are used.
func runPipelineWithDeps(ctx context.Context, cmd *cobra.Command, deps *RunDeps) error {
	deps = deps.withDefaults()

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWith(ctx, slog.String("run", ulid.Make().String()))

	mgr, err := loadPlugins(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := mgr.Close(context.Background()); closeErr != nil {
			logger.Warn("error closing plugin loaders", "error", closeErr)
		}
	}()

	desc, err := mgr.Descriptor(cfg.Plugin)
	if err != nil {
		return fmt.Errorf("failed to find plugin: %w", err)
	}

	// Validate has already accepted both values.
	policy, _ := host.ParseParamPolicy(cfg.ParamPolicy)
	frameCfg, _ := cfg.FrameConfig()

	pool := host.NewBufferPool()
	inst, err := host.New(desc, host.WithPool(pool), host.WithLogger(logger), host.WithParamPolicy(policy))
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}

	// The runner owns the instance once it exists; until then tear it down here.
	var owned bool
	defer func() {
		if !owned {
			if destroyErr := inst.Destroy(); destroyErr != nil {
				logger.Debug("error destroying instance", "error", destroyErr)
			}
		}
	}()

	if err := inst.Init(cfg.Params, len(cfg.Inputs), cfg.Outputs); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", cfg.Plugin, err)
	}

	inputCfgs := make([]frameplugin.FrameConfig, len(cfg.Inputs))
	for i := range inputCfgs {
		inputCfgs[i] = frameCfg
	}
	outputCfgs, err := inst.Configure(inputCfgs)
	if err != nil {
		return fmt.Errorf("failed to configure %s: %w", cfg.Plugin, err)
	}

	sources := make([]media.Source, len(cfg.Inputs))
	for i, spec := range cfg.Inputs {
		sources[i], err = media.ParseSource(spec, frameCfg, cfg.Frames, pool)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}

	sinks, err := openSinks(cfg, len(outputCfgs), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			if closeErr := s.Close(); closeErr != nil {
				logger.Warn("error closing sink", "error", closeErr)
			}
		}
	}()

	var metrics *observability.Metrics
	var active atomic.Pointer[pipeline.Runner]
	if cfg.MetricsAddr != "" {
		var running atomic.Bool
		running.Store(true)
		defer running.Store(false)

		status := func() any {
			st := RunStatus{Plugin: desc.Name, Instance: inst.ID().String(), State: inst.State().String()}
			if r := active.Load(); r != nil {
				st.Stats = r.Progress()
			}
			return st
		}
		obsServer := deps.ObservabilityServerFactory(cfg.MetricsAddr, running.Load, observability.WithStatus(status))
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
				logger.Warn("failed to stop observability server", "error", stopErr)
			}
		}()
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)

		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	runner, err := pipeline.New(inst, sources, sinks,
		pipeline.WithMetrics(metrics),
		pipeline.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to wire pipeline: %w", err)
	}
	owned = true
	active.Store(runner)

	logger.Info("starting pipeline",
		"plugin", desc.Name,
		"inputs", len(sources),
		"outputs", len(sinks),
		"geometry", frameCfg.String(),
		"frames", cfg.Frames)

	stats, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline failed after %d steps: %w", stats.Steps, err)
	}
	if leaked := pool.Outstanding(); leaked != 0 {
		logger.Warn("buffers still referenced after run", "count", leaked)
	}
	return nil
}

// RunStatus is served on the observability server's /status endpoint.
type RunStatus struct {
	Plugin   string         `json:"plugin"`
	Instance string         `json:"instance"`
	State    string         `json:"state"`
	Stats    pipeline.Stats `json:"stats"`
}

// setupLogging installs the default logger described by cfg.
func setupLogging(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err //nolint:wrapcheck // already descriptive
	}
	return logging.SetDefault(logging.Options{
		Service: "vidplug",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   level,
		Output:  w,
	}), nil
}

// nopCloser keeps a sink from closing stdout.
type nopCloser struct{ io.Writer }

// openSinks creates one sink per output.
func openSinks(cfg *config.Config, n int, stdout io.Writer) ([]media.Sink, error) {
	sinks := make([]media.Sink, 0, n)
	for i := range n {
		sink, err := openSink(cfg, i, n, stdout)
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func openSink(cfg *config.Config, i, n int, stdout io.Writer) (media.Sink, error) {
	prefix := fmt.Sprintf("out%d_", i)
	switch cfg.Sink {
	case config.SinkDiscard:
		return &media.DiscardSink{}, nil
	case config.SinkHash:
		if n == 1 {
			return media.NewHashSink(nopCloser{stdout}), nil
		}
		if err := xdg.EnsureDir(cfg.OutputDir); err != nil {
			return nil, err //nolint:wrapcheck // already descriptive
		}
		f, err := os.Create(filepath.Join(cfg.OutputDir, fmt.Sprintf("out%d.hash", i)))
		if err != nil {
			return nil, fmt.Errorf("failed to create hash file: %w", err)
		}
		return media.NewHashSink(f), nil
	default:
		enc, err := media.ParseEncoding(cfg.Sink)
		if err != nil {
			return nil, err //nolint:wrapcheck // already descriptive
		}
		return media.NewImageSink(cfg.OutputDir, prefix, enc) //nolint:wrapcheck // already descriptive
	}
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string, logger *slog.Logger) {
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server error, stopping pipeline", "server", name, "error", err)
			cancel()
		}
	}
}
