// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package pipeline drives one configured filter instance from its sources
// to its sinks.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/internal/media"
	"github.com/vidplug/vidplug/internal/observability"
	"github.com/vidplug/vidplug/pkg/errutil"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Error codes for pipeline failures.
const (
	CodeWiring     = "PIPELINE_WIRING"
	CodeSourceFail = "SOURCE_FAILED"
	CodeSinkFail   = "SINK_FAILED"
)

// ErrWiring is returned when sources or sinks do not match the instance.
var ErrWiring = errors.New("pipeline wiring does not match instance")

// Stats summarizes a run.
type Stats struct {
	Steps     int
	FramesIn  int
	FramesOut int
	TryAgain  int
	Flushed   int
}

// Runner feeds one instance. It takes ownership of the instance: Run
// always uninitializes and destroys it before returning.
type Runner struct {
	inst    *host.Instance
	sources []media.Source
	sinks   []media.Sink
	metrics *observability.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger

	mu       sync.Mutex
	progress Stats
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records per-call metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTracer sets the tracer. Defaults to the global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New wires a configured instance to one source per input and one sink
// per output.
func New(inst *host.Instance, sources []media.Source, sinks []media.Sink, opts ...Option) (*Runner, error) {
	errb := oops.Code(CodeWiring).With("plugin", inst.Name())
	ins, outs := inst.InputConfigs(), inst.OutputConfigs()
	if ins == nil || outs == nil {
		return nil, errb.Wrapf(ErrWiring, "instance is not configured")
	}
	if len(sources) != len(ins) {
		return nil, errb.With("want", len(ins)).With("got", len(sources)).Wrapf(ErrWiring, "source count")
	}
	if len(sinks) != len(outs) {
		return nil, errb.With("want", len(outs)).With("got", len(sinks)).Wrapf(ErrWiring, "sink count")
	}
	for i, src := range sources {
		if src.Config() != ins[i] {
			return nil, errb.With("input", i).
				With("source", src.Config().String()).
				With("configured", ins[i].String()).
				Wrapf(ErrWiring, "source geometry")
		}
	}

	r := &Runner{
		inst:    inst,
		sources: sources,
		sinks:   sinks,
		tracer:  otel.Tracer("vidplug/pipeline"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("plugin", inst.Name(), "instance", inst.ID().String())
	return r, nil
}

// Run processes frames until any source ends, drains the instance with
// Flush, then uninitializes and destroys it. Cancelling ctx stops the run
// between calls; teardown still happens.
func (r *Runner) Run(ctx context.Context) (stats Stats, err error) {
	r.metrics.InstanceStarted()
	defer func() {
		if terr := r.teardown(); terr != nil && err == nil {
			err = terr
		}
		r.publish(stats)
		r.metrics.InstanceStopped()
		r.logger.InfoContext(ctx, "pipeline finished",
			"steps", stats.Steps,
			"frames_in", stats.FramesIn,
			"frames_out", stats.FramesOut,
			"try_again", stats.TryAgain,
			"flushed", stats.Flushed)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err //nolint:wrapcheck // context errors are returned as-is
		}

		inputs, err := r.pull(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}

		stats.Steps++
		stats.FramesIn += len(inputs)
		res, outs, err := r.process(ctx, inputs)
		if err != nil {
			return stats, err
		}
		if res == frameplugin.ResultTryAgain {
			stats.TryAgain++
			r.publish(stats)
			continue
		}
		if err := r.deliver(ctx, outs); err != nil {
			return stats, err
		}
		stats.FramesOut += len(outs)
		r.publish(stats)
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err //nolint:wrapcheck // context errors are returned as-is
		}
		ok, outs, err := r.flush(ctx)
		if err != nil {
			return stats, err
		}
		if !ok {
			return stats, nil
		}
		stats.Flushed++
		if err := r.deliver(ctx, outs); err != nil {
			return stats, err
		}
		stats.FramesOut += len(outs)
		r.publish(stats)
	}
}

// Progress returns the counters as of the last completed call. It is safe
// to call while Run is active.
func (r *Runner) Progress() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

func (r *Runner) publish(s Stats) {
	r.mu.Lock()
	r.progress = s
	r.mu.Unlock()
}

// pull reads one frame from every source. If any source ends or fails,
// the frames already read are released.
func (r *Runner) pull(ctx context.Context) ([]*frameplugin.Buffer, error) {
	inputs := make([]*frameplugin.Buffer, 0, len(r.sources))
	for i, src := range r.sources {
		b, err := src.Next(ctx)
		if err != nil {
			for _, in := range inputs {
				in.Unref()
			}
			if errors.Is(err, io.EOF) {
				r.logger.DebugContext(ctx, "source ended", "input", i)
				return nil, io.EOF
			}
			return nil, oops.Code(CodeSourceFail).With("input", i).Wrapf(err, "read source")
		}
		inputs = append(inputs, b)
	}
	return inputs, nil
}

func (r *Runner) process(ctx context.Context, inputs []*frameplugin.Buffer) (frameplugin.Result, []*frameplugin.Frame, error) {
	_, span := r.tracer.Start(ctx, "plugin.process",
		trace.WithAttributes(attribute.String("plugin.name", r.inst.Name())))
	defer span.End()

	start := time.Now()
	res, outs, err := r.inst.Process(inputs)
	for _, b := range inputs {
		b.Unref()
	}
	r.metrics.ObserveProcess(r.inst.Name(), res.String(), len(inputs), len(outs), time.Since(start))
	span.SetAttributes(attribute.String("plugin.result", res.String()))

	if err != nil {
		r.recordFailure(span, err)
		return res, nil, err
	}
	return res, outs, nil
}

func (r *Runner) flush(ctx context.Context) (bool, []*frameplugin.Frame, error) {
	_, span := r.tracer.Start(ctx, "plugin.flush",
		trace.WithAttributes(attribute.String("plugin.name", r.inst.Name())))
	defer span.End()

	ok, outs, err := r.inst.Flush()
	span.SetAttributes(attribute.Bool("plugin.produced", ok))
	if err != nil {
		r.recordFailure(span, err)
		return false, nil, err
	}
	if ok {
		r.metrics.ObserveFlush(r.inst.Name(), len(outs))
	}
	return ok, outs, nil
}

func (r *Runner) recordFailure(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code := errutil.Code(err); code != "" {
		r.metrics.ObserveViolation(r.inst.Name(), code)
	}
}

// deliver hands output i to sink i and releases every output.
func (r *Runner) deliver(ctx context.Context, outs []*frameplugin.Frame) error {
	defer host.ReleaseFrames(outs)
	for i, f := range outs {
		if err := r.sinks[i].Write(ctx, f); err != nil {
			return oops.Code(CodeSinkFail).With("output", i).Wrapf(err, "write sink")
		}
	}
	return nil
}

func (r *Runner) teardown() error {
	if err := r.inst.Destroy(); err != nil {
		r.logger.Warn("instance teardown failed", "error", err)
		return err
	}
	return nil
}
