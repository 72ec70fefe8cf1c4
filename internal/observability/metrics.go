// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// pluginLoadFailures is shared by every registry so loaders can record
// failures without a Server in hand.
var pluginLoadFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vidplug_plugin_load_failures_total",
		Help: "Total number of plugin load failures by loader kind",
	},
	[]string{"kind"},
)

// RecordPluginLoadFailure increments the plugin load failure counter.
func RecordPluginLoadFailure(kind string) {
	pluginLoadFailures.WithLabelValues(kind).Inc()
}

// Metrics holds the per-plugin pipeline counters.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FramesIn        *prometheus.CounterVec
	FramesOut       *prometheus.CounterVec
	ProcessCalls    *prometheus.CounterVec
	ProcessDuration *prometheus.HistogramVec
	FlushedFrames   *prometheus.CounterVec
	Violations      *prometheus.CounterVec
	Instances       prometheus.Gauge
}

// NewMetrics creates and registers the vidplug metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesIn: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidplug_frames_in_total",
				Help: "Total number of input frames handed to a plugin",
			},
			[]string{"plugin"},
		),
		FramesOut: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidplug_frames_out_total",
				Help: "Total number of output frames emitted by a plugin",
			},
			[]string{"plugin"},
		),
		ProcessCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidplug_process_calls_total",
				Help: "Total number of process calls by plugin and result",
			},
			[]string{"plugin", "result"},
		),
		ProcessDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vidplug_process_duration_seconds",
				Help:    "Wall time spent inside a plugin process call",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"plugin"},
		),
		FlushedFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidplug_flushed_frames_total",
				Help: "Total number of frames produced while draining",
			},
			[]string{"plugin"},
		),
		Violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidplug_contract_violations_total",
				Help: "Total number of contract violations by plugin and code",
			},
			[]string{"plugin", "code"},
		),
		Instances: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vidplug_active_instances",
				Help: "Number of plugin instances between init and uninit",
			},
		),
	}

	reg.MustRegister(m.FramesIn, m.FramesOut, m.ProcessCalls, m.ProcessDuration,
		m.FlushedFrames, m.Violations, m.Instances)
	reg.MustRegister(pluginLoadFailures)

	return m
}

// ObserveProcess records one process call.
func (m *Metrics) ObserveProcess(plugin, result string, inputs, outputs int, d time.Duration) {
	if m == nil {
		return
	}
	m.ProcessCalls.WithLabelValues(plugin, result).Inc()
	m.ProcessDuration.WithLabelValues(plugin).Observe(d.Seconds())
	m.FramesIn.WithLabelValues(plugin).Add(float64(inputs))
	if outputs > 0 {
		m.FramesOut.WithLabelValues(plugin).Add(float64(outputs))
	}
}

// ObserveFlush records frames produced by one successful flush call.
func (m *Metrics) ObserveFlush(plugin string, outputs int) {
	if m == nil {
		return
	}
	m.FlushedFrames.WithLabelValues(plugin).Add(float64(outputs))
	m.FramesOut.WithLabelValues(plugin).Add(float64(outputs))
}

// ObserveViolation records a contract violation reported by the host.
func (m *Metrics) ObserveViolation(plugin, code string) {
	if m == nil {
		return
	}
	m.Violations.WithLabelValues(plugin, code).Inc()
}

// InstanceStarted and InstanceStopped track live instances.
func (m *Metrics) InstanceStarted() {
	if m == nil {
		return
	}
	m.Instances.Inc()
}

func (m *Metrics) InstanceStopped() {
	if m == nil {
		return
	}
	m.Instances.Dec()
}
