// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package main

import (
	"context"

	"github.com/vidplug/vidplug/internal/observability"
)

// ObservabilityServer abstracts the metrics/health server for testing.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// ObservabilityServerFactory creates an observability server.
type ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker, opts ...observability.ServerOption) ObservabilityServer

// RunDeps holds injectable dependencies for the run command.
// Nil fields use the default implementations.
type RunDeps struct {
	ObservabilityServerFactory ObservabilityServerFactory
}

func (d *RunDeps) withDefaults() *RunDeps {
	out := RunDeps{}
	if d != nil {
		out = *d
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, opts ...observability.ServerOption) ObservabilityServer {
			return observability.NewServer(addr, ready, opts...)
		}
	}
	return &out
}
