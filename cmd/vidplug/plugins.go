// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vidplug/vidplug/internal/config"
	"github.com/vidplug/vidplug/internal/plugin"
	"github.com/vidplug/vidplug/internal/plugin/builtin"
	"github.com/vidplug/vidplug/internal/plugin/goplugin"
	pluginlua "github.com/vidplug/vidplug/internal/plugin/lua"
	"github.com/vidplug/vidplug/internal/plugin/shared"
)

// newManager builds a plugin manager with every loader registered.
func newManager(cfg *config.Config, logger *slog.Logger) (*plugin.Manager, error) {
	filter, err := plugin.CompileFilter(cfg.Filter)
	if err != nil {
		return nil, err //nolint:wrapcheck // already descriptive
	}

	opts := []plugin.ManagerOption{
		plugin.WithLogger(logger),
		plugin.WithFilter(filter),
		plugin.WithLoader(plugin.TypeShared, shared.NewLoader()),
		plugin.WithLoader(plugin.TypeBinary, goplugin.NewHost()),
		plugin.WithLoader(plugin.TypeLua, pluginlua.NewHost(pluginlua.WithLogger(logger))),
	}
	if cfg.Builtins {
		opts = append(opts, plugin.WithBuiltins(builtin.Descriptors()...))
	}
	return plugin.NewManager(cfg.PluginsDir, opts...), nil
}

// loadPlugins creates a manager and loads everything it can find. The
// caller must Close the returned manager.
func loadPlugins(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*plugin.Manager, error) {
	mgr, err := newManager(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := mgr.LoadAll(ctx); err != nil {
		_ = mgr.Close(ctx)
		return nil, fmt.Errorf("failed to load plugins: %w", err)
	}
	return mgr, nil
}
