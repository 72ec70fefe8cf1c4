// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vidplug/vidplug/internal/config"
	"github.com/vidplug/vidplug/internal/plugin"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	var load bool

	cmd := &cobra.Command{
		Use:   "validate [plugin-dir...]",
		Short: "Validate plugin manifests without running them",
		Long: `Checks each plugin directory's plugin.yaml against the manifest JSON Schema
and the manifest rules. With --load the plugin is also loaded through its
loader and its descriptor verified.

Without arguments every directory under --plugins-dir is checked.
Exits with code 0 on success, non-zero on failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err //nolint:wrapcheck // already descriptive
			}
			return runValidate(cmd.Context(), cmd, cfg, args, load)
		},
	}

	cmd.Flags().String("plugins-dir", config.Default().PluginsDir, "directory searched when no plugin directories are given")
	cmd.Flags().BoolVar(&load, "load", false, "also load each plugin and verify its descriptor")

	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, dirs []string, load bool) error {
	logger := quietLogger(cmd)

	if len(dirs) == 0 {
		entries, err := os.ReadDir(cfg.PluginsDir)
		if err != nil {
			return fmt.Errorf("failed to read plugins directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(cfg.PluginsDir, e.Name()))
			}
		}
	}

	// Builtins stay out so a plugin sharing a builtin name is still loaded.
	loadCfg := *cfg
	loadCfg.Builtins = false
	loadCfg.Filter = ""
	mgr, err := newManager(&loadCfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Close(ctx) }()

	failed := 0
	for _, dir := range dirs {
		name, err := validateDir(ctx, mgr, dir, load)
		if err != nil {
			failed++
			var serr *plugin.SchemaError
			if errors.As(err, &serr) {
				cmd.PrintErrf("FAIL %s:\n", dir)
				for _, issue := range serr.Issues {
					cmd.PrintErrf("       %s\n", issue)
				}
				continue
			}
			cmd.PrintErrf("FAIL %s: %s\n", dir, plugin.FormatSchemaError(err))
			continue
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%s)\n", dir, name)
	}

	if failed > 0 {
		return fmt.Errorf("validation failed: %d of %d plugins invalid", failed, len(dirs))
	}
	return nil
}

func validateDir(ctx context.Context, mgr *plugin.Manager, dir string, load bool) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, plugin.ManifestFile)) //nolint:gosec // dir is operator-supplied
	if err != nil {
		return "", fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := plugin.ValidateSchema(data); err != nil {
		return "", err //nolint:wrapcheck // reported per issue
	}
	manifest, err := plugin.ParseManifest(data)
	if err != nil {
		return "", err //nolint:wrapcheck // already descriptive
	}
	if load {
		if err := mgr.LoadPlugin(ctx, &plugin.DiscoveredPlugin{Manifest: manifest, Dir: dir}); err != nil {
			return "", err //nolint:wrapcheck // already descriptive
		}
	}
	return manifest.Name, nil
}
