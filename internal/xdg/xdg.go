// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package xdg resolves the XDG base directories vidplug reads plugins and
// configuration from.
package xdg

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "vidplug"

// base returns $env, or $HOME joined with fallback when env is unset.
func base(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	parts := append([]string{os.Getenv("HOME")}, fallback...)
	return filepath.Join(append(parts, appName)...)
}

// ConfigDir returns $XDG_CONFIG_HOME/vidplug or ~/.config/vidplug.
func ConfigDir() string { return base("XDG_CONFIG_HOME", ".config") }

// DataDir returns $XDG_DATA_HOME/vidplug or ~/.local/share/vidplug.
func DataDir() string { return base("XDG_DATA_HOME", ".local", "share") }

// PluginsDir returns the default directory searched for plugin manifests.
func PluginsDir() string {
	return filepath.Join(DataDir(), "plugins")
}

// ConfigFile returns the default run configuration path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// EnsureDir creates path and its parents with 0750 permissions, the mode
// used for sink output directories.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}
