// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package plugin

import "errors"

// Error codes attached to oops errors returned by the plugin packages.
const (
	CodePluginLoadFailed = "PLUGIN_LOAD_FAILED"
	CodePluginNotFound   = "PLUGIN_NOT_FOUND"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrNotFound is returned when no loaded plugin has the requested name.
	ErrNotFound = errors.New("plugin not found")
	// ErrNoLoader is returned when no loader is registered for a manifest type.
	ErrNoLoader = errors.New("no loader for plugin type")
	// ErrNameMismatch is returned when a descriptor name differs from its manifest.
	ErrNameMismatch = errors.New("descriptor name does not match manifest")
)
