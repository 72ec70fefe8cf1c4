// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin

import "errors"

// Sentinel errors returned by frame and topology operations.
var (
	// ErrTopology is returned for input/output counts a module cannot serve.
	ErrTopology = errors.New("unsupported topology")
	// ErrGeometry is returned when two frames or configs do not match.
	ErrGeometry = errors.New("frame geometry mismatch")
	// ErrExpired is returned when a borrowed view is used after its call.
	ErrExpired = errors.New("borrowed frame expired")
	// ErrNotSlot is returned when an output-only operation is applied to
	// an input or retained frame.
	ErrNotSlot = errors.New("frame is not an output slot")
	// ErrAliasSource is returned when aliasing a frame that cannot back
	// an output.
	ErrAliasSource = errors.New("frame cannot be aliased")
)
