// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package host

import "errors"

// Error codes attached to oops errors returned by this package.
const (
	CodeAPIVersionMismatch = "API_VERSION_MISMATCH"
	CodeInvalidDescriptor  = "INVALID_DESCRIPTOR"
	CodeTopologyRejected   = "TOPOLOGY_REJECTED"
	CodeParamsRejected     = "PARAMS_REJECTED"
	CodeInitFailed         = "INIT_FAILED"
	CodeConfigureFailed    = "CONFIGURE_FAILED"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeProcessFailed      = "PROCESS_FAILED"
	CodeFlushFailed        = "FLUSH_FAILED"
	CodeOwnershipViolation = "OWNERSHIP_VIOLATION"
	CodeInvalidState       = "INVALID_STATE"
	CodeForeignInstance    = "FOREIGN_INSTANCE"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrAPIVersion is returned for descriptors built against another contract version.
	ErrAPIVersion = errors.New("api version mismatch")
	// ErrInvalidDescriptor is returned for descriptors missing required fields.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	// ErrInvalidState is returned for a lifecycle call made out of order.
	ErrInvalidState = errors.New("invalid lifecycle state")
	// ErrOwnership is returned when a module breaks the output ownership rules.
	ErrOwnership = errors.New("output ownership violated")
	// ErrForeignInstance is returned when destroying an instance with a
	// descriptor that did not create it.
	ErrForeignInstance = errors.New("instance belongs to another descriptor")
	// ErrModulePanic is returned when a module call panics.
	ErrModulePanic = errors.New("module panicked")
	// ErrModuleFailed is returned when a module reports failure without an error.
	ErrModuleFailed = errors.New("module reported failure")
)
