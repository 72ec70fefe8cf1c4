// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error whose deepest code is
// code, e.g. host.CodeOwnershipViolation.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	require.Error(t, err)
	_, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	assert.Equal(t, code, Code(err), "error: %v", err)
}

// AssertErrorContext asserts that err carries key=value anywhere in its
// oops context chain.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	ctx := oopsErr.Context()
	require.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertPluginError asserts that err has code and was raised for the named
// plugin. Host, loader and pipeline failures all tag the plugin name.
func AssertPluginError(t testing.TB, err error, code, plugin string) {
	t.Helper()
	AssertErrorCode(t, err, code)
	AssertErrorContext(t, err, "plugin", plugin)
}
