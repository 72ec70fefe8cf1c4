// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package builtin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/internal/plugin/builtin"
)

func TestDescriptors_AllVerify(t *testing.T) {
	seen := map[string]bool{}
	for _, fn := range builtin.Descriptors() {
		d := fn()
		require.NoError(t, host.VerifyDescriptor(d))
		assert.False(t, seen[d.Name], "duplicate builtin %s", d.Name)
		seen[d.Name] = true
		assert.Same(t, d, fn(), "descriptor for %s must be stable", d.Name)
	}
	assert.Len(t, seen, 4)
}
