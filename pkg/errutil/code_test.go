// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package errutil_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/vidplug/vidplug/pkg/errutil"
)

func TestCode(t *testing.T) {
	inner := oops.Code("OWNERSHIP_VIOLATION").Errorf("slot replaced")
	wrapped := oops.With("plugin", "split").Wrapf(inner, "process")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), ""},
		{"coded", inner, "OWNERSHIP_VIOLATION"},
		{"wrapped without code", wrapped, "OWNERSHIP_VIOLATION"},
		{"fmt wrapped", fmt.Errorf("run: %w", inner), "OWNERSHIP_VIOLATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errutil.Code(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := oops.Code("INIT_FAILED").Errorf("init")
	assert.True(t, errutil.HasCode(err, "INIT_FAILED"))
	assert.False(t, errutil.HasCode(err, "PROCESS_FAILED"))
	assert.False(t, errutil.HasCode(nil, ""))
}
