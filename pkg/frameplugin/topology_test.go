// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidplug/vidplug/pkg/errutil"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

func TestTopology_Kind(t *testing.T) {
	tests := []struct {
		in, out int
		want    frameplugin.TopologyKind
	}{
		{1, 1, frameplugin.TopologyOneToOne},
		{2, 1, frameplugin.TopologyManyToOne},
		{8, 1, frameplugin.TopologyManyToOne},
		{1, 4, frameplugin.TopologyOneToMany},
		{2, 2, frameplugin.TopologyInvalid},
		{3, 5, frameplugin.TopologyInvalid},
		{0, 1, frameplugin.TopologyInvalid},
		{1, 0, frameplugin.TopologyInvalid},
		{-1, 1, frameplugin.TopologyInvalid},
	}

	for _, tt := range tests {
		topo := frameplugin.Topology{Inputs: tt.in, Outputs: tt.out}
		t.Run(topo.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, topo.Kind())
			if tt.want == frameplugin.TopologyInvalid {
				err := topo.Validate()
				require.Error(t, err)
				assert.True(t, errors.Is(err, frameplugin.ErrTopology))
				errutil.AssertErrorCode(t, err, "TOPOLOGY_REJECTED")
			} else {
				assert.NoError(t, topo.Validate())
			}
		})
	}
}

func TestSupport_CheckRejectsManyToManyRegardlessOfRange(t *testing.T) {
	wide := frameplugin.Support{MinInputs: 1, MaxInputs: 8, MinOutputs: 1, MaxOutputs: 8}

	for in := 2; in <= 4; in++ {
		for out := 2; out <= 4; out++ {
			err := wide.Check(in, out)
			require.Error(t, err, "%d:%d must be rejected", in, out)
			assert.ErrorIs(t, err, frameplugin.ErrTopology)
		}
	}
}

func TestSupport_Check(t *testing.T) {
	fanOut := frameplugin.FanOut(1, 4)

	assert.NoError(t, fanOut.Check(1, 1))
	assert.NoError(t, fanOut.Check(1, 4))
	assert.ErrorIs(t, fanOut.Check(1, 0), frameplugin.ErrTopology)
	assert.ErrorIs(t, fanOut.Check(1, 5), frameplugin.ErrTopology)
	assert.ErrorIs(t, fanOut.Check(2, 1), frameplugin.ErrTopology)

	blend := frameplugin.Fixed(2, 1)
	assert.NoError(t, blend.Check(2, 1))
	assert.Error(t, blend.Check(1, 1))
	assert.Error(t, blend.Check(3, 1))
}

func TestSupport_String(t *testing.T) {
	assert.Equal(t, "1:1", frameplugin.Fixed(1, 1).String())
	assert.Equal(t, "1:1-4", frameplugin.FanOut(1, 4).String())
	assert.Equal(t, "2+:1", frameplugin.FanIn(2, frameplugin.Unbounded).String())
}
