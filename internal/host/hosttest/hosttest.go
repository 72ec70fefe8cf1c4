// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package hosttest provides helpers for driving modules in tests.
package hosttest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Fill returns a pooled buffer for cfg with every byte set to v.
func Fill(t *testing.T, pool *host.BufferPool, cfg frameplugin.FrameConfig, v byte) *frameplugin.Buffer {
	t.Helper()
	b, err := pool.Get(cfg)
	require.NoError(t, err)
	for i := range b.Bytes() {
		b.Bytes()[i] = v
	}
	return b
}

// Start creates, initializes and configures an instance of desc with one
// input per entry in inputs. The instance is destroyed when the test ends
// unless the test destroyed it already.
func Start(t *testing.T, desc *frameplugin.Descriptor, params string, pool *host.BufferPool, inputs []frameplugin.FrameConfig, nbOutputs int) *host.Instance {
	t.Helper()
	inst, err := host.New(desc, host.WithPool(pool))
	require.NoError(t, err)
	t.Cleanup(func() {
		if inst.State() != host.StateDestroyed {
			_ = inst.Destroy()
		}
	})
	require.NoError(t, inst.Init(params, len(inputs), nbOutputs))
	_, err = inst.Configure(inputs)
	require.NoError(t, err)
	return inst
}

// ProcessOne runs one Process call and releases the caller's input
// references afterwards.
func ProcessOne(t *testing.T, inst *host.Instance, inputs ...*frameplugin.Buffer) (frameplugin.Result, []*frameplugin.Frame) {
	t.Helper()
	res, outs, err := inst.Process(inputs)
	for _, b := range inputs {
		b.Unref()
	}
	require.NoError(t, err)
	return res, outs
}

// Drain calls Flush until it reports nothing left and returns every
// produced frame set.
func Drain(t *testing.T, inst *host.Instance) [][]*frameplugin.Frame {
	t.Helper()
	var sets [][]*frameplugin.Frame
	for {
		ok, outs, err := inst.Flush()
		require.NoError(t, err)
		if !ok {
			return sets
		}
		sets = append(sets, outs)
	}
}

// InitError returns the error from Init for the given topology.
func InitError(t *testing.T, desc *frameplugin.Descriptor, params string, nbInputs, nbOutputs int) error {
	t.Helper()
	inst, err := host.New(desc)
	require.NoError(t, err)
	defer func() { _ = inst.Destroy() }()
	return inst.Init(params, nbInputs, nbOutputs)
}
