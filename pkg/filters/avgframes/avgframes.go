// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package avgframes is a 1:1 temporal filter that outputs the mean of the
// last N frames.
//
// The first N-1 calls to Process return TryAgain while the window fills.
// Each later call emits the mean of the window and drops its oldest frame.
// At end of stream Flush keeps emitting the mean of what remains, dropping
// the oldest frame each time, until the window is empty.
//
// Parameters: frames (window depth, default 3, clamped to [1, 16]).
package avgframes

import (
	"github.com/samber/oops"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Window limits.
const (
	DefaultFrames = 3
	MinFrames     = 1
	MaxFrames     = 16
)

var params = []frameplugin.ParamSpec{
	frameplugin.IntParam("frames", DefaultFrames, MinFrames, MaxFrames, "number of frames averaged"),
}

// Descriptor returns the avgframes module descriptor.
var Descriptor = frameplugin.Entry("avgframes", "Temporal mean over the last N frames (1:1)", New,
	frameplugin.WithVersion("1.0.0"),
	frameplugin.WithSupport(frameplugin.Fixed(1, 1)),
	frameplugin.WithParams(params...),
)

// Filter holds the retained frame window.
type Filter struct {
	depth  int
	window []*frameplugin.Frame
	sum    []uint32
}

// New creates an unconfigured avgframes instance.
func New() frameplugin.Plugin {
	return &Filter{depth: DefaultFrames}
}

// Depth returns the window depth chosen during Init.
func (f *Filter) Depth() int { return f.depth }

// Pending returns how many frames are currently retained.
func (f *Filter) Pending() int { return len(f.window) }

// Init implements frameplugin.Plugin.
func (f *Filter) Init(raw string, nbInputs, nbOutputs int) error {
	if err := frameplugin.Fixed(1, 1).Check(nbInputs, nbOutputs); err != nil {
		return err
	}
	p, _ := frameplugin.ParseParams(raw, params)
	f.depth = p.Int("frames")
	f.window = make([]*frameplugin.Frame, 0, f.depth)
	return nil
}

// Configure implements frameplugin.Plugin.
func (f *Filter) Configure(inputs, outputs []frameplugin.FrameConfig) error {
	outputs[0] = inputs[0]
	f.sum = make([]uint32, inputs[0].Size())
	return nil
}

// Process implements frameplugin.Plugin.
func (f *Filter) Process(inputs, outputs []*frameplugin.Frame) (frameplugin.Result, error) {
	kept, err := inputs[0].Retain()
	if err != nil {
		return frameplugin.ResultError, oops.Wrapf(err, "retain input")
	}
	f.window = append(f.window, kept)
	if len(f.window) < f.depth {
		return frameplugin.ResultTryAgain, nil
	}
	if err := f.emit(outputs[0]); err != nil {
		return frameplugin.ResultError, err
	}
	return frameplugin.ResultOK, nil
}

// Flush implements frameplugin.Plugin.
func (f *Filter) Flush(outputs []*frameplugin.Frame) bool {
	if len(f.window) == 0 {
		return false
	}
	return f.emit(outputs[0]) == nil
}

// Uninit implements frameplugin.Plugin.
func (f *Filter) Uninit() {
	for _, fr := range f.window {
		fr.Release()
	}
	f.window = nil
	f.sum = nil
}

// emit writes the window mean into out and drops the oldest frame.
func (f *Filter) emit(out *frameplugin.Frame) error {
	dst, err := out.Writable()
	if err != nil {
		return err
	}
	if len(f.window) == 1 {
		copy(dst, f.window[0].Pix())
	} else {
		clear(f.sum)
		for _, fr := range f.window {
			for i, v := range fr.Pix() {
				f.sum[i] += uint32(v)
			}
		}
		n := uint32(len(f.window))
		for i, s := range f.sum {
			dst[i] = byte((s + n/2) / n)
		}
	}

	f.window[0].Release()
	f.window[0] = nil
	f.window = f.window[1:]
	return nil
}
