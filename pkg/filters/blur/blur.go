// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package blur is a 1:1 Gaussian blur filter.
//
// Parameters: ksize (odd kernel size, default 5; even values are bumped up
// by one, values below 1 become 1, values above MaxKernelSize become
// MaxKernelSize).
package blur

import (
	"github.com/vidplug/vidplug/pkg/filters/internal/imgproc"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Kernel size bounds. MaxKernelSize keeps the per-call kernel and the
// O(ksize) work per pixel bounded.
const (
	DefaultKernelSize = 5
	MaxKernelSize     = 255
)

var params = []frameplugin.ParamSpec{
	frameplugin.OddIntParam("ksize", DefaultKernelSize, 1, MaxKernelSize, "Gaussian kernel size in pixels"),
}

// Descriptor returns the blur module descriptor.
var Descriptor = frameplugin.Entry("blur", "Gaussian blur (1:1)", New,
	frameplugin.WithVersion("1.0.0"),
	frameplugin.WithSupport(frameplugin.Fixed(1, 1)),
	frameplugin.WithParams(params...),
)

// Filter blurs each input frame into its output slot.
type Filter struct {
	ksize int
}

// New creates an unconfigured blur instance.
func New() frameplugin.Plugin {
	return &Filter{ksize: DefaultKernelSize}
}

// KernelSize returns the kernel size chosen during Init.
func (f *Filter) KernelSize() int { return f.ksize }

// Init implements frameplugin.Plugin.
func (f *Filter) Init(raw string, nbInputs, nbOutputs int) error {
	if err := frameplugin.Fixed(1, 1).Check(nbInputs, nbOutputs); err != nil {
		return err
	}
	p, _ := frameplugin.ParseParams(raw, params)
	f.ksize = p.Int("ksize")
	return nil
}

// Configure implements frameplugin.Plugin.
func (f *Filter) Configure(inputs, outputs []frameplugin.FrameConfig) error {
	outputs[0] = inputs[0]
	return nil
}

// Process implements frameplugin.Plugin.
func (f *Filter) Process(inputs, outputs []*frameplugin.Frame) (frameplugin.Result, error) {
	in, out := inputs[0], outputs[0]
	if f.ksize <= 1 {
		if err := out.CopyFrom(in); err != nil {
			return frameplugin.ResultError, err
		}
		return frameplugin.ResultOK, nil
	}
	dst, err := out.Writable()
	if err != nil {
		return frameplugin.ResultError, err
	}
	imgproc.GaussianBlur(dst, in.Pix(), in.Config(), f.ksize)
	return frameplugin.ResultOK, nil
}

// Flush implements frameplugin.Plugin. Blur keeps no history.
func (f *Filter) Flush([]*frameplugin.Frame) bool { return false }

// Uninit implements frameplugin.Plugin.
func (f *Filter) Uninit() {}
