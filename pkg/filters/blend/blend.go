// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package blend is a 2:1 filter that mixes two inputs.
//
// The second input is resampled to the first input's geometry and format
// when they differ. The output is in1*(1-alpha) + in2*alpha.
//
// Parameters: alpha (weight of the second input, default 0.5, clamped to [0, 1]).
package blend

import (
	"golang.org/x/image/draw"

	"github.com/vidplug/vidplug/pkg/filters/internal/imgproc"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// DefaultAlpha is the weight of the second input when alpha is not given.
const DefaultAlpha = 0.5

var params = []frameplugin.ParamSpec{
	frameplugin.FloatParam("alpha", DefaultAlpha, 0, 1, "weight of the second input"),
}

// Descriptor returns the blend module descriptor.
var Descriptor = frameplugin.Entry("blend", "Alpha blend of two inputs (2:1)", New,
	frameplugin.WithVersion("1.0.0"),
	frameplugin.WithSupport(frameplugin.Fixed(2, 1)),
	frameplugin.WithParams(params...),
)

// Filter mixes two frames into one.
type Filter struct {
	alpha   float64
	scratch *frameplugin.Frame
}

// New creates an unconfigured blend instance.
func New() frameplugin.Plugin {
	return &Filter{alpha: DefaultAlpha}
}

// Alpha returns the weight chosen during Init.
func (f *Filter) Alpha() float64 { return f.alpha }

// Init implements frameplugin.Plugin.
func (f *Filter) Init(raw string, nbInputs, nbOutputs int) error {
	if err := frameplugin.Fixed(2, 1).Check(nbInputs, nbOutputs); err != nil {
		return err
	}
	p, _ := frameplugin.ParseParams(raw, params)
	f.alpha = p.Float("alpha")
	return nil
}

// Configure implements frameplugin.Plugin. The output follows the first input.
func (f *Filter) Configure(inputs, outputs []frameplugin.FrameConfig) error {
	outputs[0] = inputs[0]
	if inputs[1] != inputs[0] {
		b, err := frameplugin.NewBuffer(inputs[0], nil)
		if err != nil {
			return err
		}
		f.scratch = frameplugin.NewSlot(b)
	}
	return nil
}

// Process implements frameplugin.Plugin.
func (f *Filter) Process(inputs, outputs []*frameplugin.Frame) (frameplugin.Result, error) {
	a, b, out := inputs[0], inputs[1], outputs[0]

	if f.alpha == 0 {
		if err := out.Alias(a); err != nil {
			return frameplugin.ResultError, err
		}
		return frameplugin.ResultOK, nil
	}

	second := b.Pix()
	if f.scratch != nil {
		dst, err := f.scratch.DrawImage()
		if err != nil {
			return frameplugin.ResultError, err
		}
		draw.BiLinear.Scale(dst, dst.Bounds(), b.Image(), b.Image().Bounds(), draw.Src, nil)
		second = f.scratch.Pix()
	} else if f.alpha == 1 {
		if err := out.Alias(b); err != nil {
			return frameplugin.ResultError, err
		}
		return frameplugin.ResultOK, nil
	}

	dst, err := out.Writable()
	if err != nil {
		return frameplugin.ResultError, err
	}
	first := a.Pix()
	for i := range dst {
		dst[i] = imgproc.ToByte(float64(first[i])*(1-f.alpha) + float64(second[i])*f.alpha)
	}
	return frameplugin.ResultOK, nil
}

// Flush implements frameplugin.Plugin. Blend keeps no history.
func (f *Filter) Flush([]*frameplugin.Frame) bool { return false }

// Uninit implements frameplugin.Plugin.
func (f *Filter) Uninit() {
	if f.scratch != nil {
		f.scratch.Release()
		f.scratch = nil
	}
}
