// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package split is a 1:N filter producing up to four views of one input.
//
// Output 0 is the input itself, passed through without copying. Output 1 is
// grayscale, output 2 an edge map and output 3 a strong blur. Every output
// keeps the input's geometry and pixel format.
package split

import (
	"github.com/vidplug/vidplug/pkg/filters/internal/imgproc"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Output limits and kernel settings.
const (
	MaxOutputs     = 4
	BlurKernel     = 15
	EdgeThreshold  = 100
	outPassthrough = 0
	outGray        = 1
	outEdges       = 2
	outBlur        = 3
)

var support = frameplugin.FanOut(1, MaxOutputs)

// Descriptor returns the split module descriptor.
var Descriptor = frameplugin.Entry("split", "Passthrough, gray, edges and blur views (1:1-4)", New,
	frameplugin.WithVersion("1.0.0"),
	frameplugin.WithSupport(support),
)

// Filter fans one input out to several outputs.
type Filter struct {
	nbOutputs int
}

// New creates an unconfigured split instance.
func New() frameplugin.Plugin {
	return &Filter{}
}

// Init implements frameplugin.Plugin.
func (f *Filter) Init(_ string, nbInputs, nbOutputs int) error {
	if err := support.Check(nbInputs, nbOutputs); err != nil {
		return err
	}
	f.nbOutputs = nbOutputs
	return nil
}

// Configure implements frameplugin.Plugin.
func (f *Filter) Configure(inputs, outputs []frameplugin.FrameConfig) error {
	for i := range outputs {
		outputs[i] = inputs[0]
	}
	return nil
}

// Process implements frameplugin.Plugin.
func (f *Filter) Process(inputs, outputs []*frameplugin.Frame) (frameplugin.Result, error) {
	in := inputs[0]
	cfg := in.Config()

	var gray []byte
	if len(outputs) > outGray {
		gray = imgproc.Luma(in.Pix(), cfg)
	}

	for i, out := range outputs {
		switch i {
		case outPassthrough:
			if err := out.Alias(in); err != nil {
				return frameplugin.ResultError, err
			}
		case outGray:
			dst, err := out.Writable()
			if err != nil {
				return frameplugin.ResultError, err
			}
			imgproc.ExpandGray(dst, gray, cfg)
		case outEdges:
			dst, err := out.Writable()
			if err != nil {
				return frameplugin.ResultError, err
			}
			imgproc.ExpandGray(dst, imgproc.SobelEdges(gray, cfg.Width, cfg.Height, EdgeThreshold), cfg)
		case outBlur:
			dst, err := out.Writable()
			if err != nil {
				return frameplugin.ResultError, err
			}
			imgproc.GaussianBlur(dst, in.Pix(), cfg, BlurKernel)
		}
	}
	return frameplugin.ResultOK, nil
}

// Flush implements frameplugin.Plugin. Split keeps no history.
func (f *Filter) Flush([]*frameplugin.Frame) bool { return false }

// Uninit implements frameplugin.Plugin.
func (f *Filter) Uninit() {}
