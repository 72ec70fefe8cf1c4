// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package frameplugin defines the contract between a vidplug host and a
// separately compiled frame-processing module.
//
// A module exposes exactly one entry point, a function named by
// DescriptorSymbol that returns its Descriptor. The host verifies the
// descriptor's APIVersion, creates an instance through Descriptor.Create and
// drives it through the lifecycle:
//
//	Init -> Configure -> Process* -> Flush* -> Uninit
//
// before handing it back to Descriptor.Destroy.
//
// Inputs reach the module as borrowed, read-only views that expire when the
// call returns. Outputs are pre-allocated slots. A module fills an output
// either by writing into the slot (Writable, CopyFrom, DrawImage) or by
// aliasing an input or retained frame into it (Alias). Slots cannot be
// reallocated.
//
// Example module:
//
//	package main
//
//	import "github.com/vidplug/vidplug/pkg/frameplugin"
//
//	type passthrough struct{}
//
//	func (passthrough) Init(_ string, in, out int) error {
//		return frameplugin.Fixed(1, 1).Check(in, out)
//	}
//	func (passthrough) Configure(_, _ []frameplugin.FrameConfig) error { return nil }
//	func (passthrough) Process(in, out []*frameplugin.Frame) (frameplugin.Result, error) {
//		if err := out[0].Alias(in[0]); err != nil {
//			return frameplugin.ResultError, err
//		}
//		return frameplugin.ResultOK, nil
//	}
//	func (passthrough) Flush([]*frameplugin.Frame) bool { return false }
//	func (passthrough) Uninit()                          {}
//
//	var descriptor = frameplugin.Entry("passthrough", "Copies input to output",
//		func() frameplugin.Plugin { return passthrough{} })
//
//	func GetDescriptor() *frameplugin.Descriptor { return descriptor() }
package frameplugin
