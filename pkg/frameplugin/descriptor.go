// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin

import (
	"io"
	"sync"
)

// APIVersion is the contract version this package implements. A host
// rejects any descriptor reporting a different value.
const APIVersion = 1

// DescriptorSymbol is the exported function a shared module must provide.
// Its signature is DescriptorFunc.
const DescriptorSymbol = "GetDescriptor"

// DescriptorFunc returns a module's process-wide descriptor.
type DescriptorFunc func() *Descriptor

// Descriptor is the immutable metadata and factory pair of one module.
// Hosts must not modify a descriptor after it has been returned.
type Descriptor struct {
	APIVersion  int
	Name        string
	Description string
	// Version is the module's semantic version, informational only.
	Version string
	// Support is the topology range the module accepts. Hosts use it for
	// listing; Init remains authoritative.
	Support Support
	// Params lists the recognized parameters. Hosts running a strict
	// parameter policy validate the parameter string against it.
	Params []ParamSpec

	Create  func() Plugin
	Destroy func(Plugin)
}

// EntryOption customizes the descriptor built by Entry.
type EntryOption func(*Descriptor)

// WithVersion sets the module version.
func WithVersion(v string) EntryOption {
	return func(d *Descriptor) { d.Version = v }
}

// WithSupport declares the topology range.
func WithSupport(s Support) EntryOption {
	return func(d *Descriptor) { d.Support = s }
}

// WithParams declares the recognized parameters.
func WithParams(specs ...ParamSpec) EntryOption {
	return func(d *Descriptor) { d.Params = specs }
}

// Entry builds a module's DescriptorFunc. The descriptor is constructed on
// the first call and every later call returns the same pointer.
//
// The generated Destroy closes instances implementing io.Closer and
// otherwise leaves them to the garbage collector.
func Entry(name, description string, factory func() Plugin, opts ...EntryOption) DescriptorFunc {
	return sync.OnceValue(func() *Descriptor {
		d := &Descriptor{
			APIVersion:  APIVersion,
			Name:        name,
			Description: description,
			Support:     Fixed(1, 1),
			Create:      factory,
			Destroy:     destroyInstance,
		}
		for _, opt := range opts {
			opt(d)
		}
		return d
	})
}

func destroyInstance(p Plugin) {
	if c, ok := p.(io.Closer); ok {
		_ = c.Close()
	}
}
