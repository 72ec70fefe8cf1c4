// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package builtin lists the filter modules compiled into the host.
package builtin

import (
	"github.com/vidplug/vidplug/pkg/filters/avgframes"
	"github.com/vidplug/vidplug/pkg/filters/blend"
	"github.com/vidplug/vidplug/pkg/filters/blur"
	"github.com/vidplug/vidplug/pkg/filters/split"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Descriptors returns the entry points of every builtin module.
func Descriptors() []frameplugin.DescriptorFunc {
	return []frameplugin.DescriptorFunc{
		avgframes.Descriptor,
		blend.Descriptor,
		blur.Descriptor,
		split.Descriptor,
	}
}
