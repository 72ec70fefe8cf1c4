// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package main packages the two-input alpha blend filter as a loadable module.
//
// Out-of-process (plugin.yaml type: binary):
//
//	go build -o plugins/blend/blend-plugin ./plugins/blend
//
// Shared library (plugin.yaml type: shared):
//
//	go build -buildmode=plugin -o plugins/blend/blend.so ./plugins/blend
package main

import (
	"github.com/vidplug/vidplug/pkg/filters/blend"
	"github.com/vidplug/vidplug/pkg/frameplugin"
	"github.com/vidplug/vidplug/pkg/pluginsdk"
)

// GetDescriptor is the entry point a host looks up in the shared library.
func GetDescriptor() *frameplugin.Descriptor {
	return blend.Descriptor()
}

func main() {
	pluginsdk.Serve(blend.Descriptor)
}
