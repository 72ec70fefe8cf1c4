// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package main packages the passthrough, gray, edge and blur fan-out filter as a loadable module.
//
// Out-of-process (plugin.yaml type: binary):
//
//	go build -o plugins/split/split-plugin ./plugins/split
//
// Shared library (plugin.yaml type: shared):
//
//	go build -buildmode=plugin -o plugins/split/split.so ./plugins/split
package main

import (
	"github.com/vidplug/vidplug/pkg/filters/split"
	"github.com/vidplug/vidplug/pkg/frameplugin"
	"github.com/vidplug/vidplug/pkg/pluginsdk"
)

// GetDescriptor is the entry point a host looks up in the shared library.
func GetDescriptor() *frameplugin.Descriptor {
	return split.Descriptor()
}

func main() {
	pluginsdk.Serve(split.Descriptor)
}
