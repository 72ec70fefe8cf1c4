// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package main packages the temporal mean filter as a loadable module.
//
// Out-of-process (plugin.yaml type: binary):
//
//	go build -o plugins/avgframes/avgframes-plugin ./plugins/avgframes
//
// Shared library (plugin.yaml type: shared):
//
//	go build -buildmode=plugin -o plugins/avgframes/avgframes.so ./plugins/avgframes
package main

import (
	"github.com/vidplug/vidplug/pkg/filters/avgframes"
	"github.com/vidplug/vidplug/pkg/frameplugin"
	"github.com/vidplug/vidplug/pkg/pluginsdk"
)

// GetDescriptor is the entry point a host looks up in the shared library.
func GetDescriptor() *frameplugin.Descriptor {
	return avgframes.Descriptor()
}

func main() {
	pluginsdk.Serve(avgframes.Descriptor)
}
