// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package main packages the Gaussian blur filter as a loadable module.
//
// Out-of-process (plugin.yaml type: binary):
//
//	go build -o plugins/blur/blur-plugin ./plugins/blur
//
// Shared library (plugin.yaml type: shared):
//
//	go build -buildmode=plugin -o plugins/blur/blur.so ./plugins/blur
package main

import (
	"github.com/vidplug/vidplug/pkg/filters/blur"
	"github.com/vidplug/vidplug/pkg/frameplugin"
	"github.com/vidplug/vidplug/pkg/pluginsdk"
)

// GetDescriptor is the entry point a host looks up in the shared library.
func GetDescriptor() *frameplugin.Descriptor {
	return blur.Descriptor()
}

func main() {
	pluginsdk.Serve(blur.Descriptor)
}
