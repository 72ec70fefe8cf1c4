// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package pluginsdk runs frame plugins as separate processes.
//
// A binary module is an ordinary frameplugin module whose main function
// hands its descriptor to Serve. The host talks to it over HashiCorp
// go-plugin's net/rpc transport; frames cross the process boundary by
// value, and outputs that alias an input are sent back as an input index so
// the host can alias its own copy without transferring pixels.
//
// Example usage:
//
//	package main
//
//	import (
//		"github.com/vidplug/vidplug/pkg/filters/blur"
//		"github.com/vidplug/vidplug/pkg/pluginsdk"
//	)
//
//	func main() {
//		pluginsdk.Serve(blur.Descriptor)
//	}
package pluginsdk

import (
	"net/rpc"

	hashiplug "github.com/hashicorp/go-plugin"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// PluginName is the key binary modules are dispensed under.
const PluginName = "frameplugin"

// HandshakeConfig is the go-plugin handshake configuration.
// Both host and plugins must use the same values.
var HandshakeConfig = hashiplug.HandshakeConfig{
	ProtocolVersion:  frameplugin.APIVersion,
	MagicCookieKey:   "VIDPLUG_PLUGIN",
	MagicCookieValue: "vidplug-frame-v1",
}

// PluginMap returns the plugin set served by a module process. desc may be
// nil on the host side, which only needs the client half.
func PluginMap(desc *frameplugin.Descriptor) map[string]hashiplug.Plugin {
	return map[string]hashiplug.Plugin{
		PluginName: &FramePlugin{Desc: desc},
	}
}

// Serve starts the plugin server. This should be called from main().
// It blocks and never returns under normal operation.
func Serve(get frameplugin.DescriptorFunc) {
	if get == nil {
		panic("pluginsdk: descriptor func cannot be nil")
	}
	desc := get()
	if desc == nil {
		panic("pluginsdk: descriptor cannot be nil")
	}
	hashiplug.Serve(&hashiplug.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap(desc),
	})
}

// FramePlugin implements go-plugin's Plugin interface for net/rpc.
type FramePlugin struct {
	// Desc is used by the plugin side only.
	Desc *frameplugin.Descriptor
}

// Server returns the RPC server (called by plugin process).
func (p *FramePlugin) Server(*hashiplug.MuxBroker) (interface{}, error) {
	if p.Desc == nil {
		return nil, errNoDescriptor
	}
	return NewRPCServer(p.Desc), nil
}

// Client returns the RPC client (called by host process).
func (p *FramePlugin) Client(_ *hashiplug.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}
