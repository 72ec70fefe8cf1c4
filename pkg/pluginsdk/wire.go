// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package pluginsdk

import (
	"errors"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

var errNoDescriptor = errors.New("pluginsdk: descriptor is nil")

// DescriptorInfo is the serializable part of a descriptor.
type DescriptorInfo struct {
	APIVersion  int
	Name        string
	Description string
	Version     string
	Support     frameplugin.Support
	Params      []frameplugin.ParamSpec
}

// InitArgs carries an Init call.
type InitArgs struct {
	Instance  uint64
	Params    string
	NbInputs  int
	NbOutputs int
}

// ConfigureArgs carries a Configure call.
type ConfigureArgs struct {
	Instance uint64
	Inputs   []frameplugin.FrameConfig
	Outputs  []frameplugin.FrameConfig
}

// ConfigureReply returns the negotiated output configs.
type ConfigureReply struct {
	Outputs []frameplugin.FrameConfig
}

// WireFrame is an input frame sent by value.
type WireFrame struct {
	Config frameplugin.FrameConfig
	Pix    []byte
}

// WireOutput is one output slot after a call. Input is the index of the
// input the slot aliases, or -1 when Pix holds the slot's pixels.
type WireOutput struct {
	Input int
	Pix   []byte
}

// ProcessArgs carries a Process call.
type ProcessArgs struct {
	Instance uint64
	Inputs   []WireFrame
	Outputs  []frameplugin.FrameConfig
}

// ProcessReply returns a Process result. Err is the module's error text.
type ProcessReply struct {
	Result  frameplugin.Result
	Err     string
	Outputs []WireOutput
}

// FlushArgs carries a Flush call.
type FlushArgs struct {
	Instance uint64
	Outputs  []frameplugin.FrameConfig
}

// FlushReply returns a Flush result.
type FlushReply struct {
	Produced bool
	Outputs  []WireOutput
}
