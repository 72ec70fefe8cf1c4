// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package pluginsdk

import (
	"errors"
	"log/slog"
	"net/rpc"

	"github.com/samber/oops"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// DescriptorSource is what the host dispenses from a module process.
type DescriptorSource interface {
	Descriptor() (*frameplugin.Descriptor, error)
}

// Compile-time interface checks.
var (
	_ DescriptorSource   = (*RPCClient)(nil)
	_ frameplugin.Plugin = (*remotePlugin)(nil)
)

// RPCClient is the host-side handle on a module process.
type RPCClient struct {
	client *rpc.Client
}

// Describe fetches the descriptor metadata.
func (c *RPCClient) Describe() (DescriptorInfo, error) {
	var info DescriptorInfo
	if err := c.client.Call("Plugin.Describe", new(any), &info); err != nil {
		return DescriptorInfo{}, oops.Wrapf(err, "describe")
	}
	return info, nil
}

// Descriptor builds a local descriptor whose instances live in the module
// process. The descriptor is fetched once per call; callers cache it.
func (c *RPCClient) Descriptor() (*frameplugin.Descriptor, error) {
	info, err := c.Describe()
	if err != nil {
		return nil, err
	}
	return &frameplugin.Descriptor{
		APIVersion:  info.APIVersion,
		Name:        info.Name,
		Description: info.Description,
		Version:     info.Version,
		Support:     info.Support,
		Params:      info.Params,
		Create: func() frameplugin.Plugin {
			var id uint64
			if err := c.client.Call("Plugin.Create", new(any), &id); err != nil {
				slog.Error("remote create failed", "plugin", info.Name, "error", err)
				return nil
			}
			return &remotePlugin{client: c.client, id: id}
		},
		Destroy: func(p frameplugin.Plugin) {
			rp, ok := p.(*remotePlugin)
			if !ok {
				return
			}
			if err := c.client.Call("Plugin.Destroy", rp.id, new(bool)); err != nil {
				slog.Warn("remote destroy failed", "plugin", info.Name, "error", err)
			}
		},
	}, nil
}

// remotePlugin forwards lifecycle calls to an instance in a module process.
type remotePlugin struct {
	client *rpc.Client
	id     uint64
}

func (p *remotePlugin) Init(params string, nbInputs, nbOutputs int) error {
	args := InitArgs{Instance: p.id, Params: params, NbInputs: nbInputs, NbOutputs: nbOutputs}
	return p.client.Call("Plugin.Init", args, new(bool))
}

func (p *remotePlugin) Configure(inputs, outputs []frameplugin.FrameConfig) error {
	var reply ConfigureReply
	args := ConfigureArgs{Instance: p.id, Inputs: inputs, Outputs: outputs}
	if err := p.client.Call("Plugin.Configure", args, &reply); err != nil {
		return err
	}
	if len(reply.Outputs) != len(outputs) {
		return oops.With("want", len(outputs)).With("got", len(reply.Outputs)).
			Errorf("remote configure returned wrong output count")
	}
	copy(outputs, reply.Outputs)
	return nil
}

func (p *remotePlugin) Process(inputs, outputs []*frameplugin.Frame) (frameplugin.Result, error) {
	args := ProcessArgs{
		Instance: p.id,
		Inputs:   make([]WireFrame, len(inputs)),
		Outputs:  configsOf(outputs),
	}
	for i, in := range inputs {
		args.Inputs[i] = WireFrame{Config: in.Config(), Pix: in.Pix()}
	}

	var reply ProcessReply
	if err := p.client.Call("Plugin.Process", args, &reply); err != nil {
		return frameplugin.ResultError, err
	}
	if reply.Err != "" {
		return frameplugin.ResultError, errors.New(reply.Err)
	}
	if reply.Result != frameplugin.ResultOK {
		return reply.Result, nil
	}
	if err := decodeOutputs(reply.Outputs, inputs, outputs); err != nil {
		return frameplugin.ResultError, err
	}
	return frameplugin.ResultOK, nil
}

func (p *remotePlugin) Flush(outputs []*frameplugin.Frame) bool {
	var reply FlushReply
	args := FlushArgs{Instance: p.id, Outputs: configsOf(outputs)}
	if err := p.client.Call("Plugin.Flush", args, &reply); err != nil {
		slog.Error("remote flush failed", "error", err)
		return false
	}
	if !reply.Produced {
		return false
	}
	if err := decodeOutputs(reply.Outputs, nil, outputs); err != nil {
		slog.Error("remote flush returned unusable outputs", "error", err)
		return false
	}
	return true
}

func (p *remotePlugin) Uninit() {
	if err := p.client.Call("Plugin.Uninit", p.id, new(bool)); err != nil {
		slog.Warn("remote uninit failed", "error", err)
	}
}

func configsOf(frames []*frameplugin.Frame) []frameplugin.FrameConfig {
	cfgs := make([]frameplugin.FrameConfig, len(frames))
	for i, f := range frames {
		cfgs[i] = f.Config()
	}
	return cfgs
}

// decodeOutputs applies wire outputs to local slots: aliases become local
// aliases of the same input, pixels are written in place.
func decodeOutputs(wire []WireOutput, inputs, outputs []*frameplugin.Frame) error {
	if len(wire) != len(outputs) {
		return oops.With("want", len(outputs)).With("got", len(wire)).
			Errorf("remote call returned wrong output count")
	}
	for i, w := range wire {
		if w.Input >= 0 {
			if w.Input >= len(inputs) {
				return oops.With("output", i).With("input", w.Input).Errorf("remote alias of unknown input")
			}
			if err := outputs[i].Alias(inputs[w.Input]); err != nil {
				return err
			}
			continue
		}
		dst, err := outputs[i].Writable()
		if err != nil {
			return err
		}
		if len(w.Pix) != len(dst) {
			return oops.With("output", i).With("want", len(dst)).With("got", len(w.Pix)).
				Wrapf(frameplugin.ErrGeometry, "remote output size")
		}
		copy(dst, w.Pix)
	}
	return nil
}
