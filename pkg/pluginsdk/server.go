// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package pluginsdk

import (
	"fmt"
	"sync"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// RPCServer exposes one descriptor and the instances created from it to
// the host process.
type RPCServer struct {
	desc *frameplugin.Descriptor

	mu        sync.Mutex
	next      uint64
	instances map[uint64]frameplugin.Plugin
}

// NewRPCServer creates a server for desc.
func NewRPCServer(desc *frameplugin.Descriptor) *RPCServer {
	return &RPCServer{desc: desc, instances: make(map[uint64]frameplugin.Plugin)}
}

// Describe returns the descriptor metadata.
func (s *RPCServer) Describe(_ any, reply *DescriptorInfo) error {
	*reply = DescriptorInfo{
		APIVersion:  s.desc.APIVersion,
		Name:        s.desc.Name,
		Description: s.desc.Description,
		Version:     s.desc.Version,
		Support:     s.desc.Support,
		Params:      s.desc.Params,
	}
	return nil
}

// Create makes a new instance and returns its handle.
func (s *RPCServer) Create(_ any, id *uint64) error {
	p := s.desc.Create()
	if p == nil {
		return fmt.Errorf("%s: create returned no instance", s.desc.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.instances[s.next] = p
	*id = s.next
	return nil
}

// Destroy hands an instance back to the descriptor's destructor.
func (s *RPCServer) Destroy(id uint64, ack *bool) error {
	s.mu.Lock()
	p, ok := s.instances[id]
	delete(s.instances, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown instance %d", id)
	}
	s.desc.Destroy(p)
	*ack = true
	return nil
}

// Init forwards Init.
func (s *RPCServer) Init(args InitArgs, ack *bool) error {
	p, err := s.instance(args.Instance)
	if err != nil {
		return err
	}
	if err := p.Init(args.Params, args.NbInputs, args.NbOutputs); err != nil {
		return err
	}
	*ack = true
	return nil
}

// Configure forwards Configure and returns the negotiated outputs.
func (s *RPCServer) Configure(args ConfigureArgs, reply *ConfigureReply) error {
	p, err := s.instance(args.Instance)
	if err != nil {
		return err
	}
	outs := append([]frameplugin.FrameConfig(nil), args.Outputs...)
	if err := p.Configure(args.Inputs, outs); err != nil {
		return err
	}
	reply.Outputs = outs
	return nil
}

// Process forwards Process. Inputs are rebuilt as borrowed views and
// outputs as fresh slots.
func (s *RPCServer) Process(args ProcessArgs, reply *ProcessReply) error {
	p, err := s.instance(args.Instance)
	if err != nil {
		return err
	}

	bufs := make([]*frameplugin.Buffer, len(args.Inputs))
	views := make([]*frameplugin.Frame, len(args.Inputs))
	for i, in := range args.Inputs {
		b, err := frameplugin.WrapBuffer(in.Config, in.Pix, nil)
		if err != nil {
			return err
		}
		bufs[i] = b
		views[i] = frameplugin.Borrow(b)
	}
	slots, err := newSlots(args.Outputs)
	if err != nil {
		return err
	}
	defer releaseSlots(slots)

	res, perr := p.Process(views, slots)
	for _, v := range views {
		v.Expire()
	}

	reply.Result = res
	if perr != nil {
		reply.Result = frameplugin.ResultError
		reply.Err = perr.Error()
		return nil
	}
	if res == frameplugin.ResultOK {
		reply.Outputs = encodeOutputs(slots, bufs)
	}
	return nil
}

// Flush forwards Flush.
func (s *RPCServer) Flush(args FlushArgs, reply *FlushReply) error {
	p, err := s.instance(args.Instance)
	if err != nil {
		return err
	}
	slots, err := newSlots(args.Outputs)
	if err != nil {
		return err
	}
	defer releaseSlots(slots)

	reply.Produced = p.Flush(slots)
	if reply.Produced {
		reply.Outputs = encodeOutputs(slots, nil)
	}
	return nil
}

// Uninit forwards Uninit.
func (s *RPCServer) Uninit(id uint64, ack *bool) error {
	p, err := s.instance(id)
	if err != nil {
		return err
	}
	p.Uninit()
	*ack = true
	return nil
}

func (s *RPCServer) instance(id uint64) (frameplugin.Plugin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.instances[id]
	if !ok {
		return nil, fmt.Errorf("unknown instance %d", id)
	}
	return p, nil
}

func newSlots(cfgs []frameplugin.FrameConfig) ([]*frameplugin.Frame, error) {
	slots := make([]*frameplugin.Frame, 0, len(cfgs))
	for _, cfg := range cfgs {
		b, err := frameplugin.NewBuffer(cfg, nil)
		if err != nil {
			releaseSlots(slots)
			return nil, err
		}
		slots = append(slots, frameplugin.NewSlot(b))
	}
	return slots, nil
}

func releaseSlots(slots []*frameplugin.Frame) {
	for _, s := range slots {
		s.Release()
	}
}

// encodeOutputs turns slots into wire outputs. A slot aliasing an input is
// sent as that input's index; anything else is sent by value.
func encodeOutputs(slots []*frameplugin.Frame, inputs []*frameplugin.Buffer) []WireOutput {
	outs := make([]WireOutput, len(slots))
	for i, slot := range slots {
		outs[i] = WireOutput{Input: -1}
		if slot.Aliased() {
			for k, b := range inputs {
				if slot.Storage() == b {
					outs[i].Input = k
					break
				}
			}
		}
		if outs[i].Input < 0 {
			outs[i].Pix = append([]byte(nil), slot.Pix()...)
		}
	}
	return outs
}
