// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package host_test

import (
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// stubPlugin records lifecycle calls and lets tests script each one.
type stubPlugin struct {
	calls        []string
	initErr      error
	configureErr error
	configure    func(in, out []frameplugin.FrameConfig)
	process      func(in, out []*frameplugin.Frame) (frameplugin.Result, error)
	flush        func(out []*frameplugin.Frame) bool
}

func (s *stubPlugin) Init(string, int, int) error {
	s.calls = append(s.calls, "init")
	return s.initErr
}

func (s *stubPlugin) Configure(in, out []frameplugin.FrameConfig) error {
	s.calls = append(s.calls, "configure")
	if s.configure != nil {
		s.configure(in, out)
	}
	return s.configureErr
}

func (s *stubPlugin) Process(in, out []*frameplugin.Frame) (frameplugin.Result, error) {
	s.calls = append(s.calls, "process")
	if s.process != nil {
		return s.process(in, out)
	}
	if err := out[0].CopyFrom(in[0]); err != nil {
		return frameplugin.ResultError, err
	}
	return frameplugin.ResultOK, nil
}

func (s *stubPlugin) Flush(out []*frameplugin.Frame) bool {
	s.calls = append(s.calls, "flush")
	if s.flush != nil {
		return s.flush(out)
	}
	return false
}

func (s *stubPlugin) Uninit() {
	s.calls = append(s.calls, "uninit")
}

// stubDescriptor returns a descriptor whose factory hands out p and whose
// destructor counts calls in destroyed.
func stubDescriptor(name string, p *stubPlugin, destroyed *int) *frameplugin.Descriptor {
	return &frameplugin.Descriptor{
		APIVersion: frameplugin.APIVersion,
		Name:       name,
		Support:    frameplugin.Fixed(1, 1),
		Create:     func() frameplugin.Plugin { return p },
		Destroy: func(frameplugin.Plugin) {
			if destroyed != nil {
				*destroyed++
			}
		},
	}
}
