// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package lua

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/vidplug/vidplug/internal/plugin"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// PixelFunc is the global every filter script must define. It receives
// r, g, b, a in 0..255 and returns the new r, g, b and optionally a.
const PixelFunc = "pixel"

// Compile-time interface check.
var _ plugin.Loader = (*Host)(nil)

// Host compiles Lua point filters into frame module descriptors.
type Host struct {
	factory *StateFactory
	logger  *slog.Logger
	protos  map[string]*lua.FunctionProto
	mu      sync.Mutex
	closed  bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the logger scripts log through. Defaults to slog.Default().
func WithLogger(l *slog.Logger) HostOption {
	return func(h *Host) { h.logger = l }
}

// NewHost creates a new Lua plugin host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		factory: NewStateFactory(),
		logger:  slog.Default(),
		protos:  make(map[string]*lua.FunctionProto),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load compiles the entry script and checks it defines pixel. Every
// instance of the returned descriptor runs the script in its own state.
func (h *Host) Load(ctx context.Context, manifest *plugin.Manifest, dir string) (*frameplugin.Descriptor, error) {
	errb := oops.In("lua").With("plugin", manifest.Name).With("operation", "load")

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errb.New("host is closed")
	}
	if manifest.LuaPlugin == nil {
		return nil, errb.Errorf("plugin %s is not a lua plugin", manifest.Name)
	}

	entryPath := filepath.Join(dir, manifest.LuaPlugin.Entry)
	code, err := os.ReadFile(filepath.Clean(entryPath))
	if err != nil {
		return nil, errb.With("path", entryPath).Hint("failed to read entry file").Wrap(err)
	}

	proto, err := compile(code, manifest.LuaPlugin.Entry)
	if err != nil {
		return nil, errb.With("entry", manifest.LuaPlugin.Entry).Hint("syntax error").Wrap(err)
	}

	// Run once in a throwaway state to catch top-level errors early.
	L, err := h.factory.NewState(ctx)
	if err != nil {
		return nil, errb.Hint("failed to create validation state").Wrap(err)
	}
	defer L.Close()

	registerHelpers(L, manifest.Name, h.logger)
	L.SetGlobal("params", L.NewTable())
	if _, err := runChunk(L, proto); err != nil {
		return nil, errb.With("entry", manifest.LuaPlugin.Entry).Wrap(err)
	}

	h.protos[manifest.Name] = proto
	return h.descriptor(manifest, proto), nil
}

func (h *Host) descriptor(manifest *plugin.Manifest, proto *lua.FunctionProto) *frameplugin.Descriptor {
	specs := manifest.ParamSpecs()
	return &frameplugin.Descriptor{
		APIVersion:  frameplugin.APIVersion,
		Name:        manifest.Name,
		Description: manifest.Description,
		Version:     manifest.Version,
		Support:     frameplugin.Fixed(1, 1),
		Params:      specs,
		Create: func() frameplugin.Plugin {
			return &filter{
				name:    manifest.Name,
				proto:   proto,
				specs:   specs,
				factory: h.factory,
				logger:  h.logger,
			}
		},
		Destroy: func(p frameplugin.Plugin) {
			if f, ok := p.(*filter); ok {
				f.close()
			}
		},
	}
}

// Plugins returns names of loaded plugins.
func (h *Host) Plugins() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.protos))
	for name := range h.protos {
		names = append(names, name)
	}
	return names
}

// Close shuts down the host. Instances already created keep running.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.protos = nil
	return nil
}

// compile parses and compiles a script once so instances can share the
// function prototype.
func compile(code []byte, name string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(bytes.NewReader(code), name)
	if err != nil {
		return nil, oops.Wrapf(err, "parse %s", name)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, oops.Wrapf(err, "compile %s", name)
	}
	return proto, nil
}

// runChunk executes proto in L and returns the pixel function it defined.
func runChunk(L *lua.LState, proto *lua.FunctionProto) (*lua.LFunction, error) {
	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, oops.Hint("script raised an error at top level").Wrap(err)
	}
	fn, ok := L.GetGlobal(PixelFunc).(*lua.LFunction)
	if !ok {
		return nil, oops.Errorf("script must define a global function %q", PixelFunc)
	}
	return fn, nil
}
