// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package lua

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// filter is one instance of a Lua point filter. It owns a private Lua
// state from Init until Uninit.
type filter struct {
	name    string
	proto   *lua.FunctionProto
	specs   []frameplugin.ParamSpec
	factory *StateFactory
	logger  *slog.Logger

	L     *lua.LState
	pixel *lua.LFunction
}

var _ frameplugin.Plugin = (*filter)(nil)

func (f *filter) Init(params string, nbInputs, nbOutputs int) error {
	if err := frameplugin.Fixed(1, 1).Check(nbInputs, nbOutputs); err != nil {
		return err //nolint:wrapcheck // topology errors carry their own context
	}

	p, issues := frameplugin.ParseParams(params, f.specs)
	for _, issue := range issues {
		f.logger.Warn("parameter issue", "plugin", f.name, "issue", issue.String())
	}

	L, err := f.factory.NewState(context.Background())
	if err != nil {
		return oops.In("lua").With("plugin", f.name).Wrap(err)
	}
	registerHelpers(L, f.name, f.logger)
	L.SetGlobal("params", paramsTable(L, p, f.specs))

	pixel, err := runChunk(L, f.proto)
	if err != nil {
		L.Close()
		return oops.In("lua").With("plugin", f.name).Wrap(err)
	}
	f.L, f.pixel = L, pixel
	return nil
}

func (f *filter) Configure(inputs, _ []frameplugin.FrameConfig) error {
	if inputs[0].Format.BytesPerPixel() == 0 {
		return oops.In("lua").With("plugin", f.name).Errorf("unsupported pixel format %s", inputs[0].Format)
	}
	return nil
}

func (f *filter) Process(inputs, outputs []*frameplugin.Frame) (frameplugin.Result, error) {
	src := inputs[0].Pix()
	dst, err := outputs[0].Writable()
	if err != nil {
		return frameplugin.ResultError, err //nolint:wrapcheck // frame errors carry their own context
	}

	var px [4]byte
	switch inputs[0].Format() {
	case frameplugin.PixelFormatGray8:
		for i, v := range src {
			px = [4]byte{v, v, v, 255}
			if err := f.call(&px); err != nil {
				return frameplugin.ResultError, err
			}
			dst[i] = lumaOf(px)
		}
	case frameplugin.PixelFormatBGR24:
		for i := 0; i+2 < len(src); i += 3 {
			px = [4]byte{src[i+2], src[i+1], src[i], 255}
			if err := f.call(&px); err != nil {
				return frameplugin.ResultError, err
			}
			dst[i], dst[i+1], dst[i+2] = px[2], px[1], px[0]
		}
	default:
		for i := 0; i+3 < len(src); i += 4 {
			copy(px[:], src[i:i+4])
			if err := f.call(&px); err != nil {
				return frameplugin.ResultError, err
			}
			copy(dst[i:i+4], px[:])
		}
	}
	return frameplugin.ResultOK, nil
}

// call runs pixel(r, g, b, a) and writes the results back into px. A
// missing alpha return leaves alpha unchanged.
func (f *filter) call(px *[4]byte) error {
	L := f.L
	if err := L.CallByParam(lua.P{
		Fn:      f.pixel,
		NRet:    4,
		Protect: true,
	}, lua.LNumber(px[0]), lua.LNumber(px[1]), lua.LNumber(px[2]), lua.LNumber(px[3])); err != nil {
		return oops.In("lua").With("plugin", f.name).With("operation", PixelFunc).Wrap(err)
	}
	defer L.Pop(4)

	for i := range 4 {
		v := L.Get(-4 + i)
		if v == lua.LNil {
			if i == 3 {
				break
			}
			return oops.In("lua").With("plugin", f.name).Errorf("pixel must return at least r, g, b")
		}
		n, ok := v.(lua.LNumber)
		if !ok {
			return oops.In("lua").With("plugin", f.name).Errorf("pixel returned %s, want number", v.Type())
		}
		px[i] = clampByte(float64(n))
	}
	return nil
}

// Flush has nothing to drain; point filters keep no frames.
func (f *filter) Flush(_ []*frameplugin.Frame) bool { return false }

func (f *filter) Uninit() { f.close() }

func (f *filter) close() {
	if f.L != nil {
		f.L.Close()
		f.L, f.pixel = nil, nil
	}
}

func lumaOf(px [4]byte) byte {
	return clampByte(0.299*float64(px[0]) + 0.587*float64(px[1]) + 0.114*float64(px[2]))
}

// paramsTable exposes decoded parameters to the script as typed values.
func paramsTable(L *lua.LState, p frameplugin.Params, specs []frameplugin.ParamSpec) *lua.LTable {
	t := L.NewTable()
	for _, s := range specs {
		var v lua.LValue
		switch s.Kind {
		case frameplugin.ParamInt:
			v = lua.LNumber(p.Int(s.Key))
		case frameplugin.ParamFloat:
			v = lua.LNumber(p.Float(s.Key))
		case frameplugin.ParamBool:
			v = lua.LBool(p.Bool(s.Key))
		default:
			v = lua.LString(p.String(s.Key))
		}
		L.SetField(t, s.Key, v)
	}
	return t
}
