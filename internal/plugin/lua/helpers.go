// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package lua

import (
	"log/slog"

	lua "github.com/yuin/gopher-lua"
)

// helperModule is the global table exposing host helpers to scripts.
const helperModule = "vidplug"

// registerHelpers installs the vidplug.* helper table:
//
//	vidplug.clamp(v)       -- round and clamp to 0..255
//	vidplug.luma(r, g, b)  -- BT.601 luma, 0..255
//	vidplug.log(msg)       -- info log tagged with the plugin name
func registerHelpers(L *lua.LState, plugin string, logger *slog.Logger) {
	mod := L.NewTable()
	L.SetField(mod, "clamp", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(clampByte(float64(L.CheckNumber(1)))))
		return 1
	}))
	L.SetField(mod, "luma", L.NewFunction(func(L *lua.LState) int {
		r := float64(L.CheckNumber(1))
		g := float64(L.CheckNumber(2))
		b := float64(L.CheckNumber(3))
		L.Push(lua.LNumber(clampByte(0.299*r + 0.587*g + 0.114*b)))
		return 1
	}))
	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		logger.Info(L.CheckString(1), "plugin", plugin, "source", "lua")
		return 0
	}))
	L.SetGlobal(helperModule, mod)
}

// clampByte rounds v to the nearest integer in 0..255.
func clampByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v + 0.5)
	}
}
