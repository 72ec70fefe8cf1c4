// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package plugin discovers frame plugins on disk and resolves them into
// verified descriptors.
package plugin

import (
	"fmt"
	"math"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// ManifestFile is the manifest name looked up in each plugin directory.
const ManifestFile = "plugin.yaml"

// Type identifies the plugin runtime.
type Type string

// Plugin types supported by the system.
const (
	// TypeShared is a Go shared library built with -buildmode=plugin.
	TypeShared Type = "shared"
	// TypeBinary is an executable served through pluginsdk.
	TypeBinary Type = "binary"
	// TypeLua is a Lua point filter.
	TypeLua Type = "lua"
	// TypeBuiltin marks descriptors compiled into the host.
	TypeBuiltin Type = "builtin"
)

// Manifest represents a plugin.yaml file.
type Manifest struct {
	Name         string        `yaml:"name" json:"name" jsonschema:"pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$,maxLength=64"`
	Version      string        `yaml:"version" json:"version"`
	Description  string        `yaml:"description,omitempty" json:"description,omitempty"`
	Type         Type          `yaml:"type" json:"type" jsonschema:"enum=shared,enum=binary,enum=lua"`
	Params       []ParamDecl   `yaml:"params,omitempty" json:"params,omitempty"`
	SharedPlugin *SharedConfig `yaml:"shared-plugin,omitempty" json:"shared-plugin,omitempty"`
	BinaryPlugin *BinaryConfig `yaml:"binary-plugin,omitempty" json:"binary-plugin,omitempty"`
	LuaPlugin    *LuaConfig    `yaml:"lua-plugin,omitempty" json:"lua-plugin,omitempty"`
}

// SharedConfig holds shared-library configuration.
type SharedConfig struct {
	Library string `yaml:"library" json:"library"`
}

// BinaryConfig holds binary plugin configuration.
type BinaryConfig struct {
	Executable string `yaml:"executable" json:"executable"`
}

// LuaConfig holds Lua-specific configuration.
type LuaConfig struct {
	Entry string `yaml:"entry" json:"entry"`
}

// ParamDecl declares a parameter of a scripted plugin. Compiled plugins
// declare parameters in their descriptor instead.
type ParamDecl struct {
	Key         string   `yaml:"key" json:"key"`
	Kind        string   `yaml:"kind" json:"kind" jsonschema:"enum=int,enum=float,enum=bool,enum=string"`
	Default     string   `yaml:"default,omitempty" json:"default,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Min         *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern validates plugin names: must start with lowercase letter,
// followed by lowercase letters, digits, or hyphens.
// Cannot end with a hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

var paramKinds = map[string]frameplugin.ParamKind{
	"int":    frameplugin.ParamInt,
	"float":  frameplugin.ParamFloat,
	"bool":   frameplugin.ParamBool,
	"string": frameplugin.ParamString,
}

// ParseManifest parses and validates a plugin.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return fmt.Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return fmt.Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return fmt.Errorf("version is required")
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		return fmt.Errorf("version %q is not a semantic version: %w", m.Version, err)
	}

	switch m.Type {
	case TypeShared:
		if m.SharedPlugin == nil || m.SharedPlugin.Library == "" {
			return fmt.Errorf("shared-plugin.library is required when type is shared")
		}
	case TypeBinary:
		if m.BinaryPlugin == nil || m.BinaryPlugin.Executable == "" {
			return fmt.Errorf("binary-plugin.executable is required when type is binary")
		}
	case TypeLua:
		if m.LuaPlugin == nil || m.LuaPlugin.Entry == "" {
			return fmt.Errorf("lua-plugin.entry is required when type is lua")
		}
	default:
		return fmt.Errorf("type must be 'shared', 'binary' or 'lua', got %q", m.Type)
	}

	for i, p := range m.Params {
		if p.Key == "" {
			return fmt.Errorf("params[%d].key is required", i)
		}
		if _, ok := paramKinds[p.Kind]; !ok {
			return fmt.Errorf("params[%d].kind %q must be int, float, bool or string", i, p.Kind)
		}
	}

	return nil
}

// SemVer returns the parsed manifest version.
func (m *Manifest) SemVer() (*semver.Version, error) {
	v, err := semver.StrictNewVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("parse version: %w", err)
	}
	return v, nil
}

// ParamSpecs converts the declared parameters.
func (m *Manifest) ParamSpecs() []frameplugin.ParamSpec {
	specs := make([]frameplugin.ParamSpec, 0, len(m.Params))
	for _, p := range m.Params {
		s := frameplugin.ParamSpec{
			Key:         p.Key,
			Kind:        paramKinds[p.Kind],
			Default:     p.Default,
			Description: p.Description,
		}
		if p.Min != nil || p.Max != nil {
			s.Min, s.Max = -math.MaxFloat64, math.MaxFloat64
		}
		if p.Min != nil {
			s.Min = *p.Min
		}
		if p.Max != nil {
			s.Max = *p.Max
		}
		specs = append(specs, s)
	}
	return specs
}
