// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package plugin_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidplug/vidplug/internal/plugin"
)

const luaManifest = `
name: invert
version: 1.0.0
type: lua
params:
  - key: strength
    kind: float
    default: "1"
    min: 0
    max: 2
lua-plugin:
  entry: main.lua
`

func TestValidateSchema_Valid(t *testing.T) {
	tests := map[string]string{
		"lua": luaManifest,
		"binary": `
name: blur
version: 2.1.0
type: binary
binary-plugin:
  executable: blur
`,
		"shared": `
name: split
version: 0.1.0
type: shared
shared-plugin:
  library: split.so
`,
		"name of max length": "name: " + "a" + strings.Repeat("b", 63) + `
version: 1.0.0
type: lua
lua-plugin:
  entry: main.lua
`,
	}
	for name, manifest := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, plugin.ValidateSchema([]byte(manifest)))
		})
	}
}

func TestValidateSchema_ReportsIssuePaths(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		path     string
	}{
		{"bad name", "name: Blur\nversion: 1.0.0\ntype: lua\n", "/name"},
		{"name too long", "name: " + strings.Repeat("a", 65) + "\nversion: 1.0.0\ntype: lua\n", "/name"},
		{"unknown type", "name: blur\nversion: 1.0.0\ntype: wasm\n", "/type"},
		{"param without kind", "name: blur\nversion: 1.0.0\ntype: lua\nparams:\n  - key: k\n", "/params/0"},
		{"bad param kind", "name: blur\nversion: 1.0.0\ntype: lua\nparams:\n  - key: k\n    kind: color\n", "/params/0/kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := plugin.ValidateSchema([]byte(tt.manifest))
			var serr *plugin.SchemaError
			require.ErrorAs(t, err, &serr)
			require.NotEmpty(t, serr.Issues)

			var paths []string
			for _, issue := range serr.Issues {
				paths = append(paths, issue.Path)
				assert.NotEmpty(t, issue.Message)
			}
			assert.Contains(t, paths, tt.path)
		})
	}
}

func TestValidateSchema_MissingRequiredFields(t *testing.T) {
	for _, field := range []string{"name", "version", "type"} {
		t.Run(field, func(t *testing.T) {
			lines := map[string]string{
				"name":    "name: blur",
				"version": "version: 1.0.0",
				"type":    "type: lua",
			}
			delete(lines, field)
			var manifest []string
			for _, l := range lines {
				manifest = append(manifest, l)
			}

			err := plugin.ValidateSchema([]byte(strings.Join(manifest, "\n")))
			var serr *plugin.SchemaError
			require.ErrorAs(t, err, &serr)
			assert.Contains(t, serr.Error(), field)
		})
	}
}

func TestValidateSchema_NotSchemaErrors(t *testing.T) {
	tests := map[string][]byte{
		"nil":          nil,
		"empty":        {},
		"invalid yaml": []byte("name: test\ntype: [invalid"),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			err := plugin.ValidateSchema(data)
			require.Error(t, err)
			var serr *plugin.SchemaError
			assert.False(t, errors.As(err, &serr))
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	data, err := plugin.GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, plugin.SchemaID, schema["$id"])
	assert.Contains(t, schema, "$schema")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"name", "version", "type", "params", "lua-plugin", "binary-plugin", "shared-plugin"} {
		assert.Contains(t, props, key)
	}
}

func TestSchemaError_Error(t *testing.T) {
	err := &plugin.SchemaError{Issues: []plugin.SchemaIssue{
		{Path: "/name", Message: "does not match pattern"},
		{Message: "missing property 'type'"},
	}}
	assert.Equal(t, "schema validation failed: /name: does not match pattern; missing property 'type'", err.Error())
	assert.Equal(t, "/name: does not match pattern; missing property 'type'", plugin.FormatSchemaError(err))
}

func TestFormatSchemaError(t *testing.T) {
	assert.Empty(t, plugin.FormatSchemaError(nil))
	assert.Equal(t, "read failed", plugin.FormatSchemaError(errors.New("read failed")))
}
