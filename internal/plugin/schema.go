// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the manifest schema. Manifests may reference it
// from a yaml-language-server comment.
const SchemaID = "https://vidplug.dev/schemas/plugin.schema.json"

const schemaErrorPrefix = "schema validation failed: "

// SchemaIssue is one schema violation. Path is a JSON pointer into the
// manifest; empty means the document root.
type SchemaIssue struct {
	Path    string
	Message string
}

func (i SchemaIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// SchemaError lists every violation found in one manifest.
type SchemaError struct {
	Issues []SchemaIssue
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return schemaErrorPrefix + strings.Join(msgs, "; ")
}

// GenerateSchema reflects the Manifest type into an indented JSON Schema.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&Manifest{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Vidplug Plugin Manifest"
	schema.Description = "Schema for plugin.yaml files describing a frame filter plugin"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

var compiledSchema = sync.OnceValues(func() (*jschema.Schema, error) {
	raw, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
	}
	c := jschema.NewCompiler()
	if err := c.AddResource(SchemaID, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	sch, err := c.Compile(SchemaID)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return sch, nil
})

// ValidateSchema checks YAML manifest data against the manifest schema.
// Violations are reported as a *SchemaError.
func ValidateSchema(data []byte) error {
	if len(data) == 0 {
		return errors.New("manifest data is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	err = sch.Validate(jsonValue(doc))
	if err == nil {
		return nil
	}
	var verr *jschema.ValidationError
	if errors.As(err, &verr) {
		return &SchemaError{Issues: schemaIssues(verr)}
	}
	return fmt.Errorf("%s%w", schemaErrorPrefix, err)
}

// schemaIssues flattens a validation error tree into its leaves.
func schemaIssues(verr *jschema.ValidationError) []SchemaIssue {
	if len(verr.Causes) == 0 {
		out := verr.BasicOutput()
		issue := SchemaIssue{Path: out.InstanceLocation}
		if out.Error != nil {
			issue.Message = out.Error.String()
		}
		return []SchemaIssue{issue}
	}
	var issues []SchemaIssue
	for _, cause := range verr.Causes {
		issues = append(issues, schemaIssues(cause)...)
	}
	return issues
}

// jsonValue converts decoded YAML into JSON values. YAML timestamps, which
// have no JSON counterpart, become RFC 3339 strings.
func jsonValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = jsonValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = jsonValue(elem)
		}
		return out
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}

// FormatSchemaError renders err for a one-line CLI report.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(err.Error(), schemaErrorPrefix)
}
