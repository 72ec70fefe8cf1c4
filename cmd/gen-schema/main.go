// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Command gen-schema writes the JSON Schema for plugin.yaml manifests.
//
// With --check it compares the generated schema against the file on disk and
// exits non-zero when they differ, which CI uses to catch a stale schema.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/vidplug/vidplug/internal/plugin"
)

var errStale = errors.New("schema is out of date")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gen-schema: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("gen-schema", pflag.ContinueOnError)
	out := fs.StringP("out", "o", filepath.Join("schemas", "plugin.schema.json"), "output path")
	check := fs.Bool("check", false, "fail if the file on disk differs from the generated schema")
	if err := fs.Parse(args); err != nil {
		return err //nolint:wrapcheck // pflag errors are user-facing
	}

	schema, err := plugin.GenerateSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	if *check {
		current, err := os.ReadFile(*out)
		if err != nil {
			return fmt.Errorf("read %s: %w", *out, err)
		}
		if !bytes.Equal(current, schema) {
			return fmt.Errorf("%s: %w, run gen-schema", *out, errStale)
		}
		fmt.Fprintf(stdout, "%s is up to date\n", *out)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(*out, schema, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	fmt.Fprintf(stdout, "Generated %s\n", *out)
	return nil
}
