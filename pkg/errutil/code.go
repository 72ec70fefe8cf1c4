// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package errutil holds helpers for oops errors shared by the host and its
// tests.
package errutil

import "github.com/samber/oops"

// Code returns the oops code carried by err, or "" if err has none.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// HasCode reports whether err carries the given oops code.
func HasCode(err error, code string) bool {
	return err != nil && Code(err) == code
}
