// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. For oops errors the code and the
// context map are logged as separate attributes; a "plugin" context value
// is lifted to a top-level attribute so load and run failures can be
// filtered per plugin.
func LogError(logger *slog.Logger, msg string, err error, args ...any) {
	attrs := append([]any{"error", err.Error()}, args...)
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := Code(err); code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			if name, ok := ctx["plugin"]; ok {
				attrs = append(attrs, "plugin", name)
			}
			attrs = append(attrs, "context", ctx)
		}
	}
	logger.Error(msg, attrs...)
}
