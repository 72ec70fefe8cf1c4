// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package plugin

import (
	"context"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Loader resolves plugins of one runtime type into descriptors.
type Loader interface {
	// Load returns the descriptor of the plugin in dir.
	Load(ctx context.Context, manifest *Manifest, dir string) (*frameplugin.Descriptor, error)

	// Close releases everything the loader holds open.
	Close(ctx context.Context) error
}
