// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package shared loads frame modules built with -buildmode=plugin into the
// host process.
package shared

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	stdplugin "plugin"
	"sync"

	"github.com/vidplug/vidplug/internal/plugin"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Sentinel errors for programmatic error checking.
var (
	// ErrBadSymbol is returned when the descriptor symbol has the wrong type.
	ErrBadSymbol = errors.New("descriptor symbol has wrong type")
	// ErrLoaderClosed is returned when loading after Close.
	ErrLoaderClosed = errors.New("loader is closed")
)

// Library is an opened shared object.
type Library interface {
	Lookup(symbol string) (stdplugin.Symbol, error)
}

// OpenFunc opens the shared object at path.
type OpenFunc func(path string) (Library, error)

func openPlugin(path string) (Library, error) {
	p, err := stdplugin.Open(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by Load
	}
	return p, nil
}

// Compile-time interface check.
var _ plugin.Loader = (*Loader)(nil)

// Loader resolves shared-library modules. Go plugins cannot be unloaded;
// Close only stops further loads.
type Loader struct {
	open   OpenFunc
	mu     sync.Mutex
	libs   map[string]Library
	closed bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithOpener replaces the shared-object opener.
func WithOpener(open OpenFunc) Option {
	return func(l *Loader) { l.open = open }
}

// NewLoader creates a shared-library loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		open: openPlugin,
		libs: make(map[string]Library),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load opens the library named by the manifest and calls its
// GetDescriptor entry point.
func (l *Loader) Load(_ context.Context, manifest *plugin.Manifest, dir string) (*frameplugin.Descriptor, error) {
	if manifest.SharedPlugin == nil {
		return nil, fmt.Errorf("plugin %s is not a shared plugin", manifest.Name)
	}
	path := filepath.Join(dir, manifest.SharedPlugin.Library)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("plugin library %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrLoaderClosed
	}

	lib, ok := l.libs[path]
	if !ok {
		var err error
		lib, err = l.open(path)
		if err != nil {
			return nil, fmt.Errorf("open plugin library %s: %w", path, err)
		}
		l.libs[path] = lib
	}

	sym, err := lib.Lookup(frameplugin.DescriptorSymbol)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", manifest.Name, err)
	}

	get, err := descriptorFunc(sym)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", manifest.Name, err)
	}
	return get(), nil
}

// descriptorFunc accepts an exported function or an exported variable
// holding one.
func descriptorFunc(sym stdplugin.Symbol) (frameplugin.DescriptorFunc, error) {
	switch fn := sym.(type) {
	case func() *frameplugin.Descriptor:
		return fn, nil
	case frameplugin.DescriptorFunc:
		return fn, nil
	case *frameplugin.DescriptorFunc:
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	case *func() *frameplugin.Descriptor:
		if fn != nil && *fn != nil {
			return *fn, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrBadSymbol, sym)
}

// Close stops further loads.
func (l *Loader) Close(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	clear(l.libs)
	return nil
}
