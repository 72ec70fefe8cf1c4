// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/internal/observability"
	"github.com/vidplug/vidplug/pkg/errutil"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Manager discovers plugins and keeps the verified descriptors of every
// plugin it loaded.
type Manager struct {
	pluginsDir string
	loaders    map[Type]Loader
	builtins   []frameplugin.DescriptorFunc
	filter     glob.Glob
	logger     *slog.Logger
	loaded     map[string]*Entry
	mu         sync.RWMutex
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLoader registers the loader used for manifests of type t.
func WithLoader(t Type, l Loader) ManagerOption {
	return func(m *Manager) {
		m.loaders[t] = l
	}
}

// WithBuiltins registers descriptors compiled into the host.
func WithBuiltins(fns ...frameplugin.DescriptorFunc) ManagerOption {
	return func(m *Manager) {
		m.builtins = append(m.builtins, fns...)
	}
}

// WithFilter restricts loading to plugin names matching g.
func WithFilter(g glob.Glob) ManagerOption {
	return func(m *Manager) {
		m.filter = g
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a plugin manager.
func NewManager(pluginsDir string, opts ...ManagerOption) *Manager {
	m := &Manager{
		pluginsDir: pluginsDir,
		loaders:    make(map[Type]Loader),
		loaded:     make(map[string]*Entry),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CompileFilter compiles a plugin name pattern such as "blur*" or
// "{blend,split}". An empty pattern matches everything and yields nil.
func CompileFilter(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid plugin filter %q: %w", pattern, err)
	}
	return g, nil
}

// DiscoveredPlugin contains a manifest and its directory.
type DiscoveredPlugin struct {
	Manifest *Manifest
	Dir      string
}

// Entry is a loaded plugin.
type Entry struct {
	Name       string
	Type       Type
	Dir        string
	Manifest   *Manifest
	Descriptor *frameplugin.Descriptor
}

// Discover finds all valid plugins in the plugins directory.
// Invalid plugins are logged and skipped.
func (m *Manager) Discover(_ context.Context) ([]*DiscoveredPlugin, error) {
	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No plugins directory
		}
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	var plugins []*DiscoveredPlugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginDir := filepath.Join(m.pluginsDir, entry.Name())
		manifestPath := filepath.Join(pluginDir, ManifestFile)

		data, err := os.ReadFile(manifestPath) //nolint:gosec // manifestPath is constructed from ReadDir entries
		if err != nil {
			m.logger.Warn("skipping plugin without manifest",
				"dir", entry.Name(),
				"error", err)
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			m.logger.Warn("skipping plugin with invalid manifest",
				"dir", entry.Name(),
				"error", err)
			observability.RecordPluginLoadFailure("manifest")
			continue
		}

		if !m.matches(manifest.Name) {
			continue
		}

		plugins = append(plugins, &DiscoveredPlugin{
			Manifest: manifest,
			Dir:      pluginDir,
		})
	}

	return plugins, nil
}

// LoadAll registers the builtins, then discovers and loads every plugin in
// the plugins directory. Individual failures are logged and skipped.
func (m *Manager) LoadAll(ctx context.Context) error {
	for _, fn := range m.builtins {
		if err := m.registerBuiltin(fn); err != nil {
			m.logger.Error("failed to register builtin", "error", err)
		}
	}

	discovered, err := m.Discover(ctx)
	if err != nil {
		return err
	}

	for _, dp := range discovered {
		if err := m.LoadPlugin(ctx, dp); err != nil {
			errutil.LogError(m.logger, "failed to load plugin", err, "dir", dp.Dir)
			continue
		}
	}

	return nil
}

func (m *Manager) registerBuiltin(fn frameplugin.DescriptorFunc) error {
	desc := fn()
	if err := host.VerifyDescriptor(desc); err != nil {
		observability.RecordPluginLoadFailure(string(TypeBuiltin))
		return oops.Code(CodePluginLoadFailed).With("type", TypeBuiltin).Wrap(err)
	}
	if !m.matches(desc.Name) {
		return nil
	}
	m.store(&Entry{Name: desc.Name, Type: TypeBuiltin, Descriptor: desc})
	return nil
}

// LoadPlugin loads a single discovered plugin. A plugin whose name is
// already registered is not loaded again.
func (m *Manager) LoadPlugin(ctx context.Context, dp *DiscoveredPlugin) error {
	name := dp.Manifest.Name
	errb := oops.Code(CodePluginLoadFailed).With("plugin", name).With("type", dp.Manifest.Type)

	if _, ok := m.Lookup(name); ok {
		m.logger.Warn("plugin name already registered, skipping", "plugin", name, "dir", dp.Dir)
		return nil
	}

	loader, ok := m.loaders[dp.Manifest.Type]
	if !ok {
		observability.RecordPluginLoadFailure(string(dp.Manifest.Type))
		return errb.Wrapf(ErrNoLoader, "load plugin %s", name)
	}

	desc, err := loader.Load(ctx, dp.Manifest, dp.Dir)
	if err != nil {
		observability.RecordPluginLoadFailure(string(dp.Manifest.Type))
		return errb.Wrapf(err, "load plugin %s", name)
	}
	if err := host.VerifyDescriptor(desc); err != nil {
		observability.RecordPluginLoadFailure(string(dp.Manifest.Type))
		return errb.Wrapf(err, "verify plugin %s", name)
	}
	if desc.Name != name {
		observability.RecordPluginLoadFailure(string(dp.Manifest.Type))
		return errb.With("descriptor", desc.Name).Wrapf(ErrNameMismatch, "verify plugin %s", name)
	}

	m.store(&Entry{
		Name:       name,
		Type:       dp.Manifest.Type,
		Dir:        dp.Dir,
		Manifest:   dp.Manifest,
		Descriptor: desc,
	})

	m.logger.Info("loaded plugin",
		"plugin", name,
		"type", dp.Manifest.Type,
		"version", dp.Manifest.Version)

	return nil
}

func (m *Manager) store(e *Entry) {
	m.mu.Lock()
	m.loaded[e.Name] = e
	m.mu.Unlock()
}

func (m *Manager) matches(name string) bool {
	return m.filter == nil || m.filter.Match(name)
}

// Lookup returns the loaded plugin with the given name.
func (m *Manager) Lookup(name string) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.loaded[name]
	return e, ok
}

// Descriptor returns the descriptor of the loaded plugin with the given name.
func (m *Manager) Descriptor(name string) (*frameplugin.Descriptor, error) {
	e, ok := m.Lookup(name)
	if !ok {
		return nil, oops.Code(CodePluginNotFound).With("plugin", name).Wrapf(ErrNotFound, "plugin %q", name)
	}
	return e.Descriptor, nil
}

// Entries returns all loaded plugins sorted by name.
func (m *Manager) Entries() []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*Entry, 0, len(m.loaded))
	for _, e := range m.loaded {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// ListPlugins returns names of all loaded plugins.
func (m *Manager) ListPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}

	// Sort for deterministic output
	sort.Strings(names)
	return names
}

// Close shuts down the manager and all loaders.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Clear loaded map first to ensure consistent state even if close fails.
	m.loaded = make(map[string]*Entry)

	var errs []error
	for t, l := range m.loaders {
		if err := l.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s loader: %w", t, err))
		}
	}
	return errors.Join(errs...)
}
