// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package goplugin loads binary frame modules that run as separate
// processes using HashiCorp's go-plugin system over net/rpc.
package goplugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/sethvargo/go-retry"

	"github.com/vidplug/vidplug/internal/plugin"
	"github.com/vidplug/vidplug/pkg/frameplugin"
	"github.com/vidplug/vidplug/pkg/pluginsdk"
)

// Connect retry defaults.
const (
	DefaultConnectAttempts = 3
	DefaultConnectBackoff  = 100 * time.Millisecond
)

// Sentinel errors for programmatic error checking.
var (
	// ErrHostClosed is returned when operations are attempted on a closed host.
	ErrHostClosed = errors.New("host is closed")
	// ErrPluginAlreadyLoaded is returned when loading a plugin that's already loaded.
	ErrPluginAlreadyLoaded = errors.New("plugin already loaded")
	// ErrNotDescriptorSource is returned when a module dispenses an unexpected type.
	ErrNotDescriptorSource = errors.New("plugin does not implement DescriptorSource")
)

// Compile-time interface check.
var _ plugin.Loader = (*Host)(nil)

// PluginClient wraps go-plugin client for testability.
type PluginClient interface {
	// Client returns the RPC client protocol.
	Client() (hashiplug.ClientProtocol, error)
	// Kill terminates the plugin process.
	Kill()
}

// ClientFactory creates plugin clients.
type ClientFactory interface {
	// NewClient creates a client for the given executable path.
	NewClient(execPath string) PluginClient
}

// DefaultClientFactory creates real go-plugin clients.
type DefaultClientFactory struct{}

// NewClient creates a real go-plugin client.
func (f *DefaultClientFactory) NewClient(execPath string) PluginClient {
	return hashiplug.NewClient(&hashiplug.ClientConfig{
		HandshakeConfig:  pluginsdk.HandshakeConfig,
		Plugins:          pluginsdk.PluginMap(nil),
		Cmd:              exec.Command(execPath), // #nosec G204 -- execPath resolved from plugin manifest; manifests validated during discovery
		AllowedProtocols: []hashiplug.Protocol{hashiplug.ProtocolNetRPC},
	})
}

// Host manages binary plugin processes.
type Host struct {
	clientFactory ClientFactory
	attempts      uint64
	backoff       time.Duration
	plugins       map[string]PluginClient
	mu            sync.Mutex
	closed        bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithClientFactory replaces the go-plugin client factory.
func WithClientFactory(f ClientFactory) HostOption {
	return func(h *Host) {
		if f == nil {
			panic("goplugin: factory cannot be nil")
		}
		h.clientFactory = f
	}
}

// WithConnectRetry sets how many times a module process is started before
// Load gives up, and the initial backoff between attempts.
func WithConnectRetry(attempts int, backoff time.Duration) HostOption {
	return func(h *Host) {
		if attempts < 1 {
			attempts = 1
		}
		h.attempts = uint64(attempts) //nolint:gosec // attempts >= 1
		h.backoff = backoff
	}
}

// NewHost creates a new binary plugin host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		clientFactory: &DefaultClientFactory{},
		attempts:      DefaultConnectAttempts,
		backoff:       DefaultConnectBackoff,
		plugins:       make(map[string]PluginClient),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load starts the module process and returns its descriptor. The process
// stays alive until Close.
func (h *Host) Load(ctx context.Context, manifest *plugin.Manifest, dir string) (*frameplugin.Descriptor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHostClosed
	}

	if _, ok := h.plugins[manifest.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginAlreadyLoaded, manifest.Name)
	}

	if manifest.BinaryPlugin == nil {
		return nil, fmt.Errorf("plugin %s is not a binary plugin", manifest.Name)
	}

	execPath := filepath.Join(dir, manifest.BinaryPlugin.Executable)
	if _, err := os.Stat(execPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plugin executable not found: %s: %w", execPath, err)
		}
		return nil, fmt.Errorf("cannot access plugin executable %s: %w", execPath, err)
	}

	var client PluginClient
	var source pluginsdk.DescriptorSource
	backoff := retry.WithMaxRetries(h.attempts-1, retry.NewExponential(h.backoff))
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		c, s, err := h.connect(manifest.Name, execPath)
		if err != nil {
			slog.Warn("plugin connect failed",
				"plugin", manifest.Name,
				"error", err)
			if errors.Is(err, ErrNotDescriptorSource) {
				return err
			}
			return retry.RetryableError(err)
		}
		client, source = c, s
		return nil
	})
	if err != nil {
		return nil, err
	}

	desc, err := source.Descriptor()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to describe plugin %s: %w", manifest.Name, err)
	}

	h.plugins[manifest.Name] = client
	return desc, nil
}

// connect starts one module process. A process whose handshake fails is
// killed before returning.
func (h *Host) connect(name, execPath string) (PluginClient, pluginsdk.DescriptorSource, error) {
	client := h.clientFactory.NewClient(execPath)

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("failed to connect to plugin %s: %w", name, err)
	}

	raw, err := rpcClient.Dispense(pluginsdk.PluginName)
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("failed to dispense plugin %s: %w", name, err)
	}

	source, ok := raw.(pluginsdk.DescriptorSource)
	if !ok {
		client.Kill()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotDescriptorSource, name)
	}

	return client, source, nil
}

// Plugins returns names of all loaded plugins.
func (h *Host) Plugins() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	names := make([]string, 0, len(h.plugins))
	for name := range h.plugins {
		names = append(names, name)
	}
	return names
}

// Close kills every module process.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.plugins {
		client.Kill()
	}

	h.closed = true
	clear(h.plugins)
	return nil
}
