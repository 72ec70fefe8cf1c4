// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package goplugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/internal/host/hosttest"
	"github.com/vidplug/vidplug/internal/plugin"
	"github.com/vidplug/vidplug/pkg/filters/blur"
	"github.com/vidplug/vidplug/pkg/frameplugin"
	"github.com/vidplug/vidplug/pkg/pluginsdk"
)

// createTempExecutable creates a dummy file that passes os.Stat checks.
func createTempExecutable(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("dummy"), 0o600))
}

// mockClientProtocol implements hashiplug.ClientProtocol for testing.
type mockClientProtocol struct {
	source      pluginsdk.DescriptorSource
	dispenseErr error
	rawDispense any // If set, return this instead of source
}

func (m *mockClientProtocol) Close() error { return nil }
func (m *mockClientProtocol) Dispense(_ string) (any, error) {
	if m.dispenseErr != nil {
		return nil, m.dispenseErr
	}
	if m.rawDispense != nil {
		return m.rawDispense, nil
	}
	return m.source, nil
}
func (m *mockClientProtocol) Ping() error { return nil }

// mockSource implements pluginsdk.DescriptorSource.
type mockSource struct {
	desc *frameplugin.Descriptor
	err  error
}

func (m *mockSource) Descriptor() (*frameplugin.Descriptor, error) {
	return m.desc, m.err
}

// mockPluginClient implements PluginClient for testing.
type mockPluginClient struct {
	protocol  hashiplug.ClientProtocol
	killed    bool
	clientErr error
}

func (m *mockPluginClient) Client() (hashiplug.ClientProtocol, error) {
	if m.clientErr != nil {
		return nil, m.clientErr
	}
	return m.protocol, nil
}

func (m *mockPluginClient) Kill() {
	m.killed = true
}

// mockClientFactory hands out the queued clients in order, repeating the
// last one once the queue is exhausted.
type mockClientFactory struct {
	clients []*mockPluginClient
	calls   int
}

func (f *mockClientFactory) NewClient(_ string) PluginClient {
	c := f.clients[min(f.calls, len(f.clients)-1)]
	f.calls++
	return c
}

func healthyClient() *mockPluginClient {
	return &mockPluginClient{
		protocol: &mockClientProtocol{source: &mockSource{desc: blur.Descriptor()}},
	}
}

func binaryManifest(name string) *plugin.Manifest {
	return &plugin.Manifest{
		Name:         name,
		Version:      "1.0.0",
		Type:         plugin.TypeBinary,
		BinaryPlugin: &plugin.BinaryConfig{Executable: name + "-plugin"},
	}
}

// newMockHost creates a host with mock clients for testing.
func newMockHost(t *testing.T, clients ...*mockPluginClient) (*Host, *mockClientFactory, string) {
	t.Helper()
	factory := &mockClientFactory{clients: clients}
	h := NewHost(WithClientFactory(factory), WithConnectRetry(3, time.Millisecond))
	return h, factory, t.TempDir()
}

func TestNewHost(t *testing.T) {
	h := NewHost()
	require.NotNil(t, h)
	assert.Equal(t, uint64(DefaultConnectAttempts), h.attempts)
	assert.IsType(t, &DefaultClientFactory{}, h.clientFactory)
}

func TestWithClientFactory_Nil(t *testing.T) {
	assert.Panics(t, func() { NewHost(WithClientFactory(nil)) })
}

func TestWithConnectRetry_ClampsAttempts(t *testing.T) {
	h := NewHost(WithConnectRetry(0, time.Millisecond))
	assert.Equal(t, uint64(1), h.attempts)
}

func TestLoad_Success(t *testing.T) {
	client := healthyClient()
	h, factory, dir := newMockHost(t, client)
	createTempExecutable(t, dir, "blur-plugin")

	desc, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.NoError(t, err)
	assert.Equal(t, "blur", desc.Name)
	assert.Equal(t, 1, factory.calls)
	assert.False(t, client.killed)
	assert.Equal(t, []string{"blur"}, h.Plugins())
}

func TestLoad_ExecutableNotFound(t *testing.T) {
	h, factory, dir := newMockHost(t, healthyClient())

	_, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Zero(t, factory.calls)
}

func TestLoad_NotBinaryPlugin(t *testing.T) {
	h, _, dir := newMockHost(t, healthyClient())
	m := binaryManifest("blur")
	m.BinaryPlugin = nil

	_, err := h.Load(context.Background(), m, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a binary plugin")
}

func TestLoad_ClientErrorRetriesThenFails(t *testing.T) {
	clientErr := errors.New("handshake timed out")
	broken := []*mockPluginClient{
		{clientErr: clientErr},
		{clientErr: clientErr},
		{clientErr: clientErr},
	}
	h, factory, dir := newMockHost(t, broken...)
	createTempExecutable(t, dir, "blur-plugin")

	_, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, clientErr)
	assert.Equal(t, 3, factory.calls)
	for i, c := range broken {
		assert.True(t, c.killed, "client %d should be killed", i)
	}
	assert.Empty(t, h.Plugins())
}

func TestLoad_ClientErrorRecovers(t *testing.T) {
	flaky := &mockPluginClient{clientErr: errors.New("connection refused")}
	good := healthyClient()
	h, factory, dir := newMockHost(t, flaky, good)
	createTempExecutable(t, dir, "blur-plugin")

	desc, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.NoError(t, err)
	assert.Equal(t, "blur", desc.Name)
	assert.Equal(t, 2, factory.calls)
	assert.True(t, flaky.killed)
	assert.False(t, good.killed)
}

func TestLoad_DispenseError(t *testing.T) {
	client := &mockPluginClient{protocol: &mockClientProtocol{dispenseErr: errors.New("unknown plugin")}}
	h, factory, dir := newMockHost(t, client)
	createTempExecutable(t, dir, "blur-plugin")

	_, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to dispense")
	assert.Equal(t, 3, factory.calls)
	assert.True(t, client.killed)
}

func TestLoad_WrongDispenseTypeIsNotRetried(t *testing.T) {
	client := &mockPluginClient{protocol: &mockClientProtocol{rawDispense: "not a source"}}
	h, factory, dir := newMockHost(t, client)
	createTempExecutable(t, dir, "blur-plugin")

	_, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotDescriptorSource)
	assert.Equal(t, 1, factory.calls)
	assert.True(t, client.killed)
}

func TestLoad_DescribeError(t *testing.T) {
	client := &mockPluginClient{protocol: &mockClientProtocol{source: &mockSource{err: errors.New("rpc down")}}}
	h, _, dir := newMockHost(t, client)
	createTempExecutable(t, dir, "blur-plugin")

	_, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to describe")
	assert.True(t, client.killed)
	assert.Empty(t, h.Plugins())
}

func TestLoad_DuplicateName(t *testing.T) {
	h, _, dir := newMockHost(t, healthyClient())
	createTempExecutable(t, dir, "blur-plugin")

	_, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.NoError(t, err)

	_, err = h.Load(context.Background(), binaryManifest("blur"), dir)
	assert.ErrorIs(t, err, ErrPluginAlreadyLoaded)
}

func TestLoad_ContextCanceled(t *testing.T) {
	h, _, dir := newMockHost(t, &mockPluginClient{clientErr: errors.New("refused")})
	createTempExecutable(t, dir, "blur-plugin")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Load(ctx, binaryManifest("blur"), dir)
	assert.Error(t, err)
}

func TestClose_KillsAndPreventsFurtherLoads(t *testing.T) {
	client := healthyClient()
	h, _, dir := newMockHost(t, client)
	createTempExecutable(t, dir, "blur-plugin")

	_, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.NoError(t, err)

	require.NoError(t, h.Close(context.Background()))
	assert.True(t, client.killed)
	assert.Nil(t, h.Plugins())

	_, err = h.Load(context.Background(), binaryManifest("blur"), dir)
	assert.ErrorIs(t, err, ErrHostClosed)
}

func TestLoad_OverRPC(t *testing.T) {
	rpcClient, _ := hashiplug.TestPluginRPCConn(t, pluginsdk.PluginMap(blur.Descriptor()), nil)
	t.Cleanup(func() { _ = rpcClient.Close() })

	h, _, dir := newMockHost(t, &mockPluginClient{protocol: rpcClient})
	createTempExecutable(t, dir, "blur-plugin")

	desc, err := h.Load(context.Background(), binaryManifest("blur"), dir)
	require.NoError(t, err)
	require.NoError(t, host.VerifyDescriptor(desc))
	assert.Equal(t, frameplugin.Fixed(1, 1), desc.Support)

	cfg := frameplugin.FrameConfig{Width: 4, Height: 2, Format: frameplugin.PixelFormatGray8}
	pool := host.NewBufferPool()
	inst := hosttest.Start(t, desc, "ksize=1", pool, []frameplugin.FrameConfig{cfg}, 1)
	in := hosttest.Fill(t, pool, cfg, 77)
	res, outs := hosttest.ProcessOne(t, inst, in)
	assert.Equal(t, frameplugin.ResultOK, res)
	require.Len(t, outs, 1)
	assert.Equal(t, byte(77), outs[0].Pix()[0])
	host.ReleaseFrames(outs)
}
