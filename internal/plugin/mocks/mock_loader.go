// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package mocks holds testify mocks for the plugin package interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vidplug/vidplug/internal/plugin"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// MockLoader is a mock implementation of plugin.Loader.
type MockLoader struct {
	mock.Mock
}

var _ plugin.Loader = (*MockLoader)(nil)

// NewMockLoader creates a MockLoader whose expectations are asserted when
// the test ends.
func NewMockLoader(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockLoader {
	m := &MockLoader{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockLoaderExpecter records typed expectations.
type MockLoaderExpecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expectation recorder.
func (m *MockLoader) EXPECT() *MockLoaderExpecter {
	return &MockLoaderExpecter{mock: &m.Mock}
}

// Load provides a mock function.
func (m *MockLoader) Load(ctx context.Context, manifest *plugin.Manifest, dir string) (*frameplugin.Descriptor, error) {
	ret := m.Called(ctx, manifest, dir)
	var desc *frameplugin.Descriptor
	if fn, ok := ret.Get(0).(func(context.Context, *plugin.Manifest, string) *frameplugin.Descriptor); ok {
		desc = fn(ctx, manifest, dir)
	} else if ret.Get(0) != nil {
		desc = ret.Get(0).(*frameplugin.Descriptor)
	}
	return desc, ret.Error(1)
}

// Close provides a mock function.
func (m *MockLoader) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockLoaderLoadCall is an expectation on Load.
type MockLoaderLoadCall struct {
	*mock.Call
}

// Load records an expectation on Load.
func (e *MockLoaderExpecter) Load(ctx, manifest, dir any) *MockLoaderLoadCall {
	return &MockLoaderLoadCall{Call: e.mock.On("Load", ctx, manifest, dir)}
}

// Return sets the values Load returns.
func (c *MockLoaderLoadCall) Return(desc *frameplugin.Descriptor, err error) *MockLoaderLoadCall {
	c.Call.Return(desc, err)
	return c
}

// MockLoaderCloseCall is an expectation on Close.
type MockLoaderCloseCall struct {
	*mock.Call
}

// Close records an expectation on Close.
func (e *MockLoaderExpecter) Close(ctx any) *MockLoaderCloseCall {
	return &MockLoaderCloseCall{Call: e.mock.On("Close", ctx)}
}

// Return sets the value Close returns.
func (c *MockLoaderCloseCall) Return(err error) *MockLoaderCloseCall {
	c.Call.Return(err)
	return c
}
