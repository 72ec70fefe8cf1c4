// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

//go:build integration

package plugin_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/internal/plugin"
	"github.com/vidplug/vidplug/internal/plugin/builtin"
	"github.com/vidplug/vidplug/internal/plugin/goplugin"
	pluginlua "github.com/vidplug/vidplug/internal/plugin/lua"
	"github.com/vidplug/vidplug/internal/plugin/shared"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

const bundledPlugins = "../../plugins"

var _ = Describe("Bundled plugins", func() {
	var (
		ctx context.Context
		mgr *plugin.Manager
	)

	BeforeEach(func() {
		ctx = context.Background()
		mgr = plugin.NewManager(bundledPlugins,
			plugin.WithLoader(plugin.TypeLua, pluginlua.NewHost()),
			plugin.WithLoader(plugin.TypeShared, shared.NewLoader()),
			plugin.WithLoader(plugin.TypeBinary, goplugin.NewHost()),
			plugin.WithBuiltins(builtin.Descriptors()...),
		)
		Expect(mgr.LoadAll(ctx)).To(Succeed())
	})

	AfterEach(func() {
		Expect(mgr.Close(ctx)).To(Succeed())
	})

	It("discovers every shipped manifest", func() {
		discovered, err := mgr.Discover(ctx)
		Expect(err).NotTo(HaveOccurred())

		names := make([]string, 0, len(discovered))
		for _, dp := range discovered {
			Expect(dp.Manifest.Validate()).To(Succeed())
			names = append(names, dp.Manifest.Name)
		}
		Expect(names).To(ConsistOf("avgframes", "blend", "blur", "invert", "split"))
	})

	It("prefers builtins over same-named disk plugins", func() {
		for _, name := range []string{"avgframes", "blend", "blur", "split"} {
			e, ok := mgr.Lookup(name)
			Expect(ok).To(BeTrue(), name)
			Expect(e.Type).To(Equal(plugin.TypeBuiltin), name)
		}
	})

	It("runs the Lua invert filter through the host", func() {
		e, ok := mgr.Lookup("invert")
		Expect(ok).To(BeTrue())
		Expect(e.Type).To(Equal(plugin.TypeLua))

		cfg := frameplugin.FrameConfig{Width: 4, Height: 2, Format: frameplugin.PixelFormatRGBA8}
		pool := host.NewBufferPool()
		inst, err := host.New(e.Descriptor, host.WithPool(pool))
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Init("strength=1", 1, 1)).To(Succeed())
		_, err = inst.Configure([]frameplugin.FrameConfig{cfg})
		Expect(err).NotTo(HaveOccurred())

		in, err := pool.Get(cfg)
		Expect(err).NotTo(HaveOccurred())
		for i := range in.Bytes() {
			in.Bytes()[i] = 10
		}

		res, outs, err := inst.Process([]*frameplugin.Buffer{in})
		in.Unref()
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(frameplugin.ResultOK))
		Expect(outs).To(HaveLen(1))
		Expect(outs[0].Pix()[:4]).To(Equal([]byte{245, 245, 245, 10}))

		host.ReleaseFrames(outs)
		Expect(inst.Destroy()).To(Succeed())
		Expect(pool.Outstanding()).To(BeZero())
	})
})
