// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package host_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/oops"

	"github.com/vidplug/vidplug/internal/host"
	"github.com/vidplug/vidplug/pkg/filters/avgframes"
	"github.com/vidplug/vidplug/pkg/frameplugin"
)

var gray4x4 = frameplugin.FrameConfig{Width: 4, Height: 4, Format: frameplugin.PixelFormatGray8}

func errorCode(err error) any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oopsErr.Code()
}

func filled(pool *host.BufferPool, cfg frameplugin.FrameConfig, v byte) *frameplugin.Buffer {
	b, err := pool.Get(cfg)
	Expect(err).NotTo(HaveOccurred())
	for i := range b.Bytes() {
		b.Bytes()[i] = v
	}
	return b
}

var _ = Describe("Instance lifecycle", func() {
	var (
		stub      *stubPlugin
		destroyed int
		desc      *frameplugin.Descriptor
		pool      *host.BufferPool
		inst      *host.Instance
	)

	BeforeEach(func() {
		stub = &stubPlugin{}
		destroyed = 0
		desc = stubDescriptor("stub", stub, &destroyed)
		pool = host.NewBufferPool()
		var err error
		inst, err = host.New(desc, host.WithPool(pool))
		Expect(err).NotTo(HaveOccurred())
	})

	configured := func() {
		Expect(inst.Init("", 1, 1)).To(Succeed())
		_, err := inst.Configure([]frameplugin.FrameConfig{gray4x4})
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("ordering", func() {
		It("drives a full init, configure, process, flush, uninit, destroy sequence", func() {
			configured()

			in := filled(pool, gray4x4, 7)
			res, outs, err := inst.Process([]*frameplugin.Buffer{in})
			in.Unref()
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(frameplugin.ResultOK))
			Expect(outs).To(HaveLen(1))
			Expect(outs[0].Pix()[0]).To(Equal(byte(7)))
			host.ReleaseFrames(outs)

			more, _, err := inst.Flush()
			Expect(err).NotTo(HaveOccurred())
			Expect(more).To(BeFalse())
			Expect(inst.State()).To(Equal(host.StateTerminated))

			Expect(inst.Uninit()).To(Succeed())
			Expect(inst.Destroy()).To(Succeed())

			Expect(stub.calls).To(Equal([]string{"init", "configure", "process", "flush", "uninit"}))
			Expect(destroyed).To(Equal(1))
			Expect(pool.Outstanding()).To(BeZero())
		})

		It("rejects process before configure without calling the module", func() {
			Expect(inst.Init("", 1, 1)).To(Succeed())

			_, _, err := inst.Process(nil)
			Expect(err).To(MatchError(host.ErrInvalidState))
			Expect(errorCode(err)).To(Equal(host.CodeInvalidState))
			Expect(stub.calls).To(Equal([]string{"init"}))
		})

		It("rejects configure twice", func() {
			configured()

			_, err := inst.Configure([]frameplugin.FrameConfig{gray4x4})
			Expect(err).To(MatchError(host.ErrInvalidState))
			Expect(stub.calls).To(Equal([]string{"init", "configure"}))
		})

		It("rejects init twice", func() {
			Expect(inst.Init("", 1, 1)).To(Succeed())
			Expect(inst.Init("", 1, 1)).To(MatchError(host.ErrInvalidState))
		})

		It("rejects process after flush has drained", func() {
			configured()
			more, _, err := inst.Flush()
			Expect(err).NotTo(HaveOccurred())
			Expect(more).To(BeFalse())

			in := filled(pool, gray4x4, 1)
			defer in.Unref()
			_, _, err = inst.Process([]*frameplugin.Buffer{in})
			Expect(err).To(MatchError(host.ErrInvalidState))
		})

		It("runs uninit exactly once", func() {
			configured()
			Expect(inst.Uninit()).To(Succeed())
			Expect(inst.Uninit()).To(MatchError(host.ErrInvalidState))
			Expect(inst.Destroy()).To(Succeed())
			Expect(stub.calls).To(Equal([]string{"init", "configure", "uninit"}))
		})

		It("uninitializes on destroy when the caller stops mid-stream", func() {
			configured()
			Expect(inst.Destroy()).To(Succeed())
			Expect(stub.calls).To(Equal([]string{"init", "configure", "uninit"}))
			Expect(destroyed).To(Equal(1))
			Expect(inst.Destroy()).To(MatchError(host.ErrInvalidState))
		})
	})

	Describe("setup failures", func() {
		It("allows only destroy after init fails", func() {
			stub.initErr = errors.New("bad params")

			err := inst.Init("", 1, 1)
			Expect(err).To(MatchError(ContainSubstring("bad params")))
			Expect(errorCode(err)).To(Equal(host.CodeInitFailed))
			Expect(inst.State()).To(Equal(host.StateFailed))

			_, err = inst.Configure([]frameplugin.FrameConfig{gray4x4})
			Expect(err).To(MatchError(host.ErrInvalidState))
			Expect(inst.Uninit()).To(MatchError(host.ErrInvalidState))
			Expect(inst.Destroy()).To(Succeed())

			Expect(stub.calls).To(Equal([]string{"init"}))
			Expect(destroyed).To(Equal(1))
		})

		It("rejects illegal topologies before the module sees them", func() {
			err := inst.Init("", 2, 2)
			Expect(err).To(MatchError(frameplugin.ErrTopology))
			Expect(errorCode(err)).To(Equal("TOPOLOGY_REJECTED"))
			Expect(stub.calls).To(BeEmpty())
		})

		It("uninitializes after configure fails", func() {
			stub.configureErr = errors.New("unsupported geometry")
			Expect(inst.Init("", 1, 1)).To(Succeed())

			_, err := inst.Configure([]frameplugin.FrameConfig{gray4x4})
			Expect(errorCode(err)).To(Equal(host.CodeConfigureFailed))

			_, _, err = inst.Process(nil)
			Expect(err).To(MatchError(host.ErrInvalidState))
			Expect(inst.Destroy()).To(Succeed())
			Expect(stub.calls).To(Equal([]string{"init", "configure", "uninit"}))
		})

		It("rejects outputs the module leaves invalid", func() {
			stub.configure = func(_, out []frameplugin.FrameConfig) { out[0].Width = 0 }
			Expect(inst.Init("", 1, 1)).To(Succeed())

			_, err := inst.Configure([]frameplugin.FrameConfig{gray4x4})
			Expect(err).To(MatchError(frameplugin.ErrGeometry))
		})

		It("rejects a configure call with the wrong number of inputs", func() {
			Expect(inst.Init("", 1, 1)).To(Succeed())
			_, err := inst.Configure(nil)
			Expect(errorCode(err)).To(Equal(host.CodeConfigureFailed))
		})
	})

	Describe("geometry negotiation", func() {
		It("defaults each output to the matching or last input", func() {
			fanIn := &stubPlugin{}
			d := stubDescriptor("fan-in", fanIn, nil)
			i, err := host.New(d)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = i.Destroy() }()

			small := frameplugin.FrameConfig{Width: 2, Height: 2, Format: frameplugin.PixelFormatRGBA8}
			Expect(i.Init("", 2, 1)).To(Succeed())
			outs, err := i.Configure([]frameplugin.FrameConfig{small, gray4x4})
			Expect(err).NotTo(HaveOccurred())
			Expect(outs).To(Equal([]frameplugin.FrameConfig{small}))
		})

		It("copies the single input to every output of a fan-out", func() {
			fanOut := &stubPlugin{}
			i, err := host.New(stubDescriptor("fan-out", fanOut, nil))
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = i.Destroy() }()

			Expect(i.Init("", 1, 3)).To(Succeed())
			outs, err := i.Configure([]frameplugin.FrameConfig{gray4x4})
			Expect(err).NotTo(HaveOccurred())
			Expect(outs).To(Equal([]frameplugin.FrameConfig{gray4x4, gray4x4, gray4x4}))
		})

		It("honours geometry the module negotiates", func() {
			half := frameplugin.FrameConfig{Width: 2, Height: 2, Format: frameplugin.PixelFormatGray8}
			stub.configure = func(_, out []frameplugin.FrameConfig) { out[0] = half }
			stub.process = func(_, out []*frameplugin.Frame) (frameplugin.Result, error) {
				return frameplugin.ResultOK, nil
			}
			configured()
			Expect(inst.OutputConfigs()).To(Equal([]frameplugin.FrameConfig{half}))

			in := filled(pool, gray4x4, 1)
			defer in.Unref()
			_, outs, err := inst.Process([]*frameplugin.Buffer{in})
			Expect(err).NotTo(HaveOccurred())
			Expect(outs[0].Config()).To(Equal(half))
			host.ReleaseFrames(outs)
		})
	})

	Describe("process results", func() {
		BeforeEach(configured)

		It("returns no frames on try again", func() {
			stub.process = func(_, _ []*frameplugin.Frame) (frameplugin.Result, error) {
				return frameplugin.ResultTryAgain, nil
			}
			in := filled(pool, gray4x4, 1)
			res, outs, err := inst.Process([]*frameplugin.Buffer{in})
			in.Unref()

			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(frameplugin.ResultTryAgain))
			Expect(outs).To(BeNil())
			Expect(inst.State()).To(Equal(host.StateProcessing))
			Expect(pool.Outstanding()).To(BeZero())
		})

		It("fails the instance on error", func() {
			stub.process = func(_, _ []*frameplugin.Frame) (frameplugin.Result, error) {
				return frameplugin.ResultError, errors.New("decoder exploded")
			}
			in := filled(pool, gray4x4, 1)
			defer in.Unref()
			res, _, err := inst.Process([]*frameplugin.Buffer{in})

			Expect(res).To(Equal(frameplugin.ResultError))
			Expect(err).To(MatchError(ContainSubstring("decoder exploded")))
			Expect(errorCode(err)).To(Equal(host.CodeProcessFailed))
			Expect(inst.State()).To(Equal(host.StateFailed))
		})

		It("treats an error result without an error value as a failure", func() {
			stub.process = func(_, _ []*frameplugin.Frame) (frameplugin.Result, error) {
				return frameplugin.ResultError, nil
			}
			in := filled(pool, gray4x4, 1)
			defer in.Unref()
			_, _, err := inst.Process([]*frameplugin.Buffer{in})
			Expect(err).To(MatchError(host.ErrModuleFailed))
		})

		It("recovers a panicking module", func() {
			stub.process = func(_, _ []*frameplugin.Frame) (frameplugin.Result, error) {
				panic("index out of range")
			}
			in := filled(pool, gray4x4, 1)
			defer in.Unref()
			res, _, err := inst.Process([]*frameplugin.Buffer{in})

			Expect(res).To(Equal(frameplugin.ResultError))
			Expect(err).To(MatchError(host.ErrModulePanic))
			Expect(inst.State()).To(Equal(host.StateFailed))
			Expect(pool.Outstanding()).To(BeNumerically("==", 1))
		})

		It("rejects inputs that do not match the configured geometry", func() {
			other := frameplugin.FrameConfig{Width: 8, Height: 8, Format: frameplugin.PixelFormatGray8}
			in := filled(pool, other, 1)
			defer in.Unref()

			_, _, err := inst.Process([]*frameplugin.Buffer{in})
			Expect(errorCode(err)).To(Equal(host.CodeInvalidInput))
			Expect(err).To(MatchError(frameplugin.ErrGeometry))
			Expect(inst.State()).To(Equal(host.StateConfigured))
			Expect(stub.calls).NotTo(ContainElement("process"))
		})
	})

	Describe("output ownership", func() {
		BeforeEach(configured)

		It("accepts an output aliased to the current input", func() {
			stub.process = func(in, out []*frameplugin.Frame) (frameplugin.Result, error) {
				return frameplugin.ResultOK, out[0].Alias(in[0])
			}
			in := filled(pool, gray4x4, 3)
			_, outs, err := inst.Process([]*frameplugin.Buffer{in})
			Expect(err).NotTo(HaveOccurred())
			Expect(outs[0].Storage()).To(BeIdenticalTo(in))
			Expect(in.Refs()).To(Equal(2))

			in.Unref()
			host.ReleaseFrames(outs)
			Expect(pool.Outstanding()).To(BeZero())
		})

		It("accepts an output aliased to a frame retained in an earlier call", func() {
			var kept *frameplugin.Frame
			stub.process = func(in, out []*frameplugin.Frame) (frameplugin.Result, error) {
				if kept == nil {
					var err error
					kept, err = in[0].Retain()
					if err != nil {
						return frameplugin.ResultError, err
					}
					return frameplugin.ResultTryAgain, nil
				}
				return frameplugin.ResultOK, out[0].Alias(kept)
			}

			first := filled(pool, gray4x4, 4)
			res, _, err := inst.Process([]*frameplugin.Buffer{first})
			first.Unref()
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(frameplugin.ResultTryAgain))

			second := filled(pool, gray4x4, 5)
			_, outs, err := inst.Process([]*frameplugin.Buffer{second})
			second.Unref()
			Expect(err).NotTo(HaveOccurred())
			Expect(outs[0].Storage()).To(BeIdenticalTo(kept.Storage()))
			Expect(outs[0].Pix()[0]).To(Equal(byte(4)))
			host.ReleaseFrames(outs)
			kept.Release()
			Expect(pool.Outstanding()).To(BeZero())
		})

		It("fails when an output aliases a copy made during the same call", func() {
			var fresh *frameplugin.Frame
			stub.process = func(in, out []*frameplugin.Frame) (frameplugin.Result, error) {
				var err error
				fresh, err = in[0].Retain()
				if err != nil {
					return frameplugin.ResultError, err
				}
				return frameplugin.ResultOK, out[0].Alias(fresh)
			}
			in := filled(pool, gray4x4, 4)
			defer in.Unref()

			res, outs, err := inst.Process([]*frameplugin.Buffer{in})
			Expect(res).To(Equal(frameplugin.ResultError))
			Expect(outs).To(BeNil())
			Expect(err).To(MatchError(host.ErrOwnership))
			Expect(errorCode(err)).To(Equal(host.CodeOwnershipViolation))
			Expect(inst.State()).To(Equal(host.StateFailed))
			fresh.Release()
		})

		It("fails when a flushed output aliases a copy made during the flush", func() {
			var kept, fresh *frameplugin.Frame
			stub.process = func(in, _ []*frameplugin.Frame) (frameplugin.Result, error) {
				var err error
				kept, err = in[0].Retain()
				if err != nil {
					return frameplugin.ResultError, err
				}
				return frameplugin.ResultTryAgain, nil
			}
			stub.flush = func(out []*frameplugin.Frame) bool {
				fresh, _ = kept.Retain()
				return out[0].Alias(fresh) == nil
			}
			in := filled(pool, gray4x4, 6)
			_, _, err := inst.Process([]*frameplugin.Buffer{in})
			in.Unref()
			Expect(err).NotTo(HaveOccurred())

			produced, outs, err := inst.Flush()
			Expect(produced).To(BeFalse())
			Expect(outs).To(BeNil())
			Expect(err).To(MatchError(host.ErrOwnership))
			Expect(errorCode(err)).To(Equal(host.CodeOwnershipViolation))
			Expect(inst.State()).To(Equal(host.StateFailed))
			fresh.Release()
			kept.Release()
		})

		It("fails when the module replaces an output slot", func() {
			stub.process = func(_, out []*frameplugin.Frame) (frameplugin.Result, error) {
				b, err := frameplugin.NewBuffer(gray4x4, nil)
				if err != nil {
					return frameplugin.ResultError, err
				}
				out[0] = frameplugin.NewSlot(b)
				return frameplugin.ResultOK, nil
			}
			in := filled(pool, gray4x4, 1)
			defer in.Unref()

			_, outs, err := inst.Process([]*frameplugin.Buffer{in})
			Expect(outs).To(BeNil())
			Expect(err).To(MatchError(host.ErrOwnership))
			Expect(errorCode(err)).To(Equal(host.CodeOwnershipViolation))
			Expect(inst.State()).To(Equal(host.StateFailed))
		})

		It("fails when an output aliases storage that is not a current input", func() {
			foreign, err := frameplugin.NewBuffer(gray4x4, nil)
			Expect(err).NotTo(HaveOccurred())
			stub.process = func(_, out []*frameplugin.Frame) (frameplugin.Result, error) {
				return frameplugin.ResultOK, out[0].Alias(frameplugin.Borrow(foreign))
			}
			in := filled(pool, gray4x4, 1)
			defer in.Unref()

			_, _, err = inst.Process([]*frameplugin.Buffer{in})
			Expect(err).To(MatchError(host.ErrOwnership))
			Expect(foreign.Refs()).To(Equal(1))
		})

		It("expires inputs once the call returns", func() {
			var view *frameplugin.Frame
			stub.process = func(in, out []*frameplugin.Frame) (frameplugin.Result, error) {
				if view == nil {
					view = in[0]
					return frameplugin.ResultTryAgain, nil
				}
				if err := out[0].Alias(view); err != nil {
					return frameplugin.ResultError, err
				}
				return frameplugin.ResultOK, nil
			}
			first := filled(pool, gray4x4, 1)
			_, _, err := inst.Process([]*frameplugin.Buffer{first})
			first.Unref()
			Expect(err).NotTo(HaveOccurred())
			Expect(view.Expired()).To(BeTrue())
			Expect(view.Pix()).To(BeNil())

			second := filled(pool, gray4x4, 2)
			defer second.Unref()
			_, _, err = inst.Process([]*frameplugin.Buffer{second})
			Expect(err).To(MatchError(frameplugin.ErrExpired))
		})
	})

	Describe("temporal buffering", func() {
		It("drains exactly the residual window", func() {
			i, err := host.New(avgframes.Descriptor(), host.WithPool(pool))
			Expect(err).NotTo(HaveOccurred())
			Expect(i.Init("frames=3", 1, 1)).To(Succeed())
			_, err = i.Configure([]frameplugin.FrameConfig{gray4x4})
			Expect(err).NotTo(HaveOccurred())

			var results []frameplugin.Result
			for n := 0; n < 6; n++ {
				in := filled(pool, gray4x4, byte(n*10))
				res, outs, err := i.Process([]*frameplugin.Buffer{in})
				in.Unref()
				Expect(err).NotTo(HaveOccurred())
				results = append(results, res)
				host.ReleaseFrames(outs)
			}
			Expect(results[:2]).To(HaveEach(frameplugin.ResultTryAgain))
			Expect(results[2:]).To(HaveEach(frameplugin.ResultOK))

			flushed := 0
			for {
				more, outs, err := i.Flush()
				Expect(err).NotTo(HaveOccurred())
				if !more {
					break
				}
				Expect(outs).To(HaveLen(1))
				host.ReleaseFrames(outs)
				flushed++
			}
			Expect(flushed).To(Equal(2))

			Expect(i.Uninit()).To(Succeed())
			Expect(i.Destroy()).To(Succeed())
			Expect(pool.Outstanding()).To(BeZero())
		})
	})

	Describe("destruction", func() {
		It("refuses a descriptor that did not create the instance", func() {
			other := stubDescriptor("other", &stubPlugin{}, nil)

			err := inst.DestroyWith(other)
			Expect(err).To(MatchError(host.ErrForeignInstance))
			Expect(errorCode(err)).To(Equal(host.CodeForeignInstance))
			Expect(destroyed).To(BeZero())

			Expect(inst.DestroyWith(desc)).To(Succeed())
			Expect(destroyed).To(Equal(1))
		})
	})
})
