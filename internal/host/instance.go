// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

// Package host drives frame plugin instances through their lifecycle and
// enforces the buffer ownership rules on every call.
package host

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// Option configures an Instance.
type Option func(*Instance)

// WithPool sets the pool output slots are allocated from.
func WithPool(p *BufferPool) Option {
	return func(i *Instance) { i.pool = p }
}

// WithLogger sets the instance logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Instance) { i.logger = l }
}

// WithParamPolicy sets how parameter issues are handled in Init.
func WithParamPolicy(p ParamPolicy) Option {
	return func(i *Instance) { i.policy = p }
}

// Instance is one module instance and the host-side state that guards it.
// All methods serialize on the instance; a module never sees two calls at once.
type Instance struct {
	mu     sync.Mutex
	id     ulid.ULID
	desc   *frameplugin.Descriptor
	plugin frameplugin.Plugin
	pool   *BufferPool
	logger *slog.Logger
	policy ParamPolicy

	state       State
	initialized bool
	nbInputs    int
	nbOutputs   int
	inputs      []frameplugin.FrameConfig
	outputs     []frameplugin.FrameConfig
}

// New verifies desc and creates an instance with its factory.
func New(desc *frameplugin.Descriptor, opts ...Option) (*Instance, error) {
	if err := VerifyDescriptor(desc); err != nil {
		return nil, err
	}
	inst := &Instance{
		id:     ulid.Make(),
		desc:   desc,
		policy: ParamsLenient,
		state:  StateUnconfigured,
	}
	for _, opt := range opts {
		opt(inst)
	}
	if inst.pool == nil {
		inst.pool = NewBufferPool()
	}
	if inst.logger == nil {
		inst.logger = slog.Default()
	}
	inst.logger = inst.logger.With("plugin", desc.Name, "instance", inst.id.String())

	var p frameplugin.Plugin
	err := guard(func() error {
		p = desc.Create()
		return nil
	})
	if err != nil {
		return nil, oops.Code(CodeInvalidDescriptor).With("plugin", desc.Name).Wrapf(err, "create")
	}
	if p == nil {
		return nil, oops.Code(CodeInvalidDescriptor).With("plugin", desc.Name).
			Wrapf(ErrInvalidDescriptor, "create returned no instance")
	}
	inst.plugin = p
	return inst, nil
}

// ID returns the instance identifier used in logs.
func (i *Instance) ID() ulid.ULID { return i.id }

// Name returns the module name.
func (i *Instance) Name() string { return i.desc.Name }

// Descriptor returns the descriptor that created the instance.
func (i *Instance) Descriptor() *frameplugin.Descriptor { return i.desc }

// State returns the current lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// InputConfigs returns the negotiated input geometry.
func (i *Instance) InputConfigs() []frameplugin.FrameConfig {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]frameplugin.FrameConfig(nil), i.inputs...)
}

// OutputConfigs returns the negotiated output geometry.
func (i *Instance) OutputConfigs() []frameplugin.FrameConfig {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]frameplugin.FrameConfig(nil), i.outputs...)
}

// Init validates the topology, applies the parameter policy and calls the
// module's Init. Any failure leaves the instance in StateFailed.
func (i *Instance) Init(params string, nbInputs, nbOutputs int) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.expect("init", StateUnconfigured); err != nil {
		return err
	}

	topo := frameplugin.Topology{Inputs: nbInputs, Outputs: nbOutputs}
	if err := topo.Validate(); err != nil {
		i.state = StateFailed
		return err
	}

	if err := i.checkParams(params); err != nil {
		i.state = StateFailed
		return err
	}

	err := guard(func() error { return i.plugin.Init(params, nbInputs, nbOutputs) })
	if err != nil {
		i.state = StateFailed
		return oops.Code(CodeInitFailed).
			With("plugin", i.desc.Name).
			With("topology", topo.String()).
			Wrapf(err, "init")
	}

	i.initialized = true
	i.nbInputs, i.nbOutputs = nbInputs, nbOutputs
	i.state = StateInitialized
	i.logger.Debug("instance initialized", "topology", topo.String(), "params", params)
	return nil
}

func (i *Instance) checkParams(params string) error {
	_, issues := frameplugin.ParseParams(params, i.desc.Params)
	if len(issues) == 0 {
		return nil
	}
	if i.policy == ParamsStrict {
		msgs := make([]string, 0, len(issues))
		for _, is := range issues {
			msgs = append(msgs, is.String())
		}
		return oops.Code(CodeParamsRejected).
			With("plugin", i.desc.Name).
			With("issues", msgs).
			Errorf("parameters rejected: %s", strings.Join(msgs, "; "))
	}
	for _, is := range issues {
		i.logger.Warn("ignoring parameter", "key", is.Key, "value", is.Value, "reason", is.Reason)
	}
	return nil
}

// Configure fills default output geometry, lets the module negotiate it and
// freezes the result. It returns the output configs the instance will use.
func (i *Instance) Configure(inputs []frameplugin.FrameConfig) ([]frameplugin.FrameConfig, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.expect("configure", StateInitialized); err != nil {
		return nil, err
	}

	errb := oops.Code(CodeConfigureFailed).With("plugin", i.desc.Name)
	if len(inputs) != i.nbInputs {
		i.state = StateFailed
		return nil, errb.With("want", i.nbInputs).With("got", len(inputs)).
			Errorf("configure needs one config per input")
	}
	for n, cfg := range inputs {
		if err := cfg.Validate(); err != nil {
			i.state = StateFailed
			return nil, errb.With("input", n).Wrap(err)
		}
	}

	ins := append([]frameplugin.FrameConfig(nil), inputs...)
	outs := frameplugin.DefaultOutputConfigs(ins, i.nbOutputs)

	if err := guard(func() error { return i.plugin.Configure(ins, outs) }); err != nil {
		i.state = StateFailed
		return nil, errb.Wrapf(err, "configure")
	}
	for n, cfg := range outs {
		if err := cfg.Validate(); err != nil {
			i.state = StateFailed
			return nil, errb.With("output", n).Wrapf(err, "module negotiated invalid output")
		}
	}

	i.inputs = ins
	i.outputs = outs
	i.state = StateConfigured
	i.logger.Debug("instance configured", "inputs", fmt.Sprint(ins), "outputs", fmt.Sprint(outs))
	return append([]frameplugin.FrameConfig(nil), outs...), nil
}

// Process hands one set of inputs to the module.
//
// On ResultOK the returned frames belong to the caller, who must Release
// each one. On ResultTryAgain no frames are returned and the caller moves on
// to the next inputs. On ResultError the instance enters StateFailed. The
// caller keeps its references to inputs either way.
func (i *Instance) Process(inputs []*frameplugin.Buffer) (frameplugin.Result, []*frameplugin.Frame, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.state.canProcess() {
		return frameplugin.ResultError, nil, i.stateError("process")
	}
	if err := i.checkInputs(inputs); err != nil {
		return frameplugin.ResultError, nil, err
	}

	slots, err := i.allocSlots()
	if err != nil {
		return frameplugin.ResultError, nil, err
	}

	views := make([]*frameplugin.Frame, len(inputs))
	for n, b := range inputs {
		views[n] = frameplugin.Borrow(b)
	}
	given := append([]*frameplugin.Frame(nil), slots...)
	watermark := frameplugin.LastBufferID()

	var res frameplugin.Result
	err = guard(func() error {
		var perr error
		res, perr = i.plugin.Process(views, given)
		return perr
	})
	for _, v := range views {
		v.Expire()
	}
	i.state = StateProcessing

	errb := oops.Code(CodeProcessFailed).With("plugin", i.desc.Name)
	switch {
	case err != nil:
		releaseAll(slots)
		i.state = StateFailed
		return frameplugin.ResultError, nil, errb.Wrapf(err, "process")
	case res == frameplugin.ResultError:
		releaseAll(slots)
		i.state = StateFailed
		return frameplugin.ResultError, nil, errb.Wrapf(ErrModuleFailed, "process")
	case res == frameplugin.ResultTryAgain:
		releaseAll(slots)
		return frameplugin.ResultTryAgain, nil, nil
	case res != frameplugin.ResultOK:
		releaseAll(slots)
		i.state = StateFailed
		return frameplugin.ResultError, nil, errb.With("result", int(res)).
			Wrapf(ErrModuleFailed, "process returned unknown result")
	}

	if err := verifyOutputs(slots, given, inputs, watermark); err != nil {
		releaseAll(slots)
		i.state = StateFailed
		return frameplugin.ResultError, nil, oops.With("plugin", i.desc.Name).Wrap(err)
	}
	return frameplugin.ResultOK, slots, nil
}

// Flush asks the module to drain one buffered result. It returns true with
// the produced frames, or false once nothing is left, after which the
// instance is StateTerminated and only Uninit and Destroy remain.
func (i *Instance) Flush() (bool, []*frameplugin.Frame, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.state.canFlush() {
		return false, nil, i.stateError("flush")
	}

	slots, err := i.allocSlots()
	if err != nil {
		return false, nil, err
	}
	given := append([]*frameplugin.Frame(nil), slots...)
	watermark := frameplugin.LastBufferID()

	var produced bool
	err = guard(func() error {
		produced = i.plugin.Flush(given)
		return nil
	})
	if err != nil {
		releaseAll(slots)
		i.state = StateFailed
		return false, nil, oops.Code(CodeFlushFailed).With("plugin", i.desc.Name).Wrapf(err, "flush")
	}
	if !produced {
		releaseAll(slots)
		i.state = StateTerminated
		i.logger.Debug("instance drained")
		return false, nil, nil
	}
	if err := verifyOutputs(slots, given, nil, watermark); err != nil {
		releaseAll(slots)
		i.state = StateFailed
		return false, nil, oops.With("plugin", i.desc.Name).Wrap(err)
	}
	i.state = StateFlushing
	return true, slots, nil
}

// Uninit releases the module's internal state. It runs at most once and
// only after a successful Init.
func (i *Instance) Uninit() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.uninitLocked()
}

func (i *Instance) uninitLocked() error {
	if !i.initialized || i.state == StateClosed || i.state == StateDestroyed {
		return i.stateError("uninit")
	}
	err := guard(func() error {
		i.plugin.Uninit()
		return nil
	})
	i.state = StateClosed
	if err != nil {
		return oops.With("plugin", i.desc.Name).Wrapf(err, "uninit")
	}
	return nil
}

// Destroy returns the instance to the descriptor that created it. An
// instance whose Init succeeded is uninitialized first if the caller has not
// done so.
func (i *Instance) Destroy() error {
	return i.DestroyWith(i.desc)
}

// DestroyWith destroys the instance through desc, which must be the
// descriptor that created it.
func (i *Instance) DestroyWith(desc *frameplugin.Descriptor) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if desc != i.desc {
		name := ""
		if desc != nil {
			name = desc.Name
		}
		return oops.Code(CodeForeignInstance).
			With("plugin", i.desc.Name).
			With("descriptor", name).
			Wrapf(ErrForeignInstance, "destroy")
	}
	if i.state == StateDestroyed {
		return i.stateError("destroy")
	}

	var uerr error
	if i.initialized && i.state != StateClosed {
		uerr = i.uninitLocked()
	}
	err := guard(func() error {
		i.desc.Destroy(i.plugin)
		return nil
	})
	i.plugin = nil
	i.state = StateDestroyed
	i.logger.Debug("instance destroyed")
	if err != nil {
		return oops.With("plugin", i.desc.Name).Wrapf(err, "destroy")
	}
	return uerr
}

func (i *Instance) expect(op string, want State) error {
	if i.state != want {
		return i.stateError(op)
	}
	return nil
}

func (i *Instance) stateError(op string) error {
	return oops.Code(CodeInvalidState).
		With("plugin", i.desc.Name).
		With("operation", op).
		With("state", i.state.String()).
		Wrapf(ErrInvalidState, "%s not allowed while %s", op, i.state)
}

func (i *Instance) checkInputs(inputs []*frameplugin.Buffer) error {
	errb := oops.Code(CodeInvalidInput).With("plugin", i.desc.Name)
	if len(inputs) != i.nbInputs {
		return errb.With("want", i.nbInputs).With("got", len(inputs)).
			Errorf("process needs one frame per input")
	}
	for n, b := range inputs {
		if b == nil {
			return errb.With("input", n).Errorf("input frame is nil")
		}
		if b.Config() != i.inputs[n] {
			return errb.With("input", n).
				With("want", i.inputs[n].String()).
				With("got", b.Config().String()).
				Wrapf(frameplugin.ErrGeometry, "input does not match configured geometry")
		}
	}
	return nil
}

func (i *Instance) allocSlots() ([]*frameplugin.Frame, error) {
	slots := make([]*frameplugin.Frame, 0, len(i.outputs))
	for _, cfg := range i.outputs {
		b, err := i.pool.Get(cfg)
		if err != nil {
			releaseAll(slots)
			return nil, oops.With("plugin", i.desc.Name).Wrapf(err, "allocate output slot")
		}
		slots = append(slots, frameplugin.NewSlot(b))
	}
	return slots, nil
}

// ReleaseFrames releases every frame in frames.
func ReleaseFrames(frames []*frameplugin.Frame) {
	releaseAll(frames)
}

func releaseAll(frames []*frameplugin.Frame) {
	for _, f := range frames {
		if f != nil {
			f.Release()
		}
	}
}

// guard runs a module call and converts a panic into ErrModulePanic.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.With("panic", fmt.Sprint(r)).Wrapf(ErrModulePanic, "%v", r)
		}
	}()
	return fn()
}
