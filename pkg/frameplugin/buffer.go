// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin

import (
	"sync/atomic"

	"github.com/samber/oops"
)

var lastBufferID atomic.Uint64

// Buffer is reference-counted pixel storage with a stable identity.
//
// Buffers are created by the host (input storage and output slots) or by
// Frame.Retain. The release hook runs when the last reference is dropped,
// which lets a host pool recycle the backing array.
type Buffer struct {
	id      uint64
	cfg     FrameConfig
	pix     []byte
	refs    atomic.Int32
	release func(*Buffer)
}

// NewBuffer allocates zeroed storage for cfg with one reference held by
// the caller. release may be nil.
func NewBuffer(cfg FrameConfig, release func(*Buffer)) (*Buffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newBuffer(cfg, make([]byte, cfg.Size()), release), nil
}

// WrapBuffer adopts pix as storage for cfg. The slice must be exactly
// cfg.Size() bytes long.
func WrapBuffer(cfg FrameConfig, pix []byte, release func(*Buffer)) (*Buffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(pix) != cfg.Size() {
		return nil, oops.With("want", cfg.Size()).With("got", len(pix)).
			Wrapf(ErrGeometry, "buffer length does not match %s", cfg)
	}
	return newBuffer(cfg, pix, release), nil
}

func newBuffer(cfg FrameConfig, pix []byte, release func(*Buffer)) *Buffer {
	b := &Buffer{
		id:      lastBufferID.Add(1),
		cfg:     cfg,
		pix:     pix,
		release: release,
	}
	b.refs.Store(1)
	return b
}

// LastBufferID returns the most recently assigned buffer ID. IDs increase
// monotonically, so any buffer with a larger ID was created afterwards.
func LastBufferID() uint64 { return lastBufferID.Load() }

// ID returns the storage identity. IDs are never reused within a process.
func (b *Buffer) ID() uint64 { return b.id }

// Config returns the geometry the storage was allocated for.
func (b *Buffer) Config() FrameConfig { return b.cfg }

// Bytes returns the backing array.
func (b *Buffer) Bytes() []byte { return b.pix }

// Refs returns the current reference count.
func (b *Buffer) Refs() int { return int(b.refs.Load()) }

// Ref adds a reference and returns b.
func (b *Buffer) Ref() *Buffer {
	b.refs.Add(1)
	return b
}

// Unref drops a reference. Dropping the last one runs the release hook.
func (b *Buffer) Unref() {
	n := b.refs.Add(-1)
	if n == 0 && b.release != nil {
		b.release(b)
	}
	if n < 0 {
		panic("frameplugin: buffer reference count below zero")
	}
}
