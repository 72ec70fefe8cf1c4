// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin

import (
	"github.com/samber/oops"
)

// Mode tags how a Frame relates to its storage.
type Mode uint8

// Frame modes.
const (
	// ModeBorrowed is a read-only view of host storage, valid only for the
	// duration of the call that supplied it.
	ModeBorrowed Mode = iota + 1
	// ModeSlot is a pre-allocated, host-owned output.
	ModeSlot
	// ModeRetained is a module-owned copy made with Frame.Retain.
	ModeRetained
)

func (m Mode) String() string {
	switch m {
	case ModeBorrowed:
		return "borrowed"
	case ModeSlot:
		return "slot"
	case ModeRetained:
		return "retained"
	default:
		return "unknown"
	}
}

// Frame is a tagged reference to pixel storage.
//
// A slot keeps the storage it was allocated with for its whole life. Alias
// points it at another frame's storage without copying; Writable and
// CopyFrom point it back at its own storage and write there. No operation
// replaces or resizes the slot's own storage.
type Frame struct {
	mode    Mode
	own     *Buffer
	cur     *Buffer
	aliasOf Mode
	expired bool
}

// Borrow wraps host storage as an input view. The host calls Expire once
// the call that received the view returns.
func Borrow(b *Buffer) *Frame {
	return &Frame{mode: ModeBorrowed, own: b, cur: b}
}

// NewSlot wraps host storage as an output slot. The slot takes over the
// caller's reference to b.
func NewSlot(b *Buffer) *Frame {
	return &Frame{mode: ModeSlot, own: b, cur: b}
}

// Mode returns the frame's ownership mode.
func (f *Frame) Mode() Mode { return f.mode }

// Config returns the frame's geometry.
func (f *Frame) Config() FrameConfig { return f.own.cfg }

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.own.cfg.Width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.own.cfg.Height }

// Format returns the pixel format.
func (f *Frame) Format() PixelFormat { return f.own.cfg.Format }

// Stride returns the row length in bytes.
func (f *Frame) Stride() int { return f.own.cfg.Stride() }

// Pix returns the pixels the frame currently references, or nil once a
// borrowed view has expired. Callers must not write through it; use
// Writable on slots.
func (f *Frame) Pix() []byte {
	if f.expired {
		return nil
	}
	return f.cur.pix
}

// Storage returns the buffer the frame currently references.
func (f *Frame) Storage() *Buffer { return f.cur }

// OwnStorage returns the buffer the frame was created with.
func (f *Frame) OwnStorage() *Buffer { return f.own }

// Aliased reports whether a slot currently references foreign storage.
func (f *Frame) Aliased() bool { return f.cur != f.own }

// AliasMode returns the mode of the frame last aliased into this slot, or
// zero when the slot holds its own storage.
func (f *Frame) AliasMode() Mode {
	if !f.Aliased() {
		return 0
	}
	return f.aliasOf
}

// Expired reports whether a borrowed view can no longer be read.
func (f *Frame) Expired() bool { return f.expired }

// Expire invalidates a borrowed view. Hosts call it after each module call.
func (f *Frame) Expire() {
	if f.mode == ModeBorrowed {
		f.expired = true
	}
}

// Writable returns the slot's own storage for write-in-place. A slot that
// currently aliases another frame is detached first.
func (f *Frame) Writable() ([]byte, error) {
	if f.mode != ModeSlot {
		return nil, oops.With("mode", f.mode.String()).Wrapf(ErrNotSlot, "writable")
	}
	f.detach()
	return f.own.pix, nil
}

// CopyFrom copies src's pixels into the slot's own storage.
func (f *Frame) CopyFrom(src *Frame) error {
	if err := f.checkSource(src); err != nil {
		return err
	}
	pix, err := f.Writable()
	if err != nil {
		return err
	}
	copy(pix, src.Pix())
	return nil
}

// Alias makes the slot reference src's storage without copying pixels.
// src must be a live borrowed view or a retained frame with the same
// geometry and pixel format.
func (f *Frame) Alias(src *Frame) error {
	if f.mode != ModeSlot {
		return oops.With("mode", f.mode.String()).Wrapf(ErrNotSlot, "alias")
	}
	if src.mode != ModeBorrowed && src.mode != ModeRetained {
		return oops.With("source_mode", src.mode.String()).Wrapf(ErrAliasSource, "alias")
	}
	if err := f.checkSource(src); err != nil {
		return err
	}
	if src.cur == f.cur {
		return nil
	}
	f.detach()
	f.cur = src.cur.Ref()
	f.aliasOf = src.mode
	return nil
}

// Retain returns a module-owned copy of f that stays valid after the
// current call. Use it to keep frames across calls.
func (f *Frame) Retain() (*Frame, error) {
	if f.expired {
		return nil, oops.Wrapf(ErrExpired, "retain")
	}
	b := newBuffer(f.Config(), append([]byte(nil), f.cur.pix...), nil)
	return &Frame{mode: ModeRetained, own: b, cur: b}, nil
}

// Release drops the frame's references. Hosts call it once when they are
// done with an input or output.
func (f *Frame) Release() {
	if f.cur != f.own {
		f.cur.Unref()
	}
	f.own.Unref()
	f.cur = f.own
}

func (f *Frame) checkSource(src *Frame) error {
	if src == nil {
		return oops.Wrapf(ErrAliasSource, "nil source frame")
	}
	if src.expired {
		return oops.Wrapf(ErrExpired, "source frame")
	}
	if src.Config() != f.Config() {
		return oops.With("slot", f.Config().String()).With("source", src.Config().String()).
			Wrapf(ErrGeometry, "source does not match slot")
	}
	return nil
}

func (f *Frame) detach() {
	if f.cur != f.own {
		f.cur.Unref()
		f.cur = f.own
		f.aliasOf = 0
	}
}
