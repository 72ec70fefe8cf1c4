// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package host

import (
	"github.com/samber/oops"

	"github.com/vidplug/vidplug/pkg/frameplugin"
)

// verifyOutputs checks what a module left in the output slots it was given.
// Each slot must still be the frame the host allocated, and its storage
// must be its own, one of this call's inputs, or a frame the module retained
// before the call started. watermark is frameplugin.LastBufferID() taken
// just before the call; a retained buffer above it is a copy made during
// the call and never a valid output.
func verifyOutputs(allocated, returned []*frameplugin.Frame, inputs []*frameplugin.Buffer, watermark uint64) error {
	errb := oops.Code(CodeOwnershipViolation)
	if len(returned) != len(allocated) {
		return errb.With("want", len(allocated)).With("got", len(returned)).
			Wrapf(ErrOwnership, "output slot count changed")
	}
	for i, slot := range allocated {
		if returned[i] != slot {
			return errb.With("output", i).Wrapf(ErrOwnership, "output slot replaced")
		}
		if !slot.Aliased() {
			continue
		}
		if slot.AliasMode() == frameplugin.ModeRetained {
			if id := slot.Storage().ID(); id > watermark {
				return errb.With("output", i).With("storage", id).With("watermark", watermark).
					Wrapf(ErrOwnership, "output references a copy made during the call")
			}
			continue
		}
		if !containsBuffer(inputs, slot.Storage()) {
			return errb.With("output", i).With("alias_mode", slot.AliasMode().String()).
				Wrapf(ErrOwnership, "output references storage that is not a current input")
		}
	}
	return nil
}

func containsBuffer(bufs []*frameplugin.Buffer, b *frameplugin.Buffer) bool {
	for _, candidate := range bufs {
		if candidate == b {
			return true
		}
	}
	return false
}
