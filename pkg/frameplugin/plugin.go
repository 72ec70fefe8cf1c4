// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin

// Result is the outcome of a Process call.
type Result int

// Process outcomes. Values match the wire encoding used across process
// boundaries.
const (
	// ResultOK means every output slot holds a valid frame.
	ResultOK Result = 0
	// ResultTryAgain means the input was consumed but no output is ready.
	ResultTryAgain Result = 1
	// ResultError means processing failed; the stream cannot continue.
	ResultError Result = -1
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultTryAgain:
		return "try_again"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// Plugin is a stateful frame processor created by Descriptor.Create.
//
// The host serializes every call on an instance; implementations need no
// locking and must not retain input frames past the call that supplied
// them (use Frame.Retain for that).
type Plugin interface {
	// Init validates the topology and parses the parameter string.
	// A returned error aborts setup.
	Init(params string, nbInputs, nbOutputs int) error

	// Configure is called once after Init. outputs arrives pre-filled with
	// the default geometry (see DefaultOutputConfigs); the module may
	// overwrite Width and Height. A returned error aborts setup.
	Configure(inputs []FrameConfig, outputs []FrameConfig) error

	// Process handles one frame set. A non-nil error must be paired with
	// ResultError.
	Process(inputs []*Frame, outputs []*Frame) (Result, error)

	// Flush drains one buffered result into outputs at end of stream.
	// It returns false once nothing was produced.
	Flush(outputs []*Frame) bool

	// Uninit releases internal state. It is called exactly once.
	Uninit()
}
