// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package host

// State is a lifecycle position of an Instance.
type State int

// Lifecycle states.
const (
	StateUnconfigured State = iota
	StateInitialized
	StateConfigured
	StateProcessing
	StateFlushing
	// StateTerminated means flush reported that nothing is left.
	StateTerminated
	// StateFailed means a setup or process call failed. Only Uninit (when
	// Init had succeeded) and Destroy remain legal.
	StateFailed
	// StateClosed means Uninit has run.
	StateClosed
	StateDestroyed
)

var stateNames = map[State]string{
	StateUnconfigured: "unconfigured",
	StateInitialized:  "initialized",
	StateConfigured:   "configured",
	StateProcessing:   "processing",
	StateFlushing:     "flushing",
	StateTerminated:   "terminated",
	StateFailed:       "failed",
	StateClosed:       "closed",
	StateDestroyed:    "destroyed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// canProcess reports whether Process is legal in s.
func (s State) canProcess() bool {
	return s == StateConfigured || s == StateProcessing
}

// canFlush reports whether Flush is legal in s.
func (s State) canFlush() bool {
	return s == StateConfigured || s == StateProcessing || s == StateFlushing
}
