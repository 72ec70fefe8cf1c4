// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vidplug Contributors

package frameplugin

import (
	"fmt"
	"math"

	"github.com/samber/oops"
)

// TopologyKind classifies a legal input/output arrangement.
type TopologyKind uint8

// Legal topologies. N:M with both sides above one is not representable.
const (
	TopologyInvalid TopologyKind = iota
	TopologyOneToOne
	TopologyManyToOne
	TopologyOneToMany
)

func (k TopologyKind) String() string {
	switch k {
	case TopologyOneToOne:
		return "1:1"
	case TopologyManyToOne:
		return "N:1"
	case TopologyOneToMany:
		return "1:N"
	default:
		return "invalid"
	}
}

// Topology is a negotiated number of input and output streams.
type Topology struct {
	Inputs  int
	Outputs int
}

// Kind classifies the topology.
func (t Topology) Kind() TopologyKind {
	switch {
	case t.Inputs < 1 || t.Outputs < 1:
		return TopologyInvalid
	case t.Inputs == 1 && t.Outputs == 1:
		return TopologyOneToOne
	case t.Outputs == 1:
		return TopologyManyToOne
	case t.Inputs == 1:
		return TopologyOneToMany
	default:
		return TopologyInvalid
	}
}

// Validate rejects counts outside 1:1, N:1 and 1:N.
func (t Topology) Validate() error {
	if t.Kind() == TopologyInvalid {
		return oops.Code("TOPOLOGY_REJECTED").
			With("inputs", t.Inputs).With("outputs", t.Outputs).
			Wrapf(ErrTopology, "%d inputs to %d outputs is not a legal topology", t.Inputs, t.Outputs)
	}
	return nil
}

func (t Topology) String() string {
	return fmt.Sprintf("%d:%d", t.Inputs, t.Outputs)
}

// Unbounded marks an open upper bound in Support.
const Unbounded = math.MaxInt

// Support is the range of topologies a module accepts.
type Support struct {
	MinInputs  int `json:"min_inputs" yaml:"min-inputs"`
	MaxInputs  int `json:"max_inputs" yaml:"max-inputs"`
	MinOutputs int `json:"min_outputs" yaml:"min-outputs"`
	MaxOutputs int `json:"max_outputs" yaml:"max-outputs"`
}

// Fixed accepts exactly in inputs and out outputs.
func Fixed(in, out int) Support {
	return Support{MinInputs: in, MaxInputs: in, MinOutputs: out, MaxOutputs: out}
}

// FanOut accepts one input and between minOut and maxOut outputs.
func FanOut(minOut, maxOut int) Support {
	return Support{MinInputs: 1, MaxInputs: 1, MinOutputs: minOut, MaxOutputs: maxOut}
}

// FanIn accepts between minIn and maxIn inputs and one output.
func FanIn(minIn, maxIn int) Support {
	return Support{MinInputs: minIn, MaxInputs: maxIn, MinOutputs: 1, MaxOutputs: 1}
}

// Check validates the legal topology set first and then the module range.
// Modules call it from Init.
func (s Support) Check(nbInputs, nbOutputs int) error {
	t := Topology{Inputs: nbInputs, Outputs: nbOutputs}
	if err := t.Validate(); err != nil {
		return err
	}
	if nbInputs < s.MinInputs || nbInputs > s.MaxInputs ||
		nbOutputs < s.MinOutputs || nbOutputs > s.MaxOutputs {
		return oops.Code("TOPOLOGY_REJECTED").
			With("inputs", nbInputs).With("outputs", nbOutputs).With("supported", s.String()).
			Wrapf(ErrTopology, "%s not in supported range %s", t, s)
	}
	return nil
}

func (s Support) String() string {
	return fmt.Sprintf("%s:%s", rangeString(s.MinInputs, s.MaxInputs), rangeString(s.MinOutputs, s.MaxOutputs))
}

func rangeString(lo, hi int) string {
	switch {
	case lo == hi:
		return fmt.Sprint(lo)
	case hi == Unbounded:
		return fmt.Sprintf("%d+", lo)
	default:
		return fmt.Sprintf("%d-%d", lo, hi)
	}
}
