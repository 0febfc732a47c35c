// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adex

import (
	"fmt"
	"unsafe"

	"github.com/emer/emergent/v2/emer"
)

// NeuronVarStart is the byte offset of fields in the Neuron structure
// where the float32 named variables start.
// Note: all non-float32 infrastructure variables must be at the start!
const NeuronVarStart = 4

// adex.Neuron holds all of the state for one conductance-based AdEx
// neuron.  It is exclusively owned by whatever steps it: exactly one
// mutation per Cycle call, no internal locking, and instances are fully
// independent so an external scheduler can advance many of them in
// parallel as long as the step sequence of each one stays serialized.
// The externally visible float32 variables come first, in the order of
// NeuronVars; the kernel auxiliary variables are internal to the exact
// propagator and are kept out of the named-variable interface.
type Neuron struct {

	// refractory countdown in remaining steps -- > 0 means Vm is clamped to Spike.VmR and threshold detection is suspended
	Ref int32

	// membrane potential (mV) -- at most Spike.ExpThr after the reset / refractory logic has run
	Vm float32

	// adaptation current w (pA) -- jumps by Adapt.B at each spike, otherwise relaxes with Adapt.TauW
	W float32

	// net current from all channels (pA) at the post-step state -- driver of Vm
	Inet float32

	// whether the neuron spiked this step (0 or 1)
	Spike float32

	// time since last spike (msec) -- counts up per step; -1 before the first spike
	ISI float32

	// AMPA conductance (nS)
	Gampa float32

	// NMDA conductance (nS), prior to voltage-dependent unblocking
	Gnmda float32

	// GABA-A conductance (nS)
	Ggaba float32

	// noise sample added to the stimulus current this step (pA), when Noise is on
	Noise float32

	// AMPA kernel auxiliary rise variable -- internal
	GampaX float32

	// NMDA kernel auxiliary rise variable -- internal
	GnmdaX float32

	// GABA-A kernel auxiliary rise variable -- internal
	GgabaX float32
}

// NeuronVars are the externally visible neuron variables, for recording
// collaborators -- the kernel auxiliary variables are not included.
var NeuronVars = []string{"Vm", "W", "Inet", "Spike", "ISI", "Gampa", "Gnmda", "Ggaba", "Noise"}

var NeuronVarsMap map[string]int

var VarCategories = []emer.VarCategory{
	{Cat: "Act", Doc: "membrane potential, adaptation current, and spiking variables"},
	{Cat: "Syn", Doc: "per-receptor synaptic conductances"},
}

var NeuronVarProps = map[string]string{
	"Vm":    `cat:"Act" min:"-90" max:"0" doc:"membrane potential (mV)"`,
	"W":     `cat:"Act" doc:"adaptation current (pA)"`,
	"Inet":  `cat:"Act" auto-scale:"+" doc:"net channel current (pA)"`,
	"Spike": `cat:"Act" doc:"spiked this step (0 or 1)"`,
	"ISI":   `cat:"Act" doc:"time since last spike (msec), -1 before first spike"`,
	"Gampa": `cat:"Syn" doc:"AMPA conductance (nS)"`,
	"Gnmda": `cat:"Syn" doc:"NMDA conductance (nS), before voltage-dependent unblocking"`,
	"Ggaba": `cat:"Syn" doc:"GABA-A conductance (nS)"`,
	"Noise": `cat:"Act" doc:"stimulus current noise sample (pA)"`,
}

func init() {
	NeuronVarsMap = make(map[string]int, len(NeuronVars))
	for i, v := range NeuronVars {
		NeuronVarsMap[v] = i
	}
}

func (nrn *Neuron) VarNames() []string {
	return NeuronVars
}

// NeuronVarIndexByName returns the index of the variable in the Neuron, or error
func NeuronVarIndexByName(varNm string) (int, error) {
	i, ok := NeuronVarsMap[varNm]
	if !ok {
		return -1, fmt.Errorf("Neuron VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in NeuronVars list)
func (nrn *Neuron) VarByIndex(idx int) float32 {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(nrn)) + uintptr(NeuronVarStart+4*idx)))
	return *fv
}

// VarByName returns variable by name, or error
func (nrn *Neuron) VarByName(varNm string) (float32, error) {
	i, err := NeuronVarIndexByName(varNm)
	if err != nil {
		return 0, err
	}
	return nrn.VarByIndex(i), nil
}

// Refractory returns true if the neuron's next step will clamp Vm to
// the reset potential with threshold detection suspended.  Ref counts
// down from RefCycles+1 and is decremented before the clamp test, so
// Ref == 1 means the countdown expires on the next step.
func (nrn *Neuron) Refractory() bool {
	return nrn.Ref > 1
}
