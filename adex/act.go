// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adex

import (
	"errors"
	"fmt"

	"cogentcore.org/core/math32"
	"cogentcore.org/lab/base/randx"
	"github.com/emer/adex/synkern"
)

///////////////////////////////////////////////////////////////////////
//  act.go contains the parameters and per-step update functions for
//  the conductance-based AdEx neuron

// Error taxonomy, distinguishable via errors.Is.  None are retried
// internally -- all propagate synchronously to the caller.
var (
	// ErrParams indicates an invalid parameter configuration, reported
	// by Validate at construction time.  Not recoverable: construction
	// must fail outright.
	ErrParams = errors.New("adex: invalid params")

	// ErrInput indicates an invalid per-step input (negative spike
	// weight sum or non-finite stimulus current).  The step call has no
	// effect on neuron state.
	ErrInput = errors.New("adex: invalid step input")

	// ErrDiverged indicates the integrator produced a non-finite Vm or
	// W.  The instance's subsequent state is undefined and it must be
	// excluded from further stepping by the caller.
	ErrDiverged = errors.New("adex: numerical divergence")
)

//////////////////////////////////////////////////////////////////////////////////////
//  MembraneParams

// MembraneParams are the passive membrane properties and the constant
// background current.  Units are pF, nS, mV, pA (nS * mV = pA), with
// time in msec, so dVm/dt = I/Cm comes out in mV/msec directly.
type MembraneParams struct {

	// membrane capacitance (pF) -- must be > 0
	Cm float32 `def:"281" min:"0"`

	// leak conductance (nS)
	GbarL float32 `def:"30" min:"0"`

	// leak reversal = resting potential (mV) -- Vm starts here
	ErevL float32 `def:"-70.6"`

	// constant background current (pA)
	Ie float32 `def:"0"`
}

func (mp *MembraneParams) Defaults() {
	mp.Cm = 281
	mp.GbarL = 30
	mp.ErevL = -70.6
	mp.Ie = 0
}

func (mp *MembraneParams) Update() {
}

//////////////////////////////////////////////////////////////////////////////////////
//  SpikeParams

// SpikeParams contains the AdEx spike generation, reset, and refractory
// parameters (Brette & Gerstner, 2005).
type SpikeParams struct {

	// nominal firing threshold (mV) where the exponential spike current engages
	Thr float32 `def:"-50.4"`

	// slope factor Delta_T (mV) of the exponential spike current -- sharpness of spike initiation -- must be > 0
	ExpSlope float32 `def:"2" min:"0"`

	// membrane potential for actually registering a spike (mV) -- also the upper bound substituted for Vm inside every exponential and voltage-dependent term, so their arguments stay finite regardless of how far the raw integration overshoots
	ExpThr float32 `def:"0"`

	// post-spiking reset potential (mV) -- Vm is clamped here throughout the refractory window
	VmR float32 `def:"-60"`

	// refractory period duration (msec) -- converted to RefCycles whole steps by Update
	Tr float32 `def:"0" min:"0"`

	// refractory period in whole steps = round(Tr / Dt.TimeStep) -- computed
	RefCycles int32 `display:"-"`
}

func (sk *SpikeParams) Defaults() {
	sk.Thr = -50.4
	sk.ExpSlope = 2
	sk.ExpThr = 0
	sk.VmR = -60
	sk.Tr = 0
}

func (sk *SpikeParams) Update(timeStep float32) {
	sk.RefCycles = int32(math32.Round(sk.Tr / timeStep))
}

//////////////////////////////////////////////////////////////////////////////////////
//  AdaptParams

// AdaptParams are the adaptation current (w) parameters of the AdEx
// model: subthreshold coupling and the spike-triggered jump.
type AdaptParams struct {

	// subthreshold adaptation conductance a (nS) -- couples w to the deviation of Vm from rest
	A float32 `def:"4"`

	// spike-triggered adaptation increment b (pA) -- added to w at each emitted spike
	B float32 `def:"80.5"`

	// adaptation time constant (msec) -- must be > 0
	TauW float32 `def:"144" min:"0"`
}

func (ap *AdaptParams) Defaults() {
	ap.A = 4
	ap.B = 80.5
	ap.TauW = 144
}

func (ap *AdaptParams) Update() {
}

//////////////////////////////////////////////////////////////////////////////////////
//  DtParams

// DtParams hold the fixed simulation step size and the integration
// substep count.  TimeStep is fixed for an entire run per the
// scheduler's grid contract, so Update compiles it into the kernel
// propagator factors and the refractory step count once, and the
// per-step call takes only per-step inputs.
//
// The (Vm, w) pair is advanced by classical RK4 over VmSteps substeps:
// O(dt^4) local truncation error per substep, with the bounded-voltage
// substitution re-evaluated at every RK4 stage.  The synaptic kernels
// use the exact propagator and carry no truncation error at any step
// size.  VmSteps = 1 is sufficient at TimeStep = 0.1 with the default
// parameters; increase it for larger steps or stiffer parameter sets.
type DtParams struct {

	// simulation step duration (msec) -- fixed across a run -- must be > 0
	TimeStep float32 `def:"0.1" min:"0"`

	// number of RK4 substeps per TimeStep for the (Vm, w) integration
	VmSteps int32 `def:"1" min:"1"`

	// TimeStep / VmSteps -- computed
	StepDt float32 `display:"-"`
}

func (dp *DtParams) Defaults() {
	dp.TimeStep = 0.1
	dp.VmSteps = 1
	dp.Update()
}

func (dp *DtParams) Update() {
	if dp.VmSteps < 1 {
		dp.VmSteps = 1 // hard min
	}
	dp.StepDt = dp.TimeStep / float32(dp.VmSteps)
}

//////////////////////////////////////////////////////////////////////////////////////
//  NoiseParams

// NoiseParams parameterizes optional additive noise on the stimulus
// current, off by default -- when off, the step is fully deterministic.
type NoiseParams struct {
	randx.RandParams

	// whether to add a noise sample to the stimulus current each step
	On bool
}

func (np *NoiseParams) Defaults() {
	np.On = false
	np.Mean = 0
	np.Var = 1
	np.Dist = randx.Gaussian
}

func (np *NoiseParams) Update() {
}

// IStim returns the stimulus current with a noise sample added if
// enabled, also returning the sample for recording.
func (np *NoiseParams) IStim(istim float32) (float32, float32) {
	if !np.On {
		return istim, 0
	}
	ns := float32(np.Gen())
	return istim + ns, ns
}

//////////////////////////////////////////////////////////////////////////////////////
//  ActParams

// adex.ActParams contains all the parameters and update functions for
// the conductance-based AdEx neuron, at the neuron level.  Parameters
// are immutable per neuron instance once set: call Defaults, adjust,
// then Update and Validate (NewNeuron does the last two).
type ActParams struct {

	// passive membrane properties and background current
	Membrane MembraneParams `display:"inline"`

	// spike generation, reset, and refractory
	Spike SpikeParams `display:"inline"`

	// adaptation current (w)
	Adapt AdaptParams `display:"inline"`

	// fixed step size and integration substeps
	Dt DtParams `display:"inline"`

	// AMPA receptor conductance kernel
	AMPA synkern.Params `display:"inline"`

	// NMDA receptor conductance kernel with voltage-dependent unblocking
	NMDA synkern.NMDAParams `display:"inline"`

	// GABA-A receptor conductance kernel
	GABAA synkern.Params `display:"inline"`

	// optional stimulus current noise
	Noise NoiseParams `display:"inline"`
}

func (ac *ActParams) Defaults() {
	ac.Membrane.Defaults()
	ac.Spike.Defaults()
	ac.Adapt.Defaults()
	ac.Dt.Defaults()
	ac.AMPA.Defaults()
	ac.NMDA.Defaults()
	ac.GABAA.Defaults()
	ac.GABAA.GPeak = 0.33
	ac.GABAA.Erev = -70
	ac.GABAA.RiseTau = 0.3
	ac.GABAA.DecayTau = 2
	ac.Noise.Defaults()
	ac.Update()
}

// Update must be called after any changes to parameters -- it
// recomputes all derived constants, including the kernel propagator
// factors and the refractory step count, from the fixed step size.
func (ac *ActParams) Update() {
	ac.Membrane.Update()
	ac.Adapt.Update()
	ac.Dt.Update()
	ac.Spike.Update(ac.Dt.TimeStep)
	ac.AMPA.Update(ac.Dt.TimeStep)
	ac.NMDA.Update(ac.Dt.TimeStep)
	ac.GABAA.Update(ac.Dt.TimeStep)
	ac.Noise.Update()
}

// Validate checks the construction-time preconditions and returns an
// error wrapping ErrParams if any fail.  An invalid configuration is
// not recoverable: the neuron must not be stepped.
func (ac *ActParams) Validate() error {
	if ac.Membrane.Cm <= 0 {
		return fmt.Errorf("%w: Membrane.Cm must be > 0, got %g", ErrParams, ac.Membrane.Cm)
	}
	if ac.Adapt.TauW <= 0 {
		return fmt.Errorf("%w: Adapt.TauW must be > 0, got %g", ErrParams, ac.Adapt.TauW)
	}
	if ac.Dt.TimeStep <= 0 {
		return fmt.Errorf("%w: Dt.TimeStep must be > 0, got %g", ErrParams, ac.Dt.TimeStep)
	}
	if ac.Spike.ExpSlope <= 0 {
		return fmt.Errorf("%w: Spike.ExpSlope must be > 0, got %g", ErrParams, ac.Spike.ExpSlope)
	}
	if ac.Spike.Tr < 0 {
		return fmt.Errorf("%w: Spike.Tr must be >= 0, got %g", ErrParams, ac.Spike.Tr)
	}
	if err := ac.AMPA.Validate(); err != nil {
		return fmt.Errorf("%w: AMPA: %v", ErrParams, err)
	}
	if err := ac.NMDA.Validate(); err != nil {
		return fmt.Errorf("%w: NMDA: %v", ErrParams, err)
	}
	if err := ac.GABAA.Validate(); err != nil {
		return fmt.Errorf("%w: GABAA: %v", ErrParams, err)
	}
	return nil
}

// NewNeuron returns a new Neuron initialized under the given params,
// after calling Validate and Update on them.  This is the construction
// entry point: a wrapped ErrParams is returned (and no neuron) if the
// configuration is unusable.  Validate runs first so the derived
// constants are never computed from an invalid step size or taus.
func NewNeuron(ac *ActParams) (*Neuron, error) {
	if err := ac.Validate(); err != nil {
		return nil, err
	}
	ac.Update()
	nrn := &Neuron{}
	ac.InitActs(nrn)
	return nrn, nil
}

///////////////////////////////////////////////////////////////////////
//  Init

// InitActs initializes the neuron to its start-of-simulation state:
// Vm at resting potential, w = 0, all conductances and kernel
// auxiliary variables at zero, not refractory.
func (ac *ActParams) InitActs(nrn *Neuron) {
	nrn.Ref = 0
	nrn.Vm = ac.Membrane.ErevL
	nrn.W = 0
	nrn.Inet = 0
	nrn.Spike = 0
	nrn.ISI = -1
	nrn.Gampa = 0
	nrn.GampaX = 0
	nrn.Gnmda = 0
	nrn.GnmdaX = 0
	nrn.Ggaba = 0
	nrn.GgabaX = 0
	nrn.Noise = 0
}

///////////////////////////////////////////////////////////////////////
//  Cycle

// VmBounded returns the membrane potential bounded from above at
// Spike.ExpThr.  This value is substituted into every exponential and
// voltage-dependent term, at every integration stage, so exponent
// arguments stay bounded and overflow is structurally impossible --
// the raw Vm itself is not clamped here.
func (ac *ActParams) VmBounded(vm float32) float32 {
	return math32.Min(vm, ac.Spike.ExpThr)
}

// IsynFmG computes the total synaptic current (pA) from the current
// conductances at bounded membrane potential vb.  NMDA is scaled by its
// instantaneous voltage-dependent unblocking sigmoid.
func (ac *ActParams) IsynFmG(nrn *Neuron, vb float32) float32 {
	isyn := -nrn.Gampa * (vb - ac.AMPA.Erev)
	isyn += -nrn.Gnmda * ac.NMDA.GFmV(vb) * (vb - ac.NMDA.Erev)
	isyn += -nrn.Ggaba * (vb - ac.GABAA.Erev)
	return isyn
}

// IspikeFmV computes the exponential spike-generation current (pA) at
// bounded membrane potential vb.
func (ac *ActParams) IspikeFmV(vb float32) float32 {
	return ac.Membrane.GbarL * ac.Spike.ExpSlope *
		math32.FastExp((vb-ac.Spike.Thr)/ac.Spike.ExpSlope)
}

// DVmDW evaluates the coupled (Vm, w) derivatives at the candidate
// state (vm, w), applying the bounded-voltage substitution to every
// voltage-dependent term.  Conductances are the post-kernel-update
// values for this step; istim is the external stimulus current.
func (ac *ActParams) DVmDW(nrn *Neuron, vm, w, istim float32) (dvm, dw float32) {
	vb := ac.VmBounded(vm)
	inet := -ac.Membrane.GbarL*(vb-ac.Membrane.ErevL) + ac.IspikeFmV(vb) +
		ac.IsynFmG(nrn, vb) - w + ac.Membrane.Ie + istim
	dvm = inet / ac.Membrane.Cm
	dw = (ac.Adapt.A*(vb-ac.Membrane.ErevL) - w) / ac.Adapt.TauW
	return
}

// VmInteg advances (Vm, w) over one full TimeStep using classical RK4
// over Dt.VmSteps substeps, returning the candidate values prior to
// the threshold / refractory logic.  Each RK4 stage goes through DVmDW
// and therefore re-evaluates the bounded-voltage substitution.
func (ac *ActParams) VmInteg(nrn *Neuron, istim float32) (nvm, nw float32) {
	dt := ac.Dt.StepDt
	nvm = nrn.Vm
	nw = nrn.W
	for i := int32(0); i < ac.Dt.VmSteps; i++ {
		dv1, dw1 := ac.DVmDW(nrn, nvm, nw, istim)
		dv2, dw2 := ac.DVmDW(nrn, nvm+0.5*dt*dv1, nw+0.5*dt*dw1, istim)
		dv3, dw3 := ac.DVmDW(nrn, nvm+0.5*dt*dv2, nw+0.5*dt*dw2, istim)
		dv4, dw4 := ac.DVmDW(nrn, nvm+dt*dv3, nw+dt*dw3, istim)
		nvm += dt * (dv1 + 2*dv2 + 2*dv3 + dv4) / 6
		nw += dt * (dw1 + 2*dw2 + 2*dw3 + dw4) / 6
	}
	return
}

// SynFmSpikes advances the three receptor kernels by one step with the
// given per-receptor arriving spike weight sums, using the exact
// propagator.  Update order across receptors is irrelevant (no
// coupling between them).
func (ac *ActParams) SynFmSpikes(nrn *Neuron, wAMPA, wNMDA, wGABAA float32) {
	ac.AMPA.Step(&nrn.Gampa, &nrn.GampaX, wAMPA)
	ac.NMDA.Step(&nrn.Gnmda, &nrn.GnmdaX, wNMDA)
	ac.GABAA.Step(&nrn.Ggaba, &nrn.GgabaX, wGABAA)
}

// SpikeFmVm applies the threshold / refractory state machine to the
// integrator's candidate (vm, w), strictly after integration.  While
// the countdown holds, the clamp wins unconditionally over the
// integrated Vm, even if that value is below VmR; w stands as
// integrated.  The counter is set to RefCycles+1 at the spike and
// decremented before the clamp test, so Vm is clamped for exactly
// RefCycles steps after the spike step (none when Tr = 0).  Returns
// true if a spike was emitted this step.
func (ac *ActParams) SpikeFmVm(nrn *Neuron, vm, w float32) bool {
	if nrn.Ref > 0 {
		nrn.Ref--
		if nrn.Ref > 0 {
			nrn.Vm = ac.Spike.VmR
			nrn.W = w
			nrn.Spike = 0
			if nrn.ISI >= 0 {
				nrn.ISI += ac.Dt.TimeStep
			}
			return false
		}
		// countdown expired: this step is active again
	}
	if vm >= ac.Spike.ExpThr { // threshold crossing
		nrn.Ref = ac.Spike.RefCycles + 1
		nrn.Vm = ac.Spike.VmR
		nrn.W = w + ac.Adapt.B
		nrn.Spike = 1
		nrn.ISI = 0
		return true
	}
	nrn.Vm = vm
	nrn.W = w
	nrn.Spike = 0
	if nrn.ISI >= 0 {
		nrn.ISI += ac.Dt.TimeStep
	}
	return false
}

// Cycle runs one full simulation step: input validation, synaptic
// kernel update, (Vm, w) integration, then threshold / refractory
// logic.  The neuron is mutated exactly once, atomically from the
// caller's perspective: on a wrapped ErrInput nothing has changed; on
// a wrapped ErrDiverged the instance is faulted and must be discarded.
// The returned bool reports whether a spike was emitted this step.
func (ac *ActParams) Cycle(nrn *Neuron, wAMPA, wNMDA, wGABAA, istim float32) (bool, error) {
	if wAMPA < 0 || wNMDA < 0 || wGABAA < 0 {
		return false, fmt.Errorf("%w: negative spike weight sum (AMPA %g, NMDA %g, GABAA %g)", ErrInput, wAMPA, wNMDA, wGABAA)
	}
	if math32.IsNaN(istim) || math32.IsInf(istim, 0) {
		return false, fmt.Errorf("%w: non-finite stimulus current %g", ErrInput, istim)
	}
	istim, nrn.Noise = ac.Noise.IStim(istim)
	ac.SynFmSpikes(nrn, wAMPA, wNMDA, wGABAA)
	nvm, nw := ac.VmInteg(nrn, istim)
	if math32.IsNaN(nvm) || math32.IsInf(nvm, 0) || math32.IsNaN(nw) || math32.IsInf(nw, 0) {
		return false, fmt.Errorf("%w: Vm %g, W %g", ErrDiverged, nvm, nw)
	}
	spiked := ac.SpikeFmVm(nrn, nvm, nw)
	dvm, _ := ac.DVmDW(nrn, nrn.Vm, nrn.W, istim)
	nrn.Inet = dvm * ac.Membrane.Cm
	return spiked, nil
}
