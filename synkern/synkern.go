// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package synkern provides biexponential (difference-of-exponentials)
synaptic conductance kernels with an exact discrete-time propagator,
for computing a point-neuron approximation with conductance-based
synaptic channels (AMPA, NMDA, GABA-A).

Each kernel is the two-variable linear system:

	g' = x - g/DecayTau
	x' = -x/RiseTau

where x is a fast auxiliary variable incremented by arriving synaptic
weight.  Over a fixed step the pair has a closed-form solution, so the
kernel carries no truncation error regardless of the step size used by
the membrane integrator.  The increment applied to x per unit weight is
normalized such that a single weight-1 spike produces a conductance
peaking at exactly GPeak, at MaxTime after arrival.
*/
package synkern

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// synkern.Params are the parameters for one receptor-type conductance
// kernel, with the propagator constants for a fixed step size derived
// by Update.  The strict precondition RiseTau < DecayTau (checked by
// Validate) keeps the normalization constant well-defined.
type Params struct {

	// peak conductance produced by a single unit-weight spike (nS)
	GPeak float32 `min:"0"`

	// reversal (driving) potential for this receptor channel (mV)
	Erev float32

	// rise time constant of the biexponential kernel (msec) -- must be strictly less than DecayTau
	RiseTau float32 `min:"0"`

	// decay time constant of the biexponential kernel (msec)
	DecayTau float32 `min:"0"`

	// time offset from spike arrival to peak conductance (msec), computed from RiseTau and DecayTau
	MaxTime float32 `edit:"-"`

	// increment to the auxiliary variable per unit spike weight, scaled so the kernel peaks at exactly GPeak -- computed
	NormScale float32 `display:"-"`

	// exp(-dt/RiseTau) -- per-step decay factor for the auxiliary variable
	RiseFact float32 `display:"-"`

	// exp(-dt/DecayTau) -- per-step decay factor for the conductance
	DecayFact float32 `display:"-"`

	// closed-form coupling from the auxiliary variable into the conductance over one step
	CoupleFact float32 `display:"-"`
}

// Defaults sets AMPA-typical kernel values -- other receptor types
// override GPeak, Erev, and the time constants.  Update must be called
// with the run's step size before stepping.
func (kp *Params) Defaults() {
	kp.GPeak = 0.1
	kp.Erev = 0
	kp.RiseTau = 0.5
	kp.DecayTau = 2.4
}

// Validate returns an error if the kernel time constants are unusable:
// non-positive, or violating the strict RiseTau < DecayTau precondition
// of the normalization constant (equal time constants make it undefined).
func (kp *Params) Validate() error {
	if kp.RiseTau <= 0 || kp.DecayTau <= 0 {
		return fmt.Errorf("synkern.Params: RiseTau (%g) and DecayTau (%g) must be > 0", kp.RiseTau, kp.DecayTau)
	}
	if kp.RiseTau >= kp.DecayTau {
		return fmt.Errorf("synkern.Params: RiseTau (%g) must be strictly less than DecayTau (%g)", kp.RiseTau, kp.DecayTau)
	}
	return nil
}

// Update computes all derived constants for the given fixed step size
// (msec).  Must be called after any change to parameters, and before
// the first Step.  The step size is fixed per simulation run, so the
// exponential factors are computed once here rather than per step.
func (kp *Params) Update(dt float32) {
	kp.MaxTime = ((kp.RiseTau * kp.DecayTau) / (kp.DecayTau - kp.RiseTau)) *
		math32.Log(kp.DecayTau/kp.RiseTau)
	adj := 1/kp.DecayTau - 1/kp.RiseTau
	norm := 1 / (math32.Exp(-kp.MaxTime/kp.RiseTau) - math32.Exp(-kp.MaxTime/kp.DecayTau))
	kp.NormScale = kp.GPeak * norm * adj
	kp.RiseFact = math32.Exp(-dt / kp.RiseTau)
	kp.DecayFact = math32.Exp(-dt / kp.DecayTau)
	kp.CoupleFact = (kp.RiseFact - kp.DecayFact) / adj
}

// Step advances the (g, x) kernel pair by one fixed step using the
// exact propagator for the linear system, then adds wsum (the summed
// weight of spikes arriving this step, scaled by NormScale) into the
// auxiliary variable.  wsum must be finite and non-negative per the
// spike-delivery contract; zero is a plain decay step.
func (kp *Params) Step(g, x *float32, wsum float32) {
	*g = *g*kp.DecayFact + *x*kp.CoupleFact
	*x = *x*kp.RiseFact + wsum*kp.NormScale
}

//////////////////////////////////////////////////////////////////////////////////////
//  NMDAParams

// NMDAParams adds the voltage-dependent magnesium unblocking of the
// NMDA receptor to the standard kernel: the conductance is multiplied
// by a sigmoid function of membrane potential, instantaneous (no
// additional state).
type NMDAParams struct {
	Params

	// membrane potential of half-maximal unblocking (mV)
	ActV float32

	// slope of the unblocking sigmoid (mV) -- must be non-zero
	ActS float32
}

// Defaults sets NMDA-typical kernel and unblocking values.
func (np *NMDAParams) Defaults() {
	np.GPeak = 0.075
	np.Erev = 0
	np.RiseTau = 4
	np.DecayTau = 40
	np.ActV = -58
	np.ActS = 2.5
}

func (np *NMDAParams) Validate() error {
	if err := np.Params.Validate(); err != nil {
		return err
	}
	if np.ActS == 0 {
		return fmt.Errorf("synkern.NMDAParams: ActS must be non-zero")
	}
	return nil
}

// GFmV returns the voltage-dependent unblocking factor (0..1) as a
// function of membrane potential (mV).
func (np *NMDAParams) GFmV(v float32) float32 {
	return 1 / (1 + math32.Exp((np.ActV-v)/np.ActS))
}
