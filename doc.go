// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package adex is the repository for the conductance-based adaptive
exponential (AdEx) integrate-and-fire neuron, implemented in the Go
language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-repositories:

* adex: the neuron core -- parameters, state, and the fixed-timestep
per-neuron update (synaptic kernels -> membrane / adaptation integration
-> threshold, reset, and refractory logic -> spike output).

* synkern: biexponential synaptic conductance kernels (AMPA, NMDA,
GABA-A) with an exact discrete-time propagator, used by adex.

* examples: these compile into runnable programs.  examples/epsp steps a
single neuron through an excitatory postsynaptic potential and records
the trajectory to a table saved as TSV.

Network-level spike routing, multi-neuron scheduling, and parameter file
parsing are deliberately not part of this repository: each neuron is a
self-contained value advanced one step at a time by whatever orchestrates
the simulation.
*/
package adex
