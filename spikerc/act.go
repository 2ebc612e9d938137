// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

import (
	"github.com/chewxy/math32"
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/minmax"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
	"github.com/ncdlab/spikerc/chans"
)

///////////////////////////////////////////////////////////////////////
//  act.go contains the activation params and functions for spikerc

// spikerc.ActParams contains all the activation computation params and
// functions for the integrate-and-fire neuron, at the neuron level.
// This is included in spikerc.Layer to drive the computation.
type ActParams struct {
	Spike      SpikeParams    `view:"inline" desc:"spiking function parameters: threshold, reset, refractory period"`
	Init       ActInitParams  `view:"inline" desc:"initial values for key network state variables -- initialized with InitActs or DecayState"`
	Dt         DtParams       `view:"inline" desc:"time and rate constants for temporal derivatives / updating of activation state"`
	Gbar       chans.Chans    `view:"inline" desc:"[Defaults: 1, .2, 1, 1] maximal conductances levels for channels"`
	Erev       chans.Chans    `view:"inline" desc:"[Defaults: 1, .3, .25, .1] reversal potentials for each channel"`
	Clamp      ClampParams    `view:"inline" desc:"how external inputs drive activity -- spike rasters are hard clamped"`
	Noise      ActNoiseParams `view:"inline" desc:"how, where, and how much noise to add"`
	VmRange    minmax.F32     `view:"inline" desc:"range for Vm membrane potential -- [0, 2.0] by default"`
	ErevSubThr chans.Chans    `inactive:"+" view:"-" json:"-" xml:"-" desc:"Erev - Spike.Thr for each channel -- used in netin threshold computations"`
}

func (ac *ActParams) Defaults() {
	ac.Spike.Defaults()
	ac.Init.Defaults()
	ac.Dt.Defaults()
	ac.Gbar.SetAll(1.0, 0.2, 1.0, 1.0)
	ac.Erev.SetAll(1.0, 0.3, 0.25, 0.1)
	ac.Clamp.Defaults()
	ac.Noise.Defaults()
	ac.VmRange.Max = 2.0
	ac.Update()
}

// Update must be called after any changes to parameters
func (ac *ActParams) Update() {
	ac.ErevSubThr.SetFmOtherMinus(ac.Erev, ac.Spike.Thr)
	ac.Spike.Update()
	ac.Init.Update()
	ac.Dt.Update()
	ac.Clamp.Update()
	ac.Noise.Update()
}

///////////////////////////////////////////////////////////////////////
//  Init

// InitGInc initializes the Ge excitatory and Gi inhibitory conductance
// accumulation states, including the G*Raw and G*Inc values.
func (ac *ActParams) InitGInc(nrn *Neuron) {
	nrn.GeRaw = 0
	nrn.GeInc = 0
	nrn.GiRaw = 0
	nrn.GiInc = 0
}

// DecayState decays the activation state toward initial values in proportion
// to given decay parameter.  Called between windows to partially reset the
// reservoir without fully erasing its memory.
func (ac *ActParams) DecayState(nrn *Neuron, decay float32) {
	if decay > 0 {
		nrn.Ge -= decay * (nrn.Ge - ac.Init.Ge)
		nrn.Gi -= decay * nrn.Gi
		nrn.GiSyn -= decay * nrn.GiSyn
		nrn.Vm -= decay * (nrn.Vm - ac.Init.Vm)
		nrn.SpkTrace -= decay * nrn.SpkTrace
		nrn.Act -= decay * nrn.Act
	}
	nrn.Inet = 0
	nrn.Spike = 0
}

// InitActs initializes activation state in neuron -- called during InitWts
// but otherwise not automatically called (DecayState is used instead)
func (ac *ActParams) InitActs(nrn *Neuron) {
	nrn.Spike = 0
	nrn.SpkTrace = 0
	nrn.Act = ac.Init.Act
	nrn.Ge = ac.Init.Ge
	nrn.Gi = 0
	nrn.GiSyn = 0
	nrn.Inet = 0
	nrn.Vm = ac.Init.Vm
	nrn.Ext = 0
	nrn.Noise = 0
	nrn.ISI = -1
	nrn.ISIAvg = -1
	nrn.RefCyc = 0
	ac.InitGInc(nrn)
}

///////////////////////////////////////////////////////////////////////
//  Cycle

// GRawFmInc integrates G conductance from Inc delta-increment sent.
func (ac *ActParams) GRawFmInc(nrn *Neuron) {
	nrn.GeRaw += nrn.GeInc
	nrn.GeInc = 0

	nrn.GiRaw += nrn.GiInc
	nrn.GiInc = 0
}

// GeFmRaw integrates Ge excitatory conductance from GeRaw value
// (can add other terms to geRaw prior to calling this)
func (ac *ActParams) GeFmRaw(nrn *Neuron, geRaw float32) {
	geRaw += ac.Init.Ge // constant background drive
	if !ac.Clamp.Hard && nrn.HasFlag(NeurHasExt) {
		geRaw += nrn.Ext * ac.Clamp.Gain
	}

	ac.Dt.GFmRaw(geRaw, &nrn.Ge)
	if ac.Noise.Type != NoNoise && !ac.Noise.Fixed && ac.Noise.Dist != erand.Mean {
		nrn.Noise = float32(ac.Noise.Gen(-1))
	}
	if ac.Noise.Type == GeNoise {
		nrn.Ge += nrn.Noise
	}
	// spikes arrive and are gone -- raw decays back toward zero so that
	// conductance reflects recent spike drive only
	nrn.GeRaw -= ac.Dt.GDt * nrn.GeRaw
}

// GiFmRaw integrates GiSyn inhibitory synaptic conductance from GiRaw value.
// The total Gi also includes the layer-level FFFB inhibition -- see InhibFmPool.
func (ac *ActParams) GiFmRaw(nrn *Neuron, giRaw float32) {
	ac.Dt.GFmRaw(giRaw, &nrn.GiSyn)
	nrn.GiSyn = math32.Max(nrn.GiSyn, 0) // negative inhib G doesn't make any sense
	nrn.GiRaw -= ac.Dt.GDt * nrn.GiRaw
}

// InhibFmPool sets the neuron's total inhibitory conductance from its
// synaptic inhibition plus the computed pool-level FFFB inhibition.
func (ac *ActParams) InhibFmPool(nrn *Neuron, poolGi float32) {
	nrn.Gi = nrn.GiSyn + poolGi
}

// InetFmG computes net current from conductances and Vm
func (ac *ActParams) InetFmG(vm, ge, gi float32) float32 {
	inet := ge*(ac.Erev.E-vm) + ac.Gbar.L*(ac.Erev.L-vm) + gi*(ac.Erev.I-vm)
	if ac.Spike.Exp {
		inet += ac.Gbar.L * ac.Spike.ExpSlope * mat32.FastExp((vm-ac.Spike.Thr)/ac.Spike.ExpSlope)
	}
	return inet
}

// VmFmG computes membrane potential Vm from conductances Ge and Gi.
// Refractory neurons decay toward the reset potential instead.
func (ac *ActParams) VmFmG(nrn *Neuron) {
	if nrn.RefCyc > 0 {
		nrn.Vm += ac.Spike.RDt * (ac.Spike.VmR - nrn.Vm)
		nrn.Inet = 0
		nrn.RefCyc--
		return
	}
	ge := nrn.Ge * ac.Gbar.E
	gi := nrn.Gi * ac.Gbar.I
	nrn.Inet = ac.InetFmG(nrn.Vm, ge, gi)
	nwVm := nrn.Vm + ac.Dt.VmDt*nrn.Inet

	if ac.Noise.Type == VmNoise {
		nwVm += nrn.Noise
	}
	nrn.Vm = ac.VmRange.ClipVal(nwVm)
}

// SpikeFmVm computes discrete spiking from the membrane potential, resets Vm
// and starts the refractory period on a spike, and updates the interspike
// interval bookkeeping and the SpkTrace readout feature.
func (ac *ActParams) SpikeFmVm(nrn *Neuron) {
	var thr float32
	if ac.Spike.Exp {
		thr = ac.Spike.ExpThr
	} else {
		thr = ac.Spike.Thr
	}
	if nrn.RefCyc <= 0 && nrn.Vm > thr {
		nrn.Spike = 1
		nrn.Vm = ac.Spike.VmR
		nrn.RefCyc = ac.Spike.Tr
		nrn.Inet = 0
		if nrn.ISIAvg == -1 {
			nrn.ISIAvg = -2
		} else if nrn.ISI > 0 { // must have spiked to update
			ac.Spike.AvgFmISI(&nrn.ISIAvg, nrn.ISI+1)
		}
		nrn.ISI = 0
	} else {
		nrn.Spike = 0
		if nrn.ISI >= 0 {
			nrn.ISI += 1
		}
		if nrn.ISIAvg >= 0 && nrn.ISI > 0 && nrn.ISI > 1.2*nrn.ISIAvg {
			ac.Spike.AvgFmISI(&nrn.ISIAvg, nrn.ISI)
		}
	}

	nrn.SpkTrace += ac.Dt.TraceDt * (nrn.Spike - nrn.SpkTrace)

	nwAct := ac.Spike.ActFmISI(nrn.ISIAvg, ac.Dt.TimePerCyc, ac.Dt.Integ)
	if nwAct > 1 {
		nwAct = 1
	}
	nrn.Act += ac.Dt.VmDt * (nwAct - nrn.Act)
}

// HasHardClamp returns true if this neuron has external input that should be hard clamped
func (ac *ActParams) HasHardClamp(nrn *Neuron) bool {
	return ac.Clamp.Hard && nrn.HasFlag(NeurHasExt)
}

// HardClamp drives the neuron directly from its external input: Ext is a
// binary spike raster value for the current cycle (encoder output).
// Vm is set consistent with the spike so that monitoring looks sensible.
func (ac *ActParams) HardClamp(nrn *Neuron) {
	if nrn.Ext >= ac.Clamp.SpikeThr {
		nrn.Spike = 1
		nrn.Vm = ac.Spike.VmR
	} else {
		nrn.Spike = 0
		nrn.Vm = ac.Init.Vm
	}
	nrn.SpkTrace += ac.Dt.TraceDt * (nrn.Spike - nrn.SpkTrace)
	nrn.Act = nrn.SpkTrace
	nrn.Inet = 0
}

//////////////////////////////////////////////////////////////////////////////////////
//  SpikeParams

// SpikeParams contains spiking activation function params.
// Implements the basic thresholded Vm model with an optional AdEx
// exponential excitatory current near threshold.
type SpikeParams struct {
	Thr      float32 `def:"0.5" desc:"threshold value Theta (Q) for firing output activation"`
	VmR      float32 `def:"0.3" desc:"post-spiking membrane potential to reset to, produces refractory effect if lower than VmInit"`
	Tr       int32   `def:"3" min:"1" desc:"post-spiking explicit refractory period, in cycles -- Vm decays toward VmR and spiking is prevented"`
	RTau     float32 `def:"1.6667" desc:"time constant for decaying Vm down to VmR during the refractory period"`
	Exp      bool    `def:"true" desc:"if true, turn on exponential excitatory current that drives Vm rapidly upward for spiking as it gets past threshold (AdEx formulation)"`
	ExpSlope float32 `viewif:"Exp" def:"0.02" desc:"slope in Vm (2 mV = .02 in normalized units) for the exponential excitatory current"`
	ExpThr   float32 `viewif:"Exp" def:"0.9" desc:"membrane potential threshold for actually triggering a spike when using the exponential mechanism"`
	MaxHz    float32 `def:"180" min:"1" desc:"maximum firing rate in Hz corresponding to a rate-code activity of 1, for translating interspike intervals into Act"`
	ISITau   float32 `def:"5" min:"1" desc:"time constant for integrating the interspike interval running average"`

	ISIDt float32 `view:"-" desc:"rate = 1 / tau"`
	RDt   float32 `view:"-" desc:"rate = 1 / tau"`
}

func (sk *SpikeParams) Defaults() {
	sk.Thr = 0.5
	sk.VmR = 0.3
	sk.Tr = 3
	sk.RTau = 1.6667
	sk.Exp = true
	sk.ExpSlope = 0.02
	sk.ExpThr = 0.9
	sk.MaxHz = 180
	sk.ISITau = 5
	sk.Update()
}

func (sk *SpikeParams) Update() {
	if sk.Tr <= 0 {
		sk.Tr = 1 // hard min
	}
	sk.ISIDt = 1 / sk.ISITau
	sk.RDt = 1 / sk.RTau
}

// ActFmISI computes rate-code activation from estimated spiking interval
func (sk *SpikeParams) ActFmISI(isi, timeInc, integ float32) float32 {
	if isi <= 0 {
		return 0
	}
	maxInt := 1.0 / (timeInc * integ * sk.MaxHz) // interval at max hz..
	return maxInt / isi                          // normalized
}

// AvgFmISI updates the spiking ISI running average from the current interval
func (sk *SpikeParams) AvgFmISI(avg *float32, isi float32) {
	if *avg <= 0 {
		*avg = isi
	} else if isi < 0.8**avg {
		*avg = isi // if significantly less than we take that
	} else { // integrate on slower
		*avg += sk.ISIDt * (isi - *avg)
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  ActInitParams

// ActInitParams are initial values for key network state variables.
// Initialized in InitActs, and provide target values for DecayState.
type ActInitParams struct {
	Decay float32 `def:"0,0.5,1" max:"1" min:"0" desc:"proportion to decay activation state toward initial values between windows -- 0 preserves reservoir memory across windows"`
	Vm    float32 `def:"0.4" desc:"initial membrane potential -- somewhat elevated relative to the .3 resting potential works better"`
	Act   float32 `def:"0" desc:"initial activation value -- typically 0"`
	Ge    float32 `def:"0" desc:"baseline level of excitatory conductance -- added in as a constant background level of excitatory input"`
}

func (ai *ActInitParams) Update() {
}

func (ai *ActInitParams) Defaults() {
	ai.Decay = 0
	ai.Vm = 0.4
	ai.Act = 0
	ai.Ge = 0
}

//////////////////////////////////////////////////////////////////////////////////////
//  DtParams

// DtParams are time and rate constants for temporal derivatives in spikerc
// (Vm, conductances, spike trace)
type DtParams struct {
	Integ      float32 `def:"1" min:"0" desc:"overall rate constant for numerical integration -- all time constants are in millisecond units with one cycle = 1 msec"`
	VmTau      float32 `def:"3.3" min:"1" desc:"membrane potential time constant in cycles (msec) -- reflects the capacitance of the neuron"`
	GTau       float32 `def:"5" min:"1" desc:"time constant for integrating synaptic conductances from discrete spike events -- the synaptic current kernel"`
	TraceTau   float32 `def:"20" min:"1" desc:"time constant for the low-pass spike trace (SpkTrace) that forms the reservoir state feature for the readout"`
	TimePerCyc float32 `def:"0.001" desc:"amount of simulated time per cycle, in seconds"`

	VmDt    float32 `view:"-" json:"-" xml:"-" desc:"rate = Integ / tau"`
	GDt     float32 `view:"-" json:"-" xml:"-" desc:"rate = Integ / tau"`
	TraceDt float32 `view:"-" json:"-" xml:"-" desc:"rate = Integ / tau"`
}

func (dp *DtParams) Update() {
	dp.VmDt = dp.Integ / dp.VmTau
	dp.GDt = dp.Integ / dp.GTau
	dp.TraceDt = dp.Integ / dp.TraceTau
}

func (dp *DtParams) Defaults() {
	dp.Integ = 1
	dp.VmTau = 3.3
	dp.GTau = 5
	dp.TraceTau = 20
	dp.TimePerCyc = 0.001
	dp.Update()
}

func (dp *DtParams) GFmRaw(geRaw float32, ge *float32) {
	*ge += dp.GDt * (geRaw - *ge)
}

//////////////////////////////////////////////////////////////////////////////////////
//  Noise

// ActNoiseType are different types / locations of random noise for activations
type ActNoiseType int

//go:generate stringer -type=ActNoiseType

var KiT_ActNoiseType = kit.Enums.AddEnum(ActNoiseTypeN, kit.NotBitFlag, nil)

func (ev ActNoiseType) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ActNoiseType) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The activation noise types
const (
	// NoNoise means no noise added
	NoNoise ActNoiseType = iota

	// VmNoise means noise is added to the membrane potential
	VmNoise

	// GeNoise means noise is added to the excitatory conductance (Ge)
	GeNoise

	ActNoiseTypeN
)

// ActNoiseParams contains parameters for activation-level noise
type ActNoiseParams struct {
	erand.RndParams
	Type  ActNoiseType `desc:"where and how to add processing noise"`
	Fixed bool         `desc:"keep the same noise value over an entire window -- produces a stable effect"`
}

func (an *ActNoiseParams) Update() {
}

func (an *ActNoiseParams) Defaults() {
	an.Fixed = false
}

//////////////////////////////////////////////////////////////////////////////////////
//  ClampParams

// ClampParams specify how external inputs drive Input layer neurons
type ClampParams struct {
	Hard     bool    `def:"true" desc:"whether to hard clamp spikes directly from external input (Spike = Ext >= SpikeThr) or do soft clamping where Ext is added into Ge excitatory current (Ge += Gain * Ext)"`
	SpikeThr float32 `viewif:"Hard" def:"0.5" desc:"Ext values at or above this threshold count as a spike this cycle"`
	Gain     float32 `viewif:"!Hard" def:"0.2" desc:"soft clamp gain factor (Ge += Gain * Ext)"`
}

func (cp *ClampParams) Update() {
}

func (cp *ClampParams) Defaults() {
	cp.Hard = true
	cp.SpikeThr = 0.5
	cp.Gain = 0.2
}

//////////////////////////////////////////////////////////////////////////////////////
//  WtInitParams

// WtInitParams are weight initialization parameters -- the random
// distribution parameters for the fixed reservoir weights
type WtInitParams struct {
	erand.RndParams
}

func (wp *WtInitParams) Defaults() {
	wp.Mean = 0.5
	wp.Var = 0.25
	wp.Dist = erand.Uniform
}

//////////////////////////////////////////////////////////////////////////////////////
//  WtScaleParams

// WtScaleParams are weight scaling parameters: modulate the overall strength
// of a projection using both absolute and relative factors.  For recurrent
// reservoir projections, Abs is what SetSpectralScale adjusts to hit a
// target spectral radius.
type WtScaleParams struct {
	Abs float32 `def:"1" min:"0" desc:"absolute scaling -- directly multiplies weight values"`
	Rel float32 `min:"0" desc:"[Default: 1] relative scaling that shifts balance between different projections into the same layer"`
}

func (ws *WtScaleParams) Defaults() {
	ws.Abs = 1
	ws.Rel = 1
}

func (ws *WtScaleParams) Update() {
}

// FullScale returns the full projection scaling factor
func (ws *WtScaleParams) FullScale() float32 {
	return ws.Abs * ws.Rel
}
