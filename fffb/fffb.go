// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package fffb provides feedforward (FF) and feedback (FB) inhibition (FFFB)
based on average excitatory conductance (FF) and average spiking activity
(FB) within a layer.

In the spikerc reservoir this acts as a fast global interneuron pool: it
keeps the recurrent layer in a sparse firing regime across a wide range of
input drive, instead of letting excitation run away or die out.
*/
package fffb

// Params parameterizes feedforward (FF) and feedback (FB) inhibition (FFFB)
// based on average netinput (FF) and activity (FB)
type Params struct {
	On       bool    `desc:"enable this level of inhibition"`
	Gi       float32 `min:"0" def:"1.8" desc:"overall inhibition gain -- the main parameter to adjust to change overall activation levels, scales both ff and fb uniformly"`
	FF       float32 `viewif:"On" min:"0" def:"1" desc:"feedforward contribution -- multiplies average netinput into the layer, anticipating upcoming changes in excitation"`
	FB       float32 `viewif:"On" min:"0" def:"1" desc:"feedback contribution -- multiplies average activity, reacting thermostat-like to the layer's own firing"`
	FBTau    float32 `viewif:"On" min:"0" def:"1.4,3,5" desc:"time constant in cycles for integrating feedback inhibition -- prevents oscillation"`
	MaxVsAvg float32 `viewif:"On" def:"0,0.5,1" desc:"proportion of max vs. average netinput in the feedforward term: ff_netin = avg + MaxVsAvg * (max - avg)"`
	FF0      float32 `viewif:"On" def:"0.1" desc:"feedforward zero point -- no FF inhibition is computed below this level of average netinput, and it is subtracted above"`

	FBDt float32 `inactive:"+" view:"-" json:"-" xml:"-" desc:"rate = 1 / tau"`
}

func (fb *Params) Update() {
	fb.FBDt = 1 / fb.FBTau
}

func (fb *Params) Defaults() {
	fb.Gi = 1.8
	fb.FF = 1
	fb.FB = 1
	fb.FBTau = 1.4
	fb.MaxVsAvg = 0
	fb.FF0 = 0.1
	fb.Update()
}

// FFInhib returns the feedforward inhibition value based on average and max
// excitatory conductance within the relevant scope
func (fb *Params) FFInhib(avgGe, maxGe float32) float32 {
	ffNetin := avgGe + fb.MaxVsAvg*(maxGe-avgGe)
	var ffi float32
	if ffNetin > fb.FF0 {
		ffi = fb.FF * (ffNetin - fb.FF0)
	}
	return ffi
}

// FBInhib computes feedback inhibition value as function of average activity
func (fb *Params) FBInhib(avgAct float32) float32 {
	return fb.FB * avgAct
}

// FBUpdt updates feedback inhibition using the time-integration rate constant
func (fb *Params) FBUpdt(fbi *float32, newFbi float32) {
	*fbi += fb.FBDt * (newFbi - *fbi)
}

// Inhib is the full inhibition computation for given inhib state, which must
// have the Ge and Act values updated to reflect the current averages and
// maxes of those values across the pool.
func (fb *Params) Inhib(inh *Inhib) {
	if !fb.On {
		inh.Init()
		return
	}

	ffi := fb.FFInhib(inh.Ge.Avg, inh.Ge.Max)
	fbi := fb.FBInhib(inh.Act.Avg)

	inh.FFi = ffi
	fb.FBUpdt(&inh.FBi, fbi)

	inh.Gi = fb.Gi * (ffi + inh.FBi)
}
