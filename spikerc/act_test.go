// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

import (
	"testing"

	"github.com/chewxy/math32"
)

// difTol is the numerical difference tolerance for comparing expected values
const difTol = float32(1.0e-6)

func TestActUpdate(t *testing.T) {
	ac := ActParams{}
	ac.Defaults()
	if ac.Dt.VmDt != 1/ac.Dt.VmTau {
		t.Errorf("VmDt: %v != 1 / VmTau: %v", ac.Dt.VmDt, 1/ac.Dt.VmTau)
	}
	if ac.Dt.GDt != 1/ac.Dt.GTau {
		t.Errorf("GDt: %v != 1 / GTau: %v", ac.Dt.GDt, 1/ac.Dt.GTau)
	}
	if ac.ErevSubThr.E != ac.Erev.E-ac.Spike.Thr {
		t.Errorf("ErevSubThr.E: %v != Erev.E - Thr: %v", ac.ErevSubThr.E, ac.Erev.E-ac.Spike.Thr)
	}
}

func TestSpikeFmVm(t *testing.T) {
	ac := ActParams{}
	ac.Defaults()
	nrn := Neuron{}
	ac.InitActs(&nrn)

	// subthreshold: no spike
	nrn.Vm = 0.6
	ac.SpikeFmVm(&nrn)
	if nrn.Spike != 0 {
		t.Errorf("subthreshold Vm %v produced a spike", nrn.Vm)
	}

	// suprathreshold: spike, reset, refractory
	nrn.Vm = 1.0
	ac.SpikeFmVm(&nrn)
	if nrn.Spike != 1 {
		t.Errorf("suprathreshold Vm did not spike")
	}
	if nrn.Vm != ac.Spike.VmR {
		t.Errorf("Vm not reset to VmR: %v != %v", nrn.Vm, ac.Spike.VmR)
	}
	if nrn.RefCyc != ac.Spike.Tr {
		t.Errorf("RefCyc not set to Tr: %v != %v", nrn.RefCyc, ac.Spike.Tr)
	}

	// refractory: no spike even at high Vm
	nrn.Vm = 1.0
	ac.SpikeFmVm(&nrn)
	if nrn.Spike != 0 {
		t.Errorf("refractory neuron spiked")
	}
}

func TestSpkTrace(t *testing.T) {
	ac := ActParams{}
	ac.Defaults()
	nrn := Neuron{}
	ac.InitActs(&nrn)

	nrn.Vm = 1.0
	ac.SpikeFmVm(&nrn)
	exp := ac.Dt.TraceDt // trace after one spike from 0
	if math32.Abs(nrn.SpkTrace-exp) > difTol {
		t.Errorf("SpkTrace after first spike: %v != %v", nrn.SpkTrace, exp)
	}

	// decays toward zero with no spikes
	prv := nrn.SpkTrace
	nrn.Vm = 0
	ac.SpikeFmVm(&nrn)
	exp = prv - ac.Dt.TraceDt*prv
	if math32.Abs(nrn.SpkTrace-exp) > difTol {
		t.Errorf("SpkTrace decay: %v != %v", nrn.SpkTrace, exp)
	}
	if nrn.SpkTrace >= prv {
		t.Errorf("SpkTrace did not decay: %v >= %v", nrn.SpkTrace, prv)
	}
}

func TestVmFmGRefractory(t *testing.T) {
	ac := ActParams{}
	ac.Defaults()
	nrn := Neuron{}
	ac.InitActs(&nrn)

	nrn.Vm = 0.5
	nrn.RefCyc = 2
	ac.VmFmG(&nrn)
	exp := 0.5 + ac.Spike.RDt*(ac.Spike.VmR-0.5)
	if math32.Abs(nrn.Vm-exp) > difTol {
		t.Errorf("refractory Vm decay: %v != %v", nrn.Vm, exp)
	}
	if nrn.RefCyc != 1 {
		t.Errorf("RefCyc not decremented: %v", nrn.RefCyc)
	}
	if nrn.Inet != 0 {
		t.Errorf("refractory Inet should be 0: %v", nrn.Inet)
	}
}

func TestGeFmRaw(t *testing.T) {
	ac := ActParams{}
	ac.Defaults()
	nrn := Neuron{}
	ac.InitActs(&nrn)

	nrn.GeRaw = 1.0
	ac.GeFmRaw(&nrn, nrn.GeRaw)
	exp := ac.Dt.GDt * 1.0 // low-pass step from 0 toward 1
	if math32.Abs(nrn.Ge-exp) > difTol {
		t.Errorf("Ge integration: %v != %v", nrn.Ge, exp)
	}
	// raw decays so transient spike drive fades
	expRaw := 1.0 - ac.Dt.GDt*1.0
	if math32.Abs(nrn.GeRaw-float32(expRaw)) > difTol {
		t.Errorf("GeRaw decay: %v != %v", nrn.GeRaw, expRaw)
	}
}

func TestHardClamp(t *testing.T) {
	ac := ActParams{}
	ac.Defaults()
	nrn := Neuron{}
	ac.InitActs(&nrn)
	nrn.SetFlag(NeurHasExt)

	nrn.Ext = 1
	if !ac.HasHardClamp(&nrn) {
		t.Errorf("HasHardClamp false with Hard clamp and ext flag")
	}
	ac.HardClamp(&nrn)
	if nrn.Spike != 1 {
		t.Errorf("hard clamp ext=1 did not spike")
	}
	nrn.Ext = 0
	ac.HardClamp(&nrn)
	if nrn.Spike != 0 {
		t.Errorf("hard clamp ext=0 spiked")
	}
	if nrn.Vm != ac.Init.Vm {
		t.Errorf("hard clamp ext=0 Vm: %v != %v", nrn.Vm, ac.Init.Vm)
	}
}

func TestActFmISI(t *testing.T) {
	sk := SpikeParams{}
	sk.Defaults()
	// at the max rate ISI, act should be 1
	maxISI := 1.0 / (0.001 * sk.MaxHz)
	act := sk.ActFmISI(maxISI, 0.001, 1)
	if math32.Abs(act-1) > difTol {
		t.Errorf("act at max rate ISI: %v != 1", act)
	}
	// twice the interval = half the activity
	act2 := sk.ActFmISI(2*maxISI, 0.001, 1)
	if math32.Abs(act2-0.5) > difTol {
		t.Errorf("act at half rate: %v != 0.5", act2)
	}
	if sk.ActFmISI(-1, 0.001, 1) != 0 {
		t.Errorf("act for invalid ISI should be 0")
	}
}

func TestDecayState(t *testing.T) {
	ac := ActParams{}
	ac.Defaults()
	nrn := Neuron{}
	ac.InitActs(&nrn)
	nrn.Vm = 0.7
	nrn.Ge = 0.5
	nrn.SpkTrace = 0.4

	ac.DecayState(&nrn, 1) // full decay
	if math32.Abs(nrn.Vm-ac.Init.Vm) > difTol {
		t.Errorf("full decay Vm: %v != %v", nrn.Vm, ac.Init.Vm)
	}
	if math32.Abs(nrn.Ge-ac.Init.Ge) > difTol {
		t.Errorf("full decay Ge: %v != %v", nrn.Ge, ac.Init.Ge)
	}
	if nrn.SpkTrace != 0 {
		t.Errorf("full decay SpkTrace: %v != 0", nrn.SpkTrace)
	}

	ac.InitActs(&nrn)
	nrn.Vm = 0.7
	ac.DecayState(&nrn, 0) // no decay preserves state
	if math32.Abs(nrn.Vm-0.7) > difTol {
		t.Errorf("zero decay changed Vm: %v", nrn.Vm)
	}
}

func TestNeuronVarAccess(t *testing.T) {
	nrn := Neuron{}
	nrn.Vm = 0.42
	nrn.SpkTrace = 0.13
	vm, err := nrn.VarByName("Vm")
	if err != nil {
		t.Error(err)
	}
	if vm != 0.42 {
		t.Errorf("VarByName Vm: %v != 0.42", vm)
	}
	st, err := nrn.VarByName("SpkTrace")
	if err != nil {
		t.Error(err)
	}
	if st != 0.13 {
		t.Errorf("VarByName SpkTrace: %v != 0.13", st)
	}
	_, err = nrn.VarByName("NotAVar")
	if err == nil {
		t.Errorf("invalid var name did not error")
	}
}
