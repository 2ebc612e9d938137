// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

import (
	"fmt"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/goki/ki/bitflag"
	"github.com/goki/ki/kit"
)

// NeuronVarStart is the byte offset of fields in the Neuron structure
// where the float32 named variables start.
// Note: all non-float32 infrastructure variables must be at the start!
const NeuronVarStart = 8

// spikerc.Neuron holds all of the neuron (unit) level variables for the
// integrate-and-fire model.  All variables accessible via the named-variable
// interface must be float32 and start at NeuronVarStart, in contiguous order.
type Neuron struct {
	Flags  NeurFlags `desc:"bit flags for binary state variables"`
	RefCyc int32     `desc:"refractory cycles remaining after a spike -- Vm is held near reset while > 0"`

	// whether neuron spiked this cycle (0 or 1)
	Spike float32

	// low-pass filtered trace of spikes, integrated with Dt.TraceTau -- this is
	// the reservoir state feature read out by the linear readout
	SpkTrace float32

	// rate-code equivalent activity computed from the running-average
	// inter-spike interval -- used for feedback inhibition and monitoring
	Act float32

	// total excitatory synaptic conductance -- does *not* include Gbar.E
	Ge float32

	// total inhibitory conductance, synaptic plus computed FFFB -- does *not* include Gbar.I
	Gi float32

	// synaptic inhibitory conductance from Inhib projections, low-pass
	// integrated from GiRaw -- added to the layer-level FFFB inhibition
	GiSyn float32

	// net current produced by all channels -- drives update of Vm
	Inet float32

	// membrane potential -- integrates Inet current over time
	Vm float32

	// external input: for Input layers this is the encoder spike (hard clamp)
	// or analog drive (soft clamp) for the current cycle
	Ext float32

	// noise value added per NoiseParams
	Noise float32

	// current inter-spike-interval -- counts up since last spike.  Starts at -1 when initialized.
	ISI float32

	// running-average inter-spike-interval.  Starts at -1 when initialized, goes to
	// -2 after first spike, and is valid from the second spike on.
	ISIAvg float32

	// raw excitatory conductance received from sending spikes
	GeRaw float32

	// per-cycle accumulator for excitatory conductance from projections
	GeInc float32

	// raw inhibitory conductance received from sending spikes
	GiRaw float32

	// per-cycle accumulator for inhibitory conductance from projections
	GiInc float32
}

var NeuronVars = []string{"Spike", "SpkTrace", "Act", "Ge", "Gi", "GiSyn", "Inet", "Vm", "Ext", "Noise", "ISI", "ISIAvg", "GeRaw", "GeInc", "GiRaw", "GiInc"}

var NeuronVarsMap map[string]int

var NeuronVarProps = map[string]string{
	"Vm":       `min:"0" max:"1"`,
	"SpkTrace": `auto-scale:"+"`,
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

// NeuronVarIdxByName returns the index of the variable in the Neuron, or error
func NeuronVarIdxByName(varNm string) (int, error) {
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
	i, err := NeuronVarIdxByName(varNm)
	if err != nil {
		return math32.NaN(), err
	}
	return nrn.VarByIndex(i), nil
}

func (nrn *Neuron) HasFlag(f NeurFlags) bool {
	return bitflag.Has32(int32(nrn.Flags), int(f))
}

func (nrn *Neuron) SetFlag(f NeurFlags) {
	bitflag.Set32((*int32)(&nrn.Flags), int(f))
}

func (nrn *Neuron) ClearFlag(f NeurFlags) {
	bitflag.Clear32((*int32)(&nrn.Flags), int(f))
}

// IsOff returns true if the neuron has been turned off (lesioned)
func (nrn *Neuron) IsOff() bool {
	return nrn.HasFlag(NeurOff)
}

// NeurFlags are bit-flags encoding relevant binary state for neurons
type NeurFlags int32

//go:generate stringer -type=NeurFlags

var KiT_NeurFlags = kit.Enums.AddEnum(NeurFlagsN, kit.BitFlag, nil)

func (ev NeurFlags) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *NeurFlags) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The neuron flags
const (
	// NeurOff flag indicates that this neuron has been turned off (i.e., lesioned)
	NeurOff NeurFlags = iota

	// NeurHasExt means the neuron has external input in its Ext field
	NeurHasExt

	NeurFlagsN
)
