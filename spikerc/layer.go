// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/params"
	"github.com/emer/emergent/weights"
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/indent"
	"github.com/goki/ki/ints"
	"github.com/ncdlab/spikerc/fffb"
)

// spikerc.Layer implements a layer of spiking integrate-and-fire neurons.
// The layer type determines the role in the reservoir computing architecture:
// Input layers are hard clamped to the encoder spike rasters, Reservoir
// layers run the full spiking dynamics with FFFB inhibition, and Readout
// layers compute a linear function of the reservoir spike traces.
type Layer struct {
	Off     bool          `desc:"inactivate this layer -- allows for easy experimentation"`
	Nm      string        `desc:"name of the layer -- this must be unique within the network"`
	Cls     string        `desc:"Class is for applying parameter styles, can be space separated multiple tags"`
	Shp     etensor.Shape `desc:"shape of the layer -- can be 2D for basic layers and 4D for layers with sub-groups (hypercolumns)"`
	Typ     LayerType     `desc:"type of layer -- determines its role in the computation: Input, Reservoir, or Readout"`
	Idx     int           `view:"-" inactive:"-" desc:"a 0..n-1 index of the position of the layer within list of layers in the network"`
	RcvPrjn []*Prjn       `desc:"list of receiving projections into this layer (from other layers)"`
	SndPrjn []*Prjn       `desc:"list of sending projections from this layer (to other layers)"`
	Act     ActParams     `view:"add-fields" desc:"activation parameters and methods for computing neuron activations"`
	Inhib   fffb.Params   `view:"add-fields" desc:"feedforward and feedback inhibition parameters -- only active for Reservoir layers"`
	Neurons []Neuron      `desc:"slice of neurons for this layer -- flat list of all neurons, as 1D array"`
	Pool    Pool          `desc:"single pool of the entire layer -- has layer-level inhibition state"`
}

// params.Styler interface

func (ly *Layer) TypeName() string    { return "Layer" } // always, for params..
func (ly *Layer) Class() string       { return ly.Typ.String() + " " + ly.Cls }
func (ly *Layer) SetClass(cls string) { ly.Cls = cls }
func (ly *Layer) Name() string        { return ly.Nm }
func (ly *Layer) SetName(nm string)   { ly.Nm = nm }
func (ly *Layer) Label() string       { return ly.Nm }

func (ly *Layer) Shape() *etensor.Shape { return &ly.Shp }
func (ly *Layer) Type() LayerType       { return ly.Typ }
func (ly *Layer) SetType(typ LayerType) { ly.Typ = typ }
func (ly *Layer) IsOff() bool           { return ly.Off }
func (ly *Layer) SetOff(off bool)       { ly.Off = off }
func (ly *Layer) Index() int            { return ly.Idx }
func (ly *Layer) SetIndex(idx int)      { ly.Idx = idx }
func (ly *Layer) NNeurons() int         { return len(ly.Neurons) }

// SetShape sets the layer shape, and also uses default dim names if not
// provided
func (ly *Layer) SetShape(shape []int) {
	var dnms []string
	if len(shape) == 2 {
		dnms = []string{"Y", "X"}
	} else if len(shape) == 4 {
		dnms = []string{"GroupY", "GroupX", "NeurY", "NeurX"}
	}
	ly.Shp.SetShape(shape, nil, dnms) // row major default
}

// RecvPrjnBySendName returns the receiving projection from the layer of the
// given name, nil if not found
func (ly *Layer) RecvPrjnBySendName(sender string) *Prjn {
	for _, pj := range ly.RcvPrjn {
		if pj.Snd.Name() == sender {
			return pj
		}
	}
	return nil
}

// SendPrjnByRecvName returns the sending projection to the layer of the
// given name, nil if not found
func (ly *Layer) SendPrjnByRecvName(recv string) *Prjn {
	for _, pj := range ly.SndPrjn {
		if pj.Rcv.Name() == recv {
			return pj
		}
	}
	return nil
}

func (ly *Layer) Defaults() {
	ly.Act.Defaults()
	ly.Inhib.Defaults()
	ly.Inhib.On = true
	for _, pj := range ly.RcvPrjn {
		pj.Defaults()
	}
}

// UpdateParams updates all params given any changes that might have been
// made to individual values, including those in receiving projections of
// this layer
func (ly *Layer) UpdateParams() {
	ly.Act.Update()
	ly.Inhib.Update()
	for _, pj := range ly.RcvPrjn {
		pj.UpdateParams()
	}
}

// ApplyParams applies given parameter style Sheet to this layer and its
// recv projections.  Calls UpdateParams on anything set to ensure derived
// parameters are all updated.  If setMsg is true, a message is printed to
// confirm each parameter that is set.  Returns true if any params were set,
// and error if any errors.
func (ly *Layer) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	applied := false
	var rerr error
	app, err := pars.Apply(ly, setMsg)
	if app {
		ly.UpdateParams()
		applied = true
	}
	if err != nil {
		rerr = err
	}
	for _, pj := range ly.RcvPrjn {
		app, err = pj.ApplyParams(pars, setMsg)
		if app {
			applied = true
		}
		if err != nil {
			rerr = err
		}
	}
	return applied, rerr
}

// JsonToParams reformats json output to suitable params display output
func JsonToParams(b []byte) string {
	br := strings.Replace(string(b), `"`, ``, -1)
	br = strings.Replace(br, ",\n", "", -1)
	br = strings.Replace(br, "{\n", "{", -1)
	br = strings.Replace(br, "} ", "}\n  ", -1)
	br = strings.Replace(br, "\n }", " }", -1)
	return br[1:] + "\n"
}

// AllParams returns a listing of all parameters in the layer
func (ly *Layer) AllParams() string {
	str := "/////////////////////////////////////////////////\nLayer: " + ly.Nm + "\n"
	b, _ := json.MarshalIndent(&ly.Act, "", " ")
	str += "Act: {\n " + JsonToParams(b)
	b, _ = json.MarshalIndent(&ly.Inhib, "", " ")
	str += "Inhib: {\n " + JsonToParams(b)
	for _, pj := range ly.RcvPrjn {
		str += pj.AllParams()
	}
	return str
}

// UnitVarNames returns a list of variable names available on the units in
// this layer
func (ly *Layer) UnitVarNames() []string {
	return NeuronVars
}

// UnitVals fills in values of given variable name on unit for each unit in
// the layer, into given float32 slice (only resized if not big enough).
// Returns error on invalid var name.
func (ly *Layer) UnitVals(vals *[]float32, varNm string) error {
	vidx, err := NeuronVarIdxByName(varNm)
	if err != nil {
		return err
	}
	nn := len(ly.Neurons)
	if *vals == nil || cap(*vals) < nn {
		*vals = make([]float32, nn)
	} else if len(*vals) < nn {
		*vals = (*vals)[0:nn]
	}
	for i := range ly.Neurons {
		(*vals)[i] = ly.Neurons[i].VarByIndex(vidx)
	}
	return nil
}

// UnitValsTensor returns values of given variable name on unit for each
// unit in the layer, as a float32 tensor in same shape as layer units.
func (ly *Layer) UnitValsTensor(tsr etensor.Tensor, varNm string) error {
	if tsr == nil {
		err := fmt.Errorf("spikerc.UnitValsTensor: Tensor is nil")
		log.Println(err)
		return err
	}
	vidx, err := NeuronVarIdxByName(varNm)
	if err != nil {
		return err
	}
	tsr.SetShape(ly.Shp.Shp, ly.Shp.Strd, ly.Shp.Nms)
	for i := range ly.Neurons {
		tsr.SetFloat1D(i, float64(ly.Neurons[i].VarByIndex(vidx)))
	}
	return nil
}

// UnitVal returns value of given variable name on given unit, using 1D flat
// index.  Returns NaN on invalid var name or index.
func (ly *Layer) UnitVal(varNm string, idx int) float32 {
	vidx, err := NeuronVarIdxByName(varNm)
	if err != nil {
		return math32.NaN()
	}
	if idx < 0 || idx >= len(ly.Neurons) {
		return math32.NaN()
	}
	return ly.Neurons[idx].VarByIndex(vidx)
}

//////////////////////////////////////////////////////////////////////////////////////
//  Build

// Build constructs the layer state, including calling Build on the
// projections.
func (ly *Layer) Build() error {
	nu := ly.Shp.Len()
	if nu == 0 {
		return fmt.Errorf("Build Layer %v: no units specified in Shape", ly.Nm)
	}
	ly.Neurons = make([]Neuron, nu)
	ly.Pool.StIdx = 0
	ly.Pool.EdIdx = nu
	var emsg string
	for _, pj := range ly.RcvPrjn {
		if pj.Off {
			continue
		}
		err := pj.Build()
		if err != nil {
			emsg += err.Error() + "\n"
		}
	}
	if emsg != "" {
		return errors.New(emsg)
	}
	return nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Weights File

// WriteWtsJSON writes the weights from this layer from the receiver-side
// perspective in a JSON text format.
func (ly *Layer) WriteWtsJSON(w io.Writer, depth int) {
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Layer\": %q,\n", ly.Nm)))
	onps := make([]*Prjn, 0, len(ly.RcvPrjn))
	for _, pj := range ly.RcvPrjn {
		if !pj.Off {
			onps = append(onps, pj)
		}
	}
	np := len(onps)
	if np == 0 {
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Prjns\": null\n"))
	} else {
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Prjns\": [\n"))
		depth++
		for pi, pj := range onps {
			pj.WriteWtsJSON(w, depth)
			if pi == np-1 {
				w.Write([]byte("\n"))
			} else {
				w.Write([]byte(",\n"))
			}
		}
		depth--
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("]\n"))
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("}")) // note: leave unterminated as outer loop needs to add , or just \n depending
}

// ReadWtsJSON reads the weights from this layer from the receiver-side
// perspective in a JSON text format.  This is for a set of weights that
// were saved *for one layer only* and is not used for the network-level
// ReadWtsJSON, which reads into a separate structure -- see SetWts method.
func (ly *Layer) ReadWtsJSON(r io.Reader) error {
	lw, err := weights.LayReadJSON(r)
	if err != nil {
		return err // note: already logged
	}
	return ly.SetWts(lw)
}

// SetWts sets the weights for this layer from weights.Layer decoded values
func (ly *Layer) SetWts(lw *weights.Layer) error {
	if ly.Off {
		return nil
	}
	var err error
	for pi := range lw.Prjns {
		pw := &lw.Prjns[pi]
		pj := ly.RecvPrjnBySendName(pw.From)
		if pj == nil {
			er := fmt.Errorf("Layer %v: no recv prjn from layer: %v", ly.Nm, pw.From)
			log.Println(er)
			err = er
			continue
		}
		er := pj.SetWts(pw)
		if er != nil {
			err = er
		}
	}
	return err
}

//////////////////////////////////////////////////////////////////////////////////////
//  Init methods

// InitWts initializes the weight values in the network, i.e., resetting
// the random reservoir weights and all other state
func (ly *Layer) InitWts() {
	for _, pj := range ly.RcvPrjn {
		if pj.Off {
			continue
		}
		pj.InitWts()
	}
	ly.InitActs()
}

// InitActs fully initializes activation state -- only called automatically
// during InitWts
func (ly *Layer) InitActs() {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		ly.Act.InitActs(nrn)
	}
	ly.Pool.Init()
}

// InitExt initializes external input state -- called prior to apply ext
func (ly *Layer) InitExt() {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		nrn.Ext = 0
		nrn.ClearFlag(NeurHasExt)
	}
}

// DecayState decays activation state by given proportion (default is
// Act.Init.Decay) -- called between windows via Network.WindowInit
func (ly *Layer) DecayState(decay float32) {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		ly.Act.DecayState(nrn, decay)
	}
	ly.Pool.Inhib.Decay(decay)
}

// ApplyExt applies external input in the form of an etensor.Float32. If the
// tensor is 2D, then it is applied to the layer's 2D shape directly,
// otherwise it must have the same flat length as the layer.
func (ly *Layer) ApplyExt(ext etensor.Tensor) {
	mx := ints.MinInt(ext.Len(), len(ly.Neurons))
	for i := 0; i < mx; i++ {
		nrn := &ly.Neurons[i]
		if nrn.IsOff() {
			continue
		}
		nrn.Ext = float32(ext.FloatVal1D(i))
		nrn.SetFlag(NeurHasExt)
	}
}

// ApplyExt1D32 applies external input in the form of a flat 1-dimensional
// slice of floats -- the encoder's per-cycle spike raster column.
func (ly *Layer) ApplyExt1D32(ext []float32) {
	mx := ints.MinInt(len(ext), len(ly.Neurons))
	for i := 0; i < mx; i++ {
		nrn := &ly.Neurons[i]
		if nrn.IsOff() {
			continue
		}
		nrn.Ext = ext[i]
		nrn.SetFlag(NeurHasExt)
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Cycle

// InitGInc initializes GeInc and GiInc increment, and projection-level
// GInc increments
func (ly *Layer) InitGInc() {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		ly.Act.InitGInc(nrn)
	}
	for _, pj := range ly.RcvPrjn {
		if pj.Off {
			continue
		}
		pj.InitGInc()
	}
}

// SendSpike sends spikes from this layer's neurons to receivers, for all
// neurons that spiked last cycle.  Input layer spikes are the hard-clamped
// encoder raster values.
func (ly *Layer) SendSpike(ltime *Time) {
	if ly.Typ == Readout {
		return // readout does not spike
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() || nrn.Spike == 0 {
			continue
		}
		for _, sp := range ly.SndPrjn {
			if sp.IsOff() {
				continue
			}
			sp.SendSpike(ni)
		}
	}
}

// GFmInc integrates new synaptic conductances from increments sent during
// last SendSpike
func (ly *Layer) GFmInc(ltime *Time) {
	for _, pj := range ly.RcvPrjn {
		if pj.IsOff() {
			continue
		}
		pj.RecvGInc()
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		ly.Act.GRawFmInc(nrn)
		ly.Act.GeFmRaw(nrn, nrn.GeRaw)
		ly.Act.GiFmRaw(nrn, nrn.GiRaw)
	}
}

// AvgMaxGe computes the average and max Ge stats, used in inhibition
func (ly *Layer) AvgMaxGe(ltime *Time) {
	lpl := &ly.Pool
	lpl.Inhib.Ge.Init()
	for ni := lpl.StIdx; ni < lpl.EdIdx; ni++ {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		lpl.Inhib.Ge.UpdateVal(nrn.Ge, ni)
	}
	lpl.Inhib.Ge.CalcAvg()
}

// InhibFmGeAct computes layer-level FFFB inhibition from the average and max
// Ge and Act stats, and sets each neuron's total Gi
func (ly *Layer) InhibFmGeAct(ltime *Time) {
	lpl := &ly.Pool
	ly.Inhib.Inhib(&lpl.Inhib)
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		ly.Act.InhibFmPool(nrn, lpl.Inhib.Gi)
	}
}

// VmFmG integrates membrane potential from conductances
func (ly *Layer) VmFmG(ltime *Time) {
	if ly.Typ == Readout {
		return
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() || ly.Act.HasHardClamp(nrn) {
			continue
		}
		ly.Act.VmFmG(nrn)
	}
}

// SpikeFmVm computes spiking from the membrane potential, and updates the
// spike traces.  Hard clamped neurons spike directly from their Ext input,
// and Readout layers compute their linear trace readout here instead.
func (ly *Layer) SpikeFmVm(ltime *Time) {
	if ly.Typ == Readout {
		ly.ReadoutFmTraces(ltime)
		return
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		if ly.Act.HasHardClamp(nrn) {
			ly.Act.HardClamp(nrn)
		} else {
			ly.Act.SpikeFmVm(nrn)
		}
	}
}

// ReadoutFmTraces computes the Readout layer units as a weighted sum of
// sending layer spike traces.  The bias term is carried in the Ext field,
// set once when the trained readout weights are loaded.
func (ly *Layer) ReadoutFmTraces(ltime *Time) {
	for ni := range ly.Neurons {
		ly.Neurons[ni].GeRaw = 0
	}
	for _, pj := range ly.RcvPrjn {
		if pj.IsOff() {
			continue
		}
		pj.RecvSpkTraces()
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		nrn.Act = nrn.GeRaw + nrn.Ext
		nrn.Ge = nrn.GeRaw
	}
}

// AvgMaxAct computes the average and max Act stats, used in inhibition
func (ly *Layer) AvgMaxAct(ltime *Time) {
	lpl := &ly.Pool
	lpl.Inhib.Act.Init()
	for ni := lpl.StIdx; ni < lpl.EdIdx; ni++ {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		lpl.Inhib.Act.UpdateVal(nrn.Act, ni)
	}
	lpl.Inhib.Act.CalcAvg()
}

//////////////////////////////////////////////////////////////////////////////////////
//  Stats

// SpikeCount returns the total number of spikes in the layer this cycle
func (ly *Layer) SpikeCount() int {
	cnt := 0
	for ni := range ly.Neurons {
		if ly.Neurons[ni].Spike > 0 {
			cnt++
		}
	}
	return cnt
}

// MeanRate returns the mean firing rate over the layer based on the
// running-average interspike intervals, in Hz
func (ly *Layer) MeanRate() float32 {
	n := len(ly.Neurons)
	if n == 0 {
		return 0
	}
	sum := float32(0)
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.ISIAvg > 0 {
			sum += 1.0 / (ly.Act.Dt.TimePerCyc * nrn.ISIAvg)
		}
	}
	return sum / float32(n)
}
