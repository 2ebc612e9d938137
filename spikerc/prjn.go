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
	"strconv"

	"github.com/chewxy/math32"
	"github.com/emer/emergent/params"
	"github.com/emer/emergent/prjn"
	"github.com/emer/emergent/weights"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
	"github.com/goki/ki/indent"
)

// PrjnStru contains the basic structural information for specifying a
// projection of synaptic connections between two layers, and maintaining
// all the synaptic connection-level data.
type PrjnStru struct {
	Off bool         `desc:"inactivate this projection -- allows for easy experimentation"`
	Cls string       `desc:"Class is for applying parameter styles, can be space separated multiple tags"`
	Snd *Layer       `desc:"sending layer for this projection"`
	Rcv *Layer       `desc:"receiving layer for this projection"`
	Pat prjn.Pattern `desc:"pattern of connectivity"`
	Typ PrjnType     `desc:"type of projection -- Forward, Recurrent, or Inhib -- matches against .Cls parameter styles (e.g., .Recurrent)"`

	RConN       []int32         `view:"-" desc:"number of recv connections for each neuron in the receiving layer, as a flat list"`
	RConNAvgMax minmax.AvgMax32 `inactive:"+" view:"inline" desc:"average and maximum number of recv connections in the receiving layer"`
	RConIdxSt   []int32         `view:"-" desc:"starting index into ConIdx list for each neuron in receiving layer -- just a list incremented by ConN"`
	RConIdx     []int32         `view:"-" desc:"index of other neuron on sending side of projection, ordered by the receiving layer's order of units as the outer loop, and then by the sending layer's units within that"`
	RSynIdx     []int32         `view:"-" desc:"index of synaptic state values for each recv unit x connection, for the receiver projection which does not own the synapses, and instead indexes into sender-ordered list"`
	SConN       []int32         `view:"-" desc:"number of sending connections for each neuron in the sending layer, as a flat list"`
	SConNAvgMax minmax.AvgMax32 `inactive:"+" view:"inline" desc:"average and maximum number of sending connections in the sending layer"`
	SConIdxSt   []int32         `view:"-" desc:"starting index into ConIdx list for each neuron in sending layer -- just a list incremented by ConN"`
	SConIdx     []int32         `view:"-" desc:"index of other neuron on receiving side of projection, ordered by the sending layer's order of units as the outer loop, and then by the sending layer's units within that"`
}

// params.Styler interface

func (ps *PrjnStru) TypeName() string { return "Prjn" } // always, for params..
func (ps *PrjnStru) Class() string    { return ps.Typ.String() + " " + ps.Cls }
func (ps *PrjnStru) SetClass(cls string) { ps.Cls = cls }
func (ps *PrjnStru) Name() string {
	return ps.Snd.Name() + "To" + ps.Rcv.Name()
}
func (ps *PrjnStru) Label() string        { return ps.Name() }
func (ps *PrjnStru) RecvLay() *Layer      { return ps.Rcv }
func (ps *PrjnStru) SendLay() *Layer      { return ps.Snd }
func (ps *PrjnStru) Pattern() prjn.Pattern { return ps.Pat }
func (ps *PrjnStru) Type() PrjnType       { return ps.Typ }

func (ps *PrjnStru) IsOff() bool {
	return ps.Off || ps.Rcv.Off || ps.Snd.Off
}

// Connect sets the connectivity between two layers and the pattern to use in
// interconnecting them
func (ps *PrjnStru) Connect(slay, rlay *Layer, pat prjn.Pattern, typ PrjnType) {
	ps.Snd = slay
	ps.Rcv = rlay
	ps.Pat = pat
	ps.Typ = typ
}

// Validate tests for non-nil settings for the projection -- returns error
// message or nil if no problems (and logs them if logmsg = true)
func (ps *PrjnStru) Validate(logmsg bool) error {
	emsg := ""
	if ps.Pat == nil {
		emsg += "Pat is nil; "
	}
	if ps.Rcv == nil {
		emsg += "Rcv is nil; "
	}
	if ps.Snd == nil {
		emsg += "Snd is nil; "
	}
	if emsg != "" {
		err := errors.New(emsg)
		if logmsg {
			log.Println(emsg)
		}
		return err
	}
	return nil
}

// BuildStru constructs the full connectivity among the layers as specified in
// this projection.  Calls Validate and returns error if invalid.
// Pat.Connect is called to get the pattern of the connection.
// Then the connection indexes are configured according to that pattern.
func (ps *PrjnStru) BuildStru() error {
	if ps.Off {
		return nil
	}
	err := ps.Validate(true)
	if err != nil {
		return err
	}
	ssh := ps.Snd.Shape()
	rsh := ps.Rcv.Shape()
	sendn, recvn, cons := ps.Pat.Connect(ssh, rsh, ps.Rcv == ps.Snd)
	slen := ssh.Len()
	rlen := rsh.Len()
	tcons := ps.SetNIdxSt(&ps.SConN, &ps.SConNAvgMax, &ps.SConIdxSt, sendn)
	tconr := ps.SetNIdxSt(&ps.RConN, &ps.RConNAvgMax, &ps.RConIdxSt, recvn)
	if tconr != tcons {
		log.Printf("%v programmer error: total recv cons %v != total send cons %v\n", ps.String(), tconr, tcons)
	}
	ps.RConIdx = make([]int32, tconr)
	ps.RSynIdx = make([]int32, tconr)
	ps.SConIdx = make([]int32, tcons)

	sconN := make([]int32, slen) // temporary mem needed to tracks cur n of sending cons

	cbits := cons.Values
	for ri := 0; ri < rlen; ri++ {
		rbi := ri * slen     // recv bit index
		rtcn := ps.RConN[ri] // number of cons
		rst := ps.RConIdxSt[ri]
		rci := int32(0)
		for si := 0; si < slen; si++ {
			if !cbits.Index(rbi + si) { // no connection
				continue
			}
			sst := ps.SConIdxSt[si]
			if rci >= rtcn {
				log.Printf("%v programmer error: recv target total con number: %v exceeded at recv idx: %v, send idx: %v\n", ps.String(), rtcn, ri, si)
				break
			}
			ps.RConIdx[rst+rci] = int32(si)

			sci := sconN[si]
			stcn := ps.SConN[si]
			if sci >= stcn {
				log.Printf("%v programmer error: send target total con number: %v exceeded at recv idx: %v, send idx: %v\n", ps.String(), stcn, ri, si)
				break
			}
			ps.SConIdx[sst+sci] = int32(ri)
			ps.RSynIdx[rst+rci] = sst + sci
			(sconN[si])++
			rci++
		}
	}
	return nil
}

// SetNIdxSt sets the *ConN and *ConIdxSt values given n tensor from Pat.
// Returns total number of connections for this direction.
func (ps *PrjnStru) SetNIdxSt(n *[]int32, avgmax *minmax.AvgMax32, idxst *[]int32, tn *etensor.Int32) int32 {
	ln := tn.Len()
	tnv := tn.Values
	*n = make([]int32, ln)
	*idxst = make([]int32, ln)
	idx := int32(0)
	avgmax.Init()
	for i := 0; i < ln; i++ {
		nv := tnv[i]
		(*n)[i] = nv
		(*idxst)[i] = idx
		idx += nv
		avgmax.UpdateVal(float32(nv), i)
	}
	avgmax.CalcAvg()
	return idx
}

// String satisfies fmt.Stringer for prjn
func (ps *PrjnStru) String() string {
	str := ""
	if ps.Rcv == nil {
		str += "recv=nil; "
	} else {
		str += ps.Rcv.Name() + " <- "
	}
	if ps.Snd == nil {
		str += "send=nil"
	} else {
		str += ps.Snd.Name()
	}
	if ps.Pat == nil {
		str += " Pat=nil"
	} else {
		str += " Pat=" + ps.Pat.Name()
	}
	return str
}

///////////////////////////////////////////////////////////////////////
//  Prjn

// spikerc.Prjn is a projection with fixed synaptic weights: the reservoir's
// random recurrent and input weights, or the trained linear readout weights.
// There is no online learning; readout weights are set from the offline
// ridge-regression solution.
type Prjn struct {
	PrjnStru
	WtInit  WtInitParams  `view:"inline" desc:"initial random weight distribution"`
	WtScale WtScaleParams `view:"inline" desc:"weight scaling parameters: modulates overall strength of projection using absolute and relative factors"`
	Syns    []Synapse     `desc:"synaptic state values, ordered by the sending layer units which owns them -- one-to-one with SConIdx array"`

	GScale float32   `desc:"scaling factor for integrating synaptic input conductances (G's) -- computed from WtScale in Build / UpdateParams"`
	GInc   []float32 `desc:"local per-recv unit increment accumulator for synaptic conductance from sending spikes -- this will be thread-safe"`
}

func (pj *Prjn) Defaults() {
	pj.WtInit.Defaults()
	pj.WtScale.Defaults()
	pj.GScale = 1
}

// UpdateParams updates all params given any changes that might have been made
// to individual values
func (pj *Prjn) UpdateParams() {
	pj.WtScale.Update()
	pj.GScale = pj.WtScale.FullScale()
}

// ApplyParams applies given parameter style Sheet to this projection.
// Calls UpdateParams if anything set to ensure derived parameters are all
// updated.  If setMsg is true, a message is printed to confirm each parameter
// that is set.  Returns true if any params were set, and error if any errors.
func (pj *Prjn) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	app, err := pars.Apply(pj, setMsg)
	if app {
		pj.UpdateParams()
	}
	return app, err
}

// AllParams returns a listing of all parameters in the projection
func (pj *Prjn) AllParams() string {
	str := "///////////////////////////////////////////////////\nPrjn: " + pj.Name() + "\n"
	b, _ := json.MarshalIndent(&pj.WtInit, "", " ")
	str += "WtInit: {\n " + JsonToParams(b)
	b, _ = json.MarshalIndent(&pj.WtScale, "", " ")
	str += "WtScale: {\n " + JsonToParams(b)
	return str
}

func (pj *Prjn) SynVarNames() []string {
	return SynapseVars
}

// SynVarProps returns properties for variables
func (pj *Prjn) SynVarProps() map[string]string {
	return SynapseVarProps
}

// SynVals sets values of given variable name for each synapse, using the
// natural (sender based) ordering of the synapses, into given float32 slice
// (only resized if not big enough).  Returns error on invalid var name.
func (pj *Prjn) SynVals(vals *[]float32, varNm string) error {
	vidx, err := SynapseVarByName(varNm)
	if err != nil {
		return err
	}
	ns := len(pj.Syns)
	if *vals == nil || cap(*vals) < ns {
		*vals = make([]float32, ns)
	} else if len(*vals) < ns {
		*vals = (*vals)[0:ns]
	}
	for i := range pj.Syns {
		sy := &pj.Syns[i]
		(*vals)[i] = sy.VarByIndex(vidx)
	}
	return nil
}

// Syn returns the synapse between given send, recv unit indexes
// (1D, flat indexes).  Returns nil for access errors.
func (pj *Prjn) Syn(sidx, ridx int) *Synapse {
	nc := int(pj.RConN[ridx])
	st := int(pj.RConIdxSt[ridx])
	for ci := 0; ci < nc; ci++ {
		si := int(pj.RConIdx[st+ci])
		if si != sidx {
			continue
		}
		rsi := pj.RSynIdx[st+ci]
		return &pj.Syns[rsi]
	}
	return nil
}

// SynTry returns the synapse between given send, recv unit indexes
// (1D, flat indexes).  Returns error for access errors.
func (pj *Prjn) SynTry(sidx, ridx int) (*Synapse, error) {
	nr := len(pj.Rcv.Neurons)
	ns := len(pj.Snd.Neurons)
	if ridx >= nr {
		return nil, fmt.Errorf("Prjn.SynTry: recv unit index %v is > size of recv layer: %v", ridx, nr)
	}
	if sidx >= ns {
		return nil, fmt.Errorf("Prjn.SynTry: send unit index %v is > size of send layer: %v", sidx, ns)
	}
	sy := pj.Syn(sidx, ridx)
	if sy == nil {
		return nil, fmt.Errorf("Prjn.SynTry: recv unit index %v does not recv from send unit index %v", ridx, sidx)
	}
	return sy, nil
}

// SynVal returns value of given variable name on the synapse between given
// send, recv unit indexes (1D, flat indexes).  Returns math32.NaN() for
// access errors.
func (pj *Prjn) SynVal(varNm string, sidx, ridx int) float32 {
	vidx, err := SynapseVarByName(varNm)
	if err != nil {
		return math32.NaN()
	}
	sy := pj.Syn(sidx, ridx)
	if sy == nil {
		return math32.NaN()
	}
	return sy.VarByIndex(vidx)
}

// SetSynVal sets value of given variable name on the synapse between given
// send, recv unit indexes (1D, flat indexes).  Returns error for access errors.
func (pj *Prjn) SetSynVal(varNm string, sidx, ridx int, val float32) error {
	vidx, err := SynapseVarByName(varNm)
	if err != nil {
		return err
	}
	sy, err := pj.SynTry(sidx, ridx)
	if err != nil {
		return err
	}
	sy.SetVarByIndex(vidx, val)
	return nil
}

///////////////////////////////////////////////////////////////////////
//  Weights File

// WriteWtsJSON writes the weights from this projection from the
// receiver-side perspective in a JSON text format.  We build in the
// indentation logic to make it much faster and more efficient.
func (pj *Prjn) WriteWtsJSON(w io.Writer, depth int) {
	nr := len(pj.Rcv.Neurons)
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"From\": %q,\n", pj.Snd.Name())))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("\"MetaData\": {\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"GScale\": \"%g\"\n", pj.GScale)))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("},\n"))
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("\"Rs\": [\n"))
	depth++
	for ri := 0; ri < nr; ri++ {
		nc := int(pj.RConN[ri])
		st := int(pj.RConIdxSt[ri])
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("{\n"))
		depth++
		w.Write(indent.TabBytes(depth))
		w.Write([]byte(fmt.Sprintf("\"Ri\": %v,\n", ri)))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte(fmt.Sprintf("\"N\": %v,\n", nc)))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Si\": [ "))
		for ci := 0; ci < nc; ci++ {
			si := pj.RConIdx[st+ci]
			w.Write([]byte(fmt.Sprintf("%v", si)))
			if ci == nc-1 {
				w.Write([]byte(" "))
			} else {
				w.Write([]byte(", "))
			}
		}
		w.Write([]byte("],\n"))
		w.Write(indent.TabBytes(depth))
		w.Write([]byte("\"Wt\": [ "))
		for ci := 0; ci < nc; ci++ {
			rsi := pj.RSynIdx[st+ci]
			sy := &pj.Syns[rsi]
			w.Write([]byte(strconv.FormatFloat(float64(sy.Wt), 'g', weights.Prec, 32)))
			if ci == nc-1 {
				w.Write([]byte(" "))
			} else {
				w.Write([]byte(", "))
			}
		}
		w.Write([]byte("]\n"))
		depth--
		w.Write(indent.TabBytes(depth))
		if ri == nr-1 {
			w.Write([]byte("}\n"))
		} else {
			w.Write([]byte("},\n"))
		}
	}
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("]\n"))
	depth--
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("}")) // note: leave unterminated as outer loop needs to add , or just \n depending
}

// ReadWtsJSON reads the weights from this projection from the receiver-side
// perspective in a JSON text format.  This is for a set of weights that were
// saved *for one prjn only* and is not used for the network-level
// ReadWtsJSON, which reads into a separate structure -- see SetWts method.
func (pj *Prjn) ReadWtsJSON(r io.Reader) error {
	pw, err := weights.PrjnReadJSON(r)
	if err != nil {
		return err // note: already logged
	}
	return pj.SetWts(pw)
}

// SetWts sets the weights for this projection from weights.Prjn decoded
// values.  This is how precomputed (e.g., trained readout) weights are
// loaded.  The saved GScale is restored directly, preserving any spectral
// radius scaling in effect when the weights were saved.
func (pj *Prjn) SetWts(pw *weights.Prjn) error {
	if pw.MetaData != nil {
		if gs, ok := pw.MetaData["GScale"]; ok {
			pv, _ := strconv.ParseFloat(gs, 32)
			pj.GScale = float32(pv)
		}
	}
	var err error
	for i := range pw.Rs {
		pr := &pw.Rs[i]
		for si := range pr.Si {
			er := pj.SetSynVal("Wt", pr.Si[si], pr.Ri, pr.Wt[si])
			if er != nil {
				err = er
			}
		}
	}
	return err
}

// Build constructs the full connectivity among the layers as specified in
// this projection.  Calls PrjnStru.BuildStru and then allocates the
// synaptic values in Syns accordingly.
func (pj *Prjn) Build() error {
	if err := pj.BuildStru(); err != nil {
		return err
	}
	pj.Syns = make([]Synapse, len(pj.SConIdx))
	rsh := pj.Rcv.Shape()
	rlen := rsh.Len()
	pj.GInc = make([]float32, rlen)
	return nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Init methods

// SetWtsFunc initializes synaptic Wt value using given function
// based on receiving and sending unit indexes.
func (pj *Prjn) SetWtsFunc(wtFun func(si, ri int, send, recv *etensor.Shape) float32) {
	rsh := pj.Rcv.Shape()
	rn := rsh.Len()
	ssh := pj.Snd.Shape()

	for ri := 0; ri < rn; ri++ {
		nc := int(pj.RConN[ri])
		st := int(pj.RConIdxSt[ri])
		for ci := 0; ci < nc; ci++ {
			si := int(pj.RConIdx[st+ci])
			wt := wtFun(si, ri, ssh, rsh)
			rsi := pj.RSynIdx[st+ci]
			sy := &pj.Syns[rsi]
			sy.Wt = wt
		}
	}
}

// SetScalesFunc initializes synaptic Scale values using given function
// based on receiving and sending unit indexes.
func (pj *Prjn) SetScalesFunc(scaleFun func(si, ri int, send, recv *etensor.Shape) float32) {
	rsh := pj.Rcv.Shape()
	rn := rsh.Len()
	ssh := pj.Snd.Shape()

	for ri := 0; ri < rn; ri++ {
		nc := int(pj.RConN[ri])
		st := int(pj.RConIdxSt[ri])
		for ci := 0; ci < nc; ci++ {
			si := int(pj.RConIdx[st+ci])
			sc := scaleFun(si, ri, ssh, rsh)
			rsi := pj.RSynIdx[st+ci]
			sy := &pj.Syns[rsi]
			sy.Scale = sc
		}
	}
}

// InitWtsSyn initializes weight values based on WtInit randomness parameters
// for an individual synapse.
func (pj *Prjn) InitWtsSyn(syn *Synapse) {
	if syn.Scale == 0 {
		syn.Scale = 1
	}
	syn.Wt = float32(pj.WtInit.Gen(-1))
	// enforce normalized weight range -- mixed-sign effects come from the
	// Scale sign and from Inhib projections
	if syn.Wt < 0 {
		syn.Wt = 0
	}
	if syn.Wt > 1 {
		syn.Wt = 1
	}
	syn.Wt *= syn.Scale
}

// InitWts initializes weight values according to WtInit params
func (pj *Prjn) InitWts() {
	for si := range pj.Syns {
		sy := &pj.Syns[si]
		pj.InitWtsSyn(sy)
	}
	pj.InitGInc()
}

// InitGInc initializes the per-projection GInc threadsafe increment -- called
// during InitWts and InitActs
func (pj *Prjn) InitGInc() {
	for ri := range pj.GInc {
		pj.GInc[ri] = 0
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Act methods

// SendSpike sends a spike from sending neuron index si, to add to the
// conductance increment of receivers
func (pj *Prjn) SendSpike(si int) {
	nc := pj.SConN[si]
	st := pj.SConIdxSt[si]
	syns := pj.Syns[st : st+nc]
	scons := pj.SConIdx[st : st+nc]
	for ci := range syns {
		ri := scons[ci]
		pj.GInc[ri] += pj.GScale * syns[ci].Wt
	}
}

// RecvGInc increments the receiver's GeInc or GiInc from that of all the projections.
func (pj *Prjn) RecvGInc() {
	rlay := pj.Rcv
	if pj.Typ == Inhib {
		for ri := range rlay.Neurons {
			rn := &rlay.Neurons[ri]
			rn.GiInc += pj.GInc[ri]
			pj.GInc[ri] = 0
		}
	} else {
		for ri := range rlay.Neurons {
			rn := &rlay.Neurons[ri]
			rn.GeInc += pj.GInc[ri]
			pj.GInc[ri] = 0
		}
	}
}

// RecvSpkTraces accumulates, for each receiving neuron, the weighted sum of
// the sending neurons' SpkTrace values into the receiver's GeRaw.  This is
// the linear readout computation used by Readout layers, which bypass
// spiking dynamics.  The layer zeroes GeRaw before calling this.
func (pj *Prjn) RecvSpkTraces() {
	slay := pj.Snd
	rlay := pj.Rcv
	for ri := range rlay.Neurons {
		nc := int(pj.RConN[ri])
		st := int(pj.RConIdxSt[ri])
		sum := float32(0)
		for ci := 0; ci < nc; ci++ {
			si := pj.RConIdx[st+ci]
			rsi := pj.RSynIdx[st+ci]
			sum += pj.Syns[rsi].Wt * slay.Neurons[si].SpkTrace
		}
		rlay.Neurons[ri].GeRaw += pj.GScale * sum
	}
}
