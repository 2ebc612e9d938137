// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/emer/emergent/params"
	"github.com/emer/emergent/prjn"
	"github.com/emer/emergent/weights"
	"github.com/goki/ki/indent"
)

// spikerc.Network holds the layers of a spiking reservoir network, and
// provides the primary API for building, initializing, and cycling it.
// The standard reservoir topology is Input -> Reservoir (with a Recurrent
// self projection) -> Readout, but arbitrary topologies can be assembled
// from the same parts.
type Network struct {
	Nm     string            `desc:"overall name of network -- helps discriminate if there are multiple"`
	Layers []*Layer          `desc:"list of layers"`
	LayMap map[string]*Layer `view:"-" desc:"map of name to layers -- layer names must be unique"`

	WtsFile string `desc:"filename of last weights file loaded or saved"`
}

// NewNetwork returns a new network with the given name
func NewNetwork(name string) *Network {
	nt := &Network{Nm: name}
	nt.LayMap = make(map[string]*Layer)
	return nt
}

func (nt *Network) Name() string       { return nt.Nm }
func (nt *Network) SetName(nm string)  { nt.Nm = nm }
func (nt *Network) Label() string      { return nt.Nm }
func (nt *Network) NLayers() int       { return len(nt.Layers) }
func (nt *Network) Layer(idx int) *Layer {
	return nt.Layers[idx]
}

// LayerByName returns a layer by looking it up by name in the layer map
// (nil if not found).
func (nt *Network) LayerByName(name string) *Layer {
	if nt.LayMap == nil {
		nt.MakeLayMap()
	}
	return nt.LayMap[name]
}

// LayerByNameTry returns a layer by looking it up by name -- returns error
// message if layer is not found
func (nt *Network) LayerByNameTry(name string) (*Layer, error) {
	ly := nt.LayerByName(name)
	if ly == nil {
		err := fmt.Errorf("Layer named: %v not found in Network: %v", name, nt.Nm)
		log.Println(err)
		return ly, err
	}
	return ly, nil
}

// MakeLayMap updates layer map based on current layers
func (nt *Network) MakeLayMap() {
	nt.LayMap = make(map[string]*Layer, len(nt.Layers))
	for _, ly := range nt.Layers {
		nt.LayMap[ly.Name()] = ly
	}
}

// AddLayer adds a new layer with given name and shape to the network, of
// the given type.
func (nt *Network) AddLayer(name string, shape []int, typ LayerType) *Layer {
	ly := &Layer{}
	ly.SetName(name)
	ly.SetShape(shape)
	ly.SetType(typ)
	nt.Layers = append(nt.Layers, ly)
	nt.MakeLayMap()
	return ly
}

// AddLayer2D adds a new layer with given name and 2D shape to the network
func (nt *Network) AddLayer2D(name string, shapeY, shapeX int, typ LayerType) *Layer {
	return nt.AddLayer(name, []int{shapeY, shapeX}, typ)
}

// ConnectLayers establishes a projection between two layers, referenced by
// name, with the given pattern of connectivity, and returns the new
// projection.  Does not yet actually connect the units within the layers --
// that requires Build.  When send == recv, this is a Recurrent lateral
// projection.
func (nt *Network) ConnectLayers(send, recv *Layer, pat prjn.Pattern, typ PrjnType) *Prjn {
	pj := &Prjn{}
	pj.Connect(send, recv, pat, typ)
	recv.RcvPrjn = append(recv.RcvPrjn, pj)
	send.SndPrjn = append(send.SndPrjn, pj)
	return pj
}

// ConnectLayersNamed establishes a projection between two layers, referenced
// by name.  Returns error if layer names are not found.
func (nt *Network) ConnectLayersNamed(send, recv string, pat prjn.Pattern, typ PrjnType) (*Prjn, error) {
	slay, err := nt.LayerByNameTry(send)
	if err != nil {
		return nil, err
	}
	rlay, err := nt.LayerByNameTry(recv)
	if err != nil {
		return nil, err
	}
	return nt.ConnectLayers(slay, rlay, pat, typ), nil
}

// LateralConnectLayer establishes a self-projection within given layer --
// this is a Recurrent projection for the reservoir dynamics.
func (nt *Network) LateralConnectLayer(lay *Layer, pat prjn.Pattern) *Prjn {
	return nt.ConnectLayers(lay, lay, pat, Recurrent)
}

// Build constructs the layer and projection state based on the layer shapes
// and patterns of interconnectivity
func (nt *Network) Build() error {
	emsg := ""
	for li, ly := range nt.Layers {
		ly.SetIndex(li)
		if ly.IsOff() {
			continue
		}
		err := ly.Build()
		if err != nil {
			emsg += err.Error() + "\n"
		}
	}
	nt.MakeLayMap()
	if emsg != "" {
		return fmt.Errorf("%s", emsg)
	}
	return nil
}

// Defaults sets all the default parameters for all layers and projections
func (nt *Network) Defaults() {
	for _, ly := range nt.Layers {
		ly.Defaults()
	}
}

// UpdateParams updates all the derived parameters if any have changed, for
// all layers and projections
func (nt *Network) UpdateParams() {
	for _, ly := range nt.Layers {
		ly.UpdateParams()
	}
}

// ApplyParams applies given parameter style Sheet to layers and prjns in
// this network.  Calls UpdateParams to ensure derived parameters are all
// updated.  If setMsg is true, a message is printed to confirm each
// parameter that is set.  Returns true if any params were set, and error if
// any errors.
func (nt *Network) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	applied := false
	var rerr error
	for _, ly := range nt.Layers {
		app, err := ly.ApplyParams(pars, setMsg)
		if app {
			applied = true
		}
		if err != nil {
			rerr = err
		}
	}
	return applied, rerr
}

// AllParams returns a listing of all parameters in the Network
func (nt *Network) AllParams() string {
	str := "/////////////////////////////////////////////////\nNetwork: " + nt.Nm + "\n"
	for _, ly := range nt.Layers {
		str += ly.AllParams()
	}
	return str
}

//////////////////////////////////////////////////////////////////////////////////////
//  Init methods

// InitWts initializes synaptic weights and all other associated long-term
// state variables, for all layers
func (nt *Network) InitWts() {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.InitWts()
	}
}

// InitActs fully initializes activation state
func (nt *Network) InitActs() {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.InitActs()
	}
}

// InitExt initializes external input state -- call prior to applying
// external inputs to layers
func (nt *Network) InitExt() {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.InitExt()
	}
}

// WindowInit handles the start of a new window of cycles: decays activation
// state according to each layer's Act.Init.Decay, and resets the window
// cycle counter in Time
func (nt *Network) WindowInit(ltime *Time) {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.DecayState(ly.Act.Init.Decay)
	}
	ltime.WindowStart()
}

//////////////////////////////////////////////////////////////////////////////////////
//  Cycle

// Cycle runs one cycle (1 msec by default) of spiking dynamics for the
// whole network.  The dataflow per cycle is: spikes from last cycle are
// sent, conductances are integrated, FFFB inhibition is computed from the
// Ge and Act stats, membrane potentials are updated, and new spikes and
// traces are computed.  Readout layers compute their linear trace readout
// in the spiking phase.
func (nt *Network) Cycle(ltime *Time) {
	nt.SendSpike(ltime)
	nt.GFmInc(ltime)
	nt.AvgMaxGe(ltime)
	nt.InhibFmGeAct(ltime)
	nt.VmFmG(ltime)
	nt.SpikeFmVm(ltime)
	nt.AvgMaxAct(ltime)
	ltime.CycleInc()
}

// SendSpike sends spikes from neurons that spiked on the prior cycle
func (nt *Network) SendSpike(ltime *Time) {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.SendSpike(ltime)
	}
}

// GFmInc integrates synaptic conductances from spike increments
func (nt *Network) GFmInc(ltime *Time) {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.GFmInc(ltime)
	}
}

// AvgMaxGe computes average and max Ge stats per layer
func (nt *Network) AvgMaxGe(ltime *Time) {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.AvgMaxGe(ltime)
	}
}

// InhibFmGeAct computes FFFB inhibition per layer
func (nt *Network) InhibFmGeAct(ltime *Time) {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.InhibFmGeAct(ltime)
	}
}

// VmFmG updates membrane potentials from conductances
func (nt *Network) VmFmG(ltime *Time) {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.VmFmG(ltime)
	}
}

// SpikeFmVm computes spikes, traces, and readout values
func (nt *Network) SpikeFmVm(ltime *Time) {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.SpikeFmVm(ltime)
	}
}

// AvgMaxAct computes average and max Act stats per layer
func (nt *Network) AvgMaxAct(ltime *Time) {
	for _, ly := range nt.Layers {
		if ly.IsOff() {
			continue
		}
		ly.AvgMaxAct(ltime)
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Weights File

// SaveWtsJSON saves network weights (and any other state that adapts with
// learning) to a JSON-formatted file.  If filename has .gz extension, then
// file is gzip compressed.
func (nt *Network) SaveWtsJSON(filename string) error {
	fp, err := os.Create(filename)
	defer fp.Close()
	if err != nil {
		log.Println(err)
		return err
	}
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr := gzip.NewWriter(fp)
		err = nt.WriteWtsJSON(gzr)
		gzr.Close()
	} else {
		bw := bufio.NewWriter(fp)
		err = nt.WriteWtsJSON(bw)
		bw.Flush()
	}
	if err == nil {
		nt.WtsFile = filename
	}
	return err
}

// OpenWtsJSON opens network weights (and any other state that adapts with
// learning) from a JSON-formatted file.  If filename has .gz extension,
// then file is gzip uncompressed.
func (nt *Network) OpenWtsJSON(filename string) error {
	fp, err := os.Open(filename)
	defer fp.Close()
	if err != nil {
		log.Println(err)
		return err
	}
	ext := filepath.Ext(filename)
	if ext == ".gz" {
		gzr, err := gzip.NewReader(fp)
		if err != nil {
			log.Println(err)
			return err
		}
		defer gzr.Close()
		err = nt.ReadWtsJSON(gzr)
	} else {
		err = nt.ReadWtsJSON(bufio.NewReader(fp))
	}
	if err == nil {
		nt.WtsFile = filename
	}
	return err
}

// WriteWtsJSON writes the weights from this network in a JSON text format,
// for easy assembly into a formal specification of the network.
func (nt *Network) WriteWtsJSON(w io.Writer) error {
	depth := 0
	w.Write(indent.TabBytes(depth))
	w.Write([]byte("{\n"))
	depth++
	w.Write(indent.TabBytes(depth))
	w.Write([]byte(fmt.Sprintf("\"Network\": %q,\n", nt.Nm)))
	w.Write(indent.TabBytes(depth))
	onls := make([]*Layer, 0, len(nt.Layers))
	for _, ly := range nt.Layers {
		if !ly.IsOff() {
			onls = append(onls, ly)
		}
	}
	nl := len(onls)
	if nl == 0 {
		w.Write([]byte("\"Layers\": null\n"))
	} else {
		w.Write([]byte("\"Layers\": [\n"))
		depth++
		for li, ly := range onls {
			ly.WriteWtsJSON(w, depth)
			if li == nl-1 {
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
	w.Write([]byte("}\n"))
	return nil
}

// ReadWtsJSON reads network weights from the receiver-side perspective in a
// JSON text format.  Reads entire file into a temporary weights.Weights
// structure that is then passed to Layers etc using SetWts method.
func (nt *Network) ReadWtsJSON(r io.Reader) error {
	nw, err := weights.NetReadJSON(r)
	if err != nil {
		return err // note: already logged
	}
	err = nt.SetWts(nw)
	if err != nil {
		log.Println(err)
	}
	return err
}

// SetWts sets the weights for this network from weights.Network decoded
// values
func (nt *Network) SetWts(nw *weights.Network) error {
	var err error
	if nw.Network != "" {
		nt.Nm = nw.Network
	}
	for li := range nw.Layers {
		lw := &nw.Layers[li]
		ly, er := nt.LayerByNameTry(lw.Layer)
		if er != nil {
			err = er
			continue
		}
		er = ly.SetWts(lw)
		if er != nil {
			err = er
		}
	}
	return err
}

// LayersByType returns the layers of the given type
func (nt *Network) LayersByType(typ LayerType) []*Layer {
	var lys []*Layer
	for _, ly := range nt.Layers {
		if ly.Type() == typ {
			lys = append(lys, ly)
		}
	}
	return lys
}
