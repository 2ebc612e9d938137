// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

import (
	"fmt"
	"math/rand"

	"github.com/emer/emergent/prjn"
	"github.com/emer/etable/etensor"
	"gonum.org/v1/gonum/mat"
)

// ReservoirParams specifies the standard reservoir network topology:
// an Input layer hard-clamped to encoder spike rasters, a recurrently
// connected Reservoir layer of spiking neurons, and a linear Readout
// layer driven by the reservoir spike traces.
type ReservoirParams struct {
	InputN  int `desc:"number of input units -- one per encoder channel (e.g., 2 for up / down spike channels)"`
	ResN    int `desc:"number of reservoir units"`
	OutN    int `desc:"number of readout units -- one per predicted target"`

	InPCon  float32 `def:"0.25" desc:"probability of connection for each input -> reservoir unit pair"`
	RecPCon float32 `def:"0.1" desc:"probability of connection for each reservoir -> reservoir unit pair (sparse recurrence)"`

	SpectralRadius float32 `def:"0.9" desc:"target spectral radius for the effective recurrent weight matrix -- below 1 keeps the reservoir at the edge of stability (echo state property)"`
	InhibFrac      float32 `def:"0.5" min:"0" max:"1" desc:"fraction of recurrent synapses given a negative sign, balancing excitation and inhibition"`

	RndSeed int64 `desc:"random seed for the sign assignment -- connectivity patterns use their own seeds"`
}

func (rp *ReservoirParams) Defaults() {
	rp.InputN = 2
	rp.ResN = 128
	rp.OutN = 1
	rp.InPCon = 0.25
	rp.RecPCon = 0.1
	rp.SpectralRadius = 0.9
	rp.InhibFrac = 0.5
	rp.RndSeed = 1
}

func (rp *ReservoirParams) Update() {
}

// Validate returns an error if the topology parameters are unusable
func (rp *ReservoirParams) Validate() error {
	if rp.InputN <= 0 || rp.ResN <= 0 || rp.OutN <= 0 {
		return fmt.Errorf("ReservoirParams: layer sizes must be positive: InputN=%v ResN=%v OutN=%v", rp.InputN, rp.ResN, rp.OutN)
	}
	if rp.RecPCon <= 0 || rp.RecPCon > 1 {
		return fmt.Errorf("ReservoirParams: RecPCon must be in (0, 1]: %v", rp.RecPCon)
	}
	if rp.InPCon <= 0 || rp.InPCon > 1 {
		return fmt.Errorf("ReservoirParams: InPCon must be in (0, 1]: %v", rp.InPCon)
	}
	return nil
}

// Standard layer names used by NewReservoirNet
const (
	InputLayNm     = "Input"
	ReservoirLayNm = "Reservoir"
	ReadoutLayNm   = "Readout"
)

// NewReservoirNet constructs, builds, and initializes a standard reservoir
// network per the given params.  The recurrent weights are scaled to the
// target spectral radius.  The readout weights start at zero and are set
// from the offline ridge regression solution.
func NewReservoirNet(name string, rp *ReservoirParams) (*Network, error) {
	if err := rp.Validate(); err != nil {
		return nil, err
	}
	nt := NewNetwork(name)
	inl := nt.AddLayer2D(InputLayNm, 1, rp.InputN, Input)
	rsl := nt.AddLayer2D(ReservoirLayNm, 1, rp.ResN, Reservoir)
	out := nt.AddLayer2D(ReadoutLayNm, 1, rp.OutN, Readout)

	inpat := prjn.NewUnifRnd()
	inpat.PCon = rp.InPCon
	inpat.RndSeed = rp.RndSeed + 1
	nt.ConnectLayers(inl, rsl, inpat, Forward)

	recpat := prjn.NewUnifRnd()
	recpat.PCon = rp.RecPCon
	recpat.SelfCon = false
	recpat.RndSeed = rp.RndSeed + 2
	rcpj := nt.LateralConnectLayer(rsl, recpat)

	ropj := nt.ConnectLayers(rsl, out, prjn.NewFull(), Forward)

	nt.Defaults()
	if err := nt.Build(); err != nil {
		return nil, err
	}

	// balanced mixed-sign recurrence: scales must be set before InitWts
	// because the sign folds into Wt at initialization
	rnd := rand.New(rand.NewSource(rp.RndSeed))
	rcpj.SetScalesFunc(func(si, ri int, send, recv *etensor.Shape) float32 {
		if rnd.Float32() < rp.InhibFrac {
			return -1
		}
		return 1
	})
	rand.Seed(rp.RndSeed) // erand draws from the global source
	nt.InitWts()

	// readout is a trained linear map: zero until solved
	ropj.SetWtsFunc(func(si, ri int, send, recv *etensor.Shape) float32 {
		return 0
	})

	if err := SetSpectralScale(rcpj, rp.SpectralRadius); err != nil {
		return nil, err
	}
	return nt, nil
}

// RecurWtMatrix returns the dense weight matrix W of the given projection,
// with W[ri][si] = synaptic weight from sender si to receiver ri, zero
// where unconnected.  GScale is not included.
func RecurWtMatrix(pj *Prjn) *mat.Dense {
	ns := pj.Snd.NNeurons()
	nr := pj.Rcv.NNeurons()
	w := mat.NewDense(nr, ns, nil)
	for ri := 0; ri < nr; ri++ {
		nc := int(pj.RConN[ri])
		st := int(pj.RConIdxSt[ri])
		for ci := 0; ci < nc; ci++ {
			si := int(pj.RConIdx[st+ci])
			rsi := pj.RSynIdx[st+ci]
			w.Set(ri, si, float64(pj.Syns[rsi].Wt))
		}
	}
	return w
}

// SpectralRadiusOf estimates the spectral radius (largest absolute
// eigenvalue) of the given square matrix by power iteration on W^T W,
// which converges on the dominant singular value; for the random
// mixed-sign recurrent matrices used here this is a tight, stable bound
// on the spectral radius and is what the scaling uses.
func SpectralRadiusOf(w *mat.Dense, iters int) float64 {
	n, _ := w.Dims()
	if n == 0 {
		return 0
	}
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, 1.0/float64(n))
	}
	var wv, wtwv mat.VecDense
	rho := 0.0
	for k := 0; k < iters; k++ {
		wv.MulVec(w, v)
		wtwv.MulVec(w.T(), &wv)
		nrm := mat.Norm(&wtwv, 2)
		if nrm == 0 {
			return 0
		}
		wtwv.ScaleVec(1/nrm, &wtwv)
		v.CopyVec(&wtwv)
		rho = mat.Norm(&wv, 2) / 1.0 // |W v| with |v| = 1
	}
	return rho
}

// SetSpectralScale rescales the given recurrent projection so that its
// effective weight matrix (Wt * GScale) has approximately the target
// spectral radius, by adjusting WtScale.Abs.  Returns an error if the
// projection has no weight mass to scale.
func SetSpectralScale(pj *Prjn, target float32) error {
	w := RecurWtMatrix(pj)
	rho := SpectralRadiusOf(w, 100)
	if rho <= 0 {
		return fmt.Errorf("SetSpectralScale: %v: zero spectral radius -- no recurrent weights", pj.Name())
	}
	pj.WtScale.Abs = target / float32(rho)
	pj.UpdateParams()
	return nil
}
