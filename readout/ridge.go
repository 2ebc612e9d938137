// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package readout trains and evaluates the linear readout of a spiking
reservoir network.  Training is offline ridge regression on collected
reservoir state features (spike traces), solved in closed form, and the
resulting weights are loaded back into the network's Readout layer for
online inference.
*/
package readout

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/ncdlab/spikerc/spikerc"
	"gonum.org/v1/gonum/mat"
)

// RidgeParams are the ridge regression solver parameters
type RidgeParams struct {
	Lambda float64 `def:"0.0001" min:"0" desc:"L2 regularization strength -- stabilizes the solution against collinear reservoir features"`
	Bias   bool    `def:"true" desc:"fit an intercept term, which is not regularized"`
}

func (rp *RidgeParams) Defaults() {
	rp.Lambda = 1e-4
	rp.Bias = true
}

func (rp *RidgeParams) Update() {
}

// Ridge is a trained linear readout: W maps feature vectors to target
// outputs, with an optional per-target bias.
type Ridge struct {
	Params RidgeParams `view:"inline" desc:"solver parameters"`

	W     *mat.Dense `view:"-" desc:"weight matrix, targets x features"`
	B     []float64  `desc:"per-target bias terms"`
	NFeat int        `inactive:"+" desc:"number of features"`
	NTarg int        `inactive:"+" desc:"number of targets"`
}

func NewRidge() *Ridge {
	rr := &Ridge{}
	rr.Params.Defaults()
	return rr
}

// Fit solves the ridge regression problem for features x (n samples x p
// features) and targets y (n x k): minimizes |x w - y|^2 + Lambda |w|^2
// in closed form via Cholesky factorization of the regularized normal
// equations.  The bias term, if fit, is an unregularized augmented feature.
func (rr *Ridge) Fit(x, y *mat.Dense) error {
	n, p := x.Dims()
	yn, k := y.Dims()
	if yn != n {
		return fmt.Errorf("readout.Fit: x has %v rows but y has %v", n, yn)
	}
	pa := p
	if rr.Params.Bias {
		pa++
	}
	if n < pa {
		return fmt.Errorf("readout.Fit: %v samples < %v parameters -- collect more windows or reduce the reservoir", n, pa)
	}

	a := x
	if rr.Params.Bias {
		a = mat.NewDense(n, pa, nil)
		a.Slice(0, n, 0, p).(*mat.Dense).Copy(x)
		for i := 0; i < n; i++ {
			a.Set(i, p, 1)
		}
	}

	// regularized normal equations: (A^T A + lambda I) w = A^T y
	var g mat.Dense
	g.Mul(a.T(), a)
	sym := mat.NewSymDense(pa, nil)
	for i := 0; i < pa; i++ {
		for j := i; j < pa; j++ {
			v := g.At(i, j)
			if i == j && i < p { // bias column is not penalized
				v += rr.Params.Lambda
			}
			sym.SetSym(i, j, v)
		}
	}
	var aty mat.Dense
	aty.Mul(a.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return fmt.Errorf("readout.Fit: normal equations not positive definite -- increase Lambda")
	}
	var wa mat.Dense
	if err := chol.SolveTo(&wa, &aty); err != nil {
		return err
	}

	// wa is (pa x k): transpose into targets x features, split off bias
	rr.NFeat = p
	rr.NTarg = k
	rr.W = mat.NewDense(k, p, nil)
	rr.B = make([]float64, k)
	for ti := 0; ti < k; ti++ {
		for fi := 0; fi < p; fi++ {
			rr.W.Set(ti, fi, wa.At(fi, ti))
		}
		if rr.Params.Bias {
			rr.B[ti] = wa.At(p, ti)
		}
	}
	return nil
}

// Predict applies the trained readout to features x (n x p), returning
// predictions (n x k)
func (rr *Ridge) Predict(x *mat.Dense) (*mat.Dense, error) {
	if rr.W == nil {
		return nil, fmt.Errorf("readout.Predict: not fitted")
	}
	n, p := x.Dims()
	if p != rr.NFeat {
		return nil, fmt.Errorf("readout.Predict: %v features != fitted %v", p, rr.NFeat)
	}
	out := mat.NewDense(n, rr.NTarg, nil)
	out.Mul(x, rr.W.T())
	for i := 0; i < n; i++ {
		for ti := 0; ti < rr.NTarg; ti++ {
			out.Set(i, ti, out.At(i, ti)+rr.B[ti])
		}
	}
	return out, nil
}

// PredictVec applies the trained readout to a single feature vector
func (rr *Ridge) PredictVec(x []float64) ([]float64, error) {
	if rr.W == nil {
		return nil, fmt.Errorf("readout.PredictVec: not fitted")
	}
	if len(x) != rr.NFeat {
		return nil, fmt.Errorf("readout.PredictVec: %v features != fitted %v", len(x), rr.NFeat)
	}
	out := make([]float64, rr.NTarg)
	for ti := 0; ti < rr.NTarg; ti++ {
		s := rr.B[ti]
		for fi := range x {
			s += rr.W.At(ti, fi) * x[fi]
		}
		out[ti] = s
	}
	return out, nil
}

// StateMatrix assembles collected per-window reservoir state vectors into a
// dense feature matrix for fitting
func StateMatrix(states [][]float32) *mat.Dense {
	n := len(states)
	if n == 0 {
		return &mat.Dense{}
	}
	p := len(states[0])
	x := mat.NewDense(n, p, nil)
	for i := range states {
		for j := range states[i] {
			x.Set(i, j, float64(states[i][j]))
		}
	}
	return x
}

// TargetMatrix assembles per-window scalar targets into a dense n x 1
// target matrix
func TargetMatrix(targs []float32) *mat.Dense {
	n := len(targs)
	y := mat.NewDense(n, 1, nil)
	for i := range targs {
		y.Set(i, 0, float64(targs[i]))
	}
	return y
}

// SetNetWts loads the trained readout weights into the network's Readout
// layer: weights go into the Reservoir -> Readout projection, and the bias
// terms are carried in the readout units' Ext field.
func SetNetWts(rr *Ridge, nt *spikerc.Network) error {
	if rr.W == nil {
		return fmt.Errorf("readout.SetNetWts: not fitted")
	}
	out, err := nt.LayerByNameTry(spikerc.ReadoutLayNm)
	if err != nil {
		return err
	}
	pj := out.RecvPrjnBySendName(spikerc.ReservoirLayNm)
	if pj == nil {
		return fmt.Errorf("readout.SetNetWts: no %v -> %v projection", spikerc.ReservoirLayNm, spikerc.ReadoutLayNm)
	}
	if pj.Snd.NNeurons() != rr.NFeat || out.NNeurons() != rr.NTarg {
		return fmt.Errorf("readout.SetNetWts: fitted %v x %v does not match network %v x %v", rr.NTarg, rr.NFeat, out.NNeurons(), pj.Snd.NNeurons())
	}
	pj.SetWtsFunc(func(si, ri int, send, recv *etensor.Shape) float32 {
		return float32(rr.W.At(ri, si))
	})
	pj.GScale = 1
	pj.WtScale.Abs = 1
	pj.WtScale.Rel = 1
	for ti := range rr.B {
		out.Neurons[ti].Ext = float32(rr.B[ti])
	}
	return nil
}

// NetState extracts the current reservoir state feature vector (spike
// traces) from the network
func NetState(nt *spikerc.Network) ([]float32, error) {
	rsl, err := nt.LayerByNameTry(spikerc.ReservoirLayNm)
	if err != nil {
		return nil, err
	}
	var st []float32
	if err := rsl.UnitVals(&st, "SpkTrace"); err != nil {
		return nil, err
	}
	return st, nil
}
