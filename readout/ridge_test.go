// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package readout

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ncdlab/spikerc/spikerc"
	"gonum.org/v1/gonum/mat"
)

// linear synthetic problem: y = x w + b exactly
func linProblem(n, p int, seed int64) (x, y *mat.Dense, w []float64, b float64) {
	rnd := rand.New(rand.NewSource(seed))
	x = mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			x.Set(i, j, rnd.NormFloat64())
		}
	}
	w = make([]float64, p)
	for j := range w {
		w[j] = rnd.NormFloat64()
	}
	b = 0.7
	y = mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		s := b
		for j := 0; j < p; j++ {
			s += x.At(i, j) * w[j]
		}
		y.Set(i, 0, s)
	}
	return
}

func TestRidgeExactRecovery(t *testing.T) {
	x, y, w, b := linProblem(50, 5, 3)
	rr := NewRidge()
	rr.Params.Lambda = 0 // unregularized: exact on noiseless data
	if err := rr.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	for j := range w {
		if math.Abs(rr.W.At(0, j)-w[j]) > 1e-8 {
			t.Errorf("weight %v: %v != %v", j, rr.W.At(0, j), w[j])
		}
	}
	if math.Abs(rr.B[0]-b) > 1e-8 {
		t.Errorf("bias: %v != %v", rr.B[0], b)
	}
}

func TestRidgePredict(t *testing.T) {
	x, y, _, _ := linProblem(50, 5, 4)
	rr := NewRidge()
	rr.Params.Lambda = 0
	if err := rr.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	preds, err := rr.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	n, _ := x.Dims()
	for i := 0; i < n; i++ {
		if math.Abs(preds.At(i, 0)-y.At(i, 0)) > 1e-8 {
			t.Fatalf("prediction %v: %v != %v", i, preds.At(i, 0), y.At(i, 0))
		}
	}
	// vector path agrees with matrix path
	x0 := make([]float64, 5)
	for j := range x0 {
		x0[j] = x.At(0, j)
	}
	pv, err := rr.PredictVec(x0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pv[0]-preds.At(0, 0)) > 1e-10 {
		t.Errorf("PredictVec %v != Predict %v", pv[0], preds.At(0, 0))
	}
}

func TestRidgeRegularization(t *testing.T) {
	x, y, _, _ := linProblem(50, 5, 5)
	r0 := NewRidge()
	r0.Params.Lambda = 0
	if err := r0.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	r1 := NewRidge()
	r1.Params.Lambda = 100
	if err := r1.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	n0 := mat.Norm(r0.W, 2)
	n1 := mat.Norm(r1.W, 2)
	if n1 >= n0 {
		t.Errorf("regularization did not shrink weights: %v >= %v", n1, n0)
	}
}

func TestRidgeErrors(t *testing.T) {
	rr := NewRidge()
	if _, err := rr.Predict(mat.NewDense(2, 2, nil)); err == nil {
		t.Errorf("Predict before Fit did not error")
	}
	x := mat.NewDense(3, 5, nil)
	y := mat.NewDense(3, 1, nil)
	if err := rr.Fit(x, y); err == nil {
		t.Errorf("underdetermined fit did not error")
	}
}

func TestSetNetWts(t *testing.T) {
	rp := &spikerc.ReservoirParams{}
	rp.Defaults()
	rp.InputN = 2
	rp.ResN = 16
	rp.OutN = 1
	rp.InPCon = 1
	rp.RecPCon = 0.25
	nt, err := spikerc.NewReservoirNet("TestNet", rp)
	if err != nil {
		t.Fatal(err)
	}

	// fit a trivial problem with ResN features
	x, y, _, _ := linProblem(64, rp.ResN, 6)
	rr := NewRidge()
	if err := rr.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	if err := SetNetWts(rr, nt); err != nil {
		t.Fatal(err)
	}

	out := nt.LayerByName(spikerc.ReadoutLayNm)
	pj := out.RecvPrjnBySendName(spikerc.ReservoirLayNm)
	for si := 0; si < rp.ResN; si++ {
		wv := pj.SynVal("Wt", si, 0)
		if math.Abs(float64(wv)-rr.W.At(0, si)) > 1e-5 {
			t.Errorf("net weight %v: %v != %v", si, wv, rr.W.At(0, si))
		}
	}
	if math.Abs(float64(out.Neurons[0].Ext)-rr.B[0]) > 1e-5 {
		t.Errorf("bias not loaded: %v != %v", out.Neurons[0].Ext, rr.B[0])
	}

	// readout value from the network matches the dot product
	rsl := nt.LayerByName(spikerc.ReservoirLayNm)
	rnd := rand.New(rand.NewSource(9))
	exp := rr.B[0]
	for ni := range rsl.Neurons {
		tr := rnd.Float64() * 0.5
		rsl.Neurons[ni].SpkTrace = float32(tr)
		exp += rr.W.At(0, ni) * tr
	}
	ltime := spikerc.NewTime()
	out.SpikeFmVm(ltime)
	got := float64(out.Neurons[0].Act)
	if math.Abs(got-exp) > 1e-3 {
		t.Errorf("network readout %v != expected %v", got, exp)
	}
}

func TestStats(t *testing.T) {
	scores := []float64{0.9, 0.8, 0.3, 0.1, 0.7, 0.2}
	targs := []float64{1, 1, 0, 0, 1, 0}
	bs, err := BinClassStats(scores, targs, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if bs.TP != 3 || bs.TN != 3 || bs.FP != 0 || bs.FN != 0 {
		t.Errorf("counts wrong: %+v", bs)
	}
	if bs.Accuracy() != 1 || bs.F1() != 1 {
		t.Errorf("perfect classifier stats wrong: %v", bs.String())
	}

	auc, err := AUC(scores, targs)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(auc-1) > 1e-10 {
		t.Errorf("perfectly separated AUC: %v != 1", auc)
	}

	if _, err := AUC(scores, []float64{0, 0, 0, 0, 0, 0}); err == nil {
		t.Errorf("single-class AUC did not error")
	}
}

func TestBestThreshold(t *testing.T) {
	scores := []float64{0.1, 0.2, 0.3, 0.8, 0.9}
	targs := []float64{0, 0, 0, 1, 1}
	thr, bs, err := BestThreshold(scores, targs)
	if err != nil {
		t.Fatal(err)
	}
	if thr <= 0.3 || thr >= 0.8 {
		t.Errorf("threshold %v not in separating gap (0.3, 0.8)", thr)
	}
	if bs.F1() != 1 {
		t.Errorf("separable scores should give f1 = 1: %v", bs.String())
	}
	if _, _, err := BestThreshold(scores, targs[:3]); err == nil {
		t.Errorf("length mismatch did not error")
	}
	if _, _, err := BestThreshold(nil, nil); err == nil {
		t.Errorf("empty input did not error")
	}
}
