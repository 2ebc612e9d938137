// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package detect runs the full ECG anomaly detection pipeline: synthetic
record generation, up-down spike encoding, reservoir state collection,
offline ridge readout training, and in-network evaluation on a held-out
record.
*/
package detect

import (
	"fmt"

	"github.com/emer/emergent/params"
	"github.com/ncdlab/spikerc/ecg"
	"github.com/ncdlab/spikerc/encode"
	"github.com/ncdlab/spikerc/readout"
	"github.com/ncdlab/spikerc/spikerc"
)

// Params are the full pipeline parameters
type Params struct {
	Res   spikerc.ReservoirParams `view:"inline" desc:"reservoir network topology and scaling"`
	Gen   ecg.GenParams           `view:"inline" desc:"synthetic ECG generation"`
	Enc   encode.UpDown           `view:"inline" desc:"up-down spike encoder"`
	Ridge readout.RidgeParams     `view:"inline" desc:"ridge readout solver"`

	NetParams *params.Sheet `view:"-" desc:"optional parameter styles applied to the network after construction, before training"`

	WindowSize int     `def:"100" min:"2" desc:"window size in samples (= cycles): windows are the unit of labeling and scoring"`
	ScoreThr   float64 `def:"0.5" desc:"anomaly score threshold for the binary decision -- negative means sweep thresholds on the training windows for best F1"`
	TestSeed   int64   `def:"1001" desc:"random seed for the held-out test record -- train uses Gen.RndSeed"`
}

func (pr *Params) Defaults() {
	pr.Res.Defaults()
	pr.Gen.Defaults()
	pr.Enc.Defaults()
	pr.Ridge.Defaults()
	pr.WindowSize = 100
	pr.ScoreThr = 0.5
	pr.TestSeed = 1001
}

// Results are the evaluation results on the held-out test record
type Results struct {
	Stats  readout.BinStats `desc:"binary classification stats at Thr"`
	Thr    float64          `desc:"decision threshold actually used: ScoreThr, or the train-set sweep result if ScoreThr was negative"`
	AUC    float64          `desc:"area under the ROC curve of the anomaly scores"`
	MSE    float64          `desc:"mean squared error of scores against binary targets"`
	Scores []float64        `desc:"per-window anomaly scores from the network readout"`
	Targs  []float64        `desc:"per-window binary targets"`
	NTrain int              `desc:"number of training windows"`
	NTest  int              `desc:"number of test windows"`
}

// CollectStates drives the network through the given record window by
// window and returns the end-of-window reservoir state features and the
// window labels.  The encoder baseline is continuous across the record;
// reservoir decay between windows follows Act.Init.Decay.  prog, if
// non-nil, is called once per window.
func CollectStates(nt *spikerc.Network, rec *ecg.Record, enc *encode.UpDown, wsize int, prog func()) (states [][]float32, labels []float32, err error) {
	inl, err := nt.LayerByNameTry(spikerc.InputLayNm)
	if err != nil {
		return nil, nil, err
	}
	rsl, err := nt.LayerByNameTry(spikerc.ReservoirLayNm)
	if err != nil {
		return nil, nil, err
	}
	sigs, labels := rec.Windows(wsize)
	ltime := spikerc.NewTime()
	ltime.WindowCyc = wsize
	if rec.NSamples() > 0 {
		enc.Init(rec.Signal[0])
	}
	ext := make([]float32, encode.ChannelsN)
	for _, sig := range sigs {
		nt.WindowInit(ltime)
		for _, v := range sig {
			up, dn := enc.EncodeSample(v)
			ext[encode.Up] = up
			ext[encode.Down] = dn
			inl.InitExt() // network-wide InitExt would clear the readout bias
			inl.ApplyExt1D32(ext)
			nt.Cycle(ltime)
		}
		var st []float32
		if err := rsl.UnitVals(&st, "SpkTrace"); err != nil {
			return nil, nil, err
		}
		states = append(states, st)
		if prog != nil {
			prog()
		}
		ltime.WindowInc()
	}
	return states, labels, nil
}

// Scores drives the network through the record and returns the per-window
// anomaly scores from the trained in-network readout, along with window
// labels.  SetNetWts must have been called first.
func Scores(nt *spikerc.Network, rec *ecg.Record, enc *encode.UpDown, wsize int, prog func()) (scores, labels []float64, err error) {
	inl, err := nt.LayerByNameTry(spikerc.InputLayNm)
	if err != nil {
		return nil, nil, err
	}
	out, err := nt.LayerByNameTry(spikerc.ReadoutLayNm)
	if err != nil {
		return nil, nil, err
	}
	sigs, wlbls, err := windowsChecked(rec, wsize)
	if err != nil {
		return nil, nil, err
	}
	ltime := spikerc.NewTime()
	ltime.WindowCyc = wsize
	enc.Init(rec.Signal[0])
	ext := make([]float32, encode.ChannelsN)
	for wi, sig := range sigs {
		nt.WindowInit(ltime)
		for _, v := range sig {
			up, dn := enc.EncodeSample(v)
			ext[encode.Up] = up
			ext[encode.Down] = dn
			inl.InitExt()
			inl.ApplyExt1D32(ext)
			nt.Cycle(ltime)
		}
		scores = append(scores, float64(out.Neurons[0].Act))
		labels = append(labels, float64(wlbls[wi]))
		if prog != nil {
			prog()
		}
		ltime.WindowInc()
	}
	return scores, labels, nil
}

func windowsChecked(rec *ecg.Record, wsize int) ([][]float32, []float32, error) {
	sigs, labels := rec.Windows(wsize)
	if len(sigs) == 0 {
		return nil, nil, fmt.Errorf("detect: record of %v samples yields no windows of size %v", rec.NSamples(), wsize)
	}
	return sigs, labels, nil
}

// NWindows returns the number of whole windows the pipeline will process
// for a record generated with the given params
func (pr *Params) NWindows(rec *ecg.Record) int {
	return rec.NSamples() / pr.WindowSize
}

// Run executes the full pipeline: train on a record generated from
// Gen.RndSeed, evaluate on a record from TestSeed.  Returns the results
// and the trained network.  trainProg and testProg, if non-nil, are called
// once per processed window.
func Run(pr *Params, trainProg, testProg func()) (*Results, *spikerc.Network, error) {
	trainRec := ecg.Generate(&pr.Gen)
	trainRec.Normalize()
	testGen := pr.Gen
	testGen.RndSeed = pr.TestSeed
	testRec := ecg.Generate(&testGen)
	testRec.Normalize()

	nt, err := spikerc.NewReservoirNet("EcgAnomaly", &pr.Res)
	if err != nil {
		return nil, nil, err
	}
	if pr.NetParams != nil {
		if _, err := nt.ApplyParams(pr.NetParams, false); err != nil {
			return nil, nil, err
		}
	}

	enc := pr.Enc
	states, labels, err := CollectStates(nt, trainRec, &enc, pr.WindowSize, trainProg)
	if err != nil {
		return nil, nil, err
	}

	rr := readout.NewRidge()
	rr.Params = pr.Ridge
	if err := rr.Fit(readout.StateMatrix(states), readout.TargetMatrix(labels)); err != nil {
		return nil, nil, err
	}
	thr := pr.ScoreThr
	if thr < 0 { // pick the decision threshold on the training windows
		preds, err := rr.Predict(readout.StateMatrix(states))
		if err != nil {
			return nil, nil, err
		}
		trScores := make([]float64, len(states))
		trTargs := make([]float64, len(states))
		for i := range states {
			trScores[i] = preds.At(i, 0)
			trTargs[i] = float64(labels[i])
		}
		if thr, _, err = readout.BestThreshold(trScores, trTargs); err != nil {
			return nil, nil, err
		}
	}

	nt.InitActs() // reset reservoir state before the bias is loaded into Ext
	if err := readout.SetNetWts(rr, nt); err != nil {
		return nil, nil, err
	}

	enc = pr.Enc
	scores, targs, err := Scores(nt, testRec, &enc, pr.WindowSize, testProg)
	if err != nil {
		return nil, nil, err
	}

	res := &Results{
		Thr:    thr,
		Scores: scores,
		Targs:  targs,
		NTrain: len(states),
		NTest:  len(scores),
	}
	res.Stats, err = readout.BinClassStats(scores, targs, thr)
	if err != nil {
		return nil, nil, err
	}
	res.MSE = readout.MSE(scores, targs)
	if auc, err := readout.AUC(scores, targs); err == nil {
		res.AUC = auc
	}
	return res, nt, nil
}
