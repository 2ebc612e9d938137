// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package readout

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// BinStats are binary classification statistics from thresholded anomaly
// scores against binary targets
type BinStats struct {
	TP int `desc:"true positives"`
	FP int `desc:"false positives"`
	TN int `desc:"true negatives"`
	FN int `desc:"false negatives"`
}

// BinClassStats computes binary classification counts by thresholding the
// given scores at thr, against binary (0 / 1) targets
func BinClassStats(scores, targs []float64, thr float64) (BinStats, error) {
	var bs BinStats
	if len(scores) != len(targs) {
		return bs, fmt.Errorf("readout.BinClassStats: %v scores != %v targets", len(scores), len(targs))
	}
	for i, sc := range scores {
		pos := sc >= thr
		tpos := targs[i] >= 0.5
		switch {
		case pos && tpos:
			bs.TP++
		case pos && !tpos:
			bs.FP++
		case !pos && tpos:
			bs.FN++
		default:
			bs.TN++
		}
	}
	return bs, nil
}

func (bs *BinStats) N() int {
	return bs.TP + bs.FP + bs.TN + bs.FN
}

func (bs *BinStats) Accuracy() float64 {
	n := bs.N()
	if n == 0 {
		return 0
	}
	return float64(bs.TP+bs.TN) / float64(n)
}

func (bs *BinStats) Precision() float64 {
	d := bs.TP + bs.FP
	if d == 0 {
		return 0
	}
	return float64(bs.TP) / float64(d)
}

func (bs *BinStats) Recall() float64 {
	d := bs.TP + bs.FN
	if d == 0 {
		return 0
	}
	return float64(bs.TP) / float64(d)
}

func (bs *BinStats) F1() float64 {
	p := bs.Precision()
	r := bs.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func (bs *BinStats) String() string {
	return fmt.Sprintf("acc: %.4f  prec: %.4f  recall: %.4f  f1: %.4f  (tp: %v fp: %v tn: %v fn: %v)",
		bs.Accuracy(), bs.Precision(), bs.Recall(), bs.F1(), bs.TP, bs.FP, bs.TN, bs.FN)
}

// MSE returns the mean squared error between predictions and targets
func MSE(preds, targs []float64) float64 {
	n := len(preds)
	if n == 0 || n != len(targs) {
		return 0
	}
	s := 0.0
	for i := range preds {
		d := preds[i] - targs[i]
		s += d * d
	}
	return s / float64(n)
}

// BestThreshold sweeps candidate decision thresholds (midpoints between
// adjacent sorted scores) and returns the one maximizing F1 on the given
// scores and binary targets, along with the stats at that threshold.
// Typically run on training-set scores to pick the deployed threshold.
func BestThreshold(scores, targs []float64) (float64, BinStats, error) {
	if len(scores) != len(targs) {
		return 0, BinStats{}, fmt.Errorf("readout.BestThreshold: %v scores != %v targets", len(scores), len(targs))
	}
	if len(scores) == 0 {
		return 0, BinStats{}, fmt.Errorf("readout.BestThreshold: no scores")
	}
	srt := make([]float64, len(scores))
	copy(srt, scores)
	sort.Float64s(srt)
	cands := make([]float64, 0, len(srt)+1)
	cands = append(cands, srt[0]-1e-6)
	for i := 1; i < len(srt); i++ {
		if srt[i] > srt[i-1] {
			cands = append(cands, 0.5*(srt[i-1]+srt[i]))
		}
	}
	bestThr := cands[0]
	var bestBs BinStats
	bestF1 := -1.0
	for _, thr := range cands {
		bs, _ := BinClassStats(scores, targs, thr)
		if f1 := bs.F1(); f1 > bestF1 {
			bestF1 = f1
			bestBs = bs
			bestThr = thr
		}
	}
	return bestThr, bestBs, nil
}

// AUC returns the area under the ROC curve for the given anomaly scores
// and binary targets.  Inputs are copied, not modified.
func AUC(scores, targs []float64) (float64, error) {
	if len(scores) != len(targs) {
		return 0, fmt.Errorf("readout.AUC: %v scores != %v targets", len(scores), len(targs))
	}
	y := make([]float64, len(scores))
	copy(y, scores)
	classes := make([]bool, len(targs))
	npos := 0
	for i, tg := range targs {
		classes[i] = tg >= 0.5
		if classes[i] {
			npos++
		}
	}
	if npos == 0 || npos == len(targs) {
		return 0, fmt.Errorf("readout.AUC: targets are all one class")
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
