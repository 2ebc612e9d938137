// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ecg generates synthetic electrocardiogram signals with labeled
ectopic-beat anomalies, and provides the windowing and table I/O used to
train and evaluate anomaly detectors on them.

Each heartbeat is synthesized as a sum of gaussian components, one per
wave of the standard P-QRS-T morphology, laid out in beat-phase
coordinates.  Ectopic beats are premature, lack a P wave, and have a
wide, inverted-T morphology, approximating a premature ventricular
contraction.
*/
package ecg

import (
	"math/rand"

	"github.com/chewxy/math32"
)

// Wave is one gaussian component of a heartbeat: amplitude, center, and
// width, with center and width expressed as fractions of the beat period.
type Wave struct {
	Amp float32 `desc:"peak amplitude, in normalized ECG units (R wave = 1)"`
	Ctr float32 `desc:"center of the wave as a fraction of the beat period"`
	Wid float32 `desc:"gaussian width (sigma) as a fraction of the beat period"`
}

// Value returns the wave's contribution at the given beat phase [0, 1]
func (wv *Wave) Value(phase float32) float32 {
	d := phase - wv.Ctr
	return wv.Amp * math32.Exp(-(d*d)/(2*wv.Wid*wv.Wid))
}

// NormalBeat is the standard P-QRS-T morphology
var NormalBeat = []Wave{
	{0.15, 0.18, 0.03},   // P
	{-0.12, 0.36, 0.012}, // Q
	{1.0, 0.4, 0.016},    // R
	{-0.25, 0.44, 0.012}, // S
	{0.35, 0.65, 0.05},   // T
}

// EctopicBeat approximates a premature ventricular contraction: no P wave,
// wide high-amplitude QRS, inverted T
var EctopicBeat = []Wave{
	{1.3, 0.3, 0.06},
	{-0.45, 0.42, 0.05},
	{-0.3, 0.65, 0.06},
}

// EctopicPeriodFrac is the beat period of an ectopic beat relative to the
// current normal period (premature)
const EctopicPeriodFrac = 0.65

// GenParams are the parameters for synthetic ECG generation
type GenParams struct {
	SampleHz    float32 `def:"250" min:"1" desc:"sampling rate in Hz"`
	NBeats      int     `def:"60" min:"1" desc:"number of heartbeats to generate"`
	HeartRate   float32 `def:"60" min:"1" desc:"mean heart rate in beats per minute"`
	HRVar       float32 `def:"0.03" min:"0" desc:"beat-to-beat period variability as a fraction of the mean period (gaussian)"`
	NoiseSig    float32 `def:"0.01" min:"0" desc:"additive gaussian measurement noise sigma"`
	WanderAmp   float32 `def:"0.05" min:"0" desc:"amplitude of slow sinusoidal baseline wander (respiration artifact)"`
	WanderHz    float32 `def:"0.25" min:"0" desc:"baseline wander frequency in Hz"`
	EctopicProb float32 `def:"0.1" min:"0" max:"1" desc:"probability that each beat is ectopic"`
	MissedProb  float32 `def:"0" min:"0" max:"1" desc:"probability that each non-ectopic beat is dropped entirely (sinus pause), leaving a flat anomalous gap"`
	RndSeed     int64   `def:"1" desc:"random seed -- same seed generates the same record"`
}

func (gp *GenParams) Defaults() {
	gp.SampleHz = 250
	gp.NBeats = 60
	gp.HeartRate = 60
	gp.HRVar = 0.03
	gp.NoiseSig = 0.01
	gp.WanderAmp = 0.05
	gp.WanderHz = 0.25
	gp.EctopicProb = 0.1
	gp.MissedProb = 0
	gp.RndSeed = 1
}

func (gp *GenParams) Update() {
}

// Record is a generated ECG record with per-sample anomaly labels
type Record struct {
	Signal   []float32 `desc:"the ECG signal, in normalized units"`
	Labels   []int     `desc:"per-sample anomaly labels: 1 if the sample lies within an ectopic beat or a sinus pause"`
	SampleHz float32   `desc:"sampling rate in Hz"`
	NEctopic int       `desc:"number of ectopic beats in the record"`
	NMissed  int       `desc:"number of missed (dropped) beats in the record"`
}

// NSamples returns the number of samples in the record
func (rec *Record) NSamples() int {
	return len(rec.Signal)
}

// Generate synthesizes an ECG record per the given params.  Generation is
// fully deterministic for a given seed.
func Generate(gp *GenParams) *Record {
	rnd := rand.New(rand.NewSource(gp.RndSeed))
	basePer := 60.0 / gp.HeartRate // seconds per beat
	rec := &Record{SampleHz: gp.SampleHz}
	tIdx := 0
	for bi := 0; bi < gp.NBeats; bi++ {
		per := basePer * (1 + gp.HRVar*float32(rnd.NormFloat64()))
		waves := NormalBeat
		lbl := 0
		if rnd.Float32() < gp.EctopicProb {
			per *= EctopicPeriodFrac
			waves = EctopicBeat
			lbl = 1
			rec.NEctopic++
		} else if rnd.Float32() < gp.MissedProb {
			waves = nil // sinus pause: baseline only for a full period
			lbl = 1
			rec.NMissed++
		}
		ns := int(per * gp.SampleHz)
		if ns < 2 {
			ns = 2
		}
		for si := 0; si < ns; si++ {
			phase := float32(si) / float32(ns)
			v := float32(0)
			for wi := range waves {
				v += waves[wi].Value(phase)
			}
			if gp.WanderAmp > 0 {
				t := float32(tIdx) / gp.SampleHz
				v += gp.WanderAmp * math32.Sin(2*math32.Pi*gp.WanderHz*t)
			}
			if gp.NoiseSig > 0 {
				v += gp.NoiseSig * float32(rnd.NormFloat64())
			}
			rec.Signal = append(rec.Signal, v)
			rec.Labels = append(rec.Labels, lbl)
			tIdx++
		}
	}
	return rec
}

// Windows slices the record into non-overlapping windows of the given
// size, returning the window signals and binary window labels: a window is
// anomalous (1) if any of its samples lies in an ectopic beat.  A trailing
// partial window is dropped.
func (rec *Record) Windows(wsize int) (sigs [][]float32, labels []float32) {
	n := rec.NSamples()
	for st := 0; st+wsize <= n; st += wsize {
		sigs = append(sigs, rec.Signal[st:st+wsize])
		lbl := float32(0)
		for si := st; si < st+wsize; si++ {
			if rec.Labels[si] != 0 {
				lbl = 1
				break
			}
		}
		labels = append(labels, lbl)
	}
	return
}

// Normalize rescales the signal in place to zero mean, unit max absolute
// value -- keeps the delta-modulation threshold meaningful across records
func (rec *Record) Normalize() {
	n := rec.NSamples()
	if n == 0 {
		return
	}
	mean := float32(0)
	for _, v := range rec.Signal {
		mean += v
	}
	mean /= float32(n)
	mx := float32(0)
	for i := range rec.Signal {
		rec.Signal[i] -= mean
		av := math32.Abs(rec.Signal[i])
		if av > mx {
			mx = av
		}
	}
	if mx > 0 {
		for i := range rec.Signal {
			rec.Signal[i] /= mx
		}
	}
}
