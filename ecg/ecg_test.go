// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ecg

import (
	"bytes"
	"testing"

	"github.com/chewxy/math32"
)

func testGenParams() *GenParams {
	gp := &GenParams{}
	gp.Defaults()
	gp.NBeats = 20
	gp.RndSeed = 7
	return gp
}

func TestGenerateDeterministic(t *testing.T) {
	gp := testGenParams()
	r1 := Generate(gp)
	r2 := Generate(gp)
	if r1.NSamples() != r2.NSamples() {
		t.Fatalf("lengths differ: %v != %v", r1.NSamples(), r2.NSamples())
	}
	for i := range r1.Signal {
		if r1.Signal[i] != r2.Signal[i] {
			t.Fatalf("signals differ at %v", i)
		}
	}
	if r1.NEctopic != r2.NEctopic {
		t.Errorf("ectopic counts differ: %v != %v", r1.NEctopic, r2.NEctopic)
	}
}

func TestGenerateMorphology(t *testing.T) {
	gp := testGenParams()
	gp.EctopicProb = 0 // all normal beats
	gp.NoiseSig = 0
	rec := Generate(gp)
	if rec.NEctopic != 0 {
		t.Errorf("ectopic beats with zero probability: %v", rec.NEctopic)
	}
	for _, lbl := range rec.Labels {
		if lbl != 0 {
			t.Fatalf("anomaly label with zero ectopic probability")
		}
	}
	// R peaks should reach close to 1 in normalized units
	mx := float32(0)
	for _, v := range rec.Signal {
		if v > mx {
			mx = v
		}
	}
	if mx < 0.9 || mx > 1.1 {
		t.Errorf("R peak amplitude out of range: %v", mx)
	}
	// roughly one beat per second at 60 bpm
	expSamp := float32(gp.NBeats) * gp.SampleHz * 60 / gp.HeartRate
	if math32.Abs(float32(rec.NSamples())-expSamp) > 0.2*expSamp {
		t.Errorf("record length %v far from expected %v", rec.NSamples(), expSamp)
	}
}

func TestGenerateEctopic(t *testing.T) {
	gp := testGenParams()
	gp.NBeats = 100
	gp.EctopicProb = 0.2
	rec := Generate(gp)
	if rec.NEctopic == 0 {
		t.Fatalf("no ectopic beats at probability 0.2 over 100 beats")
	}
	nlbl := 0
	for _, lbl := range rec.Labels {
		if lbl != 0 {
			nlbl++
		}
	}
	if nlbl == 0 {
		t.Errorf("ectopic beats present but no labeled samples")
	}
}

func TestGenerateMissed(t *testing.T) {
	gp := testGenParams()
	gp.NBeats = 100
	gp.EctopicProb = 0
	gp.MissedProb = 0.2
	rec := Generate(gp)
	if rec.NMissed == 0 {
		t.Fatalf("no missed beats at probability 0.2 over 100 beats")
	}
	if rec.NEctopic != 0 {
		t.Errorf("ectopic beats with zero probability: %v", rec.NEctopic)
	}
	nlbl := 0
	for _, lbl := range rec.Labels {
		if lbl != 0 {
			nlbl++
		}
	}
	if nlbl == 0 {
		t.Errorf("missed beats present but no labeled samples")
	}
}

func TestWindows(t *testing.T) {
	gp := testGenParams()
	rec := Generate(gp)
	wsize := 100
	sigs, labels := rec.Windows(wsize)
	if len(sigs) != len(labels) {
		t.Fatalf("window and label counts differ")
	}
	if len(sigs) != rec.NSamples()/wsize {
		t.Errorf("window count %v != %v", len(sigs), rec.NSamples()/wsize)
	}
	for wi, sg := range sigs {
		if len(sg) != wsize {
			t.Fatalf("window %v has size %v", wi, len(sg))
		}
	}
	// window labels consistent with sample labels
	for wi := range sigs {
		any := false
		for si := wi * wsize; si < (wi+1)*wsize; si++ {
			if rec.Labels[si] != 0 {
				any = true
				break
			}
		}
		if any != (labels[wi] == 1) {
			t.Errorf("window %v label %v inconsistent with samples", wi, labels[wi])
		}
	}
}

func TestNormalize(t *testing.T) {
	gp := testGenParams()
	rec := Generate(gp)
	rec.Normalize()
	mean := float32(0)
	mx := float32(0)
	for _, v := range rec.Signal {
		mean += v
		av := math32.Abs(v)
		if av > mx {
			mx = av
		}
	}
	mean /= float32(rec.NSamples())
	if math32.Abs(mean) > 1e-4 {
		t.Errorf("normalized mean not ~0: %v", mean)
	}
	if math32.Abs(mx-1) > 1e-5 {
		t.Errorf("normalized max abs not 1: %v", mx)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	gp := testGenParams()
	rec := Generate(gp)
	var buf bytes.Buffer
	if err := rec.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	rec2, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if rec2.NSamples() != rec.NSamples() {
		t.Fatalf("roundtrip length: %v != %v", rec2.NSamples(), rec.NSamples())
	}
	if math32.Abs(rec2.SampleHz-rec.SampleHz) > 0.5 {
		t.Errorf("roundtrip sample rate: %v != %v", rec2.SampleHz, rec.SampleHz)
	}
	for i := 0; i < rec.NSamples(); i++ {
		if math32.Abs(rec2.Signal[i]-rec.Signal[i]) > 1e-5 {
			t.Fatalf("roundtrip signal differs at %v: %v != %v", i, rec2.Signal[i], rec.Signal[i])
		}
		if rec2.Labels[i] != rec.Labels[i] {
			t.Fatalf("roundtrip label differs at %v", i)
		}
	}
}
