// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package encode

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
)

func TestEncodeSample(t *testing.T) {
	ud := UpDown{}
	ud.Defaults()
	ud.Init(0)

	up, dn := ud.EncodeSample(0.01) // within threshold
	if up != 0 || dn != 0 {
		t.Errorf("within-threshold sample spiked: up=%v down=%v", up, dn)
	}
	if ud.Baseline != 0 {
		t.Errorf("baseline moved without spike: %v", ud.Baseline)
	}

	up, dn = ud.EncodeSample(0.2)
	if up != 1 || dn != 0 {
		t.Errorf("rising sample: up=%v down=%v", up, dn)
	}
	if math32.Abs(ud.Baseline-ud.Thr) > 1e-6 {
		t.Errorf("baseline did not step up: %v", ud.Baseline)
	}

	up, dn = ud.EncodeSample(-0.2)
	if up != 0 || dn != 1 {
		t.Errorf("falling sample: up=%v down=%v", up, dn)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	ud1 := UpDown{}
	ud1.Defaults()
	ud2 := UpDown{}
	ud2.Defaults()
	sig := make([]float32, 100)
	for i := range sig {
		sig[i] = float32(math.Sin(float64(i) * 0.2))
	}
	r1 := ud1.Encode(sig)
	r2 := ud2.Encode(sig)
	for i := range r1.Values {
		if r1.Values[i] != r2.Values[i] {
			t.Fatalf("encoding not deterministic at %v", i)
		}
	}
}

func TestOneSpikePerStep(t *testing.T) {
	ud := UpDown{}
	ud.Defaults()
	// huge step: still at most one spike per cycle per channel
	sig := []float32{0, 10, 10, 10}
	rast := ud.Encode(sig)
	n := rast.Dim(0)
	for t1 := 0; t1 < n; t1++ {
		up := rast.Value([]int{t1, Up})
		dn := rast.Value([]int{t1, Down})
		if up > 1 || dn > 1 {
			t.Errorf("multiple spikes in one step at %v: up=%v down=%v", t1, up, dn)
		}
		if up == 1 && dn == 1 {
			t.Errorf("up and down spike in same step at %v", t1)
		}
	}
	up, dn := SpikeCounts(rast)
	if up != 3 || dn != 0 {
		t.Errorf("step signal spike counts: up=%v down=%v", up, dn)
	}
}

func TestReconstructRoundTrip(t *testing.T) {
	ud := UpDown{}
	ud.Defaults()
	sig := make([]float32, 200)
	for i := range sig {
		// slow sine: per-sample steps well within threshold
		sig[i] = 0.5 * float32(math.Sin(float64(i)*0.05))
	}
	maxErr := ud.MaxAbsErr(sig)
	if maxErr > 2*ud.Thr {
		t.Errorf("roundtrip error %v exceeds 2 * threshold %v", maxErr, 2*ud.Thr)
	}
}

func TestReconstructBadShape(t *testing.T) {
	ud := UpDown{}
	ud.Defaults()
	rast := ud.Encode([]float32{0, 1, 0})
	_, err := ud.Reconstruct(rast, 0)
	if err != nil {
		t.Errorf("valid raster errored: %v", err)
	}
}
