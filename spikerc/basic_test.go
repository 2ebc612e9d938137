// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
)

func testResParams() *ReservoirParams {
	rp := &ReservoirParams{}
	rp.Defaults()
	rp.InputN = 2
	rp.ResN = 25
	rp.OutN = 1
	rp.InPCon = 1
	rp.RecPCon = 0.2
	rp.RndSeed = 42
	return rp
}

func TestNewReservoirNet(t *testing.T) {
	rp := testResParams()
	nt, err := NewReservoirNet("TestNet", rp)
	if err != nil {
		t.Fatal(err)
	}
	if nt.NLayers() != 3 {
		t.Fatalf("expected 3 layers, got %v", nt.NLayers())
	}
	inl := nt.LayerByName(InputLayNm)
	rsl := nt.LayerByName(ReservoirLayNm)
	out := nt.LayerByName(ReadoutLayNm)
	if inl == nil || rsl == nil || out == nil {
		t.Fatalf("standard layers not found by name")
	}
	if inl.NNeurons() != rp.InputN || rsl.NNeurons() != rp.ResN || out.NNeurons() != rp.OutN {
		t.Errorf("layer sizes wrong: %v %v %v", inl.NNeurons(), rsl.NNeurons(), out.NNeurons())
	}

	rcpj := rsl.RecvPrjnBySendName(ReservoirLayNm)
	if rcpj == nil {
		t.Fatalf("no recurrent projection on reservoir")
	}
	if rcpj.Type() != Recurrent {
		t.Errorf("recurrent prjn type: %v", rcpj.Type())
	}
	// no self connections, and the recv / send index lists are consistent
	for ri := 0; ri < rsl.NNeurons(); ri++ {
		nc := int(rcpj.RConN[ri])
		st := int(rcpj.RConIdxSt[ri])
		if nc == 0 {
			t.Errorf("reservoir unit %v has no recurrent inputs", ri)
		}
		for ci := 0; ci < nc; ci++ {
			si := int(rcpj.RConIdx[st+ci])
			if si == ri {
				t.Errorf("self connection at unit %v", ri)
			}
		}
	}
	tot := 0
	for ri := range rcpj.RConN {
		tot += int(rcpj.RConN[ri])
	}
	if tot != len(rcpj.Syns) {
		t.Errorf("total recv cons %v != n syns %v", tot, len(rcpj.Syns))
	}

	// mixed signs in recurrent weights
	npos, nneg := 0, 0
	for si := range rcpj.Syns {
		if rcpj.Syns[si].Wt > 0 {
			npos++
		} else if rcpj.Syns[si].Wt < 0 {
			nneg++
		}
	}
	if npos == 0 || nneg == 0 {
		t.Errorf("recurrent weights not mixed sign: %v pos, %v neg", npos, nneg)
	}

	// readout starts at zero
	ropj := out.RecvPrjnBySendName(ReservoirLayNm)
	if ropj == nil {
		t.Fatalf("no reservoir -> readout projection")
	}
	for si := range ropj.Syns {
		if ropj.Syns[si].Wt != 0 {
			t.Errorf("readout weight not zero at %v: %v", si, ropj.Syns[si].Wt)
		}
	}
}

func TestSpectralScale(t *testing.T) {
	rp := testResParams()
	nt, err := NewReservoirNet("TestNet", rp)
	if err != nil {
		t.Fatal(err)
	}
	rsl := nt.LayerByName(ReservoirLayNm)
	rcpj := rsl.RecvPrjnBySendName(ReservoirLayNm)
	rho := SpectralRadiusOf(RecurWtMatrix(rcpj), 100)
	eff := float32(rho) * rcpj.GScale
	if math32.Abs(eff-rp.SpectralRadius) > 1e-4 {
		t.Errorf("effective spectral radius %v != target %v", eff, rp.SpectralRadius)
	}
}

func TestCyclePropagation(t *testing.T) {
	rp := testResParams()
	nt, err := NewReservoirNet("TestNet", rp)
	if err != nil {
		t.Fatal(err)
	}
	inl := nt.LayerByName(InputLayNm)
	rsl := nt.LayerByName(ReservoirLayNm)
	ltime := NewTime()

	nt.InitExt()
	inl.ApplyExt1D32([]float32{1, 0})
	for cyc := 0; cyc < 5; cyc++ {
		nt.Cycle(ltime)
	}
	if inl.Neurons[0].Spike != 1 {
		t.Errorf("clamped input unit 0 not spiking")
	}
	if inl.Neurons[1].Spike != 0 {
		t.Errorf("unclamped input unit 1 spiking")
	}
	gesum := float32(0)
	for ni := range rsl.Neurons {
		gesum += math32.Abs(rsl.Neurons[ni].Ge)
	}
	if gesum == 0 {
		t.Errorf("input spikes did not propagate to reservoir")
	}
	tsum := float32(0)
	for ni := range inl.Neurons {
		tsum += inl.Neurons[ni].SpkTrace
	}
	if tsum == 0 {
		t.Errorf("input spike traces not updating")
	}
}

func TestFFFBInhib(t *testing.T) {
	rp := testResParams()
	nt, err := NewReservoirNet("TestNet", rp)
	if err != nil {
		t.Fatal(err)
	}
	inl := nt.LayerByName(InputLayNm)
	rsl := nt.LayerByName(ReservoirLayNm)
	if !rsl.Inhib.On {
		t.Fatalf("layer inhibition not enabled by defaults")
	}

	nt.InitExt()
	inl.ApplyExt1D32([]float32{1, 1})
	ltime := NewTime()
	for cyc := 0; cyc < 30; cyc++ {
		nt.Cycle(ltime)
	}

	lpl := &rsl.Pool
	if lpl.Inhib.Ge.Avg <= rsl.Inhib.FF0 {
		t.Fatalf("sustained input did not drive pool Ge.Avg above FF0: %v", lpl.Inhib.Ge.Avg)
	}
	if lpl.Inhib.Gi <= 0 {
		t.Fatalf("pool inhibition zero under sustained drive")
	}
	exp := rsl.Inhib.Gi * (lpl.Inhib.FFi + lpl.Inhib.FBi)
	if math32.Abs(lpl.Inhib.Gi-exp) > difTol {
		t.Errorf("pool gi %v != Gi*(FFi+FBi) %v", lpl.Inhib.Gi, exp)
	}
	// pool inhibition reaches the neurons: Gi = GiSyn + pool Gi
	for ni := range rsl.Neurons {
		nrn := &rsl.Neurons[ni]
		if nrn.Gi < lpl.Inhib.Gi-difTol {
			t.Fatalf("unit %v Gi %v below pool Gi %v", ni, nrn.Gi, lpl.Inhib.Gi)
		}
	}
}

func TestSilence(t *testing.T) {
	rp := testResParams()
	nt, err := NewReservoirNet("TestNet", rp)
	if err != nil {
		t.Fatal(err)
	}
	rsl := nt.LayerByName(ReservoirLayNm)
	ltime := NewTime()
	spikes := 0
	for cyc := 0; cyc < 30; cyc++ {
		nt.Cycle(ltime)
		spikes += rsl.SpikeCount()
	}
	if spikes != 0 {
		t.Errorf("reservoir spiked %v times with no input", spikes)
	}
}

func TestWtsJSONRoundTrip(t *testing.T) {
	rp := testResParams()
	nt, err := NewReservoirNet("TestNet", rp)
	if err != nil {
		t.Fatal(err)
	}
	rsl := nt.LayerByName(ReservoirLayNm)
	rcpj := rsl.RecvPrjnBySendName(ReservoirLayNm)
	orig := make([]float32, len(rcpj.Syns))
	for si := range rcpj.Syns {
		orig[si] = rcpj.Syns[si].Wt
	}
	origGs := rcpj.GScale

	fnm := filepath.Join(t.TempDir(), "test_wts.wts.gz")
	err = nt.SaveWtsJSON(fnm)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(fnm); err != nil {
		t.Fatal(err)
	}

	// perturb, then reload and compare
	for si := range rcpj.Syns {
		rcpj.Syns[si].Wt = -99
	}
	rcpj.GScale = 1
	err = nt.OpenWtsJSON(fnm)
	if err != nil {
		t.Fatal(err)
	}
	for si := range rcpj.Syns {
		if math32.Abs(rcpj.Syns[si].Wt-orig[si]) > 1e-3 {
			t.Errorf("weight %v changed in roundtrip: %v != %v", si, rcpj.Syns[si].Wt, orig[si])
			break
		}
	}
	if math32.Abs(rcpj.GScale-origGs) > 1e-3*math32.Abs(origGs) {
		t.Errorf("GScale not restored: %v != %v", rcpj.GScale, origGs)
	}
}

func TestOpenWtsJSONBadGz(t *testing.T) {
	rp := testResParams()
	nt, err := NewReservoirNet("TestNet", rp)
	if err != nil {
		t.Fatal(err)
	}
	fnm := filepath.Join(t.TempDir(), "bad.wts.gz")
	if err := os.WriteFile(fnm, []byte("not gzip data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := nt.OpenWtsJSON(fnm); err == nil {
		t.Errorf("corrupt gz file did not return error")
	}
}
