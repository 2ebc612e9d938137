// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package encode converts analog signals into spike rasters and back, using
up-down (sigma-delta) delta modulation: a running baseline tracks the
signal, and whenever the signal departs from the baseline by more than the
threshold, a spike is emitted on the up or down channel and the baseline
steps by the threshold in that direction.  The resulting two-channel binary
raster is what drives the Input layer of a spiking reservoir network.
*/
package encode

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
)

// Channel indexes into the encoder raster
const (
	Up = iota
	Down
	ChannelsN
)

// UpDown implements up-down (sigma-delta) delta modulation of an analog
// signal into a two-channel spike raster.  At most one spike per channel is
// emitted per step, so a large signal step is spread over several cycles
// while the baseline catches up.
type UpDown struct {
	Thr float32 `def:"0.05" min:"0" desc:"delta threshold: signal excursion from the running baseline that triggers a spike and a baseline step"`

	Baseline float32 `inactive:"+" desc:"current running baseline -- the encoder's reconstruction of the signal level"`
}

func (ud *UpDown) Defaults() {
	ud.Thr = 0.05
}

func (ud *UpDown) Update() {
}

// Init resets the running baseline to the given initial signal level.
// Call before encoding a new record; the decoder must be seeded with the
// same initial level for reconstruction to align.
func (ud *UpDown) Init(initVal float32) {
	ud.Baseline = initVal
}

// EncodeSample encodes a single signal sample against the running baseline,
// returning up and down spike values (0 or 1) and stepping the baseline.
func (ud *UpDown) EncodeSample(v float32) (up, down float32) {
	d := v - ud.Baseline
	if d > ud.Thr {
		ud.Baseline += ud.Thr
		return 1, 0
	}
	if d < -ud.Thr {
		ud.Baseline -= ud.Thr
		return 0, 1
	}
	return 0, 0
}

// Encode encodes an entire signal into a [T, 2] spike raster tensor with
// the up channel in column 0 and down in column 1.  The baseline is
// initialized to the first sample.
func (ud *UpDown) Encode(sig []float32) *etensor.Float32 {
	n := len(sig)
	rast := etensor.NewFloat32([]int{n, ChannelsN}, nil, []string{"T", "Chan"})
	if n == 0 {
		return rast
	}
	ud.Init(sig[0])
	for t, v := range sig {
		up, dn := ud.EncodeSample(v)
		rast.Set([]int{t, Up}, up)
		rast.Set([]int{t, Down}, dn)
	}
	return rast
}

// Reconstruct decodes a [T, 2] spike raster back into an analog signal by
// accumulating threshold steps from the given initial level.  This is the
// inverse of Encode up to the threshold quantization.
func (ud *UpDown) Reconstruct(rast *etensor.Float32, initVal float32) ([]float32, error) {
	if rast.NumDims() != 2 || rast.Dim(1) != ChannelsN {
		return nil, fmt.Errorf("encode.Reconstruct: raster must be [T, %v], got %v", ChannelsN, rast.Shp)
	}
	n := rast.Dim(0)
	sig := make([]float32, n)
	lvl := initVal
	for t := 0; t < n; t++ {
		if rast.Value([]int{t, Up}) > 0 {
			lvl += ud.Thr
		}
		if rast.Value([]int{t, Down}) > 0 {
			lvl -= ud.Thr
		}
		sig[t] = lvl
	}
	return sig, nil
}

// SpikeCounts returns the total number of up and down spikes in a raster --
// a quick summary of encoder activity.
func SpikeCounts(rast *etensor.Float32) (up, down int) {
	n := rast.Dim(0)
	for t := 0; t < n; t++ {
		if rast.Value([]int{t, Up}) > 0 {
			up++
		}
		if rast.Value([]int{t, Down}) > 0 {
			down++
		}
	}
	return
}

// MaxAbsErr returns the maximum absolute reconstruction error between the
// original signal and its encode / reconstruct roundtrip.  For a signal
// whose per-sample steps stay within the threshold, this is bounded by
// 2 * Thr.
func (ud *UpDown) MaxAbsErr(sig []float32) float32 {
	rast := ud.Encode(sig)
	rec, err := ud.Reconstruct(rast, sig[0])
	if err != nil {
		return math32.MaxFloat32
	}
	mx := float32(0)
	for t := range sig {
		e := math32.Abs(sig[t] - rec[t])
		if e > mx {
			mx = e
		}
	}
	return mx
}
