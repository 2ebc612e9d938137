// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

// spikerc.Time contains all the timing state and parameter information for
// running a model.  The network is driven in discrete cycles of nominally
// 1 msec; a Window is the span of cycles over which one input window is
// presented and one reservoir state snapshot is taken.
type Time struct {
	Time       float32 `desc:"accumulated amount of time the network has been running, in simulation-time (not real world time), in seconds"`
	Cycle      int     `desc:"cycle counter within the current window, typically 0 to WindowCyc-1"`
	CycleTot   int     `desc:"total cycle count -- increments continuously from whenever it was last reset"`
	Window     int     `desc:"counter of input windows presented since last reset"`
	TimePerCyc float32 `def:"0.001" desc:"amount of time to increment per cycle"`
	WindowCyc  int     `def:"100" desc:"number of cycles per input window"`
}

// NewTime returns a new Time struct with default parameters
func NewTime() *Time {
	tm := &Time{}
	tm.Defaults()
	return tm
}

// Defaults sets default values
func (tm *Time) Defaults() {
	tm.TimePerCyc = 0.001
	tm.WindowCyc = 100
}

// Reset resets the counters all back to zero
func (tm *Time) Reset() {
	tm.Time = 0
	tm.Cycle = 0
	tm.CycleTot = 0
	tm.Window = 0
	if tm.WindowCyc == 0 {
		tm.Defaults()
	}
}

// WindowStart starts a new input window: resets the within-window cycle counter
func (tm *Time) WindowStart() {
	tm.Cycle = 0
}

// CycleInc increments at the cycle level
func (tm *Time) CycleInc() {
	tm.Cycle++
	tm.CycleTot++
	tm.Time += tm.TimePerCyc
}

// WindowInc increments at the window level
func (tm *Time) WindowInc() {
	tm.Window++
}
