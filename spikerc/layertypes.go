// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

import "github.com/goki/ki/kit"

// LayerType is the type of a layer, which determines how it is driven and
// which role it plays in the reservoir architecture.  It matches against
// .Class parameter styles (e.g., .Input, .Reservoir).
type LayerType int

//go:generate stringer -type=LayerType

var KiT_LayerType = kit.Enums.AddEnum(LayerTypeN, kit.NotBitFlag, nil)

func (ev LayerType) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *LayerType) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The layer types
const (
	// Input layers are clamped to external spike rasters (or analog values
	// with soft clamping) from the up-down encoder
	Input LayerType = iota

	// Reservoir layers are recurrently connected integrate-and-fire layers
	// with fixed random weights -- the high-dimensional state space
	Reservoir

	// Readout layers receive the trained linear readout projection and
	// report anomaly scores -- their Vm dynamics are bypassed; they simply
	// accumulate scaled input
	Readout

	LayerTypeN
)

// PrjnType is the type of a projection, matching against .Class parameter
// styles (e.g., .Recurrent)
type PrjnType int

//go:generate stringer -type=PrjnType

var KiT_PrjnType = kit.Enums.AddEnum(PrjnTypeN, kit.NotBitFlag, nil)

func (ev PrjnType) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *PrjnType) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The projection types
const (
	// Forward projections feed spikes from an earlier stage to a later one
	// (Input -> Reservoir, Reservoir -> Readout)
	Forward PrjnType = iota

	// Recurrent projections connect a layer back to itself -- the fixed
	// random reservoir connectivity, subject to spectral scaling
	Recurrent

	// Inhib projections drive the receiver's inhibitory conductance instead
	// of the excitatory one
	Inhib

	PrjnTypeN
)
