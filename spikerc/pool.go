// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikerc

import (
	"github.com/ncdlab/spikerc/fffb"
)

// Pool contains computed values for FFFB inhibition and the aggregate
// activity statistics for a layer.  Reservoir layers use a single
// layer-level pool.
type Pool struct {
	StIdx, EdIdx int        `desc:"starting and ending (exclusive) indexes for the list of neurons in this pool"`
	Inhib        fffb.Inhib `desc:"FFFB inhibition computed values, including Ge and Act AvgMax which drive inhibition"`
}

func (pl *Pool) Init() {
	pl.Inhib.Init()
}
