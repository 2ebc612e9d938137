// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spikerc is the overall repository for spiking reservoir computing
code implemented in the Go language (golang), with an application to
anomaly detection in ECG signals.

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* spikerc: the core simulation engine -- leaky integrate-and-fire neurons,
layers, projections, FFFB inhibition, and the time-stepped network cycle.
The recurrent reservoir is fixed (untrained); only the linear readout is
trained, offline.

* encode: up-down (sigma-delta) spike encoding of analog signals into
spike trains, and staircase reconstruction back from spikes.

* ecg: synthetic ECG generation with injectable ectopic-beat anomalies,
dataset windowing, and CSV I/O.

* readout: ridge-regression training of the linear readout on reservoir
spike traces, plus evaluation metrics.

* detect: the end-to-end anomaly detection pipeline -- generates train and
test records, collects reservoir states, fits the readout, and scores
held-out windows against their labels.

* examples: these compile into runnable programs.  examples/ecganomaly is
the end-to-end demo: encode an ECG record, run it through the reservoir,
train the readout, and score held-out windows.  examples/sweep grids over
model parameters and collects results into an sqlite database.
*/
package spikerc
