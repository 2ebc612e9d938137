// Copyright (c) 2024, The SpikeRC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ecg

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
)

// Table returns the record as an etable.Table with Time, Signal, and Label
// columns, one row per sample.
func (rec *Record) Table() *etable.Table {
	n := rec.NSamples()
	sch := etable.Schema{
		{"Time", etensor.FLOAT64, nil, nil},
		{"Signal", etensor.FLOAT64, nil, nil},
		{"Label", etensor.INT64, nil, nil},
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, n)
	for i := 0; i < n; i++ {
		dt.SetCellFloat("Time", i, float64(i)/float64(rec.SampleHz))
		dt.SetCellFloat("Signal", i, float64(rec.Signal[i]))
		dt.SetCellFloat("Label", i, float64(rec.Labels[i]))
	}
	return dt
}

// RecordFmTable reconstructs a Record from a table in the format written
// by Table.  The sampling rate is recovered from the Time column spacing.
func RecordFmTable(dt *etable.Table) (*Record, error) {
	n := dt.Rows
	if n < 2 {
		return nil, fmt.Errorf("ecg.RecordFmTable: table must have at least 2 rows, got %v", n)
	}
	for _, cn := range []string{"Time", "Signal", "Label"} {
		if _, err := dt.ColByNameTry(cn); err != nil {
			return nil, err
		}
	}
	dt0 := dt.CellFloat("Time", 1) - dt.CellFloat("Time", 0)
	if dt0 <= 0 {
		return nil, fmt.Errorf("ecg.RecordFmTable: non-increasing Time column")
	}
	rec := &Record{
		Signal:   make([]float32, n),
		Labels:   make([]int, n),
		SampleHz: float32(1.0 / dt0),
	}
	for i := 0; i < n; i++ {
		rec.Signal[i] = float32(dt.CellFloat("Signal", i))
		lbl := int(dt.CellFloat("Label", i))
		rec.Labels[i] = lbl
		if lbl != 0 {
			// count each contiguous anomalous run as one anomalous beat
			if i == 0 || rec.Labels[i-1] == 0 {
				rec.NEctopic++
			}
		}
	}
	return rec, nil
}

// WriteCSV writes the record in CSV format with headers
func (rec *Record) WriteCSV(w io.Writer) error {
	return rec.Table().WriteCSV(w, etable.Comma, etable.Headers)
}

// SaveCSV saves the record to a CSV file
func (rec *Record) SaveCSV(filename string) error {
	fp, err := os.Create(filename)
	if err != nil {
		log.Println(err)
		return err
	}
	defer fp.Close()
	bw := bufio.NewWriter(fp)
	err = rec.WriteCSV(bw)
	bw.Flush()
	return err
}

// ReadCSV reads a record from CSV format as written by WriteCSV
func ReadCSV(r io.Reader) (*Record, error) {
	dt := &etable.Table{}
	if err := dt.ReadCSV(r, etable.Comma); err != nil {
		log.Println(err)
		return nil, err
	}
	return RecordFmTable(dt)
}

// OpenCSV opens a record from a CSV file
func OpenCSV(filename string) (*Record, error) {
	fp, err := os.Open(filename)
	if err != nil {
		log.Println(err)
		return nil, err
	}
	defer fp.Close()
	return ReadCSV(bufio.NewReader(fp))
}
