/*
Copyright © 2019 the ChangeMap authors.
This file is part of ChangeMap.

ChangeMap is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ChangeMap is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ChangeMap.  If not, see <http://www.gnu.org/licenses/>.
*/

package changemap

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"github.com/tealeg/xlsx"
)

func testResolvedPoints() []ResolvedPoint {
	return []ResolvedPoint{
		{QueryPoint: QueryPoint{Label: "nw"}, Row: 0, Col: 0},
		{QueryPoint: QueryPoint{Label: "sw"}, Row: 1, Col: 0},
		{QueryPoint: QueryPoint{Label: "se"}, Row: 1, Col: 1},
	}
}

func TestEventRecords(t *testing.T) {
	d := testDecomposition()
	// At a 0.5 cutoff the low-probability event at 'sw' drops out,
	// leaving exactly two rows.
	recs := d.EventRecords(testResolvedPoints(), 0.5)
	want := []ChangeEventRecord{
		{Label: "nw", Time: v(2010), Probability: 0.9, Magnitude: v(1.0)},
		{Label: "se", Time: v(2016), Probability: 0.95, Magnitude: v(2.5)},
	}
	if !reflect.DeepEqual(recs, want) {
		t.Errorf("have %+v, want %+v", recs, want)
	}
}

func TestEventRecordsZeroCutoff(t *testing.T) {
	d := testDecomposition()
	recs := d.EventRecords(testResolvedPoints(), 0)
	if len(recs) != 3 {
		t.Fatalf("have %d rows, want 3", len(recs))
	}
	if recs[1].Label != "sw" || recs[1].Probability != 0.4 {
		t.Errorf("have %+v, want the 0.4-probability event at 'sw'", recs[1])
	}
}

func TestSeriesRecords(t *testing.T) {
	d := testDecomposition()
	recs := d.SeriesRecords([]ResolvedPoint{
		{QueryPoint: QueryPoint{Label: "nw"}, Row: 0, Col: 0},
	})
	if len(recs) != len(d.Times) {
		t.Fatalf("have %d rows, want %d", len(recs), len(d.Times))
	}
	r := recs[1]
	want := SeriesRecord{
		Label:         "nw",
		Time:          2014.25,
		Trend:         v(10.5),
		Season:        v(0.25),
		Reconstructed: v(10.75),
	}
	if r != want {
		t.Errorf("have %+v, want %+v", r, want)
	}
}

func TestSeriesRecordsMissing(t *testing.T) {
	d := testDecomposition()
	// Pixel (0, 1) carries no trend or season data, so every component
	// of every row is missing.
	recs := d.SeriesRecords([]ResolvedPoint{
		{QueryPoint: QueryPoint{Label: "empty"}, Row: 0, Col: 1},
	})
	for _, r := range recs {
		if r.Trend.Valid || r.Season.Valid || r.Reconstructed.Valid {
			t.Errorf("row at t=%g: have %+v, want all components missing", r.Time, r)
		}
	}
}

func TestWriteEventCSV(t *testing.T) {
	d := testDecomposition()
	recs := d.EventRecords(testResolvedPoints(), 0.5)
	var buf bytes.Buffer
	if err := WriteEventCSV(&buf, recs); err != nil {
		t.Fatal(err)
	}
	want := "label,time,probability,magnitude\n" +
		"nw,2010,0.9,1\n" +
		"se,2016,0.95,2.5\n"
	if buf.String() != want {
		t.Errorf("have:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteSeriesCSVMissing(t *testing.T) {
	d := testDecomposition()
	recs := d.SeriesRecords([]ResolvedPoint{
		{QueryPoint: QueryPoint{Label: "empty"}, Row: 0, Col: 1},
	})
	var buf bytes.Buffer
	if err := WriteSeriesCSV(&buf, recs[:1]); err != nil {
		t.Fatal(err)
	}
	// Missing values come out as empty fields, not sentinels.
	want := "label,time,trend,season,reconstructed\n" +
		"empty,2014,,,\n"
	if buf.String() != want {
		t.Errorf("have:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteEventXLSX(t *testing.T) {
	d := testDecomposition()
	recs := d.EventRecords(testResolvedPoints(), 0.5)
	fname := filepath.Join(t.TempDir(), "events.xlsx")
	if err := WriteEventXLSX(fname, recs); err != nil {
		t.Fatal(err)
	}
	f, err := xlsx.OpenFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	rows := f.Sheets[0].Rows
	if len(rows) != 3 { // header plus two events
		t.Fatalf("have %d rows, want 3", len(rows))
	}
	if have := rows[1].Cells[0].Value; have != "nw" {
		t.Errorf("first event label: have %q, want 'nw'", have)
	}
	yr, err := strconv.ParseFloat(rows[2].Cells[1].Value, 64)
	if err != nil {
		t.Fatal(err)
	}
	if yr != 2016 {
		t.Errorf("second event time: have %g, want 2016", yr)
	}
}
