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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// testDecomposition builds a 2×2 decomposition with 3 event slots and
// 4 time steps, matching the event scenario in scenarioGrids. Pixel
// (0, 1) is entirely missing, in both events and series.
func testDecomposition() *Decomposition {
	changeTime, changeProb, changeMag := scenarioGrids()
	def := changeTime.Def
	times := []float64{2014.0, 2014.25, 2014.5, 2014.75}
	trend := NewGrid3D(def, len(times))
	season := NewGrid3D(def, len(times))
	for _, i := range []int{0, 2, 3} { // pixel 1 stays missing
		for t := range times {
			trend.Data.Elements[i*len(times)+t] = 10 + float64(i) + 0.5*float64(t)
			season.Data.Elements[i*len(times)+t] = 0.25 * float64(t%2)
		}
	}
	return &Decomposition{
		Def:        def,
		Times:      times,
		Trend:      trend,
		Season:     season,
		ChangeTime: changeTime,
		ChangeProb: changeProb,
		ChangeMag:  changeMag,
	}
}

func TestDecompositionRoundTrip(t *testing.T) {
	d := testDecomposition()
	fname := filepath.Join(t.TempDir(), "decomposition.nc")
	w, err := os.Create(fname)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Write(w); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r, err := os.Open(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	d2, err := ReadDecomposition(r)
	if err != nil {
		t.Fatal(err)
	}
	if d2.Def != d.Def {
		t.Errorf("geometry: have %+v, want %+v", d2.Def, d.Def)
	}
	if diff := cmp.Diff(d.Times, d2.Times); diff != "" {
		t.Errorf("times mismatch (-want +have):\n%s", diff)
	}
	pairs := []struct {
		name       string
		want, have *Grid3D
	}{
		{"trend", d.Trend, d2.Trend},
		{"season", d.Season, d2.Season},
		{"change_time", d.ChangeTime, d2.ChangeTime},
		{"change_prob", d.ChangeProb, d2.ChangeProb},
		{"change_mag", d.ChangeMag, d2.ChangeMag},
	}
	for _, p := range pairs {
		// Raster variables are stored as float32, so compare to within
		// single precision.
		diff := cmp.Diff(p.want.Data.Elements, p.have.Data.Elements,
			cmpopts.EquateNaNs(), cmpopts.EquateApprox(1e-6, 0))
		if diff != "" {
			t.Errorf("%s mismatch (-want +have):\n%s", p.name, diff)
		}
	}
}

func TestDecompositionCheck(t *testing.T) {
	d := testDecomposition()
	if err := d.Check(); err != nil {
		t.Errorf("valid decomposition: have error %v", err)
	}

	d = testDecomposition()
	d.Times = d.Times[:2]
	if err := d.Check(); err == nil {
		t.Error("time axis length mismatch: want error, have nil")
	}

	d = testDecomposition()
	d.Trend = NewGrid3D(GridDef{Nx: 5, Ny: 5, Dx: 1, Dy: 1}, len(d.Times))
	if err := d.Check(); err == nil {
		t.Error("series geometry mismatch: want error, have nil")
	}
}

func TestDecompositionEvents(t *testing.T) {
	d := testDecomposition()
	ev := d.Events(1, 1)
	if len(ev) != 3 {
		t.Fatalf("have %d slots, want 3", len(ev))
	}
	if ev[0].Time != v(2016) || ev[0].Probability != v(0.95) {
		t.Errorf("slot 0: have %+v", ev[0])
	}
	if ev[1].Time.Valid || ev[2].Time.Valid {
		t.Error("slots beyond the detected events should be missing")
	}
}

func TestIndexGrids(t *testing.T) {
	d := testDecomposition()
	rowIndex, colIndex := d.IndexGrids()
	if have := rowIndex.At(1, 0); have != v(1) {
		t.Errorf("row index at (1,0): have %+v, want %+v", have, v(1))
	}
	if have := colIndex.At(1, 0); have != v(0) {
		t.Errorf("col index at (1,0): have %+v, want %+v", have, v(0))
	}
	// The pixel with no observations gets missing index values.
	if rowIndex.At(0, 1).Valid || colIndex.At(0, 1).Valid {
		t.Error("index values for the empty pixel should be missing")
	}
}

func TestDecompositionConfigCheck(t *testing.T) {
	good := DecompositionConfig{
		Irregular:           true,
		AggregationInterval: 1.0 / 24,
		SeasonalPeriod:      1,
		MaxMissing:          0.75,
	}
	if err := good.Check(); err != nil {
		t.Errorf("valid config: have error %v", err)
	}
	bad := good
	bad.MaxMissing = 1.5
	if err := bad.Check(); err == nil {
		t.Error("MaxMissing > 1: want error, have nil")
	}
	bad = good
	bad.SeasonalPeriod = 0
	if err := bad.Check(); err == nil {
		t.Error("zero SeasonalPeriod: want error, have nil")
	}
	bad = good
	bad.AggregationInterval = 0
	if err := bad.Check(); err == nil {
		t.Error("irregular sampling with zero interval: want error, have nil")
	}
}
