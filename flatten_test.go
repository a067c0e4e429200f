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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// testGridDef is a small 2-row, 3-column grid used throughout the
// tests.
var testGridDef = GridDef{
	Nx: 3, Ny: 2,
	Dx: 1, Dy: 1,
	Xo: 0, Yo: 0,
	Proj: "+proj=longlat",
}

func TestFlattenOrder(t *testing.T) {
	g := NewGrid3D(testGridDef, 2)
	for i := range g.Data.Elements {
		g.Data.Elements[i] = float64(i)
	}
	slices := g.Flatten()
	if len(slices) != 6 {
		t.Fatalf("have %d slices, want 6", len(slices))
	}
	for i, s := range slices {
		if s.Index != i {
			t.Errorf("slice %d has index tag %d", i, s.Index)
		}
		for k, v := range s.Data {
			if want := float64(i*2 + k); v != want {
				t.Errorf("slice %d depth %d: have %g, want %g", i, k, v, want)
			}
		}
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	g := NewGrid3D(testGridDef, 3)
	for i := range g.Data.Elements {
		g.Data.Elements[i] = float64(i) * 1.5
	}
	// Leave some values missing to check that missing markers survive
	// the round trip.
	g.Data.Elements[4] = math.NaN()
	g.Data.Elements[11] = math.NaN()

	have, err := ReconstructSlices(g.Def, g.Depth, g.Flatten())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(g.Data.Elements, have.Data.Elements, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("round trip mismatch (-want +have):\n%s", diff)
	}
}

func TestReconstruct(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6}
	g, err := Reconstruct(testGridDef, vals)
	if err != nil {
		t.Fatal(err)
	}
	if have := g.At(1, 2); have != v(6) {
		t.Errorf("cell (1,2): have %+v, want %+v", have, v(6))
	}
	if have := g.At(0, 0); have != v(1) {
		t.Errorf("cell (0,0): have %+v, want %+v", have, v(1))
	}
}

func TestReconstructShapeMismatch(t *testing.T) {
	// A target geometry with swapped dimensions must be rejected, not
	// silently truncated.
	def := GridDef{Nx: 2, Ny: 3, Dx: 1, Dy: 1}
	vals := make([]float64, 7)
	_, err := Reconstruct(def, vals)
	if err == nil {
		t.Fatal("want ShapeMismatchError, have nil")
	}
	sm, ok := err.(ShapeMismatchError)
	if !ok {
		t.Fatalf("want ShapeMismatchError, have %T: %v", err, err)
	}
	if sm.WantRows != 3 || sm.WantCols != 2 || sm.Have != 7 {
		t.Errorf("have %+v, want rows=3 cols=2 have=7", sm)
	}
}

func TestReconstructSlicesErrors(t *testing.T) {
	def := GridDef{Nx: 2, Ny: 1, Dx: 1, Dy: 1}

	// Out-of-range index tag.
	_, err := ReconstructSlices(def, 1, []PixelSlice{
		{Index: 0, Data: []float64{1}},
		{Index: 5, Data: []float64{2}},
	})
	if err == nil {
		t.Error("out-of-range index: want error, have nil")
	}

	// Duplicated index tag.
	_, err = ReconstructSlices(def, 1, []PixelSlice{
		{Index: 0, Data: []float64{1}},
		{Index: 0, Data: []float64{2}},
	})
	if err == nil {
		t.Error("duplicate index: want error, have nil")
	}

	// Wrong slice depth.
	_, err = ReconstructSlices(def, 2, []PixelSlice{
		{Index: 0, Data: []float64{1, 2}},
		{Index: 1, Data: []float64{3}},
	})
	if err == nil {
		t.Error("wrong depth: want error, have nil")
	}
}

func TestReconstructSlicesUnordered(t *testing.T) {
	// Reassembly is driven by the index tags, not by the order the
	// slices arrive in.
	def := GridDef{Nx: 2, Ny: 2, Dx: 1, Dy: 1}
	g, err := ReconstructSlices(def, 1, []PixelSlice{
		{Index: 3, Data: []float64{30}},
		{Index: 1, Data: []float64{10}},
		{Index: 0, Data: []float64{0}},
		{Index: 2, Data: []float64{20}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 10, 20, 30}
	if diff := cmp.Diff(want, g.Data.Elements); diff != "" {
		t.Errorf("mismatch (-want +have):\n%s", diff)
	}
}
