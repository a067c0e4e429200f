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
	"testing"

	"github.com/ctessum/geom"
)

func TestResolve(t *testing.T) {
	d := testDecomposition()
	rowIndex, colIndex := d.IndexGrids()
	loc, err := NewLocator(d.Def, rowIndex, colIndex)
	if err != nil {
		t.Fatal(err)
	}

	// The 2×2 grid spans x in [0,2] and y in [0,2]; row 0 is the top
	// row. Pixel (0, 1) carries no data.
	points := []QueryPoint{
		{Point: geom.Point{X: 0.5, Y: 1.5}, Label: "northwest"},
		{Point: geom.Point{X: 0.5, Y: 0.5}, Label: "southwest"},
		{Point: geom.Point{X: 1.5, Y: 0.5}, Label: "southeast"},
		{Point: geom.Point{X: 1.5, Y: 1.5}, Label: "empty"},
		{Point: geom.Point{X: 10, Y: 10}, Label: "outside"},
	}
	resolved, failures, err := loc.Resolve(points, "")
	if err != nil {
		t.Fatal(err)
	}

	want := map[string][2]int{
		"northwest": {0, 0},
		"southwest": {1, 0},
		"southeast": {1, 1},
	}
	if len(resolved) != len(want) {
		t.Fatalf("have %d resolved points, want %d", len(resolved), len(want))
	}
	for _, r := range resolved {
		w, ok := want[r.Label]
		if !ok {
			t.Errorf("unexpected resolved label %q", r.Label)
			continue
		}
		if r.Row != w[0] || r.Col != w[1] {
			t.Errorf("%s: have (%d,%d), want (%d,%d)", r.Label, r.Row, r.Col, w[0], w[1])
		}
	}

	// The point on the dataless cell and the point outside the grid
	// extent are reported, not defaulted to (0, 0).
	if len(failures) != 2 {
		t.Fatalf("have %d failures, want 2: %+v", len(failures), failures)
	}
	failed := map[string]bool{}
	for _, f := range failures {
		if f.Reason == "" {
			t.Errorf("failure for %q has no diagnostic", f.Label)
		}
		failed[f.Label] = true
	}
	if !failed["empty"] || !failed["outside"] {
		t.Errorf("have failed labels %v, want 'empty' and 'outside'", failed)
	}
}

func TestResolveSameProjSkipsTransform(t *testing.T) {
	d := testDecomposition()
	rowIndex, colIndex := d.IndexGrids()
	loc, err := NewLocator(d.Def, rowIndex, colIndex)
	if err != nil {
		t.Fatal(err)
	}
	// Equal projection strings take the no-transform path.
	resolved, failures, err := loc.Resolve([]QueryPoint{
		{Point: geom.Point{X: 0.5, Y: 0.5}, Label: "a"},
	}, d.Def.Proj)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if len(resolved) != 1 || resolved[0].Row != 1 || resolved[0].Col != 0 {
		t.Errorf("have %+v, want one point at (1,0)", resolved)
	}
}

func TestNewLocatorShapeMismatch(t *testing.T) {
	d := testDecomposition()
	rowIndex, _ := d.IndexGrids()
	other := NewGrid2D(GridDef{Nx: 4, Ny: 4, Dx: 1, Dy: 1, Proj: d.Def.Proj})
	if _, err := NewLocator(d.Def, rowIndex, other); err == nil {
		t.Error("mismatched index grid geometry: want error, have nil")
	}
}
