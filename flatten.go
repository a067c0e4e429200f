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

import "fmt"

// PixelSlice is the depth-direction data for a single pixel, tagged with
// the pixel's row-major index (row*Nx + col). Tagging each unit of work
// with its index makes reassembly order a property of the data rather
// than of execution timing.
type PixelSlice struct {
	Index int
	Data  []float64
}

// Flatten converts g into a sequence of Ny×Nx pixel slices in row-major
// order. No computation occurs beyond reshaping; Flatten is the inverse
// of ReconstructSlices. The returned slices alias the grid's storage and
// must be treated as read-only.
func (g *Grid3D) Flatten() []PixelSlice {
	o := make([]PixelSlice, g.Def.Cells())
	for i := range o {
		o[i] = PixelSlice{Index: i, Data: g.pixel(i)}
	}
	return o
}

// ShapeMismatchError reports disagreement between the geometry of a
// reconstruction target and the data being reconstructed into it.
type ShapeMismatchError struct {
	WantRows, WantCols int // geometry of the reconstruction target
	Have               int // number of pixel values supplied
}

func (e ShapeMismatchError) Error() string {
	return fmt.Sprintf("changemap: reconstructing grid: target geometry is %d rows × %d columns (%d cells) but %d pixel values were supplied",
		e.WantRows, e.WantCols, e.WantRows*e.WantCols, e.Have)
}

// Reconstruct maps a sequence of per-pixel scalars, in the row-major
// order defined by Flatten, onto a new grid with the given geometry.
// The number of values must match the geometry exactly; a mismatch is
// an error, never a silent truncation.
func Reconstruct(def GridDef, vals []float64) (*Grid2D, error) {
	if len(vals) != def.Cells() {
		return nil, ShapeMismatchError{WantRows: def.Ny, WantCols: def.Nx, Have: len(vals)}
	}
	g := NewGrid2D(def)
	copy(g.Data.Elements, vals)
	return g, nil
}

// ReconstructSlices is the inverse of Flatten: it maps pixel slices back
// onto a new grid with the given geometry and depth, placing each slice
// according to its index tag. The slices may be supplied in any order,
// but there must be exactly one for every grid cell.
func ReconstructSlices(def GridDef, depth int, slices []PixelSlice) (*Grid3D, error) {
	n := def.Cells()
	if len(slices) != n {
		return nil, ShapeMismatchError{WantRows: def.Ny, WantCols: def.Nx, Have: len(slices)}
	}
	g := NewGrid3D(def, depth)
	seen := make([]bool, n)
	for _, s := range slices {
		if s.Index < 0 || s.Index >= n {
			return nil, fmt.Errorf("changemap: reconstructing grid: pixel index %d is outside [0,%d)", s.Index, n)
		}
		if seen[s.Index] {
			return nil, fmt.Errorf("changemap: reconstructing grid: duplicate pixel index %d", s.Index)
		}
		seen[s.Index] = true
		if len(s.Data) != depth {
			return nil, fmt.Errorf("changemap: reconstructing grid: pixel %d has %d values but the grid depth is %d",
				s.Index, len(s.Data), depth)
		}
		copy(g.Data.Elements[s.Index*depth:(s.Index+1)*depth], s.Data)
	}
	return g, nil
}
