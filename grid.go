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
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// GridDef describes the geometry of a regular raster grid. Rows are
// numbered from the top (north) edge downward and columns from the left
// (west) edge rightward, so the cell at (row, col) = (0, 0) is the
// northwest corner of the grid.
type GridDef struct {
	Nx, Ny int     // number of columns and rows
	Dx, Dy float64 // cell size in the grid projection units
	Xo, Yo float64 // coordinates of the lower-left grid corner
	Proj   string  // Proj4 spatial reference definition
}

// Cells returns the total number of grid cells.
func (d GridDef) Cells() int { return d.Nx * d.Ny }

// CellBounds returns the bounding box of the cell at the given row and
// column.
func (d GridDef) CellBounds(row, col int) *geom.Bounds {
	b := geom.NewBounds()
	b.Min = geom.Point{
		X: d.Xo + float64(col)*d.Dx,
		Y: d.Yo + float64(d.Ny-1-row)*d.Dy,
	}
	b.Max = geom.Point{X: b.Min.X + d.Dx, Y: b.Min.Y + d.Dy}
	return b
}

// CellPolygon returns the polygon outline of the cell at the given row
// and column.
func (d GridDef) CellPolygon(row, col int) geom.Polygon {
	b := d.CellBounds(row, col)
	return geom.Polygon{{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Min.Y},
	}}
}

// Grid2D is a single raster layer with the geometry given by Def.
// Grids are treated as immutable value objects: every pipeline stage
// produces a new grid rather than editing its input. Missing cells are
// marked with NaN in the underlying array; use At for tagged access.
type Grid2D struct {
	Def  GridDef
	Data *sparse.DenseArray // shape [Ny, Nx]
}

// NewGrid2D creates a grid with the given geometry in which every cell
// is initially missing.
func NewGrid2D(def GridDef) *Grid2D {
	return &Grid2D{Def: def, Data: nanDense(def.Ny, def.Nx)}
}

// At returns the value of the cell at the given row and column.
func (g *Grid2D) At(row, col int) Value {
	return value(g.Data.Get(row, col))
}

// Copy returns a deep copy of g.
func (g *Grid2D) Copy() *Grid2D {
	return &Grid2D{Def: g.Def, Data: g.Data.Copy()}
}

// Grid3D is a stack of Depth values for every cell of a raster grid;
// Depth is either the event-slot capacity K or the number of time
// steps T. Data is in row-major order with depth varying fastest.
// Missing values are marked with NaN in the underlying array.
type Grid3D struct {
	Def   GridDef
	Depth int
	Data  *sparse.DenseArray // shape [Ny, Nx, Depth]
}

// NewGrid3D creates a grid with the given geometry and depth in which
// every value is initially missing.
func NewGrid3D(def GridDef, depth int) *Grid3D {
	return &Grid3D{Def: def, Depth: depth, Data: nanDense(def.Ny, def.Nx, depth)}
}

// Grid3DFrom wraps data, which must have shape [def.Ny, def.Nx, depth],
// in a Grid3D.
func Grid3DFrom(def GridDef, data *sparse.DenseArray) (*Grid3D, error) {
	if len(data.Shape) != 3 || data.Shape[0] != def.Ny || data.Shape[1] != def.Nx {
		return nil, fmt.Errorf("changemap: array shape %v does not match grid geometry %d×%d",
			data.Shape, def.Ny, def.Nx)
	}
	return &Grid3D{Def: def, Depth: data.Shape[2], Data: data}, nil
}

// At returns the value at the given row, column, and depth index.
func (g *Grid3D) At(row, col, k int) Value {
	return value(g.Data.Get(row, col, k))
}

// pixel returns the depth-direction data for the pixel with the given
// row-major index. The returned slice aliases the grid's storage.
func (g *Grid3D) pixel(i int) []float64 {
	return g.Data.Elements[i*g.Depth : (i+1)*g.Depth]
}

// nanDense creates a dense array of the given shape with every element
// set to NaN, the in-array representation of a missing value.
func nanDense(dims ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(dims...)
	for i := range a.Elements {
		a.Elements[i] = math.NaN()
	}
	return a
}
