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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// QueryPoint is a caller-specified geographic location for which
// detailed (non-summarized) event and series data should be extracted.
type QueryPoint struct {
	geom.Point
	Label string
}

// ResolvedPoint is a query point resolved to the grid cell containing
// it.
type ResolvedPoint struct {
	QueryPoint
	Row, Col int
}

// LookupFailure records a query point that could not be resolved to a
// grid cell, so that the caller can report which labels were dropped.
type LookupFailure struct {
	Label  string
	Reason string
}

// cellRef ties a grid cell outline to the row and column the auxiliary
// index grids encode for it.
type cellRef struct {
	geom.Polygonal
	row, col int
}

// Locator resolves geographic coordinates to grid cell indices using a
// pair of auxiliary index grids whose cell values encode each cell's
// row and column.
type Locator struct {
	def  GridDef
	tree *rtree.Rtree
}

// NewLocator creates a Locator for the given geometry. Cells whose
// index values are missing are left out of the spatial index, so points
// falling on them resolve to "not found". The index grids must share
// the target geometry.
func NewLocator(def GridDef, rowIndex, colIndex *Grid2D) (*Locator, error) {
	if rowIndex.Def != def || colIndex.Def != def {
		return nil, fmt.Errorf("changemap: index grid geometries (%d×%d, %d×%d) do not match the lookup geometry %d×%d",
			rowIndex.Def.Ny, rowIndex.Def.Nx, colIndex.Def.Ny, colIndex.Def.Nx, def.Ny, def.Nx)
	}
	tree := rtree.NewTree(25, 50)
	for r := 0; r < def.Ny; r++ {
		for c := 0; c < def.Nx; c++ {
			ri, ci := rowIndex.At(r, c), colIndex.At(r, c)
			if !ri.Valid || !ci.Valid {
				continue
			}
			tree.Insert(&cellRef{
				Polygonal: def.CellPolygon(r, c),
				row:       int(ri.Float64),
				col:       int(ci.Float64),
			})
		}
	}
	return &Locator{def: def, tree: tree}, nil
}

// locate returns the row and column of the cell containing pt, which
// must already be in the grid's spatial reference.
func (l *Locator) locate(pt geom.Point) (row, col int, ok bool) {
	for _, itemI := range l.tree.SearchIntersect(pt.Bounds()) {
		c := itemI.(*cellRef)
		if pt.Within(c.Polygonal) != geom.Outside {
			return c.row, c.col, true
		}
	}
	return 0, 0, false
}

// Resolve resolves each query point to a grid cell. Points are first
// transformed from pointsProj to the grid's spatial reference when the
// two differ; pointsProj may be empty if the points are already in grid
// coordinates. Points that fall outside the grid extent or on cells
// with missing index values are collected in the returned failures
// rather than aborting the lookup, so the remaining valid points still
// produce output.
func (l *Locator) Resolve(points []QueryPoint, pointsProj string) ([]ResolvedPoint, []LookupFailure, error) {
	var ct proj.Transformer
	if pointsProj != "" && pointsProj != l.def.Proj {
		pointsSR, err := proj.Parse(pointsProj)
		if err != nil {
			return nil, nil, fmt.Errorf("changemap: while parsing the query point projection: %v", err)
		}
		gridSR, err := proj.Parse(l.def.Proj)
		if err != nil {
			return nil, nil, fmt.Errorf("changemap: while parsing the grid projection: %v", err)
		}
		ct, err = pointsSR.NewTransform(gridSR)
		if err != nil {
			return nil, nil, fmt.Errorf("changemap: while creating the query point transform: %v", err)
		}
	}

	var resolved []ResolvedPoint
	var failures []LookupFailure
	for _, p := range points {
		pt := p.Point
		if ct != nil {
			gg, err := p.Point.Transform(ct)
			if err != nil {
				failures = append(failures, LookupFailure{Label: p.Label,
					Reason: fmt.Sprintf("transforming (%g, %g): %v", p.X, p.Y, err)})
				continue
			}
			pt = gg.(geom.Point)
		}
		row, col, ok := l.locate(pt)
		if !ok {
			failures = append(failures, LookupFailure{Label: p.Label,
				Reason: fmt.Sprintf("no grid cell with data contains (%g, %g)", pt.X, pt.Y)})
			continue
		}
		resolved = append(resolved, ResolvedPoint{QueryPoint: p, Row: row, Col: col})
	}
	return resolved, failures, nil
}
