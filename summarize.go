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
)

// SummaryLayerNames lists the names of the summary raster layers in a
// fixed order.
var SummaryLayerNames = []string{
	"recent_yr", "recent_pr", "recent_mg",
	"biggest_yr", "biggest_pr", "biggest_mg",
}

var summaryLayerInfo = map[string]struct{ description, units string }{
	"recent_yr":  {"time of the most recent change event", "year"},
	"recent_pr":  {"detection probability of the most recent change event", "fraction"},
	"recent_mg":  {"magnitude of the most recent change event", "signal units"},
	"biggest_yr": {"time of the most probable change event", "year"},
	"biggest_pr": {"detection probability of the most probable change event", "fraction"},
	"biggest_mg": {"magnitude of the most probable change event", "signal units"},
}

// Summary holds the six whole-grid change summary layers produced by
// SummarizeGrids. The layers carry the unfiltered selection values;
// probability masking for display is applied on top with MaskBelow or
// with an Outputter expression, never to the persisted layers.
type Summary struct {
	Def GridDef

	RecentTime, RecentProb, RecentMag    *Grid2D
	BiggestTime, BiggestProb, BiggestMag *Grid2D
}

// Layers returns the summary layers keyed by raster layer name.
func (s *Summary) Layers() map[string]*Grid2D {
	return map[string]*Grid2D{
		"recent_yr":  s.RecentTime,
		"recent_pr":  s.RecentProb,
		"recent_mg":  s.RecentMag,
		"biggest_yr": s.BiggestTime,
		"biggest_pr": s.BiggestProb,
		"biggest_mg": s.BiggestMag,
	}
}

// SummarizeGrids runs change selection over every pixel of the three
// parallel event grids, which must share geometry and depth, and
// reassembles the per-pixel results into summary layers in row-major
// order regardless of worker completion order. nprocs is the worker
// pool size; 0 means use all available processors. An error in any
// pixel aborts the whole batch and no partial results are returned.
func SummarizeGrids(changeTime, changeProb, changeMag *Grid3D, nprocs int) (*Summary, error) {
	if err := checkEventGrids(changeTime, changeProb, changeMag); err != nil {
		return nil, err
	}
	def := changeTime.Def
	n := def.Cells()

	// Each worker writes only the elements for its own pixel indices,
	// so the output slices need no locking.
	out := make([][]float64, len(SummaryLayerNames))
	for i := range out {
		out[i] = make([]float64, n)
	}
	err := eachPixel(n, nprocs, func(i int) error {
		ev := EventsAt(changeTime, changeProb, changeMag, i)
		for s, e := range ev {
			if e.Probability.Valid && (e.Probability.Float64 < 0 || e.Probability.Float64 > 1) {
				return fmt.Errorf("changemap: pixel %d slot %d: probability %g is outside [0,1]",
					i, s, e.Probability.Float64)
			}
		}
		sum := ev.Summarize()
		out[0][i] = sum.Recent.Time.orNaN()
		out[1][i] = sum.Recent.Probability.orNaN()
		out[2][i] = sum.Recent.Magnitude.orNaN()
		out[3][i] = sum.Biggest.Time.orNaN()
		out[4][i] = sum.Biggest.Probability.orNaN()
		out[5][i] = sum.Biggest.Magnitude.orNaN()
		return nil
	})
	if err != nil {
		return nil, err
	}

	o := &Summary{Def: def}
	for i, dst := range []**Grid2D{
		&o.RecentTime, &o.RecentProb, &o.RecentMag,
		&o.BiggestTime, &o.BiggestProb, &o.BiggestMag,
	} {
		g, err := Reconstruct(def, out[i])
		if err != nil {
			return nil, err
		}
		*dst = g
	}
	return o, nil
}

// MaskBelow returns a display copy of s in which each pixel whose
// selected detection probability is missing or below pmin has all
// layers of that selection masked to missing. The receiver is not
// modified; persisted summary rasters should be written unmasked.
func (s *Summary) MaskBelow(pmin float64) *Summary {
	o := &Summary{
		Def:         s.Def,
		RecentTime:  s.RecentTime.Copy(),
		RecentProb:  s.RecentProb.Copy(),
		RecentMag:   s.RecentMag.Copy(),
		BiggestTime: s.BiggestTime.Copy(),
		BiggestProb: s.BiggestProb.Copy(),
		BiggestMag:  s.BiggestMag.Copy(),
	}
	mask := func(prob *Grid2D, layers ...*Grid2D) {
		for i, p := range prob.Data.Elements {
			if math.IsNaN(p) || p < pmin {
				for _, l := range layers {
					l.Data.Elements[i] = math.NaN()
				}
			}
		}
	}
	mask(s.RecentProb, o.RecentTime, o.RecentProb, o.RecentMag)
	mask(s.BiggestProb, o.BiggestTime, o.BiggestProb, o.BiggestMag)
	return o
}

// checkEventGrids ensures the three parallel event grids agree on
// geometry and slot capacity.
func checkEventGrids(changeTime, changeProb, changeMag *Grid3D) error {
	if changeProb.Def != changeTime.Def || changeMag.Def != changeTime.Def {
		return fmt.Errorf("changemap: event grid geometries do not match: time %d×%d, probability %d×%d, magnitude %d×%d",
			changeTime.Def.Ny, changeTime.Def.Nx,
			changeProb.Def.Ny, changeProb.Def.Nx,
			changeMag.Def.Ny, changeMag.Def.Nx)
	}
	if changeProb.Depth != changeTime.Depth || changeMag.Depth != changeTime.Depth {
		return fmt.Errorf("changemap: event grid slot capacities do not match: time %d, probability %d, magnitude %d",
			changeTime.Depth, changeProb.Depth, changeMag.Depth)
	}
	return nil
}
