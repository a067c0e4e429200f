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
	"os"

	"github.com/ctessum/cdf"
)

// DecompositionConfig holds the settings passed through to the external
// trend/seasonal decomposition step.
type DecompositionConfig struct {
	// Irregular indicates that observations are not evenly spaced in
	// time and should be aggregated onto a regular axis before
	// decomposition.
	Irregular bool

	// AggregationInterval is the time step that irregular observations
	// are aggregated to [fraction of a year]. It is ignored when
	// Irregular is false.
	AggregationInterval float64

	// SeasonalPeriod is the period of the seasonal component
	// [fraction of a year].
	SeasonalPeriod float64

	// MaxMissing is the highest tolerated fraction of missing
	// observations per pixel [0,1]; pixels above it are reported
	// entirely missing.
	MaxMissing float64

	// These select which derived quantities the decomposition computes.
	ComputeTrendSlope      bool
	ComputeSeasonAmplitude bool
	TrendChangepoints      bool
	SeasonChangepoints     bool
}

// Check returns an error if the configuration is invalid.
func (c DecompositionConfig) Check() error {
	if c.MaxMissing < 0 || c.MaxMissing > 1 {
		return fmt.Errorf("changemap: MaxMissing is %g but must be within [0,1]", c.MaxMissing)
	}
	if c.SeasonalPeriod <= 0 {
		return fmt.Errorf("changemap: SeasonalPeriod is %g but must be positive", c.SeasonalPeriod)
	}
	if c.Irregular && c.AggregationInterval <= 0 {
		return fmt.Errorf("changemap: AggregationInterval is %g but must be positive for irregular sampling", c.AggregationInterval)
	}
	return nil
}

// A Decomposer models a 3-D signal array as per-pixel trend plus
// seasonal components and reports up to K candidate abrupt changes per
// pixel. Implementations are external collaborators and are consumed
// as black boxes; this package only defines the contract.
type Decomposer interface {
	// Decompose decomposes signal, whose depth dimension holds one
	// value per observation time, given the observation times
	// [fractional year].
	Decompose(signal *Grid3D, times []float64, c DecompositionConfig) (*Decomposition, error)
}

// Decomposition is the per-pixel output of the external decomposition
// step: reconstructed trend and seasonal series plus three parallel
// event grids. A negative or positive change direction is carried as
// the sign of the magnitude.
type Decomposition struct {
	Def GridDef

	// Times holds the observation timestamps [fractional year];
	// its length is the depth of Trend and Season.
	Times []float64

	Trend, Season *Grid3D // [Ny, Nx, T]

	ChangeTime, ChangeProb, ChangeMag *Grid3D // [Ny, Nx, K]
}

// K returns the per-pixel event slot capacity.
func (d *Decomposition) K() int { return d.ChangeTime.Depth }

// Check verifies that the constituent grids agree with each other and
// with the declared geometry.
func (d *Decomposition) Check() error {
	if err := checkEventGrids(d.ChangeTime, d.ChangeProb, d.ChangeMag); err != nil {
		return err
	}
	if d.ChangeTime.Def != d.Def {
		return fmt.Errorf("changemap: event grid geometry %d×%d does not match the declared geometry %d×%d",
			d.ChangeTime.Def.Ny, d.ChangeTime.Def.Nx, d.Def.Ny, d.Def.Nx)
	}
	if d.Trend.Def != d.Def || d.Season.Def != d.Def {
		return fmt.Errorf("changemap: series grid geometries (%d×%d, %d×%d) do not match the declared geometry %d×%d",
			d.Trend.Def.Ny, d.Trend.Def.Nx, d.Season.Def.Ny, d.Season.Def.Nx, d.Def.Ny, d.Def.Nx)
	}
	if d.Trend.Depth != len(d.Times) || d.Season.Depth != len(d.Times) {
		return fmt.Errorf("changemap: series grids have %d and %d time steps but %d observation times were given",
			d.Trend.Depth, d.Season.Depth, len(d.Times))
	}
	return nil
}

// Events returns the candidate event list for the pixel at the given
// row and column.
func (d *Decomposition) Events(row, col int) PixelEvents {
	return EventsAt(d.ChangeTime, d.ChangeProb, d.ChangeMag, row*d.Def.Nx+col)
}

// Summarize runs change selection over the whole grid using nprocs
// workers (0 = all available processors).
func (d *Decomposition) Summarize(nprocs int) (*Summary, error) {
	if err := d.Check(); err != nil {
		return nil, err
	}
	return SummarizeGrids(d.ChangeTime, d.ChangeProb, d.ChangeMag, nprocs)
}

// IndexGrids creates the auxiliary row and column index grids used for
// coordinate lookup. A pixel whose trend series is entirely missing
// gets missing index values, so query points falling on it resolve to
// "not found" rather than to stale data.
func (d *Decomposition) IndexGrids() (rowIndex, colIndex *Grid2D) {
	rowIndex = NewGrid2D(d.Def)
	colIndex = NewGrid2D(d.Def)
	for i := 0; i < d.Def.Cells(); i++ {
		present := false
		for _, v := range d.Trend.pixel(i) {
			if !math.IsNaN(v) {
				present = true
				break
			}
		}
		if !present {
			continue
		}
		rowIndex.Data.Elements[i] = float64(i / d.Def.Nx)
		colIndex.Data.Elements[i] = float64(i % d.Def.Nx)
	}
	return rowIndex, colIndex
}

// Write writes d to NetCDF file w. Missing values are stored as NaN.
func (d *Decomposition) Write(w *os.File) error {
	if err := d.Check(); err != nil {
		return err
	}
	h := cdf.NewHeader(
		[]string{"x", "y", "k", "t"},
		[]int{d.Def.Nx, d.Def.Ny, d.K(), len(d.Times)})
	h.AddAttribute("", "comment", "ChangeMap trend/seasonal decomposition data file")
	addGridAttrs(h, d.Def)

	h.AddVariable("time", []string{"t"}, []float64{0})
	h.AddAttribute("time", "description", "observation times")
	h.AddAttribute("time", "units", "fractional year")
	for _, v := range []struct {
		name, description, units string
		dims                     []string
	}{
		{"trend", "reconstructed trend component", "signal units", []string{"y", "x", "t"}},
		{"season", "reconstructed seasonal component", "signal units", []string{"y", "x", "t"}},
		{"change_time", "candidate change event times", "fractional year", []string{"y", "x", "k"}},
		{"change_prob", "candidate change event detection probabilities", "fraction", []string{"y", "x", "k"}},
		{"change_mag", "candidate change event magnitudes", "signal units", []string{"y", "x", "k"}},
	} {
		h.AddVariable(v.name, v.dims, []float32{0})
		h.AddAttribute(v.name, "description", v.description)
		h.AddAttribute(v.name, "units", v.units)
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	tw := f.Writer("time", []int{0}, []int{len(d.Times)})
	if _, err := tw.Write(d.Times); err != nil {
		return fmt.Errorf("changemap: writing observation times to netcdf file: %v", err)
	}
	for name, g := range map[string]*Grid3D{
		"trend":       d.Trend,
		"season":      d.Season,
		"change_time": d.ChangeTime,
		"change_prob": d.ChangeProb,
		"change_mag":  d.ChangeMag,
	} {
		if err := writeNCF(f, name, g.Data); err != nil {
			return fmt.Errorf("changemap: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// ReadDecomposition reads a decomposition data file written by
// Decomposition.Write.
func ReadDecomposition(rw cdf.ReaderWriterAt) (*Decomposition, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("changemap.ReadDecomposition: %v", err)
	}
	def, err := gridAttrs(f)
	if err != nil {
		return nil, err
	}
	o := &Decomposition{Def: def}

	times, err := readNCF(f, "time")
	if err != nil {
		return nil, err
	}
	o.Times = times.Elements

	for name, dst := range map[string]**Grid3D{
		"trend":       &o.Trend,
		"season":      &o.Season,
		"change_time": &o.ChangeTime,
		"change_prob": &o.ChangeProb,
		"change_mag":  &o.ChangeMag,
	} {
		data, err := readNCF(f, name)
		if err != nil {
			return nil, err
		}
		g, err := Grid3DFrom(def, data)
		if err != nil {
			return nil, fmt.Errorf("changemap.ReadDecomposition: variable %s: %v", name, err)
		}
		*dst = g
	}
	if err := o.Check(); err != nil {
		return nil, err
	}
	return o, nil
}
