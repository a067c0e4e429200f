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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// writeNCF writes data to NetCDF variable Var in f.
func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data32)
	return err
}

// readNCF reads NetCDF variable Var from f into a dense array.
func readNCF(f *cdf.File, Var string) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(Var)
	if len(dims) == 0 {
		return nil, fmt.Errorf("changemap: variable %s is not in the file", Var)
	}
	data := sparse.ZerosDense(dims...)
	r := f.Reader(Var, nil, nil)
	buf := r.Zero(len(data.Elements))
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("changemap: reading netcdf variable %s: %v", Var, err)
	}
	switch b := buf.(type) {
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float64:
		copy(data.Elements, b)
	default:
		return nil, fmt.Errorf("changemap: netcdf variable %s has unsupported type %T", Var, buf)
	}
	return data, nil
}

// addGridAttrs records the grid geometry and the data format version as
// global attributes in h.
func addGridAttrs(h *cdf.Header, def GridDef) {
	h.AddAttribute("", "x0", []float64{def.Xo})
	h.AddAttribute("", "y0", []float64{def.Yo})
	h.AddAttribute("", "dx", []float64{def.Dx})
	h.AddAttribute("", "dy", []float64{def.Dy})
	h.AddAttribute("", "nx", []int32{int32(def.Nx)})
	h.AddAttribute("", "ny", []int32{int32(def.Ny)})
	h.AddAttribute("", "proj", def.Proj)
	h.AddAttribute("", "data_version", DataVersion)
}

// gridAttrs reads the grid geometry recorded by addGridAttrs and checks
// the data format version.
func gridAttrs(f *cdf.File) (GridDef, error) {
	var def GridDef
	dataVersion := f.Header.GetAttribute("", "data_version").(string)
	if dataVersion != DataVersion {
		return def, fmt.Errorf("changemap: file data version %s is incompatible with the required version %s",
			dataVersion, DataVersion)
	}
	def.Xo = f.Header.GetAttribute("", "x0").([]float64)[0]
	def.Yo = f.Header.GetAttribute("", "y0").([]float64)[0]
	def.Dx = f.Header.GetAttribute("", "dx").([]float64)[0]
	def.Dy = f.Header.GetAttribute("", "dy").([]float64)[0]
	def.Nx = int(f.Header.GetAttribute("", "nx").([]int32)[0])
	def.Ny = int(f.Header.GetAttribute("", "ny").([]int32)[0])
	def.Proj = f.Header.GetAttribute("", "proj").(string)
	return def, nil
}

// Write writes the six summary layers to NetCDF file w together with
// the grid geometry, so that the output rasters match the source raster
// exactly. Missing cells are stored as NaN.
func (s *Summary) Write(w *os.File) error {
	h := cdf.NewHeader([]string{"x", "y"}, []int{s.Def.Nx, s.Def.Ny})
	h.AddAttribute("", "comment", "ChangeMap change summary layers")
	addGridAttrs(h, s.Def)
	for _, name := range SummaryLayerNames {
		h.AddVariable(name, []string{"y", "x"}, []float32{0})
		h.AddAttribute(name, "description", summaryLayerInfo[name].description)
		h.AddAttribute(name, "units", summaryLayerInfo[name].units)
	}
	h.Define()
	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	layers := s.Layers()
	for _, name := range SummaryLayerNames {
		if err := writeNCF(f, name, layers[name].Data); err != nil {
			return fmt.Errorf("changemap: writing summary layer %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// ReadSummary reads summary layers written by Summary.Write.
func ReadSummary(rw cdf.ReaderWriterAt) (*Summary, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("changemap.ReadSummary: %v", err)
	}
	def, err := gridAttrs(f)
	if err != nil {
		return nil, err
	}
	o := &Summary{Def: def}
	for name, dst := range map[string]**Grid2D{
		"recent_yr":  &o.RecentTime,
		"recent_pr":  &o.RecentProb,
		"recent_mg":  &o.RecentMag,
		"biggest_yr": &o.BiggestTime,
		"biggest_pr": &o.BiggestProb,
		"biggest_mg": &o.BiggestMag,
	} {
		data, err := readNCF(f, name)
		if err != nil {
			return nil, err
		}
		if len(data.Shape) != 2 || data.Shape[0] != def.Ny || data.Shape[1] != def.Nx {
			return nil, ShapeMismatchError{WantRows: def.Ny, WantCols: def.Nx, Have: len(data.Elements)}
		}
		*dst = &Grid2D{Def: def, Data: data}
	}
	return o, nil
}
