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

package changemaputil

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/changemap"
)

// readDecomposition reads the decomposition file at path.
func readDecomposition(path string) (*changemap.Decomposition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("changemap: opening decomposition file: %v", err)
	}
	defer f.Close()
	return changemap.ReadDecomposition(f)
}

// Summarize condenses the decomposition at decompositionFile into
// summary layers and writes them as a NetCDF raster file (rasterFile;
// skipped if empty) and a shapefile of grid cell polygons (outputFile).
// The raster file always holds the unfiltered summary; the shapefile
// layers are computed from outputVars, which may mask or otherwise
// transform the summary layers for display.
func Summarize(decompositionFile, logFile, outputFile, rasterFile string, outputVars map[string]string, nprocs int) error {
	logger, err := newLogger(logFile)
	if err != nil {
		return err
	}

	logger.WithField("file", decompositionFile).Info("reading decomposition")
	d, err := readDecomposition(decompositionFile)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"rows":     d.Def.Ny,
		"cols":     d.Def.Nx,
		"segments": d.K(),
		"steps":    len(d.Times),
	}).Info("summarizing change events")

	s, err := d.Summarize(nprocs)
	if err != nil {
		return err
	}
	logLayerStats(logger, s)

	if rasterFile != "" {
		w, err := os.Create(rasterFile)
		if err != nil {
			return fmt.Errorf("changemap: creating raster file: %v", err)
		}
		if err := s.Write(w); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		logger.WithField("file", rasterFile).Info("wrote summary raster")
	}

	o, err := changemap.NewOutputter(outputFile, outputVars, nil)
	if err != nil {
		return err
	}
	if err := o.Output(s, nprocs); err != nil {
		return err
	}
	logger.WithField("file", outputFile).Info("wrote output shapefile")
	return nil
}

// logLayerStats logs summary statistics over the non-missing cells of
// every summary layer.
func logLayerStats(logger *logrus.Logger, s *changemap.Summary) {
	layers := s.Layers()
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var st stats.Stats
		for _, v := range layers[name].Data.Elements {
			if !math.IsNaN(v) {
				st.Update(v)
			}
		}
		if st.Count() == 0 {
			logger.WithField("layer", name).Info("layer has no change events")
			continue
		}
		logger.WithFields(logrus.Fields{
			"layer": name,
			"cells": st.Count(),
			"min":   st.Min(),
			"max":   st.Max(),
			"mean":  st.Mean(),
		}).Info("layer statistics")
	}
}
