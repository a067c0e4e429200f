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
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/changemap"
)

// Drill locates the given query points in the grid of the decomposition
// at decompositionFile and writes a table for them to tableFile. The
// table argument selects what is written: "events" for the change
// events with detection probability of at least pmin, or "series" for
// the reconstructed trend and seasonal series. pointsProj, if not
// empty, gives the projection of the query point coordinates. Files
// ending in ".xlsx" are written as spreadsheets; anything else as CSV.
func Drill(decompositionFile, logFile, tableFile, table string, points []changemap.QueryPoint, pointsProj string, pmin float64) error {
	logger, err := newLogger(logFile)
	if err != nil {
		return err
	}
	if table != "events" && table != "series" {
		return fmt.Errorf("changemap: table must be 'events' or 'series' but is %q", table)
	}
	if len(points) == 0 {
		return fmt.Errorf("changemap: no query points specified; fill in the QueryPoints configuration and try again")
	}

	logger.WithField("file", decompositionFile).Info("reading decomposition")
	d, err := readDecomposition(decompositionFile)
	if err != nil {
		return err
	}

	rowIndex, colIndex := d.IndexGrids()
	loc, err := changemap.NewLocator(d.Def, rowIndex, colIndex)
	if err != nil {
		return err
	}
	resolved, failures, err := loc.Resolve(points, pointsProj)
	if err != nil {
		return err
	}
	for _, f := range failures {
		logger.WithFields(logrus.Fields{
			"point":  f.Label,
			"reason": f.Reason,
		}).Warn("skipping query point")
	}
	logger.WithFields(logrus.Fields{
		"resolved": len(resolved),
		"skipped":  len(failures),
	}).Info("located query points")

	xlsx := strings.ToLower(filepath.Ext(tableFile)) == ".xlsx"
	switch table {
	case "events":
		recs := d.EventRecords(resolved, pmin)
		logger.WithFields(logrus.Fields{
			"rows":   len(recs),
			"cutoff": pmin,
		}).Info("extracted change events")
		if xlsx {
			err = changemap.WriteEventXLSX(tableFile, recs)
		} else {
			err = writeCSVFile(tableFile, func(w *os.File) error {
				return changemap.WriteEventCSV(w, recs)
			})
		}
	case "series":
		recs := d.SeriesRecords(resolved)
		logger.WithField("rows", len(recs)).Info("extracted reconstructed series")
		if xlsx {
			err = changemap.WriteSeriesXLSX(tableFile, recs)
		} else {
			err = writeCSVFile(tableFile, func(w *os.File) error {
				return changemap.WriteSeriesCSV(w, recs)
			})
		}
	}
	if err != nil {
		return err
	}
	logger.WithField("file", tableFile).Info("wrote table")
	return nil
}

func writeCSVFile(path string, write func(*os.File) error) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("changemap: creating table file: %v", err)
	}
	if err := write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
