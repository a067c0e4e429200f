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
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/floats"
)

// ChangeEventRecord is one row of the filtered change event table: one
// retained event for one query point. Time or magnitude may be missing
// even for a retained event; the detection probability is always
// present, since events with missing probability are dropped by the
// threshold filter.
type ChangeEventRecord struct {
	Label       string
	Time        Value
	Probability float64
	Magnitude   Value
}

// SeriesRecord is one row of the reconstructed series table: the trend
// and seasonal components of one query point at one time step.
// Reconstructed is Trend + Season and is missing when either component
// is missing.
type SeriesRecord struct {
	Label         string
	Time          float64
	Trend         Value
	Season        Value
	Reconstructed Value
}

// EventRecords returns the change events for the given resolved query
// points whose detection probability is at least pmin, keyed by point
// label. Events with missing or below-cutoff probability are dropped.
func (d *Decomposition) EventRecords(points []ResolvedPoint, pmin float64) []ChangeEventRecord {
	var o []ChangeEventRecord
	for _, p := range points {
		for _, e := range d.Events(p.Row, p.Col).Filter(pmin) {
			o = append(o, ChangeEventRecord{
				Label:       p.Label,
				Time:        e.Time,
				Probability: e.Probability.Float64,
				Magnitude:   e.Magnitude,
			})
		}
	}
	return o
}

// SeriesRecords returns the reconstructed trend and seasonal series for
// the given resolved query points at every time step. The probability
// threshold never applies here: filtering is for discrete change
// events only, not for the continuous reconstructed series.
func (d *Decomposition) SeriesRecords(points []ResolvedPoint) []SeriesRecord {
	o := make([]SeriesRecord, 0, len(points)*len(d.Times))
	for _, p := range points {
		i := p.Row*d.Def.Nx + p.Col
		trend := d.Trend.pixel(i)
		season := d.Season.pixel(i)
		// NaN propagates through the addition, so a missing component
		// yields a missing reconstructed value.
		recon := make([]float64, len(trend))
		copy(recon, trend)
		floats.Add(recon, season)
		for t, tm := range d.Times {
			o = append(o, SeriesRecord{
				Label:         p.Label,
				Time:          tm,
				Trend:         value(trend[t]),
				Season:        value(season[t]),
				Reconstructed: value(recon[t]),
			})
		}
	}
	return o
}

var eventTableHeader = []string{"label", "time", "probability", "magnitude"}
var seriesTableHeader = []string{"label", "time", "trend", "season", "reconstructed"}

// WriteEventCSV writes the change event table to w in CSV form. Missing
// fields are written as empty strings.
func WriteEventCSV(w io.Writer, recs []ChangeEventRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(eventTableHeader); err != nil {
		return err
	}
	for _, r := range recs {
		err := cw.Write([]string{
			r.Label,
			formatValue(r.Time),
			formatFloat(r.Probability),
			formatValue(r.Magnitude),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeriesCSV writes the reconstructed series table to w in CSV
// form. Missing fields are written as empty strings.
func WriteSeriesCSV(w io.Writer, recs []SeriesRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seriesTableHeader); err != nil {
		return err
	}
	for _, r := range recs {
		err := cw.Write([]string{
			r.Label,
			formatFloat(r.Time),
			formatValue(r.Trend),
			formatValue(r.Season),
			formatValue(r.Reconstructed),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEventXLSX writes the change event table to a spreadsheet file at
// path.
func WriteEventXLSX(path string, recs []ChangeEventRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("changes")
	if err != nil {
		return err
	}
	addHeaderRow(sheet, eventTableHeader)
	for _, r := range recs {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Label)
		setCellValue(row, r.Time)
		row.AddCell().SetFloat(r.Probability)
		setCellValue(row, r.Magnitude)
	}
	return f.Save(path)
}

// WriteSeriesXLSX writes the reconstructed series table to a
// spreadsheet file at path.
func WriteSeriesXLSX(path string, recs []SeriesRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("series")
	if err != nil {
		return err
	}
	addHeaderRow(sheet, seriesTableHeader)
	for _, r := range recs {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Label)
		row.AddCell().SetFloat(r.Time)
		setCellValue(row, r.Trend)
		setCellValue(row, r.Season)
		setCellValue(row, r.Reconstructed)
	}
	return f.Save(path)
}

func addHeaderRow(sheet *xlsx.Sheet, names []string) {
	row := sheet.AddRow()
	for _, name := range names {
		row.AddCell().SetString(name)
	}
}

func setCellValue(row *xlsx.Row, v Value) {
	cell := row.AddCell()
	if v.Valid {
		cell.SetFloat(v.Float64)
	} else {
		cell.SetString("")
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatValue(v Value) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}
