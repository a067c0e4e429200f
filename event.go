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

import "math"

// Value is a scalar measurement that may be missing. The zero Value is
// missing. Modeling missing data with an explicit tag rather than a
// sentinel number keeps "NA-like" numbers from being mistaken for real
// data; NaN is used only at the array and file boundaries.
type Value struct {
	Float64 float64
	Valid   bool
}

// value converts f to a Value, treating NaN as missing.
func value(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Float64: f, Valid: true}
}

// orNaN returns the contained number, or NaN if v is missing.
func (v Value) orNaN() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// ChangeEvent is one candidate abrupt change detected in a pixel's time
// series by the external decomposition step.
type ChangeEvent struct {
	Time        Value // [fractional year]
	Probability Value // detection probability [0,1]
	Magnitude   Value // signed change magnitude [signal units]
}

// PixelEvents is the fixed-capacity list of candidate change events for
// one pixel. Slots beyond the number of detected events are missing in
// all fields. Slot order reflects the decomposition algorithm's internal
// ordering and carries no meaning beyond index identity; in particular
// it is not temporal.
type PixelEvents []ChangeEvent

// PixelSummary holds the two per-pixel selections made by Summarize.
// Either event is entirely missing if no slot had the corresponding
// selection key present.
type PixelSummary struct {
	Recent  ChangeEvent // the slot with the latest present time
	Biggest ChangeEvent // the slot with the highest present probability
}

// Summarize selects the most recent and the most probable change event
// from ev. The two selections are independent and may or may not
// reference the same slot. When several slots tie exactly on a selection
// key, the lowest slot index wins, so the result is deterministic no
// matter how pixels are distributed across workers.
// Summarize is a pure function and is safe for concurrent use.
func (ev PixelEvents) Summarize() PixelSummary {
	var o PixelSummary
	iRecent, iBiggest := -1, -1
	for i, e := range ev {
		if e.Time.Valid && (iRecent < 0 || e.Time.Float64 > ev[iRecent].Time.Float64) {
			iRecent = i
		}
		if e.Probability.Valid && (iBiggest < 0 || e.Probability.Float64 > ev[iBiggest].Probability.Float64) {
			iBiggest = i
		}
	}
	if iRecent >= 0 {
		o.Recent = ev[iRecent]
	}
	if iBiggest >= 0 {
		o.Biggest = ev[iBiggest]
	}
	return o
}

// Filter returns the events in ev whose detection probability is present
// and at least pmin. Slots with missing or below-cutoff probability are
// dropped entirely, not retained with nulled fields.
func (ev PixelEvents) Filter(pmin float64) PixelEvents {
	var o PixelEvents
	for _, e := range ev {
		if e.Probability.Valid && e.Probability.Float64 >= pmin {
			o = append(o, e)
		}
	}
	return o
}

// EventsAt assembles the candidate event list for the pixel with
// row-major index i from three parallel event grids, which must share
// geometry and depth.
func EventsAt(changeTime, changeProb, changeMag *Grid3D, i int) PixelEvents {
	k := changeTime.Depth
	t, p, m := changeTime.pixel(i), changeProb.pixel(i), changeMag.pixel(i)
	ev := make(PixelEvents, k)
	for s := 0; s < k; s++ {
		ev[s] = ChangeEvent{
			Time:        value(t[s]),
			Probability: value(p[s]),
			Magnitude:   value(m[s]),
		}
	}
	return ev
}
