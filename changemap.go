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

// Package changemap summarizes the output of a per-pixel trend/seasonal
// time-series decomposition over a raster grid. Each pixel carries a
// fixed-capacity list of candidate change events (time, detection
// probability, magnitude); this package turns those lists into
// whole-grid "most recent change" and "most probable change" summary
// layers and into filtered tabular exports of events and reconstructed
// trend+season series for caller-specified query locations.
//
// The decomposition algorithm itself is an external collaborator; see
// the Decomposer interface.
package changemap

// Version gives the version number.
const Version = "0.3.1"

// DataVersion is the version of the data format expected by this version
// of the program. It is stored as an attribute in decomposition and
// summary files and checked on load.
const DataVersion = "1.1.0"
