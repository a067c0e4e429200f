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
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/changemap"
)

func TestCheckOutputVarsDefaults(t *testing.T) {
	vars := checkOutputVars(nil, 0.5)
	want := map[string]string{
		"recent_yr":  "mask(recent_yr, recent_pr, 0.5)",
		"recent_pr":  "mask(recent_pr, recent_pr, 0.5)",
		"recent_mg":  "mask(recent_mg, recent_pr, 0.5)",
		"biggest_yr": "mask(biggest_yr, biggest_pr, 0.5)",
		"biggest_pr": "mask(biggest_pr, biggest_pr, 0.5)",
		"biggest_mg": "mask(biggest_mg, biggest_pr, 0.5)",
	}
	if !reflect.DeepEqual(vars, want) {
		t.Errorf("have %v, want %v", vars, want)
	}
}

func TestCheckOutputVarsExplicit(t *testing.T) {
	vars := checkOutputVars(map[string]string{
		"rec_yr": "recent_yr +\n1",
	}, 0.5)
	if vars["rec_yr"] != "recent_yr + 1" {
		t.Errorf("have %q, want newline replaced with space", vars["rec_yr"])
	}
}

func TestQueryPoints(t *testing.T) {
	pts, err := queryPoints(map[string]string{
		"station2": "2.5 -1.25",
		"station1": "-93.1 44.9",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []changemap.QueryPoint{
		{Point: geom.Point{X: -93.1, Y: 44.9}, Label: "station1"},
		{Point: geom.Point{X: 2.5, Y: -1.25}, Label: "station2"},
	}
	if !reflect.DeepEqual(pts, want) {
		t.Errorf("have %+v, want %+v", pts, want)
	}
}

func TestQueryPointsMalformed(t *testing.T) {
	for _, xy := range []string{"", "1", "1 2 3", "a b"} {
		if _, err := queryPoints(map[string]string{"p": xy}); err == nil {
			t.Errorf("%q: want error, have nil", xy)
		}
	}
}

func TestCheckLogFile(t *testing.T) {
	if have := checkLogFile("", "out/result.shp"); have != "out/result.log" {
		t.Errorf("have %q, want 'out/result.log'", have)
	}
	if have := checkLogFile("my.log", "out/result.shp"); have != "my.log" {
		t.Errorf("have %q, want 'my.log'", have)
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("empty output file: want error, have nil")
	}
	if _, err := checkOutputFile("/no/such/directory/out.shp"); err == nil {
		t.Error("missing output directory: want error, have nil")
	}
}

func TestGetStringMapString(t *testing.T) {
	cfg := Cfg
	cfg.Set("testMap", `{"a": "b"}`)
	have := GetStringMapString("testMap", cfg)
	want := map[string]string{"a": "b"}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}
