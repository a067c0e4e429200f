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
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
)

// An Outputter writes summary layers to a shapefile of grid cell
// polygons. Output variables are specified as expressions over the
// summary layer names (see SummaryLayerNames), so that derived display
// layers, such as a probability-masked copy of a summary layer, can be
// layered on top of the persisted values without modifying them.
//
// Functions available in expressions are defined in the
// outputFunctions variable.
type Outputter struct {
	fileName        string
	outputVariables map[string]string
	outputFunctions map[string]govaluate.ExpressionFunction
}

// NewOutputter initializes a new Outputter and adds a set of default
// expression functions. Default functions include:
//
// 'mask(value, probability, cutoff)' which returns value where
// probability is present and at least cutoff, and missing otherwise.
//
// 'abs(x)' which returns the absolute value of x.
//
// 'exp(x)' which applies the exponential function e^x.
//
// If outputVariables is empty, the six summary layers are output
// unchanged.
func NewOutputter(fileName string, outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	defaultOutputFuncs := map[string]govaluate.ExpressionFunction{
		"mask": func(args ...interface{}) (interface{}, error) {
			if len(args) != 3 {
				return nil, fmt.Errorf("changemap: got %d arguments for function 'mask', but needs 3", len(args))
			}
			v, p, cutoff := args[0].(float64), args[1].(float64), args[2].(float64)
			if math.IsNaN(p) || p < cutoff {
				return math.NaN(), nil
			}
			return v, nil
		},
		"abs": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("changemap: got %d arguments for function 'abs', but needs 1", len(args))
			}
			return math.Abs(args[0].(float64)), nil
		},
		"exp": func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("changemap: got %d arguments for function 'exp', but needs 1", len(args))
			}
			return math.Exp(args[0].(float64)), nil
		},
	}
	for key, val := range outputFunctions {
		defaultOutputFuncs[key] = val
	}
	if len(outputVariables) == 0 {
		outputVariables = make(map[string]string)
		for _, name := range SummaryLayerNames {
			outputVariables[name] = name
		}
	}
	if err := checkOutputNames(outputVariables); err != nil {
		return nil, err
	}
	return &Outputter{
		fileName:        fileName,
		outputVariables: outputVariables,
		outputFunctions: defaultOutputFuncs,
	}, nil
}

// Output evaluates the output variable expressions for every pixel of s
// and writes the results to a shapefile of grid cell polygons, together
// with a .prj file holding the grid's spatial reference. Grid cells
// where every output variable is missing are omitted from the file;
// expression evaluation runs in parallel across pixels using nprocs
// workers (0 = all available processors).
func (o *Outputter) Output(s *Summary, nprocs int) error {
	layers := s.Layers()

	vars := make([]string, 0, len(o.outputVariables))
	for v := range o.outputVariables {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	exprs := make([]*govaluate.EvaluableExpression, len(vars))
	needed := make([][]string, len(vars))
	for i, v := range vars {
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(o.outputVariables[v], o.outputFunctions)
		if err != nil {
			return fmt.Errorf("changemap: output variable %s: %v", v, err)
		}
		for _, name := range expression.Vars() {
			if _, ok := layers[name]; !ok {
				return fmt.Errorf("changemap: output variable %s refers to undefined layer '%s'", v, name)
			}
		}
		exprs[i] = expression
		needed[i] = expression.Vars()
	}

	n := s.Def.Cells()
	results := make([][]float64, len(vars))
	for i := range results {
		results[i] = make([]float64, n)
	}
	err := eachPixel(n, nprocs, func(i int) error {
		params := make(map[string]interface{})
		for j, expression := range exprs {
			for _, name := range needed[j] {
				params[name] = layers[name].Data.Elements[i]
			}
			r, err := expression.Evaluate(params)
			if err != nil {
				return fmt.Errorf("changemap: evaluating output variable %s at pixel %d: %v", vars[j], i, err)
			}
			v, ok := r.(float64)
			if !ok {
				return fmt.Errorf("changemap: output variable %s evaluates to %T at pixel %d; needs float64", vars[j], r, i)
			}
			results[j][i] = v
		}
		return nil
	})
	if err != nil {
		return err
	}

	fields := make([]goshp.Field, len(vars))
	for i, v := range vars {
		fields[i] = goshp.FloatField(v, 14, 8)
	}

	// remove extension and replace it with .shp
	fileBase := strings.TrimSuffix(o.fileName, filepath.Ext(o.fileName))
	fileName := fileBase + ".shp"
	shape, err := shp.NewEncoderFromFields(fileName, goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("changemap: creating output shapefile: %v", err)
	}
	for i := 0; i < n; i++ {
		missing := true
		outFields := make([]interface{}, len(vars))
		for j := range vars {
			outFields[j] = results[j][i]
			if !math.IsNaN(results[j][i]) {
				missing = false
			}
		}
		if missing {
			continue
		}
		row, col := i/s.Def.Nx, i%s.Def.Nx
		if err := shape.EncodeFields(s.Def.CellPolygon(row, col), outFields...); err != nil {
			return fmt.Errorf("changemap: writing output shapefile: %v", err)
		}
	}
	shape.Close()

	// Create .prj file
	f, err := os.Create(fileBase + ".prj")
	if err != nil {
		return fmt.Errorf("changemap: creating output prj file: %v", err)
	}
	fmt.Fprint(f, s.Def.Proj)
	return f.Close()
}

// checkOutputNames checks (1) if any output variable names exceed 10
// characters and (2) if any output variable names include characters
// that are unsupported in shapefile field names.
func checkOutputNames(o map[string]string) error {
	for key := range o {
		long := len(key) > 10
		okChars, err := regexp.MatchString("^[A-Za-z]\\w*$", key)
		if err != nil {
			panic(err)
		}
		if long {
			return fmt.Errorf("changemap: output variable name '%s' exceeds 10 characters", key)
		} else if !okChars {
			return fmt.Errorf("changemap: output variable name '%s' includes unsupported characters", key)
		}
	}
	return nil
}
