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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/changemap"
	"github.com/spf13/cast"
)

// newLogger returns a logger that writes to standard error and, if
// logFile is not empty, to logFile as well.
func newLogger(logFile string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return nil, fmt.Errorf("changemap: creating log file: %v", err)
		}
		logger.Out = io.MultiWriter(os.Stderr, f)
	}
	return logger, nil
}

// checkOutputVars fills in default display layers if none are
// specified, and removes end lines and expands environment variables
// otherwise. The default display layers are the six summary layers with
// change events below pmin masked out.
func checkOutputVars(vars map[string]string, pmin float64) map[string]string {
	if len(vars) == 0 {
		vars = make(map[string]string)
		for _, name := range changemap.SummaryLayerNames {
			prob := "recent_pr"
			if strings.HasPrefix(name, "biggest") {
				prob = "biggest_pr"
			}
			vars[name] = fmt.Sprintf("mask(%s, %s, %g)", name, prob, pmin)
		}
		return vars
	}
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		vars[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return vars
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.shp")`)
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		url, err := url.Parse(f)
		if err != nil {
			return f, err
		}
		_, err = OpenBucket(context.TODO(), url.Scheme+"://"+url.Host)
		if err != nil {
			return f, fmt.Errorf("changemap: error when checking output file location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("changemap: the output file directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one
// isn't specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return logFile
}

// queryPoints parses a label → "x y" mapping into query points, sorted
// by label so that table rows come out in a stable order.
func queryPoints(pts map[string]string) ([]changemap.QueryPoint, error) {
	labels := make([]string, 0, len(pts))
	for label := range pts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	o := make([]changemap.QueryPoint, 0, len(pts))
	for _, label := range labels {
		fields := strings.Fields(os.ExpandEnv(pts[label]))
		if len(fields) != 2 {
			return nil, fmt.Errorf("changemap: query point %s: want 'x y' but have %q", label, pts[label])
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("changemap: query point %s: %v", label, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("changemap: query point %s: %v", label, err)
		}
		o = append(o, changemap.QueryPoint{
			Point: geom.Point{X: x, Y: y},
			Label: os.ExpandEnv(label),
		})
	}
	return o, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(err)
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for GetStringMapString variable %s: %#v", varName, i))
	}
}
