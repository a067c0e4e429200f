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
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/changemap"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to ChangeMap.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "DecompositionFile",
			usage: `
              DecompositionFile is the path to the NetCDF file holding the
              decomposition output: the trend and seasonal components plus the
              per-segment change time, probability, and magnitude rasters.
              The path can be a local file, an http(s) URL, or a blob storage
              location ('gs://', 's3://', or 'file://'), and can include
              environment variables.`,
			defaultVal: "decomposition.nc",
			flagsets:   []*pflag.FlagSet{summarizeCmd.Flags(), drillCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output shapefile location.
              It can include environment variables.`,
			defaultVal: "changemap_output.shp",
			flagsets:   []*pflag.FlagSet{summarizeCmd.Flags()},
		},
		{
			name: "RasterFile",
			usage: `
              RasterFile is the path where the summary raster NetCDF file
              should be written. The summary raster holds the unfiltered
              change summary on the same grid as the input raster. If
              RasterFile is left blank, no raster file is written.`,
			defaultVal: "changemap_summary.nc",
			flagsets:   []*pflag.FlagSet{summarizeCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can
              include environment variables. If LogFile is left blank, the
              logfile will be saved in the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{summarizeCmd.Flags(), drillCmd.Flags()},
		},
		{
			name: "ProbabilityThreshold",
			usage: `
              ProbabilityThreshold is the minimum detection probability for a
              change event to be shown. Events with missing or lower
              probability are masked in the default display layers and
              dropped from the change event table. The persisted summary
              raster is never filtered.`,
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{summarizeCmd.Flags(), drillCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies which summary layers should be
              included in the output shapefile, as expressions over the layer
              names. If empty, all six summary layers are output with change
              events below ProbabilityThreshold masked out.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{summarizeCmd.Flags()},
		},
		{
			name: "NumProcessors",
			usage: `
              NumProcessors is the number of parallel workers to use for
              per-pixel calculations. If < 1, all available processors are
              used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{summarizeCmd.Flags()},
		},
		{
			name: "QueryPoints",
			usage: `
              QueryPoints gives the locations to extract tables for, as a
              mapping from a point label to 'x y' coordinates, for example
              {"station1": "-93.1 44.9"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{drillCmd.Flags()},
		},
		{
			name: "QueryProj",
			usage: `
              QueryProj gives the spatial projection of the query point
              coordinates in Proj4 format. If it is left blank, the
              coordinates are assumed to already be in the raster grid
              projection.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{drillCmd.Flags()},
		},
		{
			name: "TableFile",
			usage: `
              TableFile is the path where the extracted table should be
              written. Files ending in '.xlsx' are written as spreadsheets;
              anything else is written as CSV.`,
			defaultVal: "changemap_events.csv",
			flagsets:   []*pflag.FlagSet{drillCmd.Flags()},
		},
		{
			name: "table",
			usage: `
              table specifies which table the drill command extracts: 'events'
              for the filtered change event table or 'series' for the
              reconstructed trend and seasonal series.`,
			shorthand:  "t",
			defaultVal: "events",
			flagsets:   []*pflag.FlagSet{drillCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CHANGEMAP")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(summarizeCmd)
	Root.AddCommand(drillCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			fmt.Printf(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("changemap: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "changemap",
	Short: "Summarize raster change detection output.",
	Long: `ChangeMap condenses per-segment raster change detection output into
map-ready summary layers and point tables. Use the subcommands specified
below to access the functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'CHANGEMAP_var' where 'var' is the name of the variable to be set. Many
configuration variables are additionally allowed to contain environment
variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of ChangeMap.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("ChangeMap v%s\n", changemap.Version)
	},
	DisableAutoGenTag: true,
}

// summarizeCmd condenses a decomposition into summary layers.
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Condense change events into summary layers.",
	Long: `summarize reads a decomposition file, selects the most recent and
highest-probability change event for every pixel, and writes the result as
a summary raster file and a shapefile of grid cell polygons. The raster
file always holds the unfiltered summary; layers in the shapefile are
masked according to ProbabilityThreshold unless OutputVariables overrides
them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()

		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		outputVars := checkOutputVars(
			GetStringMapString("OutputVariables", Cfg),
			Cfg.GetFloat64("ProbabilityThreshold"),
		)
		return Summarize(
			maybeDownload(context.TODO(), os.ExpandEnv(Cfg.GetString("DecompositionFile")), outChan),
			checkLogFile(Cfg.GetString("LogFile"), outputFile),
			outputFile,
			os.ExpandEnv(Cfg.GetString("RasterFile")),
			outputVars,
			Cfg.GetInt("NumProcessors"),
		)
	},
	DisableAutoGenTag: true,
}

// drillCmd extracts point tables from a decomposition.
var drillCmd = &cobra.Command{
	Use:   "drill",
	Short: "Extract tables for query points.",
	Long: `drill locates the given query points in the raster grid and writes a
table for them. With --table=events it writes the change events whose
detection probability is at least ProbabilityThreshold; with
--table=series it writes the reconstructed trend and seasonal series at
every time step. Points that fall outside the grid or on cells without
data are reported and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outChan := outChan()

		tableFile, err := checkOutputFile(Cfg.GetString("TableFile"))
		if err != nil {
			return err
		}
		points, err := queryPoints(GetStringMapString("QueryPoints", Cfg))
		if err != nil {
			return err
		}
		return Drill(
			maybeDownload(context.TODO(), os.ExpandEnv(Cfg.GetString("DecompositionFile")), outChan),
			checkLogFile(Cfg.GetString("LogFile"), tableFile),
			tableFile,
			Cfg.GetString("table"),
			points,
			os.ExpandEnv(Cfg.GetString("QueryProj")),
			Cfg.GetFloat64("ProbabilityThreshold"),
		)
	},
	DisableAutoGenTag: true,
}
