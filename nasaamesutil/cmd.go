/*
Copyright © 2020 the InMAP authors.
This file is part of nasaames.

nasaames is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

nasaames is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with nasaames.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package nasaamesutil holds the command-line interface of the nc2na
// tool: converting netCDF time series files to NASA Ames FFI 1001, and
// inspecting or validating existing FFI 1001 files.
package nasaamesutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/nasaames"
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
	// Options are the configuration options available to nc2na.
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
			name: "sep",
			usage: `
              sep is the general delimiter used between values on header lines.`,
			defaultVal: " ",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "sep_data",
			usage: `
              sep_data is the delimiter used between columns in the data block.`,
			defaultVal: "\t",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "output_dir",
			usage: `
              output_dir specifies the directory converted files are written to.
              If empty, each output file is written next to its input file.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "overwrite",
			usage: `
              overwrite specifies whether existing destination files may be
              replaced.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "NetCDF.TimeVar",
			usage: `
              NetCDF.TimeVar is the name of the time coordinate in the input
              files. It must exist as both a variable and a dimension.`,
			defaultVal: "time",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "NetCDF.XNAME",
			usage: `
              NetCDF.XNAME is the independent-variable description written to
              the output header.`,
			defaultVal: "seconds after midnight on DATE",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "NetCDF.VMISS",
			usage: `
              NetCDF.VMISS is the missing-value sentinel written for every
              variable and substituted for netCDF fill values.`,
			defaultVal: "nan",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "NetCDF.VariableScales",
			usage: `
              NetCDF.VariableScales maps variable names to the scale factor
              written for them instead of the default 1.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "strip_lines",
			usage: `
              strip_lines removes surrounding whitespace from every line before
              parsing.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "auto_nncoml",
			usage: `
              auto_nncoml derives the normal comment count from NLHEAD instead
              of trusting the count line.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "rmv_repeated_seps",
			usage: `
              rmv_repeated_seps collapses repeated delimiters (e.g. double
              spaces) before parsing.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "vscal_vmiss_vertical",
			usage: `
              vscal_vmiss_vertical expects the scale factor and missing value
              blocks arranged vertically, one value per line.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "vmiss_to_absent",
			usage: `
              vmiss_to_absent replaces data values equal to their variable's
              missing-value sentinel with an explicit absent marker.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "ensure_ascii",
			usage: `
              ensure_ascii requires pure ASCII input. If false, a small list of
              fallback encodings is tried.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "allow_empty_data",
			usage: `
              allow_empty_data tolerates header-only input files.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), checkCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("NC2NA")

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
	Root.AddCommand(convertCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(checkCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for {
			msg := <-outChan
			fmt.Println(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("nc2na: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "nc2na",
	Short: "NASA Ames FFI 1001 tools.",
	Long: `nc2na converts netCDF time series files to the NASA Ames FFI 1001
text format, and inspects or validates existing FFI 1001 files.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'NC2NA_var' where 'var' is
the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of nc2na.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("nc2na v%s\n", nasaames.Version)
	},
	DisableAutoGenTag: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert [path...]",
	Short: "Convert netCDF files to NASA Ames FFI 1001",
	Long: `convert converts each given netCDF file to an FFI 1001 text file
named after it, with the .nc suffix replaced by .na. A directory argument is
expanded to every *.nc file in it; an http:// or https:// argument is
downloaded first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msgChan := outChan()
		return Convert(args, os.ExpandEnv(Cfg.GetString("output_dir")), convertConfig(Cfg),
			writeOptions(Cfg, msgChan), GetStringMapString("NetCDF.VariableScales", Cfg), msgChan)
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info [file.na...]",
	Short: "Summarize FFI 1001 file headers",
	Long: `info reads each given FFI 1001 file and prints a summary of its
header.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := readOptions(Cfg, outChan())
		for _, path := range args {
			doc, err := nasaames.ReadFile(os.ExpandEnv(path), o)
			if err != nil {
				return err
			}
			cmd.Println(doc.String())
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var checkCmd = &cobra.Command{
	Use:   "check [file.na...]",
	Short: "Validate FFI 1001 files",
	Long: `check parses each given FFI 1001 file with the configured read
options and reports the first structural problem found in each, if any.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := readOptions(Cfg, outChan())
		var failed int
		for _, path := range args {
			if _, err := nasaames.ReadFile(os.ExpandEnv(path), o); err != nil {
				cmd.Printf("%s: %v\n", path, err)
				failed++
				continue
			}
			cmd.Printf("%s: ok\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("nc2na: %d of %d files failed validation", failed, len(args))
		}
		return nil
	},
	DisableAutoGenTag: true,
}
