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

package nasaamesutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/nasaames"
	"github.com/spf13/cast"
)

// Convert converts every netCDF file named by paths to FFI 1001.
// Each path may be a single file, a directory (expanded to the *.nc
// files in it), or an http(s) URL (downloaded first). The output file
// name is the input name with the .nc suffix replaced by .na, placed in
// outputDir if it is non-empty and next to the input otherwise.
// varScales maps variable names to scale factors overriding the
// configured default. Progress and diagnostics are sent to msgChan,
// which may be nil.
func Convert(paths []string, outputDir string, cc *nasaames.ConvertConfig, wo *nasaames.WriteOptions, varScales map[string]string, msgChan chan string) error {
	files, err := findNCFiles(paths)
	if err != nil {
		return err
	}
	for _, file := range files {
		src := maybeDownload(file, msgChan)
		doc, err := nasaames.ConvertNetCDF(src, cc, msgChan)
		if err != nil {
			return err
		}
		for i, name := range doc.VNAME {
			if s, ok := varScales[name]; ok {
				doc.VSCAL[i] = s
			}
		}
		dst := destination(file, outputDir)
		status, err := nasaames.WriteFile(doc, dst, wo)
		if err != nil {
			return err
		}
		if msgChan != nil {
			msgChan <- fmt.Sprintf("%s: %v", dst, status)
		}
	}
	return nil
}

// findNCFiles expands the given paths into a list of netCDF files,
// globbing directories for *.nc. A directory without any netCDF files,
// like a missing path, is an error.
func findNCFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		p = os.ExpandEnv(p)
		if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
			files = append(files, p)
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("nc2na: path %q does not exist", p)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.nc"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("nc2na: no nc files found in %q", p)
		}
		files = append(files, matches...)
	}
	return files, nil
}

// destination gives the output path for an input file: the .nc suffix
// replaced by .na, in outputDir when set.
func destination(src, outputDir string) string {
	name := filepath.Base(src)
	if strings.HasSuffix(name, ".nc") {
		name = strings.TrimSuffix(name, ".nc") + ".na"
	} else {
		name += ".na"
	}
	if outputDir != "" {
		return filepath.Join(outputDir, name)
	}
	return filepath.Join(filepath.Dir(src), name)
}

// convertConfig assembles the netCDF conversion settings from cfg.
func convertConfig(cfg *viper.Viper) *nasaames.ConvertConfig {
	c := nasaames.DefaultConvertConfig()
	c.TimeVar = cfg.GetString("NetCDF.TimeVar")
	c.XNAME = cfg.GetString("NetCDF.XNAME")
	c.VMISS = cfg.GetString("NetCDF.VMISS")
	c.SepData = cfg.GetString("sep_data")
	return c
}

// writeOptions assembles the serialization settings from cfg.
func writeOptions(cfg *viper.Viper, msgChan chan string) *nasaames.WriteOptions {
	o := nasaames.DefaultWriteOptions()
	o.Sep = cfg.GetString("sep")
	o.SepData = cfg.GetString("sep_data")
	o.Overwrite = cfg.GetBool("overwrite")
	o.MsgChan = msgChan
	return o
}

// readOptions assembles the parse settings from cfg.
func readOptions(cfg *viper.Viper, msgChan chan string) *nasaames.ReadOptions {
	o := nasaames.DefaultReadOptions()
	o.Sep = cfg.GetString("sep")
	o.SepData = cfg.GetString("sep_data")
	o.StripLines = cfg.GetBool("strip_lines")
	o.AutoNNCOML = cfg.GetBool("auto_nncoml")
	o.RemoveRepeatedSeps = cfg.GetBool("rmv_repeated_seps")
	o.VscalVmissVertical = cfg.GetBool("vscal_vmiss_vertical")
	o.MissingToAbsent = cfg.GetBool("vmiss_to_absent")
	o.EnsureASCII = cfg.GetBool("ensure_ascii")
	o.AllowEmptyData = cfg.GetBool("allow_empty_data")
	o.MsgChan = msgChan
	return o
}

// GetStringMapString returns a map[string]string from a viper
// configuration, accepting either a native map or a JSON-encoded
// string (which is how map defaults travel through flags).
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
