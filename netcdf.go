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

package nasaames

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// ConvertConfig holds the settings for converting a netCDF time series
// file to FFI 1001.
type ConvertConfig struct {
	// TimeVar is the name of the time coordinate; it must exist in the
	// input as both a variable and a dimension.
	TimeVar string
	// XNAME describes the independent variable in the output header.
	XNAME string
	// VSCAL is the scale factor written for every variable.
	VSCAL string
	// VMISS is the missing-value sentinel written for every variable
	// and substituted for fill values in the data.
	VMISS string
	// SepData is the data block delimiter, also used in the column
	// header comment line.
	SepData string
}

// DefaultConvertConfig returns the conversion settings used by the
// nc2na command: a "time" axis converted to seconds after midnight,
// tab-delimited data, scale factor 1, and "nan" for missing values.
func DefaultConvertConfig() *ConvertConfig {
	return &ConvertConfig{
		TimeVar: "time",
		XNAME:   "seconds after midnight on DATE",
		VSCAL:   "1",
		VMISS:   "nan",
		SepData: "\t",
	}
}

// ConvertNetCDF reads the netCDF file at path and builds an FFI 1001
// document from it (netCDF 4 and greater not supported). The time
// coordinate becomes the independent variable, expressed as seconds
// after midnight (UTC) of the first timestamp, which also sets the
// header DATE. Every variable whose only dimension is the time
// dimension becomes a dependent variable; global string attributes
// become special comments; a delimiter-joined column header becomes the
// normal comment block. If c is nil, DefaultConvertConfig is used.
// Skipped variables and time-axis assumptions are reported on msgChan,
// which may be nil.
func ConvertNetCDF(path string, c *ConvertConfig, msgChan chan string) (*FFI1001, error) {
	if c == nil {
		c = DefaultConvertConfig()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nasaames: opening netCDF file %s: %v", path, err)
	}
	defer f.Close()
	nc, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("nasaames: opening netCDF file %s: %v", path, err)
	}

	timeDims := nc.Header.Dimensions(c.TimeVar)
	if len(nc.Header.Lengths(c.TimeVar)) == 0 {
		return nil, fmt.Errorf("nasaames: netCDF file %s has no variable %q", path, c.TimeVar)
	}
	if len(timeDims) != 1 || timeDims[0] != c.TimeVar {
		return nil, fmt.Errorf("nasaames: netCDF variable %q in %s is not a coordinate variable", c.TimeVar, path)
	}
	times, err := readVar(nc, c.TimeVar)
	if err != nil {
		return nil, err
	}
	if len(times.Elements) == 0 {
		return nil, fmt.Errorf("nasaames: netCDF file %s has an empty %q axis", path, c.TimeVar)
	}

	// Resolve the time axis to Unix seconds using the CF-style units
	// attribute, then re-reference it to midnight of the first
	// timestamp.
	epoch, unit := timeReference(nc, c.TimeVar, msgChan)
	unix := make([]float64, len(times.Elements))
	for i, t := range times.Elements {
		unix[i] = float64(epoch.Unix()) + t*unit.Seconds()
	}
	first := time.Unix(int64(unix[0]), 0).UTC()
	midnight := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	x := make([]string, len(unix))
	for i, u := range unix {
		x[i] = strconv.FormatFloat(u-float64(midnight.Unix()), 'g', -1, 64)
	}

	// Every variable indexed by time alone becomes a dependent
	// variable; anything with additional dimensions has no place in a
	// two-dimensional table.
	var vnames []string
	var cols [][]string
	for _, v := range nc.Header.Variables() {
		if v == c.TimeVar {
			continue
		}
		dims := nc.Header.Dimensions(v)
		if len(dims) == 0 || dims[0] != c.TimeVar {
			continue
		}
		if len(dims) > 1 {
			if msgChan != nil {
				msgChan <- fmt.Sprintf("skipping %s: %d dimensions", v, len(dims))
			}
			continue
		}
		data, err := readVar(nc, v)
		if err != nil {
			return nil, err
		}
		if len(data.Elements) != len(x) {
			return nil, fmt.Errorf("nasaames: netCDF variable %s has %d values for %d timestamps",
				v, len(data.Elements), len(x))
		}
		applyFillValue(nc, v, data)
		col := make([]string, len(data.Elements))
		for i, val := range data.Elements {
			if math.IsNaN(val) {
				col[i] = c.VMISS
			} else {
				col[i] = strconv.FormatFloat(val, 'g', -1, 64)
			}
		}
		vnames = append(vnames, v)
		cols = append(cols, col)
	}
	if len(vnames) == 0 {
		return nil, fmt.Errorf("nasaames: netCDF file %s has no variables on the %q axis", path, c.TimeVar)
	}

	doc := New()
	doc.Src = path
	doc.ONAME += ": nc2na converter"
	doc.DATE = Date{first.Year(), int(first.Month()), first.Day()}
	doc.XNAME = c.XNAME

	// Global string attributes carry over as special comments, in a
	// stable order.
	var scom []string
	attrs := nc.Header.Attributes("")
	sort.Strings(attrs)
	for _, a := range attrs {
		if s, ok := nc.Header.GetAttribute("", a).(string); ok {
			scom = append(scom, toASCII(a+": "+s))
		}
	}
	doc.SetSCOM(scom)
	doc.SetNCOM([]string{toASCII(c.TimeVar + c.SepData + strings.Join(vnames, c.SepData))})
	doc.SetVNAME(vnames)
	scal := make([]string, len(vnames))
	miss := make([]string, len(vnames))
	for i := range vnames {
		scal[i] = c.VSCAL
		miss[i] = c.VMISS
	}
	doc.VSCAL, doc.VMISS = scal, miss
	doc.SetX(x)
	doc.V = cols
	return doc, nil
}

// timeReference interprets the CF-style units attribute of the time
// variable ("seconds since 2006-01-02 15:04:05" and similar). When the
// attribute is missing or unrecognized the values are assumed to
// already be Unix seconds.
func timeReference(nc *cdf.File, timeVar string, msgChan chan string) (time.Time, time.Duration) {
	assume := func(units string) (time.Time, time.Duration) {
		if msgChan != nil {
			msgChan <- fmt.Sprintf("warning: cannot interpret time units %q; assuming Unix seconds", units)
		}
		return time.Unix(0, 0).UTC(), time.Second
	}
	units, ok := nc.Header.GetAttribute(timeVar, "units").(string)
	if !ok {
		return assume("")
	}
	parts := strings.SplitN(units, " since ", 2)
	if len(parts) != 2 {
		return assume(units)
	}
	var unit time.Duration
	switch strings.TrimSpace(parts[0]) {
	case "seconds", "second", "s":
		unit = time.Second
	case "minutes", "minute", "min":
		unit = time.Minute
	case "hours", "hour", "h":
		unit = time.Hour
	case "days", "day", "d":
		unit = 24 * time.Hour
	default:
		return assume(units)
	}
	ref := strings.TrimSpace(parts[1])
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04",
		"2006-01-02",
	} {
		if epoch, err := time.Parse(layout, ref); err == nil {
			return epoch.UTC(), unit
		}
	}
	return assume(units)
}

// readVar reads the entire contents of variable v into a dense array,
// converting from the on-disk type to float64.
func readVar(nc *cdf.File, v string) (*sparse.DenseArray, error) {
	dims := nc.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("nasaames: netCDF variable %q not in file", v)
	}
	r := nc.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("nasaames: reading netCDF variable %s: %v", v, err)
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float64:
		copy(data.Elements, b)
	case []float32:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	case []int32:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	case []int16:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	case []int8:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("nasaames: unsupported netCDF type %T for variable %s", buf, v)
	}
	return data, nil
}

// applyFillValue replaces elements equal to the variable's _FillValue
// attribute, if any, with NaN.
func applyFillValue(nc *cdf.File, v string, data *sparse.DenseArray) {
	attr := nc.Header.GetAttribute(v, "_FillValue")
	if attr == nil {
		return
	}
	var fill float64
	switch a := attr.(type) {
	case []float32:
		if len(a) == 0 {
			return
		}
		fill = float64(a[0])
	case []float64:
		if len(a) == 0 {
			return
		}
		fill = a[0]
	default:
		return
	}
	for i, val := range data.Elements {
		if val == fill {
			data.Elements[i] = math.NaN()
		}
	}
}
