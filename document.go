/*
Copyright © 2019 the InMAP authors.
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
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// FormatIndex is the NASA Ames file format index this package handles:
// one independent variable, any number of dependent variables.
const FormatIndex = 1001

// Absent is the marker substituted for a dependent-variable value that
// equals its variable's VMISS sentinel when ReadOptions.MissingToAbsent
// is set. Values are stored as strings, so an in-band sentinel is used
// rather than a separate validity mask.
const Absent = "<absent>"

// A Date is a calendar date from an FFI 1001 header. Header dates carry
// no time of day or zone, so a plain year/month/day triple is used
// instead of time.Time.
type Date struct {
	Year, Month, Day int
}

// After reports whether d is later than o.
func (d Date) After(o Date) bool {
	if d.Year != o.Year {
		return d.Year > o.Year
	}
	if d.Month != o.Month {
		return d.Month > o.Month
	}
	return d.Day > o.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%4.4d-%2.2d-%2.2d", d.Year, d.Month, d.Day)
}

// FFI1001 is the in-memory representation of one NASA Ames FFI 1001
// file. Field names follow the vocabulary of the format description:
//
//	NLHEAD   total header line count (derived)
//	ONAME    originator name
//	ORG      organization
//	SNAME    sampling description
//	MNAME    mission name
//	IVOL     volume index
//	NVOL     total number of volumes
//	DATE     date the data begins
//	RDATE    file revision date, >= DATE
//	DX       independent-variable increment, 0 if non-uniform (derived)
//	XNAME    independent-variable description
//	NV       number of dependent variables (derived)
//	VSCAL    per-variable scale factors
//	VMISS    per-variable missing-value sentinels
//	VNAME    per-variable descriptions
//	NSCOML   special comment line count (derived)
//	SCOM     special comment lines
//	NNCOML   normal comment line count (derived)
//	NCOM     normal comment lines
//	X        independent-variable column, one string per data row
//	V        dependent-variable columns, one slice per variable
//
// Derived fields are recomputed by the shape mutators (SetVNAME,
// SetSCOM, SetNCOM, SetX) and again, defensively, on every write, so a
// document assembled by direct field assignment still serializes with
// consistent counts. Shape disagreements between the per-variable
// blocks themselves (VNAME, V, VSCAL, VMISS, and column length vs X)
// are rejected by WriteFile rather than repaired.
type FFI1001 struct {
	NLHEAD                   int
	ONAME, ORG, SNAME, MNAME string
	IVOL, NVOL               int
	DATE, RDATE              Date
	DX                       float64
	XNAME                    string
	NV                       int
	VSCAL, VMISS             []string
	VNAME                    []string
	NSCOML                   int
	SCOM                     []string
	NNCOML                   int
	NCOM                     []string
	X                        []string
	V                        [][]string

	// Src records where the document came from: a file path, or the
	// "io.Reader" sentinel for in-memory input. It is not part of the
	// on-disk format.
	Src string
	// Header holds the verbatim header lines as read, for diagnostics.
	// It is only set on documents produced by Read or ReadFile.
	Header []string
}

// FFI returns the file format index, which is always 1001.
func (f *FFI1001) FFI() int { return FormatIndex }

// New returns a document populated with placeholder defaults. The
// reference date is the Unix epoch and the revision date is today
// (UTC). Callers replace the placeholders with the shape mutators and
// direct field assignment in any order.
func New() *FFI1001 {
	today := time.Now().UTC()
	return &FFI1001{
		NLHEAD: 14,
		ONAME:  "data origin",
		ORG:    "organization",
		SNAME:  "sampling description",
		MNAME:  "mission name",
		IVOL:   1,
		NVOL:   1,
		DATE:   Date{1970, 1, 1},
		RDATE:  Date{today.Year(), int(today.Month()), today.Day()},
		XNAME:  "x name",
		NV:     1,
		VSCAL:  []string{"1"},
		VMISS:  []string{"-9999"},
		VNAME:  []string{"v names"},
		SCOM:   []string{"special comments"},
		NCOM:   []string{"normal comments"},
		X:      []string{""},
		V:      [][]string{{""}},
		Src:    "path to file",
	}
}

// SetVNAME replaces the dependent-variable name block and recomputes
// NV and NLHEAD.
func (f *FFI1001) SetVNAME(names []string) {
	f.VNAME = names
	f.NV = len(names)
	f.recalcNLHEAD()
}

// SetSCOM replaces the special comment block and recomputes NSCOML and
// NLHEAD.
func (f *FFI1001) SetSCOM(lines []string) {
	f.SCOM = lines
	f.NSCOML = len(lines)
	f.recalcNLHEAD()
}

// SetNCOM replaces the normal comment block and recomputes NNCOML and
// NLHEAD.
func (f *FFI1001) SetNCOM(lines []string) {
	f.NCOM = lines
	f.NNCOML = len(lines)
	f.recalcNLHEAD()
}

// SetX replaces the independent-variable column and recomputes the
// increment DX.
func (f *FFI1001) SetX(x []string) {
	f.X = x
	f.DX = deriveDX(x)
}

func (f *FFI1001) recalcNLHEAD() {
	f.NLHEAD = 14 + f.NSCOML + f.NNCOML + f.NV
}

// deriveDX returns the increment of the independent-variable column:
// the unique successive difference, rounded to 4 decimal places, if all
// differences coincide, and 0 otherwise. Columns with fewer than two
// points, and columns containing non-numeric values, give 0.
func deriveDX(x []string) float64 {
	if len(x) < 2 {
		return 0
	}
	vals := make([]float64, len(x))
	for i, s := range x {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		vals[i] = v
	}
	var dx float64
	for i := 1; i < len(vals); i++ {
		d := math.Round((vals[i]-vals[i-1])*1e4) / 1e4
		if i > 1 && d != dx {
			return 0
		}
		dx = d
	}
	// Uniform differences that land on an integer are reported as that
	// integer; the rounding above keeps the float representation tidy
	// otherwise.
	if floats.EqualWithinAbsOrRel(dx, math.Round(dx), 1e-8, 1e-5) {
		return math.Round(dx)
	}
	return dx
}

// formatDX renders the increment the way it appears on line 8 of the
// header: integer increments print without a decimal point.
func formatDX(dx float64) string {
	return strconv.FormatFloat(dx, 'g', -1, 64)
}

// fixCounts recomputes every derived count from the actual block
// lengths before serialization, sending one note per corrected field to
// msgChan (which may be nil). Shape mismatches between the per-variable
// blocks cannot be repaired and return a *ConsistencyError: the number
// of dependent-variable columns, scale factors and missing-value
// sentinels must each match the number of variable names, and every
// column must hold one value per data row.
func (f *FFI1001) fixCounts(vertical bool, msgChan chan string) error {
	if len(f.V) != len(f.VNAME) {
		return &ConsistencyError{
			Msg: fmt.Sprintf("%d dependent variable columns for %d variable names",
				len(f.V), len(f.VNAME)),
		}
	}
	if len(f.VSCAL) != len(f.VNAME) {
		return &ConsistencyError{
			Msg: fmt.Sprintf("%d scale factors for %d variable names",
				len(f.VSCAL), len(f.VNAME)),
		}
	}
	if len(f.VMISS) != len(f.VNAME) {
		return &ConsistencyError{
			Msg: fmt.Sprintf("%d missing-value sentinels for %d variable names",
				len(f.VMISS), len(f.VNAME)),
		}
	}
	for j, col := range f.V {
		if len(col) != len(f.X) {
			return &ConsistencyError{
				Msg: fmt.Sprintf("variable %d has %d values for %d data rows",
					j+1, len(col), len(f.X)),
			}
		}
	}
	note := func(format string, args ...interface{}) {
		if msgChan != nil {
			msgChan <- fmt.Sprintf(format, args...)
		}
	}
	if f.NV != len(f.VNAME) {
		note("output: NV corrected from %d to %d", f.NV, len(f.VNAME))
		f.NV = len(f.VNAME)
	}
	if f.NSCOML != len(f.SCOM) {
		note("output: NSCOML corrected from %d to %d", f.NSCOML, len(f.SCOM))
		f.NSCOML = len(f.SCOM)
	}
	if f.NNCOML != len(f.NCOM) {
		note("output: NNCOML corrected from %d to %d", f.NNCOML, len(f.NCOM))
		f.NNCOML = len(f.NCOM)
	}
	nlhead := expectedNLHEAD(f.NV, f.NSCOML, f.NNCOML, vertical)
	if f.NLHEAD != nlhead {
		note("output: NLHEAD corrected from %d to %d", f.NLHEAD, nlhead)
		f.NLHEAD = nlhead
	}
	return nil
}

// expectedNLHEAD gives the header line count implied by the block
// sizes. The standard layout devotes one line each to the scale factor
// and missing value blocks; the vertical layout uses one line per
// variable for each, adding 2*(nv-1) lines.
func expectedNLHEAD(nv, nscoml, nncoml int, vertical bool) int {
	n := 14 + nscoml + nncoml + nv
	if vertical {
		n += 2 * (nv - 1)
	}
	return n
}

func (f *FFI1001) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "NASA Ames %d\n", f.FFI())
	fmt.Fprintf(&b, "SRC: %s\n---\n", f.Src)
	fmt.Fprintf(&b, "ONAME: %s\nORG: %s\nSNAME: %s\nMNAME: %s\n", f.ONAME, f.ORG, f.SNAME, f.MNAME)
	fmt.Fprintf(&b, "DATE: %v, RDATE: %v, DX: %s\n", f.DATE, f.RDATE, formatDX(f.DX))
	fmt.Fprintf(&b, "XNAME: %s\n", f.XNAME)
	fmt.Fprintf(&b, "NV: %d, VNAME: %s\n", f.NV, strings.Join(f.VNAME, "; "))
	fmt.Fprintf(&b, "NSCOML: %d, NNCOML: %d, rows: %d", f.NSCOML, f.NNCOML, len(f.X))
	return b.String()
}
