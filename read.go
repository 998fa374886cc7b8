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
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ReadOptions control how an FFI 1001 file is parsed. The zero value is
// not useful; start from DefaultReadOptions.
type ReadOptions struct {
	// Sep is the general delimiter, used when joining was done with
	// something other than plain whitespace. Header integer lines are
	// always split on whitespace regardless.
	Sep string
	// SepData is the delimiter between columns in the data block.
	SepData string
	// StripLines removes surrounding whitespace from every line before
	// parsing.
	StripLines bool
	// AutoNNCOML derives the normal comment count from NLHEAD and the
	// other block sizes instead of trusting the count line, tolerating
	// files whose count line is wrong or unparseable.
	AutoNNCOML bool
	// RemoveRepeatedSeps collapses runs of repeated Sep within each
	// line (e.g. double spaces) into one before parsing.
	RemoveRepeatedSeps bool
	// VscalVmissVertical selects the nonstandard layout in which the
	// scale factor and missing value blocks hold one value per line
	// instead of one delimited line each.
	VscalVmissVertical bool
	// MissingToAbsent replaces dependent-variable values equal to their
	// variable's VMISS sentinel with the Absent marker.
	MissingToAbsent bool
	// EnsureASCII requires pure ASCII input. When false, UTF-8,
	// Windows-1252 and Latin-1 are tried in that order as fallbacks,
	// with a warning on MsgChan when one of them succeeds.
	EnsureASCII bool
	// AllowEmptyData tolerates header-only input.
	AllowEmptyData bool
	// MsgChan, if non-nil, receives non-fatal diagnostic messages.
	MsgChan chan string
}

// DefaultReadOptions returns the options matching a standard FFI 1001
// file: space-delimited header, tab-delimited data, strict ASCII, and
// the normal comment count derived from NLHEAD.
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{
		Sep:         " ",
		SepData:     "\t",
		StripLines:  true,
		AutoNNCOML:  true,
		EnsureASCII: true,
	}
}

// ReadFile parses the FFI 1001 file at path. If o is nil,
// DefaultReadOptions are used.
func ReadFile(path string, o *ReadOptions) (*FFI1001, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nasaames: opening %s: %v", path, err)
	}
	defer f.Close()
	doc, err := Read(f, o)
	if err != nil {
		return nil, fmt.Errorf("nasaames: reading %s: %w", path, err)
	}
	doc.Src = path
	return doc, nil
}

// Read parses an FFI 1001 document from r. If o is nil,
// DefaultReadOptions are used. Any layout violation returns a
// *StructuralError naming the offending line; no partially populated
// document is ever returned.
func Read(r io.Reader, o *ReadOptions) (*FFI1001, error) {
	if o == nil {
		o = DefaultReadOptions()
	}
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("nasaames: reading input: %v", err)
	}
	text, err := decode(raw, o.EnsureASCII, o.MsgChan)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(text, "\n")
	if o.StripLines {
		for i, line := range lines {
			lines[i] = strings.TrimSpace(line)
		}
	}
	if o.RemoveRepeatedSeps && o.Sep != "" {
		double := o.Sep + o.Sep
		for i, line := range lines {
			for strings.Contains(line, double) {
				line = strings.Replace(line, double, o.Sep, -1)
			}
			lines[i] = line
		}
	}

	cur := &cursor{lines: lines}
	doc := &FFI1001{Src: "io.Reader"}

	// Line 1: NLHEAD FFI.
	counts, err := cur.ints(2)
	if err != nil {
		return nil, err
	}
	nlhead, ffi := counts[0], counts[1]
	if nlhead < 15 {
		return nil, cur.prev().errf("NASA Ames FFI 1001 has at least 15 header lines (specified: %d)", nlhead)
	}
	if ffi != FormatIndex {
		return nil, cur.prev().errf("reader is for FFI 1001 only, got %d", ffi)
	}
	if len(lines) < nlhead {
		return nil, &StructuralError{Msg: fmt.Sprintf("header specifies %d lines but input has only %d", nlhead, len(lines))}
	}
	doc.NLHEAD = nlhead

	if doc.ONAME, err = cur.next(); err != nil {
		return nil, err
	}
	if doc.ORG, err = cur.next(); err != nil {
		return nil, err
	}
	if doc.SNAME, err = cur.next(); err != nil {
		return nil, err
	}
	if doc.MNAME, err = cur.next(); err != nil {
		return nil, err
	}

	// Line 6: IVOL NVOL.
	if counts, err = cur.ints(2); err != nil {
		return nil, err
	}
	doc.IVOL, doc.NVOL = counts[0], counts[1]

	// Line 7: DATE and RDATE as six integers.
	if counts, err = cur.ints(6); err != nil {
		return nil, err
	}
	doc.DATE = Date{counts[0], counts[1], counts[2]}
	doc.RDATE = Date{counts[3], counts[4], counts[5]}
	if doc.DATE.After(doc.RDATE) {
		return nil, cur.prev().errf("RDATE must be greater or equal to DATE, have DATE %v, RDATE %v", doc.DATE, doc.RDATE)
	}

	// Line 8: the increment DX, integer unless it contains a decimal
	// point.
	dxLine, err := cur.next()
	if err != nil {
		return nil, err
	}
	if doc.DX, err = parseDX(dxLine, cur.prev()); err != nil {
		return nil, err
	}

	if doc.XNAME, err = cur.next(); err != nil {
		return nil, err
	}

	// Line 10: NV.
	if counts, err = cur.ints(1); err != nil {
		return nil, err
	}
	nv := counts[0]
	if nv < 1 {
		return nil, cur.prev().errf("NV must be positive, got %d", nv)
	}
	doc.NV = nv

	// Scale factor and missing value blocks, in one of two layouts.
	if o.VscalVmissVertical {
		if doc.VSCAL, err = cur.block(nv); err != nil {
			return nil, err
		}
		if doc.VMISS, err = cur.block(nv); err != nil {
			return nil, err
		}
	} else {
		var line string
		if line, err = cur.next(); err != nil {
			return nil, err
		}
		doc.VSCAL = strings.Fields(line)
		if len(doc.VSCAL) != nv {
			return nil, cur.prev().errf("number of elements in VSCAL (have: %d) must match number of variables specified (%d)", len(doc.VSCAL), nv)
		}
		if line, err = cur.next(); err != nil {
			return nil, err
		}
		doc.VMISS = strings.Fields(line)
		if len(doc.VMISS) != nv {
			return nil, cur.prev().errf("number of elements in VMISS (have: %d) must match number of variables specified (%d)", len(doc.VMISS), nv)
		}
	}

	if doc.VNAME, err = cur.block(nv); err != nil {
		return nil, err
	}

	// Special comments: a count line followed by that many lines.
	if counts, err = cur.ints(1); err != nil {
		return nil, err
	}
	nscoml := counts[0]
	if nscoml < 0 {
		return nil, cur.prev().errf("NSCOML must not be negative, got %d", nscoml)
	}
	if doc.SCOM, err = cur.block(nscoml); err != nil {
		return nil, err
	}
	doc.NSCOML = nscoml

	// Normal comments: the count line is always present, but in
	// AutoNNCOML mode its value is ignored in favor of the count NLHEAD
	// implies, which tolerates wrong or unparseable count lines.
	nncoml := nlhead - expectedNLHEAD(nv, nscoml, 0, o.VscalVmissVertical)
	countLine, err := cur.next()
	if err != nil {
		return nil, err
	}
	if o.AutoNNCOML {
		if explicit, perr := strconv.Atoi(strings.TrimSpace(countLine)); perr == nil && explicit != nncoml && o.MsgChan != nil {
			o.MsgChan <- fmt.Sprintf("warning: NNCOML line specifies %d but NLHEAD implies %d; using %d", explicit, nncoml, nncoml)
		}
	} else {
		if nncoml, err = strconv.Atoi(strings.TrimSpace(countLine)); err != nil {
			return nil, cur.prev().errf("invalid NNCOML %q", countLine)
		}
	}
	if nncoml < 0 {
		return nil, cur.prev().errf("NNCOML must not be negative, got %d", nncoml)
	}
	if doc.NCOM, err = cur.block(nncoml); err != nil {
		return nil, err
	}
	doc.NNCOML = nncoml

	if want := expectedNLHEAD(nv, nscoml, nncoml, o.VscalVmissVertical); want != nlhead {
		return nil, &StructuralError{Msg: fmt.Sprintf(
			"NLHEAD (%d) inconsistent with block sizes: NV %d, NSCOML %d, NNCOML %d imply %d",
			nlhead, nv, nscoml, nncoml, want)}
	}
	if cur.pos != nlhead {
		return nil, &StructuralError{Msg: fmt.Sprintf("header parsing consumed %d lines, NLHEAD specifies %d", cur.pos, nlhead)}
	}
	doc.Header = append([]string{}, lines[:nlhead]...)

	if err := readData(doc, lines[nlhead:], nlhead, o); err != nil {
		return nil, err
	}
	return doc, nil
}

// readData parses the data block: one line per row, each holding the
// independent value followed by NV dependent values.
func readData(doc *FFI1001, data []string, nlhead int, o *ReadOptions) error {
	empty := true
	for _, line := range data {
		if line != "" {
			empty = false
			break
		}
	}
	doc.X = []string{}
	doc.V = make([][]string, doc.NV)
	for j := range doc.V {
		doc.V[j] = []string{}
	}
	if empty {
		if !o.AllowEmptyData {
			return &StructuralError{Msg: "no data found"}
		}
		return nil
	}

	for i, line := range data {
		if line == "" {
			continue
		}
		parts := strings.Split(line, o.SepData)
		if len(parts) != doc.NV+1 {
			return &StructuralError{
				Line: nlhead + i + 1,
				Msg:  fmt.Sprintf("invalid number of parameters: have %d (%q), want %d", len(parts), parts, doc.NV+1),
			}
		}
		doc.X = append(doc.X, strings.TrimSpace(parts[0]))
		for j := 0; j < doc.NV; j++ {
			v := strings.TrimSpace(parts[j+1])
			if o.MissingToAbsent && v == doc.VMISS[j] {
				v = Absent
			}
			doc.V[j] = append(doc.V[j], v)
		}
	}
	return nil
}

// parseDX parses the increment line: float when it contains a decimal
// point, integer otherwise.
func parseDX(line string, at lineRef) (float64, error) {
	s := strings.TrimSpace(line)
	if strings.Contains(s, ".") {
		dx, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, at.errf("invalid DX %q", line)
		}
		return dx, nil
	}
	dx, err := strconv.Atoi(s)
	if err != nil {
		return 0, at.errf("invalid DX %q", line)
	}
	return float64(dx), nil
}

// A cursor walks the line sequence of a file being parsed. Each
// extractor validates its line and advances, so the variable-width
// header sections never need literal offset arithmetic.
type cursor struct {
	lines []string
	pos   int
}

// lineRef identifies a line for error reporting, 1-based.
type lineRef struct {
	num int
}

func (l lineRef) errf(format string, args ...interface{}) *StructuralError {
	return &StructuralError{Line: l.num, Msg: fmt.Sprintf(format, args...)}
}

// prev refers to the line most recently consumed.
func (c *cursor) prev() lineRef {
	return lineRef{num: c.pos}
}

// next returns the current line and advances.
func (c *cursor) next() (string, error) {
	if c.pos >= len(c.lines) {
		return "", &StructuralError{Line: c.pos + 1, Msg: "unexpected end of input"}
	}
	line := c.lines[c.pos]
	c.pos++
	return line, nil
}

// block returns the next n lines.
func (c *cursor) block(n int) ([]string, error) {
	if c.pos+n > len(c.lines) {
		return nil, &StructuralError{
			Line: len(c.lines),
			Msg:  fmt.Sprintf("unexpected end of input: want %d more lines, have %d", n, len(c.lines)-c.pos),
		}
	}
	b := append([]string{}, c.lines[c.pos:c.pos+n]...)
	c.pos += n
	return b, nil
}

// ints splits the current line on whitespace into exactly n integers
// and advances.
func (c *cursor) ints(n int) ([]int, error) {
	line, err := c.next()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) != n {
		return nil, c.prev().errf("invalid format: %q (want %d integers)", line, n)
	}
	out := make([]int, n)
	for i, f := range fields {
		if out[i], err = strconv.Atoi(f); err != nil {
			return nil, c.prev().errf("invalid format: %q (want %d integers)", line, n)
		}
	}
	return out, nil
}

// decode converts raw file bytes to text. FFI 1001 is ASCII by
// definition; the fallback encodings let files written by careless
// tools be read anyway when ensureASCII is false.
func decode(raw []byte, ensureASCII bool, msgChan chan string) (string, error) {
	ascii := true
	for _, b := range raw {
		if b > unicode.MaxASCII {
			ascii = false
			break
		}
	}
	if ascii {
		return string(raw), nil
	}
	if ensureASCII {
		return "", &StructuralError{Msg: "could not decode input (ASCII-only: true)"}
	}
	warn := func(enc string) {
		if msgChan != nil {
			msgChan <- fmt.Sprintf("warning: non-ascii encoding %q used in input", enc)
		}
	}
	if utf8.Valid(raw) {
		warn("utf-8")
		return string(raw), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		out, err := cm.NewDecoder().Bytes(raw)
		if err == nil {
			warn(cm.String())
			return string(out), nil
		}
	}
	return "", &StructuralError{Msg: "could not decode input (ASCII-only: false)"}
}
