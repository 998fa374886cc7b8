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
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// WriteStatus is the outcome of a WriteFile call. There is no partial
// outcome: either the complete file was committed or nothing was.
type WriteStatus int

const (
	// NotWritten means no file was produced, either because the
	// destination exists and overwriting was not allowed, or because
	// the write failed.
	NotWritten WriteStatus = iota
	// Written means the destination was freshly created.
	Written
	// Overwritten means an existing destination was replaced.
	Overwritten
)

func (s WriteStatus) String() string {
	switch s {
	case Written:
		return "written"
	case Overwritten:
		return "overwritten"
	default:
		return "not written"
	}
}

// WriteOptions control how an FFI 1001 file is serialized.
type WriteOptions struct {
	// Sep is the delimiter between values on header lines.
	Sep string
	// SepData is the delimiter between columns in the data block.
	SepData string
	// VscalVmissVertical writes the scale factor and missing value
	// blocks one value per line instead of one delimited line each.
	VscalVmissVertical bool
	// Overwrite allows replacing an existing destination file.
	Overwrite bool
	// MsgChan, if non-nil, receives a note for every derived count the
	// writer had to correct, and for refused overwrites.
	MsgChan chan string
}

// DefaultWriteOptions returns the standard serialization options:
// space-delimited header, tab-delimited data, no overwriting.
func DefaultWriteOptions() *WriteOptions {
	return &WriteOptions{Sep: " ", SepData: "\t"}
}

// WriteFile serializes f as ASCII text at path, creating the parent
// directory if needed. If o is nil, DefaultWriteOptions are used.
// Derived counts are recomputed from the actual block lengths before
// anything is written, so stale NLHEAD/NV/NSCOML/NNCOML values are
// repaired rather than persisted; per-variable blocks that disagree in
// shape, however, return a *ConsistencyError. The file is
// assembled in memory and committed with a single write, so a failure
// never leaves a truncated file behind.
func WriteFile(f *FFI1001, path string, o *WriteOptions) (WriteStatus, error) {
	if o == nil {
		o = DefaultWriteOptions()
	}
	if err := f.fixCounts(o.VscalVmissVertical, o.MsgChan); err != nil {
		return NotWritten, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return NotWritten, fmt.Errorf("nasaames: creating directory %s: %v", dir, err)
		}
	}

	status := Written
	if _, err := os.Stat(path); err == nil {
		if !o.Overwrite {
			if o.MsgChan != nil {
				o.MsgChan <- fmt.Sprintf("write failed: %s already exists; set Overwrite to replace it", path)
			}
			return NotWritten, nil
		}
		status = Overwritten
	}

	var buf bytes.Buffer
	f.encode(&buf, o)
	if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return NotWritten, fmt.Errorf("nasaames: writing %s: %v", path, err)
	}
	return status, nil
}

// encode serializes f in the fixed FFI 1001 line layout, mirroring the
// order the reader consumes. Free-text header fields, variable names
// and comments pass through toASCII; data values are written untouched
// because they are already string-encoded numbers.
func (f *FFI1001) encode(w *bytes.Buffer, o *WriteOptions) {
	sep := o.Sep

	fmt.Fprintf(w, "%d%s%d\n", f.NLHEAD, sep, FormatIndex)
	for _, s := range []string{f.ONAME, f.ORG, f.SNAME, f.MNAME} {
		w.WriteString(toASCII(s))
		w.WriteByte('\n')
	}
	fmt.Fprintf(w, "%d%s%d\n", f.IVOL, sep, f.NVOL)
	fmt.Fprintf(w, "%4.4d%s%2.2d%s%2.2d%s%4.4d%s%2.2d%s%2.2d\n",
		f.DATE.Year, sep, f.DATE.Month, sep, f.DATE.Day, sep,
		f.RDATE.Year, sep, f.RDATE.Month, sep, f.RDATE.Day)
	w.WriteString(formatDX(f.DX))
	w.WriteByte('\n')
	w.WriteString(toASCII(f.XNAME))
	w.WriteByte('\n')
	fmt.Fprintf(w, "%d\n", f.NV)

	if o.VscalVmissVertical {
		for _, s := range f.VSCAL {
			w.WriteString(s)
			w.WriteByte('\n')
		}
		for _, s := range f.VMISS {
			w.WriteString(s)
			w.WriteByte('\n')
		}
	} else {
		w.WriteString(strings.Join(f.VSCAL, sep))
		w.WriteByte('\n')
		w.WriteString(strings.Join(f.VMISS, sep))
		w.WriteByte('\n')
	}
	for _, name := range f.VNAME {
		w.WriteString(toASCII(name))
		w.WriteByte('\n')
	}

	fmt.Fprintf(w, "%d\n", f.NSCOML)
	for _, s := range f.SCOM {
		w.WriteString(toASCII(s))
		w.WriteByte('\n')
	}
	fmt.Fprintf(w, "%d\n", f.NNCOML)
	for _, s := range f.NCOM {
		w.WriteString(toASCII(s))
		w.WriteByte('\n')
	}

	for i, x := range f.X {
		w.WriteString(x)
		for j := range f.V {
			w.WriteString(o.SepData)
			w.WriteString(f.V[j][i])
		}
		w.WriteByte('\n')
	}
}

// toASCII replaces every rune outside the ASCII range with '?'.
// NASA Ames files are ASCII-encoded by definition.
func toASCII(s string) string {
	ascii := true
	for _, r := range s {
		if r > unicode.MaxASCII {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r > unicode.MaxASCII {
			b.WriteByte('?')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
