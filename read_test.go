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
	"reflect"
	"strings"
	"testing"
)

// sampleLines is a well-formed two-variable file: NLHEAD
// 14+NV+NSCOML+NNCOML = 14+2+1+1 = 18.
func sampleLines() []string {
	return []string{
		"18 1001",
		"Institute of Atmospheric Physics",
		"DLR",
		"airborne trace gas measurements",
		"MISSION-2019",
		"1 1",
		"2019 7 1 2019 7 2",
		"10",
		"seconds after midnight on DATE",
		"2",
		"1 1",
		"-9999 -9999",
		"T static air temperature (K)",
		"p static pressure (hPa)",
		"1",
		"campaign: TEST",
		"1",
		"time\tT\tp",
		"0\t273.15\t1013.2",
		"10\t273.05\t1013.1",
		"20\t272.95\t1013",
		"",
	}
}

func sampleText() string {
	return strings.Join(sampleLines(), "\n")
}

func TestRead(t *testing.T) {
	doc, err := Read(strings.NewReader(sampleText()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.NLHEAD != 18 {
		t.Errorf("NLHEAD = %d, want 18", doc.NLHEAD)
	}
	if doc.ONAME != "Institute of Atmospheric Physics" || doc.ORG != "DLR" ||
		doc.SNAME != "airborne trace gas measurements" || doc.MNAME != "MISSION-2019" {
		t.Errorf("free-text header fields wrong: %q %q %q %q", doc.ONAME, doc.ORG, doc.SNAME, doc.MNAME)
	}
	if doc.IVOL != 1 || doc.NVOL != 1 {
		t.Errorf("IVOL/NVOL = %d/%d, want 1/1", doc.IVOL, doc.NVOL)
	}
	if doc.DATE != (Date{2019, 7, 1}) || doc.RDATE != (Date{2019, 7, 2}) {
		t.Errorf("DATE/RDATE = %v/%v", doc.DATE, doc.RDATE)
	}
	if doc.DX != 10 {
		t.Errorf("DX = %v, want 10", doc.DX)
	}
	if doc.XNAME != "seconds after midnight on DATE" {
		t.Errorf("XNAME = %q", doc.XNAME)
	}
	if doc.NV != 2 {
		t.Errorf("NV = %d, want 2", doc.NV)
	}
	if !reflect.DeepEqual(doc.VSCAL, []string{"1", "1"}) {
		t.Errorf("VSCAL = %v", doc.VSCAL)
	}
	if !reflect.DeepEqual(doc.VMISS, []string{"-9999", "-9999"}) {
		t.Errorf("VMISS = %v", doc.VMISS)
	}
	if !reflect.DeepEqual(doc.VNAME, []string{
		"T static air temperature (K)",
		"p static pressure (hPa)",
	}) {
		t.Errorf("VNAME = %v", doc.VNAME)
	}
	if doc.NSCOML != 1 || !reflect.DeepEqual(doc.SCOM, []string{"campaign: TEST"}) {
		t.Errorf("SCOM = %v (NSCOML %d)", doc.SCOM, doc.NSCOML)
	}
	if doc.NNCOML != 1 || !reflect.DeepEqual(doc.NCOM, []string{"time\tT\tp"}) {
		t.Errorf("NCOM = %v (NNCOML %d)", doc.NCOM, doc.NNCOML)
	}
	if !reflect.DeepEqual(doc.X, []string{"0", "10", "20"}) {
		t.Errorf("X = %v", doc.X)
	}
	want := [][]string{
		{"273.15", "273.05", "272.95"},
		{"1013.2", "1013.1", "1013"},
	}
	if !reflect.DeepEqual(doc.V, want) {
		t.Errorf("V = %v, want %v", doc.V, want)
	}
	if doc.Src != "io.Reader" {
		t.Errorf("Src = %q", doc.Src)
	}
	if len(doc.Header) != 18 {
		t.Errorf("len(Header) = %d, want 18", len(doc.Header))
	}
}

func TestReadErrors(t *testing.T) {
	edit := func(i int, s string) string {
		lines := sampleLines()
		lines[i] = s
		return strings.Join(lines, "\n")
	}
	tests := []struct {
		name string
		text string
		o    *ReadOptions
		line int // expected StructuralError line; 0 to skip the check
	}{
		{"garbage first line", edit(0, "xx 1001"), nil, 1},
		{"one field first line", edit(0, "18"), nil, 1},
		{"NLHEAD below minimum", edit(0, "14 1001"), nil, 1},
		{"wrong format index", edit(0, "18 1010"), nil, 1},
		{"header longer than input", edit(0, "99 1001"), nil, 0},
		{"bad volume line", edit(5, "1"), nil, 6},
		{"bad date line", edit(6, "2019 7 1 2019 7"), nil, 7},
		{"RDATE before DATE", edit(6, "2020 1 1 2019 12 31"), nil, 7},
		{"bad DX", edit(7, "ten"), nil, 8},
		{"zero NV", edit(9, "0"), nil, 10},
		{"VSCAL count mismatch", edit(10, "1"), nil, 11},
		{"VMISS count mismatch", edit(11, "-9999"), nil, 12},
		{"short data row", edit(18, "0\t273.15"), nil, 19},
		{"long data row", edit(19, "10\t273.05\t1013.1\t7"), nil, 20},
		{
			"NLHEAD inconsistent with explicit counts",
			edit(0, "19 1001"),
			&ReadOptions{Sep: " ", SepData: "\t", StripLines: true, EnsureASCII: true},
			0,
		},
		{
			"non-ASCII input in strict mode",
			edit(1, "Institut f\xfcr Physik der Atmosph\xe4re"),
			nil,
			0,
		},
	}
	for _, test := range tests {
		_, err := Read(strings.NewReader(test.text), test.o)
		if err == nil {
			t.Errorf("%s: expected error", test.name)
			continue
		}
		serr, ok := err.(*StructuralError)
		if !ok {
			t.Errorf("%s: error type = %T, want *StructuralError", test.name, err)
			continue
		}
		if test.line != 0 && serr.Line != test.line {
			t.Errorf("%s: error line = %d, want %d (%v)", test.name, serr.Line, test.line, err)
		}
	}
}

func TestReadVerticalLayout(t *testing.T) {
	// Same logical content as sampleLines, with VSCAL and VMISS one
	// value per line: NLHEAD grows by 2*(NV-1) = 2.
	lines := []string{
		"20 1001",
		"Institute of Atmospheric Physics",
		"DLR",
		"airborne trace gas measurements",
		"MISSION-2019",
		"1 1",
		"2019 7 1 2019 7 2",
		"10",
		"seconds after midnight on DATE",
		"2",
		"1",
		"1",
		"-9999",
		"-9999",
		"T static air temperature (K)",
		"p static pressure (hPa)",
		"1",
		"campaign: TEST",
		"1",
		"time\tT\tp",
		"0\t273.15\t1013.2",
		"10\t273.05\t1013.1",
	}
	o := DefaultReadOptions()
	o.VscalVmissVertical = true
	doc, err := Read(strings.NewReader(strings.Join(lines, "\n")), o)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(doc.VSCAL, []string{"1", "1"}) {
		t.Errorf("VSCAL = %v", doc.VSCAL)
	}
	if !reflect.DeepEqual(doc.VMISS, []string{"-9999", "-9999"}) {
		t.Errorf("VMISS = %v", doc.VMISS)
	}
	if doc.NNCOML != 1 || !reflect.DeepEqual(doc.NCOM, []string{"time\tT\tp"}) {
		t.Errorf("NCOM = %v (NNCOML %d)", doc.NCOM, doc.NNCOML)
	}
	if len(doc.X) != 2 {
		t.Errorf("len(X) = %d, want 2", len(doc.X))
	}
}

func TestMissingToAbsent(t *testing.T) {
	lines := sampleLines()
	lines[19] = "10\t-9999\t1013.1"
	o := DefaultReadOptions()
	o.MissingToAbsent = true
	doc, err := Read(strings.NewReader(strings.Join(lines, "\n")), o)
	if err != nil {
		t.Fatal(err)
	}
	if doc.V[0][1] != Absent {
		t.Errorf("V[0][1] = %q, want the Absent marker", doc.V[0][1])
	}
	if doc.V[1][1] != "1013.1" {
		t.Errorf("V[1][1] = %q, want unchanged value", doc.V[1][1])
	}

	// Without the option the sentinel text is kept.
	doc, err = Read(strings.NewReader(strings.Join(lines, "\n")), nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.V[0][1] != "-9999" {
		t.Errorf("V[0][1] = %q, want literal sentinel", doc.V[0][1])
	}
}

func TestEncodingFallback(t *testing.T) {
	lines := sampleLines()
	lines[1] = "Institut f\xfcr Physik der Atmosph\xe4re" // Latin-1 bytes
	text := strings.Join(lines, "\n")

	o := DefaultReadOptions()
	o.EnsureASCII = false
	o.MsgChan = make(chan string, 10)
	doc, err := Read(strings.NewReader(text), o)
	if err != nil {
		t.Fatal(err)
	}
	if doc.ONAME != "Institut für Physik der Atmosphäre" {
		t.Errorf("ONAME = %q", doc.ONAME)
	}
	close(o.MsgChan)
	var warned bool
	for msg := range o.MsgChan {
		if strings.Contains(msg, "non-ascii") {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a non-ASCII encoding warning")
	}
}

func TestAllowEmptyData(t *testing.T) {
	text := strings.Join(sampleLines()[:18], "\n") + "\n"

	if _, err := Read(strings.NewReader(text), nil); err == nil {
		t.Fatal("expected error for header-only input")
	}

	o := DefaultReadOptions()
	o.AllowEmptyData = true
	doc, err := Read(strings.NewReader(text), o)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.X) != 0 {
		t.Errorf("len(X) = %d, want 0", len(doc.X))
	}
	if len(doc.V) != 2 {
		t.Errorf("len(V) = %d, want 2", len(doc.V))
	}
}

func TestAutoNNCOMLIgnoresCountLine(t *testing.T) {
	// The count line claims 5 normal comment lines; NLHEAD implies 1.
	lines := sampleLines()
	lines[16] = "5"
	o := DefaultReadOptions()
	o.MsgChan = make(chan string, 10)
	doc, err := Read(strings.NewReader(strings.Join(lines, "\n")), o)
	if err != nil {
		t.Fatal(err)
	}
	if doc.NNCOML != 1 {
		t.Errorf("NNCOML = %d, want 1", doc.NNCOML)
	}
	close(o.MsgChan)
	var warned bool
	for msg := range o.MsgChan {
		if strings.Contains(msg, "NNCOML") {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a NNCOML disagreement warning")
	}
}

func TestRemoveRepeatedSeps(t *testing.T) {
	lines := sampleLines()
	lines[10] = "1  1" // double space in VSCAL
	o := DefaultReadOptions()
	o.RemoveRepeatedSeps = true
	doc, err := Read(strings.NewReader(strings.Join(lines, "\n")), o)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(doc.VSCAL, []string{"1", "1"}) {
		t.Errorf("VSCAL = %v", doc.VSCAL)
	}
}
