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
	"testing"
)

func TestDeriveDX(t *testing.T) {
	tests := []struct {
		x    []string
		want float64
	}{
		{[]string{"0", "10", "20", "30"}, 10},
		{[]string{"0", "10", "20.5"}, 0},
		{[]string{"5"}, 0},
		{[]string{}, 0},
		{nil, 0},
		{[]string{"0", "0.5", "1", "1.5"}, 0.5},
		{[]string{"0", "600", "1200"}, 600},
		{[]string{"abc", "def"}, 0},
		// Differences that only coincide after rounding to 4 decimals.
		{[]string{"0", "10.00000004", "20.00000008"}, 10},
		{[]string{"0", "-10", "-20"}, -10},
	}
	for _, test := range tests {
		if got := deriveDX(test.x); got != test.want {
			t.Errorf("deriveDX(%v) = %v, want %v", test.x, got, test.want)
		}
	}
}

func TestFormatDX(t *testing.T) {
	tests := []struct {
		dx   float64
		want string
	}{
		{10, "10"},
		{0, "0"},
		{0.5, "0.5"},
		{-10, "-10"},
		{600, "600"},
	}
	for _, test := range tests {
		if got := formatDX(test.dx); got != test.want {
			t.Errorf("formatDX(%v) = %q, want %q", test.dx, got, test.want)
		}
	}
}

func TestShapeMutators(t *testing.T) {
	f := New()
	f.SetVNAME([]string{"a", "b", "c"})
	f.SetSCOM([]string{"s1", "s2"})
	f.SetNCOM([]string{"n1"})
	if f.NV != 3 || f.NSCOML != 2 || f.NNCOML != 1 {
		t.Fatalf("counts = %d/%d/%d, want 3/2/1", f.NV, f.NSCOML, f.NNCOML)
	}
	// 14 fixed lines plus one per variable name and comment line.
	if f.NLHEAD != 20 {
		t.Fatalf("NLHEAD = %d, want 20", f.NLHEAD)
	}

	// Order must not matter.
	g := New()
	g.SetNCOM([]string{"n1"})
	g.SetVNAME([]string{"a", "b", "c"})
	g.SetSCOM([]string{"s1", "s2"})
	if g.NLHEAD != f.NLHEAD {
		t.Errorf("NLHEAD = %d after reordered mutations, want %d", g.NLHEAD, f.NLHEAD)
	}

	f.SetX([]string{"0", "10", "20"})
	if f.DX != 10 {
		t.Errorf("DX = %v, want 10", f.DX)
	}
	f.SetX([]string{"0", "10", "25"})
	if f.DX != 0 {
		t.Errorf("DX = %v after non-uniform column, want 0", f.DX)
	}
}

func TestNewDefaults(t *testing.T) {
	f := New()
	if f.FFI() != 1001 {
		t.Errorf("FFI = %d, want 1001", f.FFI())
	}
	if f.NLHEAD != 14 {
		t.Errorf("NLHEAD = %d, want 14", f.NLHEAD)
	}
	if f.DATE != (Date{1970, 1, 1}) {
		t.Errorf("DATE = %v, want 1970-01-01", f.DATE)
	}
	if f.DATE.After(f.RDATE) {
		t.Errorf("default DATE %v is after RDATE %v", f.DATE, f.RDATE)
	}
	if !reflect.DeepEqual(f.VNAME, []string{"v names"}) || f.NV != 1 {
		t.Errorf("default variable block = %v (NV %d)", f.VNAME, f.NV)
	}
}

func TestDateAfter(t *testing.T) {
	tests := []struct {
		a, b Date
		want bool
	}{
		{Date{2020, 1, 1}, Date{2019, 1, 1}, true},
		{Date{2019, 1, 1}, Date{2020, 1, 1}, false},
		{Date{2020, 1, 1}, Date{2020, 1, 1}, false},
		{Date{2020, 2, 1}, Date{2020, 1, 31}, true},
		{Date{2020, 1, 2}, Date{2020, 1, 1}, true},
	}
	for _, test := range tests {
		if got := test.a.After(test.b); got != test.want {
			t.Errorf("%v.After(%v) = %v, want %v", test.a, test.b, got, test.want)
		}
	}
}

func TestFixCounts(t *testing.T) {
	f := New()
	f.SetVNAME([]string{"a", "b"})
	f.SetSCOM([]string{"s"})
	f.SetNCOM([]string{"n"})
	f.V = [][]string{{"1"}, {"2"}}
	f.VSCAL = []string{"1", "1"}
	f.VMISS = []string{"-9999", "-9999"}
	f.NLHEAD = 99 // stale
	f.NV = 7      // stale
	msgChan := make(chan string, 10)
	if err := f.fixCounts(false, msgChan); err != nil {
		t.Fatal(err)
	}
	if f.NV != 2 {
		t.Errorf("NV = %d, want 2", f.NV)
	}
	if want := 14 + 1 + 1 + 2; f.NLHEAD != want {
		t.Errorf("NLHEAD = %d, want %d", f.NLHEAD, want)
	}
	close(msgChan)
	var notes int
	for range msgChan {
		notes++
	}
	if notes != 2 {
		t.Errorf("got %d correction notes, want 2", notes)
	}

	f.V = [][]string{{"1"}}
	if err := f.fixCounts(false, nil); err == nil {
		t.Fatal("expected error for name/data count mismatch")
	} else if _, ok := err.(*ConsistencyError); !ok {
		t.Fatalf("error type = %T, want *ConsistencyError", err)
	}
}
