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

import "fmt"

// A StructuralError reports input that violates the FFI 1001 header or
// data layout. Reading stops at the first structural error; no partial
// document is returned.
type StructuralError struct {
	// Line is the 1-based line number of the offending line, or 0 when
	// the error is not specific to a single line.
	Line int
	Msg  string
}

func (e *StructuralError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("nasaames: line %d: %s", e.Line, e.Msg)
	}
	return "nasaames: " + e.Msg
}

// A ConsistencyError reports a document whose per-variable blocks
// disagree in shape: names, columns, scale factors and missing-value
// sentinels of different lengths, or columns with a different number of
// values than there are data rows. Unlike stale counts, which the
// writer silently recomputes, these mismatches mean the blocks can no
// longer be matched up, so the write is refused.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string {
	return "nasaames: " + e.Msg
}
