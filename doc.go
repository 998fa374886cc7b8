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

// Package nasaames reads and writes NASA Ames format index 1001 text
// files, the ASCII tabular exchange format used for airborne and
// ground-based atmospheric measurement data. FFI 1001 files hold one
// independent variable (typically a time axis) and any number of
// dependent variables, preceded by a self-describing header whose
// line offsets depend on the variable and comment counts.
//
// The package also converts netCDF time series files to FFI 1001
// (see ConvertNetCDF), which is the main use of the nc2na command.
package nasaames

// Version gives the version number of this version of nasaames.
const Version = "0.2.1"
