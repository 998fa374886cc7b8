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

// Command nc2na is a command-line interface for converting netCDF time
// series files to the NASA Ames FFI 1001 text format.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/nasaames/nasaamesutil"
)

func main() {
	if err := nasaamesutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
