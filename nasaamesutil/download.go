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
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maybeDownload checks if the input is an existing file locally. If
// not, and the input is an http(s) URL, it downloads the file and
// returns the path to the downloaded copy. c, if not nil, is a channel
// across which error and logging messages will be sent.
func maybeDownload(path string, c chan string) string {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return downloadHTTP(path, c)
	}

	return path
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(path string, c chan string) string {
	// Prepare a temporary directory for the downloads.
	dir, err := ioutil.TempDir("", "nc2na")
	if err != nil {
		panic(fmt.Errorf("nc2na: failed creating temporary download directory: %v", err))
	}

	if c != nil {
		c <- fmt.Sprintf("downloading %s", path)
	}
	resp, err := http.Get(path)
	if err != nil {
		if c != nil {
			c <- fmt.Sprintf("error downloading %s: %v", path, err)
		}
		return path
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if c != nil {
			c <- fmt.Sprintf("error downloading %s: status %s", path, resp.Status)
		}
		return path
	}

	out := filepath.Join(dir, filepath.Base(path))
	f, err := os.Create(out)
	if err != nil {
		panic(fmt.Errorf("nc2na: failed creating download destination: %v", err))
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		if c != nil {
			c <- fmt.Sprintf("error downloading %s: %v", path, err)
		}
		return path
	}
	return out
}
