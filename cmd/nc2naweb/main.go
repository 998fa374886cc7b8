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

// Command nc2naweb is a local web interface for the netCDF to NASA
// Ames converter: a single form page that takes a directory and
// converts every netCDF file in it.
package main

import (
	"flag"
	"html/template"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/nasaames"
	"github.com/spatialmodel/nasaames/nasaamesutil"
)

var logger *logrus.Logger

func init() {
	logger = logrus.StandardLogger()
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
}

var config = flag.String("config", "", "Path to the configuration file")

// ServerConfig holds the web converter settings.
type ServerConfig struct {
	// Address is the address the server listens on.
	Address string
	// TimeVar is the name of the time coordinate in the input files.
	TimeVar string
	// VMISS is the missing-value sentinel for converted variables.
	VMISS string
	// OutputDir is where converted files are written; empty means next
	// to their inputs.
	OutputDir string
	// Overwrite allows replacing existing output files.
	Overwrite bool
}

func defaultConfig() *ServerConfig {
	return &ServerConfig{
		Address:   "localhost:10001",
		TimeVar:   "time",
		VMISS:     "nan",
		Overwrite: true,
	}
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>netCDF to NASA Ames</title></head>
<body>
<h1>Convert netCDF to NASA Ames FFI 1001</h1>
<form method="POST" action="/">
<label>Directory with netCDF files (*.nc):</label>
<input type="text" name="dir" size="80" value="{{.Dir}}">
<input type="submit" value="Convert">
</form>
{{if .Messages}}<pre>{{range .Messages}}{{.}}
{{end}}</pre>{{end}}
{{if .Err}}<pre>ERROR: {{.Err}}</pre>{{end}}
</body>
</html>`))

type pageData struct {
	Dir      string
	Messages []string
	Err      error
}

func (c *ServerConfig) serve(w http.ResponseWriter, r *http.Request) {
	d := pageData{}
	if r.Method == http.MethodPost {
		d.Dir = r.FormValue("dir")
		logger.WithField("dir", d.Dir).Info("converting")
		// The drain goroutine must be running before the conversion
		// starts, otherwise a large directory fills the channel and the
		// sends inside Convert block forever.
		msgChan := make(chan string)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range msgChan {
				d.Messages = append(d.Messages, msg)
			}
		}()
		cc := nasaames.DefaultConvertConfig()
		cc.TimeVar = c.TimeVar
		cc.VMISS = c.VMISS
		wo := nasaames.DefaultWriteOptions()
		wo.Overwrite = c.Overwrite
		wo.MsgChan = msgChan
		d.Err = nasaamesutil.Convert([]string{d.Dir}, c.OutputDir, cc, wo, nil, msgChan)
		close(msgChan)
		wg.Wait()
		if d.Err != nil {
			logger.WithError(d.Err).Error("conversion failed")
		}
	}
	if err := page.Execute(w, d); err != nil {
		logger.WithError(err).Error("rendering page")
	}
}

func main() {
	flag.Parse()

	c := defaultConfig()
	if *config != "" {
		f, err := os.Open(os.ExpandEnv(*config))
		if err != nil {
			log.Fatal(err)
		}
		if _, err := toml.DecodeReader(f, c); err != nil {
			log.Fatal(err)
		}
		f.Close()
	}

	logger.Info("setting up...")
	mux := http.NewServeMux()
	mux.HandleFunc("/", c.serve)
	srv := &http.Server{
		Addr:              c.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	logger.WithField("address", c.Address).Info("listening")
	logger.Fatal(srv.ListenAndServe())
}
