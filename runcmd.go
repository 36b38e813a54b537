// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

type runcmd struct{}

func (cmd *runcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	cfg := DefaultConfig()
	cfg.Flags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if flags.NArg() > 0 {
		err = fmt.Errorf("unexpected arguments: %q", flags.Args())
		return 2
	}
	err = cfg.Check()
	if err != nil {
		return 2
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	log.Infof("%s %s", prog, strings.Join(cfg.Args(), " "))
	err = prepareOutputDirectory(cfg.OutputDirectory)
	if err != nil {
		return 1
	}
	var m *runMetrics
	if cfg.MetricsFile != "" {
		m = newRunMetrics()
	}
	res, err := runPipeline(cfg, m)
	if err != nil {
		return 1
	}
	err = writeResults(cfg.OutputDirectory, cfg.OutputPrefix, res, cfg.OutputNumpy)
	if err != nil {
		return 1
	}
	if cfg.OutputSQLite != "" {
		err = writeSQLite(cfg.OutputSQLite, res)
		if err != nil {
			return 1
		}
	}
	err = m.writeFile(cfg.MetricsFile)
	if err != nil {
		return 1
	}
	return 0
}

// prepareOutputDirectory creates dir if it is a local path.
func prepareOutputDirectory(dir string) error {
	if isS3URI(dir) {
		return nil
	}
	return os.MkdirAll(dir, 0777)
}
