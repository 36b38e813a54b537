// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"flag"
	"fmt"
	"io"
)

// foldchangecmd writes the centered fold change table without
// fitting the model.
type foldchangecmd struct{}

func (cmd *foldchangecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
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
	err = cfg.checkFoldChange()
	if err != nil {
		return 2
	}
	err = prepareOutputDirectory(cfg.OutputDirectory)
	if err != nil {
		return 1
	}
	fc, err := centeredFoldChange(cfg, nil)
	if err != nil {
		return 1
	}
	err = writeOutputFile(cfg.OutputDirectory, "modecenter_meanfc"+outputSuffix(cfg.OutputPrefix)+".txt", func(w io.Writer) error {
		return writeFoldChange(w, fc)
	})
	if err != nil {
		return 1
	}
	return 0
}
