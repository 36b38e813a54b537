// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// zscorecmd re-scores an existing pairs table, e.g., with a
// different window size.
type zscorecmd struct{}

func (cmd *zscorecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "input pairs `file` (GENE_PAIR, fc_obs, fc_exp, GI_raw, g1_fc, g2_fc, dLFC)")
	outputDir := flags.String("o", "", "output `directory`")
	prefix := flags.String("p", "", "`prefix` for output files")
	halfWindow := flags.Int("half-window-size", 500, "half window `size` for local variance (0 = global)")
	monotone := flags.Bool("monotone-filter", false, "force local standard deviation to be non-decreasing")
	threads := flags.Int("threads", runtime.GOMAXPROCS(0), "number of worker `threads` for the local variance scan")
	outputNumpy := flags.Bool("output-numpy", false, "also write pair results as a numpy matrix")
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
	switch {
	case *inputFilename == "":
		err = fmt.Errorf("%w: input file (-i) is required", ErrConfiguration)
	case *outputDir == "":
		err = fmt.Errorf("%w: output directory (-o) is required", ErrConfiguration)
	case *halfWindow < 0:
		err = fmt.Errorf("%w: half window size %d < 0", ErrConfiguration, *halfWindow)
	}
	if err != nil {
		return 2
	}

	in, err := zopen(*inputFilename)
	if err != nil {
		return 1
	}
	defer in.Close()
	pairs, err := parsePairTable(in)
	if err != nil {
		err = fmt.Errorf("%s: %w", *inputFilename, err)
		return 1
	}
	log.Infof("loaded %d gene pairs from %s", len(pairs), *inputFilename)
	scored, err := scoreInteractions(pairs, *halfWindow, *monotone, *threads)
	if err != nil {
		return 1
	}
	err = prepareOutputDirectory(*outputDir)
	if err != nil {
		return 1
	}
	sfx := outputSuffix(*prefix)
	err = writeOutputFile(*outputDir, "grape_pairs"+sfx+".txt", func(w io.Writer) error {
		return writePairs(w, scored)
	})
	if err != nil {
		return 1
	}
	if *outputNumpy {
		err = writePairsNumpyFiles(*outputDir, sfx, scored)
		if err != nil {
			return 1
		}
	}
	return 0
}

// parsePairTable reads a tab-separated table with a GENE_PAIR key
// column and (at least) the fc_obs, fc_exp, GI_raw, g1_fc, g2_fc, and
// dLFC columns, in any order. Other columns are ignored, so a
// previous grape_pairs output can be read back.
func parsePairTable(rdr io.Reader) ([]PairRecord, error) {
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<16), 1<<26)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty pairs table", ErrData)
	}
	header := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	need := []string{"fc_obs", "fc_exp", "GI_raw", "g1_fc", "g2_fc", "dLFC"}
	colIdx := make([]int, len(need))
	for i, name := range need {
		colIdx[i] = -1
		for j, h := range header {
			if j > 0 && h == name {
				colIdx[i] = j
			}
		}
		if colIdx[i] < 0 {
			return nil, fmt.Errorf("%w: pairs table has no %q column (header %q)", ErrData, name, header)
		}
	}
	var pairs []PairRecord
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("%w: line %d: %d fields, header has %d", ErrData, lineNum, len(fields), len(header))
		}
		var vals [6]float64
		for i, j := range colIdx {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %s", ErrData, lineNum, header[j], err)
			}
			vals[i] = v
		}
		pairs = append(pairs, PairRecord{
			Pair:  fields[0],
			FcObs: vals[0],
			FcExp: vals[1],
			GIRaw: vals[2],
			G1FC:  vals[3],
			G2FC:  vals[4],
			DLFC:  vals[5],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}
