// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ReadCountTable holds raw read counts, one row per perturbation
// (e.g., guide array). Counts are stored column-major:
// Counts[sample][row].
type ReadCountTable struct {
	IndexName   string   // header of the row key column
	TargetName  string   // header of the target label column
	IDs         []string // unique perturbation IDs
	Targets     []string // gene or gene-pair label for each row
	SampleNames []string
	Counts      [][]float64
}

// Rows returns the number of perturbations.
func (t *ReadCountTable) Rows() int { return len(t.IDs) }

// loadReadCounts reads a read count file. The file is tab-delimited
// unless its name ends in .csv (or .csv.gz). The first header field
// names the row key column, the second names the target label
// column, and the rest are sample names.
func loadReadCounts(fnm string) (*ReadCountTable, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	defer f.Close()
	delim := "\t"
	if strings.HasSuffix(strings.TrimSuffix(fnm, ".gz"), ".csv") {
		delim = ","
	}
	t, err := parseReadCounts(f, delim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	log.Infof("loaded %s: %d rows, %d samples", fnm, t.Rows(), len(t.SampleNames))
	return t, nil
}

func parseReadCounts(rdr io.Reader, delim string) (*ReadCountTable, error) {
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<16), 1<<26)
	t := &ReadCountTable{}
	seen := map[string]bool{}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, delim)
		if t.TargetName == "" {
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: header line has %d fields, need index, target, and at least one sample", ErrData, len(fields))
			}
			t.IndexName = fields[0]
			t.TargetName = fields[1]
			t.SampleNames = fields[2:]
			t.Counts = make([][]float64, len(t.SampleNames))
			continue
		}
		if len(fields) != len(t.SampleNames)+2 {
			return nil, fmt.Errorf("%w: line %d: %d fields, expected %d", ErrData, lineNum, len(fields), len(t.SampleNames)+2)
		}
		id := fields[0]
		if seen[id] {
			return nil, fmt.Errorf("%w: line %d: duplicate row ID %q", ErrData, lineNum, id)
		}
		seen[id] = true
		if fields[1] == "" {
			return nil, fmt.Errorf("%w: line %d: row %q has no target label", ErrData, lineNum, id)
		}
		t.IDs = append(t.IDs, id)
		t.Targets = append(t.Targets, fields[1])
		for i, s := range fields[2:] {
			x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: column %q: %s", ErrData, lineNum, t.SampleNames[i], err)
			}
			if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("%w: line %d: column %q: invalid count %v", ErrData, lineNum, t.SampleNames[i], x)
			}
			t.Counts[i] = append(t.Counts[i], x)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if t.TargetName == "" {
		return nil, fmt.Errorf("%w: empty input", ErrData)
	}
	return t, nil
}

// loadGeneList reads one gene name per line, preserving order.
// Blank lines are skipped.
func loadGeneList(fnm string) ([]string, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	defer f.Close()
	var genes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		gene := strings.TrimRight(scanner.Text(), "\r")
		if gene == "" {
			continue
		}
		genes = append(genes, gene)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return genes, nil
}

// unionGenes appends the genes in extra that are not already in
// genes, keeping the order of both lists.
func unionGenes(genes, extra []string) []string {
	seen := make(map[string]bool, len(genes)+len(extra))
	var out []string
	for _, list := range [][]string{genes, extra} {
		for _, g := range list {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}
