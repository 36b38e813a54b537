// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// FoldChangeTable holds log2 fold changes (or their replicate/target
// means), one row per key. Values are stored column-major:
// Values[column][row]. Tables are not modified after construction;
// each stage returns a new one.
type FoldChangeTable struct {
	KeyName    string
	TargetName string
	Keys       []string // perturbation IDs, or target labels after grouping
	Targets    []string
	Columns    []string
	Values     [][]float64
}

// Rows returns the number of rows.
func (t *FoldChangeTable) Rows() int { return len(t.Keys) }

// ColumnIndex returns the index of the named column, or -1.
func (t *FoldChangeTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Response returns the fold change column used downstream (the last
// column).
func (t *FoldChangeTable) Response() []float64 {
	return t.Values[len(t.Values)-1]
}

// withoutKeys returns a copy of t without the rows whose keys are in
// drop. Keys in drop that are not present are ignored.
func (t *FoldChangeTable) withoutKeys(drop map[string]bool) *FoldChangeTable {
	out := &FoldChangeTable{
		KeyName:    t.KeyName,
		TargetName: t.TargetName,
		Columns:    append([]string(nil), t.Columns...),
		Values:     make([][]float64, len(t.Values)),
	}
	for row, key := range t.Keys {
		if drop[key] {
			continue
		}
		out.Keys = append(out.Keys, key)
		out.Targets = append(out.Targets, t.Targets[row])
		for col := range t.Values {
			out.Values[col] = append(out.Values[col], t.Values[col][row])
		}
	}
	return out
}

// resolveControlColumns returns the sample indices selected by sel,
// which is either a list of column positions (0 being the target
// label column, so samples start at 1) or a list of column labels.
func resolveControlColumns(counts *ReadCountTable, sel []string) ([]int, error) {
	if len(sel) == 0 {
		return nil, fmt.Errorf("%w: no control columns specified", ErrConfiguration)
	}
	positions := make([]int, 0, len(sel))
	for _, s := range sel {
		pos, err := strconv.Atoi(s)
		if err != nil {
			positions = nil
			break
		}
		positions = append(positions, pos)
	}
	var idx []int
	seen := map[int]bool{}
	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			idx = append(idx, i)
		}
	}
	if positions != nil {
		for _, pos := range positions {
			switch {
			case pos == 0:
				return nil, fmt.Errorf("%w: control column position 0 is the target label column %q", ErrConfiguration, counts.TargetName)
			case pos < 0 || pos > len(counts.SampleNames):
				return nil, fmt.Errorf("%w: control column position %d out of range (1..%d)", ErrConfiguration, pos, len(counts.SampleNames))
			}
			add(pos - 1)
		}
		return idx, nil
	}
	for _, label := range sel {
		found := -1
		for i, name := range counts.SampleNames {
			if name == label {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("%w: control column %q not found in %q", ErrConfiguration, label, counts.SampleNames)
		}
		add(found)
	}
	return idx, nil
}

// computeFoldChange returns the log2 ratio of each non-control
// sample's (pseudocount-adjusted) share of its library to the pooled
// control share. Rows whose summed control count is below minReads
// are dropped before library sizes are computed.
func computeFoldChange(counts *ReadCountTable, controlColumns []string, minReads, pseudocount int) (*FoldChangeTable, error) {
	ctrlIdx, err := resolveControlColumns(counts, controlColumns)
	if err != nil {
		return nil, err
	}
	isCtrl := make([]bool, len(counts.SampleNames))
	var ctrlNames []string
	for _, i := range ctrlIdx {
		isCtrl[i] = true
		ctrlNames = append(ctrlNames, counts.SampleNames[i])
	}
	log.Infof("using controls: %s", strings.Join(ctrlNames, ","))

	ctrlSum := make([]float64, counts.Rows())
	for _, i := range ctrlIdx {
		floats.Add(ctrlSum, counts.Counts[i])
	}
	keep := make([]int, 0, counts.Rows())
	for row, n := range ctrlSum {
		if n >= float64(minReads) {
			keep = append(keep, row)
		}
	}
	if dropped := counts.Rows() - len(keep); dropped > 0 {
		log.Infof("min reads filter: dropped %d of %d rows with fewer than %d control reads", dropped, counts.Rows(), minReads)
	}

	fc := &FoldChangeTable{
		KeyName:    counts.IndexName,
		TargetName: counts.TargetName,
		Keys:       make([]string, len(keep)),
		Targets:    make([]string, len(keep)),
	}
	ctrl := make([]float64, len(keep))
	for i, row := range keep {
		fc.Keys[i] = counts.IDs[row]
		fc.Targets[i] = counts.Targets[row]
		ctrl[i] = ctrlSum[row]
	}
	ctrlTotal := floats.Sum(ctrl)
	if ctrlTotal == 0 {
		return nil, fmt.Errorf("%w: control columns %q sum to zero", ErrNumericDomain, ctrlNames)
	}
	pc := float64(pseudocount)
	for col, name := range counts.SampleNames {
		if isCtrl[col] {
			continue
		}
		sample := make([]float64, len(keep))
		for i, row := range keep {
			sample[i] = counts.Counts[col][row]
		}
		total := floats.Sum(sample)
		if total == 0 {
			return nil, fmt.Errorf("%w: sample column %q sums to zero", ErrNumericDomain, name)
		}
		values := make([]float64, len(keep))
		for i, x := range sample {
			v := math.Log2((x+pc)/total) - math.Log2((ctrl[i]+pc)/ctrlTotal)
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return nil, fmt.Errorf("%w: undefined log ratio for row %q column %q (count %v, control %v, pseudocount %d)", ErrNumericDomain, fc.Keys[i], name, x, ctrl[i], pseudocount)
			}
			values[i] = v
		}
		fc.Columns = append(fc.Columns, name)
		fc.Values = append(fc.Values, values)
	}
	if len(fc.Columns) == 0 {
		return nil, fmt.Errorf("%w: no sample columns left after removing controls %q", ErrConfiguration, ctrlNames)
	}
	return fc, nil
}
