// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

const meanFCColumn = "meanFC"

// aggregate averages replicate columns into a single meanFC column
// (unless meanReplicates is false, in which case all columns are
// kept) and then, if groupByTarget is true, averages rows that share
// a target label. Grouped rows are keyed by label, in sorted order.
func aggregate(fc *FoldChangeTable, targetColumns []string, meanReplicates, groupByTarget bool) (*FoldChangeTable, error) {
	out := &FoldChangeTable{
		KeyName:    fc.KeyName,
		TargetName: fc.TargetName,
		Keys:       append([]string(nil), fc.Keys...),
		Targets:    append([]string(nil), fc.Targets...),
	}
	if meanReplicates {
		cols := make([]int, 0, len(fc.Columns))
		if len(targetColumns) == 0 {
			for i := range fc.Columns {
				cols = append(cols, i)
			}
		} else {
			for _, name := range targetColumns {
				i := fc.ColumnIndex(name)
				if i < 0 {
					return nil, fmt.Errorf("%w: target column %q not found in %q", ErrConfiguration, name, fc.Columns)
				}
				cols = append(cols, i)
			}
		}
		mean := make([]float64, fc.Rows())
		for row := range mean {
			for _, col := range cols {
				mean[row] += fc.Values[col][row]
			}
			mean[row] /= float64(len(cols))
		}
		out.Columns = []string{meanFCColumn}
		out.Values = [][]float64{mean}
	} else {
		out.Columns = append([]string(nil), fc.Columns...)
		out.Values = make([][]float64, len(fc.Values))
		for i, v := range fc.Values {
			out.Values[i] = append([]float64(nil), v...)
		}
	}
	if groupByTarget {
		out = groupByLabel(out)
	}
	return out, nil
}

// groupByLabel returns a table with one row per distinct target
// label, holding the mean of each column over that label's rows.
func groupByLabel(t *FoldChangeTable) *FoldChangeTable {
	members := map[string][]int{}
	for row, label := range t.Targets {
		members[label] = append(members[label], row)
	}
	labels := make([]string, 0, len(members))
	for label := range members {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	out := &FoldChangeTable{
		KeyName:    t.TargetName,
		TargetName: t.TargetName,
		Keys:       labels,
		Targets:    append([]string(nil), labels...),
		Columns:    append([]string(nil), t.Columns...),
		Values:     make([][]float64, len(t.Columns)),
	}
	for col := range t.Columns {
		out.Values[col] = make([]float64, len(labels))
		for i, label := range labels {
			rows := members[label]
			sum := 0.0
			for _, row := range rows {
				sum += t.Values[col][row]
			}
			out.Values[col][i] = sum / float64(len(rows))
		}
	}
	return out
}

// shifted returns a copy of t with offset[col] subtracted from every
// value in each column. Columns with a zero offset are shared with t.
func (t *FoldChangeTable) shifted(offset []float64) *FoldChangeTable {
	out := *t
	out.Values = make([][]float64, len(t.Values))
	for col, v := range t.Values {
		if offset[col] == 0 {
			out.Values[col] = v
			continue
		}
		out.Values[col] = make([]float64, len(v))
		for i, x := range v {
			out.Values[col][i] = x - offset[col]
		}
	}
	return &out
}

// modeCenter shifts the last (fold change) column so that the mode of
// its kernel density estimate is zero.
func modeCenter(t *FoldChangeTable) (*FoldChangeTable, error) {
	if t.Rows() == 0 {
		return nil, fmt.Errorf("%w: cannot mode-center an empty fold change table", ErrData)
	}
	last := len(t.Values) - 1
	mode, err := kdeMode(t.Values[last], kdeGridMin, kdeGridMax, kdeGridPoints)
	if err != nil {
		return nil, fmt.Errorf("mode centering column %q: %w", t.Columns[last], err)
	}
	log.Infof("mode centering: subtracting mode %.3f from %s", mode, t.Columns[last])
	offset := make([]float64, len(t.Values))
	offset[last] = mode
	return t.shifted(offset), nil
}

// referenceCenter subtracts, from each column, the median value of the
// rows whose key is one of the given reference genes.
func referenceCenter(t *FoldChangeTable, refGenes []string) (*FoldChangeTable, error) {
	isRef := make(map[string]bool, len(refGenes))
	for _, g := range refGenes {
		isRef[g] = true
	}
	var rows []int
	for row, key := range t.Keys {
		if isRef[key] {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: none of the %d reference genes are present in the fold change table", ErrData, len(refGenes))
	}
	offset := make([]float64, len(t.Values))
	vals := make([]float64, len(rows))
	for col := range t.Values {
		for i, row := range rows {
			vals[i] = t.Values[col][row]
		}
		offset[col] = median(vals)
	}
	log.Infof("reference centering: %d reference genes present, median %s = %.3f", len(rows), t.Columns[len(t.Columns)-1], offset[len(offset)-1])
	return t.shifted(offset), nil
}
