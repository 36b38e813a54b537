// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// PredictorMatrix is a binary design matrix: X[i][j] is 1 if knockout
// Rows[i] disrupts gene Genes[j]. Every row and every column has at
// least one nonzero entry.
type PredictorMatrix struct {
	Rows  []string
	Genes []string
	X     *mat.Dense
}

// splitPair splits a knockout label into its constituent genes. A
// label without the delimiter is a single gene knockout.
func splitPair(label, delim string) []string {
	if !strings.Contains(label, delim) {
		return []string{label}
	}
	return strings.Split(label, delim)
}

// buildPredictor returns the predictor matrix for the rows of fc that
// target only genes in targetGenes, and the matching response vector
// (the last fold change column). A pair is included only if each of
// its genes is in targetGenes and no gene is repeated. Genes with no
// qualifying rows are dropped. Column order follows targetGenes.
func buildPredictor(fc *FoldChangeTable, targetGenes []string, delim string) (*PredictorMatrix, []float64, error) {
	geneCol := make(map[string]int, len(targetGenes))
	var genes []string
	for _, g := range targetGenes {
		if _, dup := geneCol[g]; !dup {
			geneCol[g] = len(genes)
			genes = append(genes, g)
		}
	}

	type rowGenes struct {
		row  int
		cols []int
	}
	var rows []rowGenes
	used := make([]bool, len(genes))
ROW:
	for row, label := range fc.Keys {
		parts := splitPair(label, delim)
		cols := make([]int, 0, len(parts))
		seen := make(map[int]bool, len(parts))
		for _, g := range parts {
			col, ok := geneCol[g]
			if !ok || seen[col] {
				continue ROW
			}
			seen[col] = true
			cols = append(cols, col)
		}
		rows = append(rows, rowGenes{row, cols})
		for _, col := range cols {
			used[col] = true
		}
	}

	newCol := make([]int, len(genes))
	var keptGenes []string
	for col, g := range genes {
		if used[col] {
			newCol[col] = len(keptGenes)
			keptGenes = append(keptGenes, g)
		} else {
			newCol[col] = -1
		}
	}
	if len(rows) == 0 || len(keptGenes) == 0 {
		return nil, nil, fmt.Errorf("%w: predictor matrix is empty (%d rows, %d genes): no knockouts target only genes in the %d-gene target list", ErrData, len(rows), len(keptGenes), len(genes))
	}

	pm := &PredictorMatrix{
		Rows:  make([]string, len(rows)),
		Genes: keptGenes,
		X:     mat.NewDense(len(rows), len(keptGenes), nil),
	}
	response := fc.Response()
	y := make([]float64, len(rows))
	for i, r := range rows {
		pm.Rows[i] = fc.Keys[r.row]
		y[i] = response[r.row]
		for _, col := range r.cols {
			pm.X.Set(i, newCol[col], 1)
		}
	}
	log.Infof("regression matrix rows: %5d, cols: %3d", len(pm.Rows), len(pm.Genes))
	return pm, y, nil
}
