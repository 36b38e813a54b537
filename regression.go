// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PairRecord is the regression result for one gene pair knockout.
type PairRecord struct {
	Pair  string
	FcObs float64 // observed fold change
	FcExp float64 // fold change predicted by the additive model
	GIRaw float64 // FcObs - FcExp
	G1FC  float64 // observed fold change of the first gene's single knockout
	G2FC  float64
	DLFC  float64 // FcObs - (G1FC + G2FC)
}

// SingleRecord is the observed and predicted fold change of a single
// gene knockout.
type SingleRecord struct {
	Gene  string
	FcObs float64
	FcExp float64
}

// RegressionMetadata describes a fitted additive model. It is only
// used for reporting.
type RegressionMetadata struct {
	RSquared     float64
	Intercept    float64 // 0 unless FitIntercept
	FitIntercept bool
	Rank         int       // effective rank of the design matrix
	Genes        []string  // predictor columns
	Coefficients []float64 // single gene effects, same order as Genes
}

// fitLeastSquares solves min |y - X b - c| by SVD, returning the
// minimum-norm solution b when X is rank deficient. If intercept is
// false, c is fixed at 0.
func fitLeastSquares(x mat.Matrix, y []float64, intercept bool) (coef []float64, c float64, rank int, err error) {
	m, n := x.Dims()
	xc := mat.DenseCopyOf(x)
	yc := append([]float64(nil), y...)
	xmean := make([]float64, n)
	var ymean float64
	if intercept {
		for j := 0; j < n; j++ {
			xmean[j] = mat.Sum(xc.ColView(j)) / float64(m)
			for i := 0; i < m; i++ {
				xc.Set(i, j, xc.At(i, j)-xmean[j])
			}
		}
		ymean = stat.Mean(yc, nil)
		for i := range yc {
			yc[i] -= ymean
		}
	}
	var svd mat.SVD
	if !svd.Factorize(xc, mat.SVDThin) {
		return nil, 0, 0, fmt.Errorf("%w: SVD of %d×%d predictor matrix failed", ErrNumericDomain, m, n)
	}
	eps := math.Nextafter(1, 2) - 1
	rank = svd.Rank(eps * float64(max(m, n)))
	if rank == 0 {
		// every predictor is constant (only possible after centering)
		return make([]float64, n), ymean, 0, nil
	}
	var b mat.Dense
	svd.SolveTo(&b, mat.NewDense(m, 1, yc), rank)
	coef = make([]float64, n)
	for j := range coef {
		coef[j] = b.At(j, 0)
	}
	if intercept {
		c = ymean - floats.Dot(xmean, coef)
	}
	return coef, c, rank, nil
}

// fitAdditiveModel fits fold change as a sum of single gene effects,
// then splits the knockouts into single gene references and pairs.
// For each pair it computes the genetic interaction residual (GI_raw)
// and the difference from the sum of the observed single gene fold
// changes (dLFC).
func fitAdditiveModel(pm *PredictorMatrix, y []float64, fitIntercept bool, delim string) ([]PairRecord, []SingleRecord, RegressionMetadata, error) {
	coef, intercept, rank, err := fitLeastSquares(pm.X, y, fitIntercept)
	if err != nil {
		return nil, nil, RegressionMetadata{}, err
	}
	var pred mat.VecDense
	pred.MulVec(pm.X, mat.NewVecDense(len(coef), coef))
	expected := make([]float64, len(y))
	for i := range expected {
		expected[i] = pred.AtVec(i) + intercept
	}
	meta := RegressionMetadata{
		RSquared:     stat.RSquaredFrom(expected, y, nil),
		Intercept:    intercept,
		FitIntercept: fitIntercept,
		Rank:         rank,
		Genes:        append([]string(nil), pm.Genes...),
		Coefficients: coef,
	}

	isGene := make(map[string]bool, len(pm.Genes))
	for _, g := range pm.Genes {
		isGene[g] = true
	}
	singleRow := map[string]int{}
	for i, label := range pm.Rows {
		if isGene[label] {
			singleRow[label] = i
		}
	}
	var singles []SingleRecord
	for _, g := range pm.Genes {
		if i, ok := singleRow[g]; ok {
			singles = append(singles, SingleRecord{Gene: g, FcObs: y[i], FcExp: expected[i]})
		}
	}

	var pairs []PairRecord
	for i, label := range pm.Rows {
		if isGene[label] {
			continue
		}
		genes := strings.Split(label, delim)
		if len(genes) != 2 {
			return nil, nil, meta, fmt.Errorf("%w: knockout %q does not split into exactly two genes on %q", ErrData, label, delim)
		}
		var fc [2]float64
		for k, g := range genes {
			row, ok := singleRow[g]
			if !ok {
				return nil, nil, meta, fmt.Errorf("%w: pair %q: gene %q has no single gene knockout to compare with", ErrData, label, g)
			}
			fc[k] = y[row]
		}
		pairs = append(pairs, PairRecord{
			Pair:  label,
			FcObs: y[i],
			FcExp: expected[i],
			GIRaw: y[i] - expected[i],
			G1FC:  fc[0],
			G2FC:  fc[1],
			DLFC:  y[i] - (fc[0] + fc[1]),
		})
	}
	return pairs, singles, meta, nil
}

// dynamicRangeFilter returns the pairs whose expected fold change is
// below the lowest observed pair fold change, i.e., outside the range
// the assay can measure.
func dynamicRangeFilter(pairs []PairRecord) []PairRecord {
	if len(pairs) == 0 {
		return nil
	}
	limit := math.Inf(1)
	for _, p := range pairs {
		limit = math.Min(limit, p.FcObs)
	}
	var out []PairRecord
	for _, p := range pairs {
		if p.FcExp < limit {
			out = append(out, p)
		}
	}
	return out
}
