// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Evaluation grid for the fold change density estimate. The range
// covers typical log2 fold changes of a pooled screen.
const (
	kdeGridMin    = -5.0
	kdeGridMax    = 4.0
	kdeGridPoints = 901
)

// kdeMode returns the grid point where a Gaussian kernel density
// estimate of x is highest. The kernel bandwidth follows Scott's
// rule: sample std * n^(-1/5).
func kdeMode(x []float64, lo, hi float64, points int) (float64, error) {
	if len(x) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 values for density estimate, have %d", ErrNumericDomain, len(x))
	}
	std := stat.StdDev(x, nil)
	if !(std > 0) || math.IsInf(std, 0) {
		return 0, fmt.Errorf("%w: density estimate needs nonzero finite variance (std=%v)", ErrNumericDomain, std)
	}
	bw := std * math.Pow(float64(len(x)), -0.2)
	grid := floats.Span(make([]float64, points), lo, hi)
	density := make([]float64, points)
	for i, g := range grid {
		sum := 0.0
		for _, v := range x {
			sum += distuv.UnitNormal.Prob((g - v) / bw)
		}
		density[i] = sum
	}
	return grid[floats.MaxIdx(density)], nil
}

// quantileR7 returns the pth quantile of sorted values, linearly
// interpolating between the closest order statistics (R-7 method).
func quantileR7(sorted []float64, p float64) float64 {
	if len(sorted) == 1 || p >= 1 {
		return sorted[len(sorted)-1]
	}
	h := float64(len(sorted)-1) * p
	i := int(h)
	return sorted[i] + (h-math.Floor(h))*(sorted[i+1]-sorted[i])
}

// median returns the median of x without modifying it. NaN values are
// ignored.
func median(x []float64) float64 {
	sorted := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)
	return quantileR7(sorted, 0.5)
}

// iqrStdDev returns the sample standard deviation of x after removing
// values outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR].
func iqrStdDev(x []float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	q1, q3 := quantileR7(sorted, 0.25), quantileR7(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr
	lo := sort.SearchFloat64s(sorted, lower)
	hi := lo
	for hi < len(sorted) && sorted[hi] <= upper {
		hi++
	}
	return stat.StdDev(sorted[lo:hi], nil)
}
