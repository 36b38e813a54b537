// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"fmt"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ZScoreRecord adds a locally normalized interaction score and its
// significance to a PairRecord.
type ZScoreRecord struct {
	PairRecord
	LocalStd  float64
	Z         float64
	PvalSynth float64 // P(Z' <= Z): synthetic/aggravating direction
	PadjSynth float64
	PvalSupp  float64 // P(Z' >= Z): suppressing direction
	PadjSupp  float64
}

// scoreInteractions converts GI residuals to Z-scores using the
// standard deviation of residuals among pairs with similar expected
// fold change (a window of 2*halfWindow pairs in expected fold change
// order), or the global standard score if halfWindow is 0. Both
// one-sided p-values and their BH adjustments are computed for every
// pair. The result is sorted by Z, ascending.
//
// If there are fewer than 2*halfWindow+1 pairs, the window scan is
// impossible and the global standard score is used instead.
func scoreInteractions(pairs []PairRecord, halfWindow int, monotone bool, threads int) ([]ZScoreRecord, error) {
	n := len(pairs)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 gene pairs to compute Z-scores, have %d", ErrData, n)
	}
	recs := make([]ZScoreRecord, n)
	for i, p := range pairs {
		recs[i].PairRecord = p
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].FcExp > recs[j].FcExp })
	gi := make([]float64, n)
	for i, r := range recs {
		gi[i] = r.GIRaw
	}

	if halfWindow > 0 && n < 2*halfWindow+1 {
		log.Warnf("only %d gene pairs, need %d for half window size %d: using global variance", n, 2*halfWindow+1, halfWindow)
		halfWindow = 0
	}
	if halfWindow == 0 {
		std := stat.StdDev(gi, nil)
		mean, popStd := stat.PopMeanStdDev(gi, nil)
		if !(popStd > 0) || math.IsInf(popStd, 0) {
			return nil, fmt.Errorf("%w: GI_raw has zero or undefined variance across %d pairs", ErrNumericDomain, n)
		}
		for i := range recs {
			recs[i].LocalStd = std
			recs[i].Z = stat.StdScore(gi[i], mean, popStd)
		}
	} else {
		local, err := localStdScan(gi, halfWindow, monotone, threads)
		if err != nil {
			return nil, err
		}
		for i := range recs {
			if !(local[i] > 0) || math.IsInf(local[i], 0) {
				return nil, fmt.Errorf("%w: local standard deviation is %v at pair %q (sorted position %d): cannot compute Z-score", ErrNumericDomain, local[i], recs[i].Pair, i)
			}
			recs[i].LocalStd = local[i]
			recs[i].Z = gi[i] / local[i]
		}
	}

	synth := make([]float64, n)
	supp := make([]float64, n)
	for i, r := range recs {
		synth[i] = distuv.UnitNormal.CDF(r.Z)
		supp[i] = distuv.UnitNormal.Survival(r.Z)
	}
	synthAdj := benjaminiHochberg(synth)
	suppAdj := benjaminiHochberg(supp)
	for i := range recs {
		recs[i].PvalSynth, recs[i].PadjSynth = synth[i], synthAdj[i]
		recs[i].PvalSupp, recs[i].PadjSupp = supp[i], suppAdj[i]
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Z < recs[j].Z })
	return recs, nil
}

// localStdScan returns, for each position in gi (residuals sorted by
// expected fold change), the outlier-trimmed standard deviation of
// the surrounding window. Windows are centered every ceil(hw/5)
// positions from hw to len(gi)-hw; each value covers the positions up
// to the next window center, and positions before the first / after
// the last scanned position take the nearest scanned value. With
// monotone, the result is non-decreasing.
//
// Window statistics are computed on up to threads goroutines. A
// window with a non-finite standard deviation is an error.
func localStdScan(gi []float64, hw int, monotone bool, threads int) ([]float64, error) {
	n := len(gi)
	step := (hw + 4) / 5
	var centers []int
	for i := hw; i < n-hw; i += step {
		centers = append(centers, i)
	}
	stds := make([]float64, len(centers))
	t := throttle{Max: threads}
	for k, i := range centers {
		k, i := k, i
		t.Go(func() error {
			std := iqrStdDev(gi[i-hw : i+hw])
			if math.IsNaN(std) || math.IsInf(std, 0) {
				return fmt.Errorf("%w: standard deviation of window centered at sorted position %d is %v", ErrNumericDomain, i, std)
			}
			stds[k] = std
			return nil
		})
	}
	if err := t.Wait(); err != nil {
		return nil, err
	}

	local := make([]float64, n)
	for k, i := range centers {
		v := stds[k]
		if monotone && v < local[i-1] {
			v = local[i-1]
		}
		for j := i; j < i+step && j < n; j++ {
			local[j] = v
		}
	}
	for j := 0; j < hw; j++ {
		local[j] = local[hw]
	}
	for j := n - hw; j < n; j++ {
		local[j] = local[n-hw-1]
	}
	return local, nil
}
