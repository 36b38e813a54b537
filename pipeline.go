// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// PipelineResult holds everything RunPipeline computes.
type PipelineResult struct {
	// Centered fold change table before the dynamic range filter
	// (written as modecenter_meanfc*.txt).
	FoldChange *FoldChangeTable
	Pairs      []ZScoreRecord // sorted by Z, ascending
	Singles    []SingleRecord
	Metadata   RegressionMetadata
	Removed    []PairRecord // pairs dropped by the dynamic range filter
}

// RunPipeline computes fold changes from the read counts in
// cfg.InputPath, fits the additive model, and scores every gene pair.
// It does not write any output files.
func RunPipeline(cfg Config) (*PipelineResult, error) {
	return runPipeline(cfg, nil)
}

// runPipeline is RunPipeline, recording stage metrics in m (which may
// be nil).
func runPipeline(cfg Config, m *runMetrics) (*PipelineResult, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	agg, center, err := foldChangeStages(cfg, m)
	if err != nil {
		return nil, err
	}
	t0 := time.Now()
	centered, err := center(agg)
	if err != nil {
		return nil, err
	}
	m.stage("center", t0)

	targets, err := loadGeneList(cfg.TargetGeneFile)
	if err != nil {
		return nil, err
	}
	if cfg.QueryGeneFile != "" {
		queries, err := loadGeneList(cfg.QueryGeneFile)
		if err != nil {
			return nil, err
		}
		targets = unionGenes(targets, queries)
	}

	t0 = time.Now()
	fit := func(t *FoldChangeTable) ([]PairRecord, []SingleRecord, RegressionMetadata, error) {
		pm, y, err := buildPredictor(t, targets, cfg.PairDelimiter)
		if err != nil {
			return nil, nil, RegressionMetadata{}, err
		}
		m.tableRows("predictor", len(pm.Rows))
		return fitAdditiveModel(pm, y, cfg.FitIntercept, cfg.PairDelimiter)
	}
	pairs, singles, meta, err := fit(centered)
	if err != nil {
		return nil, err
	}
	removed := dynamicRangeFilter(pairs)
	log.Infof("Dynamic range filter removed %d gene pairs", len(removed))
	if len(removed) > 0 {
		// Recenter without the removed pairs, then refit.
		drop := make(map[string]bool, len(removed))
		for _, p := range removed {
			drop[p.Pair] = true
		}
		recentered, err := center(agg.withoutKeys(drop))
		if err != nil {
			return nil, err
		}
		pairs, singles, meta, err = fit(recentered)
		if err != nil {
			return nil, err
		}
	}
	if meta.FitIntercept {
		log.Infof("regression R-squared %.4f, intercept %.4f, rank %d", meta.RSquared, meta.Intercept, meta.Rank)
	} else {
		log.Infof("regression R-squared %.4f, rank %d", meta.RSquared, meta.Rank)
	}
	m.stage("regression", t0)

	t0 = time.Now()
	scored, err := scoreInteractions(pairs, cfg.HalfWindowSize, cfg.MonotoneFilter, cfg.Threads)
	if err != nil {
		return nil, err
	}
	m.stage("zscore", t0)

	res := &PipelineResult{
		FoldChange: centered,
		Pairs:      scored,
		Singles:    singles,
		Metadata:   meta,
		Removed:    removed,
	}
	m.result(res)
	return res, nil
}

type centerFunc func(*FoldChangeTable) (*FoldChangeTable, error)

// foldChangeStages loads read counts and returns the aggregated
// (uncentered) fold change table, along with the centering method
// selected by cfg.
func foldChangeStages(cfg Config, m *runMetrics) (*FoldChangeTable, centerFunc, error) {
	t0 := time.Now()
	counts, err := loadReadCounts(cfg.InputPath)
	if err != nil {
		return nil, nil, err
	}
	m.stage("load", t0)
	m.tableRows("read_counts", counts.Rows())

	t0 = time.Now()
	fc, err := computeFoldChange(counts, cfg.ControlColumns, cfg.MinReads, cfg.Pseudocount)
	if err != nil {
		return nil, nil, err
	}
	agg, err := aggregate(fc, cfg.TargetColumns, cfg.MeanReplicates, cfg.GroupByTargets)
	if err != nil {
		return nil, nil, err
	}
	m.stage("foldchange", t0)
	m.tableRows("foldchange", agg.Rows())

	if cfg.NonessentialGeneFile == "" {
		return agg, modeCenter, nil
	}
	refGenes, err := loadGeneList(cfg.NonessentialGeneFile)
	if err != nil {
		return nil, nil, err
	}
	return agg, func(t *FoldChangeTable) (*FoldChangeTable, error) {
		return referenceCenter(t, refGenes)
	}, nil
}

// centeredFoldChange returns the centered aggregated fold change
// table, without fitting anything.
func centeredFoldChange(cfg Config, m *runMetrics) (*FoldChangeTable, error) {
	if err := cfg.checkFoldChange(); err != nil {
		return nil, err
	}
	agg, center, err := foldChangeStages(cfg, m)
	if err != nil {
		return nil, err
	}
	return center(agg)
}
