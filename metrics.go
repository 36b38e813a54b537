// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// runMetrics collects per-run statistics in a private registry so
// they can be dumped in text exposition format when the run ends. A
// nil *runMetrics discards everything.
type runMetrics struct {
	registry     *prometheus.Registry
	stageSeconds *prometheus.GaugeVec
	rows         *prometheus.GaugeVec
	removedPairs prometheus.Gauge
	rSquared     prometheus.Gauge
	significant  *prometheus.GaugeVec
}

func newRunMetrics() *runMetrics {
	m := &runMetrics{
		registry: prometheus.NewRegistry(),
		stageSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "grape",
			Name:      "stage_duration_seconds",
			Help:      "Wall clock time spent in each pipeline stage.",
		}, []string{"stage"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "grape",
			Name:      "rows",
			Help:      "Number of rows in each intermediate table.",
		}, []string{"table"}),
		removedPairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grape",
			Name:      "dynamic_range_removed_pairs",
			Help:      "Gene pairs removed because the expected fold change is below the observed range.",
		}),
		rSquared: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "grape",
			Name:      "regression_r_squared",
			Help:      "Coefficient of determination of the final additive model.",
		}),
		significant: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "grape",
			Name:      "significant_pairs",
			Help:      "Gene pairs with adjusted p-value below 0.05.",
		}, []string{"direction"}),
	}
	m.registry.MustRegister(m.stageSeconds, m.rows, m.removedPairs, m.rSquared, m.significant)
	return m
}

// stage records the time since t0 as the duration of the named stage.
func (m *runMetrics) stage(name string, t0 time.Time) {
	if m == nil {
		return
	}
	m.stageSeconds.WithLabelValues(name).Set(time.Since(t0).Seconds())
}

func (m *runMetrics) tableRows(name string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(name).Set(float64(n))
}

func (m *runMetrics) result(res *PipelineResult) {
	if m == nil {
		return
	}
	m.removedPairs.Set(float64(len(res.Removed)))
	m.rSquared.Set(res.Metadata.RSquared)
	var synth, supp int
	for _, p := range res.Pairs {
		if p.PadjSynth < 0.05 {
			synth++
		}
		if p.PadjSupp < 0.05 {
			supp++
		}
	}
	m.significant.WithLabelValues("synth").Set(float64(synth))
	m.significant.WithLabelValues("supp").Set(float64(supp))
}

// writeFile writes all collected metrics to fnm.
func (m *runMetrics) writeFile(fnm string) error {
	if m == nil {
		return nil
	}
	log.WithField("path", fnm).Info("writing metrics")
	return prometheus.WriteToTextfile(fnm, m.registry)
}
