// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

var pairColumns = []string{
	"fc_obs", "fc_exp", "GI_raw", "g1_fc", "g2_fc", "dLFC", "local_std", "GI_Zscore",
	"Pval_synth", "Padj_synth", "Pval_supp", "Padj_supp",
}

// pairValues returns a ZScoreRecord's numeric fields in pairColumns
// order.
func pairValues(p ZScoreRecord) []float64 {
	return []float64{
		p.FcObs, p.FcExp, p.GIRaw, p.G1FC, p.G2FC, p.DLFC, p.LocalStd, p.Z,
		p.PvalSynth, p.PadjSynth, p.PvalSupp, p.PadjSupp,
	}
}

// outputSuffix returns "" or "_prefix" for use in output filenames.
func outputSuffix(prefix string) string {
	prefix = strings.TrimRight(prefix, "_")
	if prefix == "" {
		return ""
	}
	return "_" + prefix
}

func writePairs(w io.Writer, pairs []ZScoreRecord) error {
	bufw := bufio.NewWriter(w)
	fmt.Fprintf(bufw, "GENE_PAIR\t%s\n", strings.Join(pairColumns, "\t"))
	for _, p := range pairs {
		vals := pairValues(p)
		bufw.WriteString(p.Pair)
		for i, v := range vals {
			if i < 8 {
				fmt.Fprintf(bufw, "\t%.3f", v)
			} else {
				fmt.Fprintf(bufw, "\t%.2e", v)
			}
		}
		bufw.WriteByte('\n')
	}
	return bufw.Flush()
}

func writeSingles(w io.Writer, singles []SingleRecord) error {
	bufw := bufio.NewWriter(w)
	fmt.Fprint(bufw, "gene\tfc_obs\tfc_exp\n")
	for _, s := range singles {
		fmt.Fprintf(bufw, "%s\t%.3f\t%.3f\n", s.Gene, s.FcObs, s.FcExp)
	}
	return bufw.Flush()
}

// writeFoldChange writes t as a tab-separated table. The target
// label column is omitted when rows are keyed by target.
func writeFoldChange(w io.Writer, t *FoldChangeTable) error {
	bufw := bufio.NewWriter(w)
	withTarget := t.KeyName != t.TargetName
	bufw.WriteString(t.KeyName)
	if withTarget {
		bufw.WriteString("\t" + t.TargetName)
	}
	for _, c := range t.Columns {
		bufw.WriteString("\t" + c)
	}
	bufw.WriteByte('\n')
	for row, key := range t.Keys {
		bufw.WriteString(key)
		if withTarget {
			bufw.WriteString("\t" + t.Targets[row])
		}
		for col := range t.Columns {
			fmt.Fprintf(bufw, "\t%.3f", t.Values[col][row])
		}
		bufw.WriteByte('\n')
	}
	return bufw.Flush()
}

// writeOutputFile creates dir/name and fills it using write.
func writeOutputFile(dir, name string, write func(io.Writer) error) error {
	fnm := joinOutputPath(dir, name)
	log.WithFields(log.Fields{"path": fnm}).Info("writing")
	f, err := create(fnm)
	if err != nil {
		return err
	}
	defer f.Close()
	err = write(f)
	if err != nil {
		discardOutput(fnm, f)
		return fmt.Errorf("write %s: %w", fnm, err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", fnm, err)
	}
	return nil
}

// discardOutput drops a partially written output file: buffered
// uploads are aborted and local files are removed.
func discardOutput(fnm string, f io.WriteCloser) {
	if a, ok := f.(interface{ Abort() }); ok {
		a.Abort()
		return
	}
	f.Close()
	if err := os.Remove(fnm); err != nil {
		log.WithError(err).WithField("path", fnm).Warn("could not remove partial output file")
	}
}

// writeResults writes the pairs, singles, and centered fold change
// tables (and, if numpy is true, the numeric pairs matrix) to dir.
func writeResults(dir, prefix string, res *PipelineResult, numpy bool) error {
	sfx := outputSuffix(prefix)
	err := writeOutputFile(dir, "grape_pairs"+sfx+".txt", func(w io.Writer) error {
		return writePairs(w, res.Pairs)
	})
	if err != nil {
		return err
	}
	err = writeOutputFile(dir, "grape_singles"+sfx+".txt", func(w io.Writer) error {
		return writeSingles(w, res.Singles)
	})
	if err != nil {
		return err
	}
	err = writeOutputFile(dir, "modecenter_meanfc"+sfx+".txt", func(w io.Writer) error {
		return writeFoldChange(w, res.FoldChange)
	})
	if err != nil {
		return err
	}
	if numpy {
		return writePairsNumpyFiles(dir, sfx, res.Pairs)
	}
	return nil
}
