// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"bufio"
	"io"

	"github.com/kshedden/gonpy"
)

// writePairsNumpyFiles writes grape_pairs{sfx}.npy and the matching
// grape_pairs{sfx}.rows.txt label file to dir.
func writePairsNumpyFiles(dir, sfx string, pairs []ZScoreRecord) error {
	err := writeOutputFile(dir, "grape_pairs"+sfx+".npy", func(w io.Writer) error {
		return writePairsNumpy(w, pairs)
	})
	if err != nil {
		return err
	}
	return writeOutputFile(dir, "grape_pairs"+sfx+".rows.txt", func(w io.Writer) error {
		return writePairLabels(w, pairs)
	})
}

// writePairsNumpy writes the numeric pair columns as a rows×12
// float64 .npy matrix, in the same row order as pairs.
func writePairsNumpy(w io.Writer, pairs []ZScoreRecord) error {
	out := make([]float64, 0, len(pairs)*len(pairColumns))
	for _, p := range pairs {
		out = append(out, pairValues(p)...)
	}
	bufw := bufio.NewWriter(w)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return err
	}
	npw.Shape = []int{len(pairs), len(pairColumns)}
	err = npw.WriteFloat64(out)
	if err != nil {
		return err
	}
	return bufw.Flush()
}

// writePairLabels writes one pair label per line, matching the rows
// of the .npy matrix.
func writePairLabels(w io.Writer, pairs []ZScoreRecord) error {
	bufw := bufio.NewWriter(w)
	for _, p := range pairs {
		bufw.WriteString(p.Pair)
		bufw.WriteByte('\n')
	}
	return bufw.Flush()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
