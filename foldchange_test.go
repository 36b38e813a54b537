// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"errors"
	"math"
	"strings"

	"gopkg.in/check.v1"
)

type foldChangeSuite struct{}

var _ = check.Suite(&foldChangeSuite{})

func mustParseCounts(c *check.C, tsv string) *ReadCountTable {
	t, err := parseReadCounts(strings.NewReader(tsv), "\t")
	c.Assert(err, check.IsNil)
	return t
}

const fcTestCounts = "ID\tGENE\tT0\tR1\tR2\n" +
	"g1\tA\t10\t30\t30\n" +
	"g2\tB\t30\t10\t10\n"

func (s *foldChangeSuite) TestLog2Ratio(c *check.C) {
	counts := mustParseCounts(c, fcTestCounts)
	fc, err := computeFoldChange(counts, []string{"T0"}, 0, 0)
	c.Assert(err, check.IsNil)
	c.Check(fc.Columns, check.DeepEquals, []string{"R1", "R2"})
	c.Check(fc.Keys, check.DeepEquals, []string{"g1", "g2"})
	c.Check(fc.Targets, check.DeepEquals, []string{"A", "B"})
	c.Check(fc.Values[0][0], approxEquals, math.Log2(3), 1e-12)
	c.Check(fc.Values[0][1], approxEquals, -math.Log2(3), 1e-12)

	fc, err = computeFoldChange(counts, []string{"T0"}, 0, 1)
	c.Assert(err, check.IsNil)
	c.Check(fc.Values[1][0], approxEquals, math.Log2(31.0/11), 1e-12)
}

func (s *foldChangeSuite) TestMinReads(c *check.C) {
	counts := mustParseCounts(c, fcTestCounts)
	fc, err := computeFoldChange(counts, []string{"1"}, 20, 1)
	c.Assert(err, check.IsNil)
	c.Check(fc.Keys, check.DeepEquals, []string{"g2"})
	c.Check(fc.Values[0][0], approxEquals, math.Log2(11.0/10)-math.Log2(31.0/30), 1e-12)
}

func (s *foldChangeSuite) TestControlColumns(c *check.C) {
	counts := mustParseCounts(c, fcTestCounts)
	for _, trial := range []struct {
		sel []string
		idx  []int
		err  string
	}{
		{sel: []string{"1"}, idx: []int{0}},
		{sel: []string{"T0", "R2"}, idx: []int{0, 2}},
		{sel: []string{"1", "3", "1"}, idx: []int{0, 2}},
		{sel: []string{"0"}, err: `configuration error: control column position 0 is the target label column "GENE"`},
		{sel: []string{"4"}, err: `configuration error: control column position 4 out of range .*`},
		{sel: []string{"T1"}, err: `configuration error: control column "T1" not found .*`},
		{sel: nil, err: `configuration error: no control columns specified`},
	} {
		idx, err := resolveControlColumns(counts, trial.sel)
		if trial.err != "" {
			c.Check(err, check.ErrorMatches, trial.err)
			c.Check(errors.Is(err, ErrConfiguration), check.Equals, true)
		} else {
			c.Check(err, check.IsNil)
			c.Check(idx, check.DeepEquals, trial.idx)
		}
	}
}

func (s *foldChangeSuite) TestDegenerate(c *check.C) {
	counts := mustParseCounts(c, "ID\tGENE\tT0\tR1\ng1\tA\t0\t3\ng2\tB\t0\t4\n")
	_, err := computeFoldChange(counts, []string{"T0"}, 0, 1)
	c.Check(errors.Is(err, ErrNumericDomain), check.Equals, true)

	counts = mustParseCounts(c, "ID\tGENE\tT0\tR1\ng1\tA\t5\t0\ng2\tB\t5\t0\n")
	_, err = computeFoldChange(counts, []string{"T0"}, 0, 1)
	c.Check(errors.Is(err, ErrNumericDomain), check.Equals, true)

	// zero count with no pseudocount
	counts = mustParseCounts(c, "ID\tGENE\tT0\tR1\ng1\tA\t5\t0\ng2\tB\t5\t4\n")
	_, err = computeFoldChange(counts, []string{"T0"}, 0, 0)
	c.Check(err, check.ErrorMatches, `numeric domain error: undefined log ratio for row "g1" column "R1".*`)

	counts = mustParseCounts(c, "ID\tGENE\tT0\ng1\tA\t5\n")
	_, err = computeFoldChange(counts, []string{"T0"}, 0, 1)
	c.Check(errors.Is(err, ErrConfiguration), check.Equals, true)
}

func (s *foldChangeSuite) TestIdenticalSamples(c *check.C) {
	counts := mustParseCounts(c, "ID\tGENE\tc1\tt1\ng1\tA\t5\t5\ng2\tB\t7\t7\ng3\tA_B\t9\t9\n")
	fc, err := computeFoldChange(counts, []string{"c1"}, 0, 1)
	c.Assert(err, check.IsNil)
	c.Check(fc.Values, check.DeepEquals, [][]float64{{0, 0, 0}})
}
