// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/check.v1"
)

type predictorSuite struct{}

var _ = check.Suite(&predictorSuite{})

// labelTable returns a single-column fold change table keyed by
// knockout label.
func labelTable(labels []string, values []float64) *FoldChangeTable {
	return &FoldChangeTable{
		KeyName:    "GENE",
		TargetName: "GENE",
		Keys:       labels,
		Targets:    labels,
		Columns:    []string{meanFCColumn},
		Values:     [][]float64{values},
	}
}

func (s *predictorSuite) TestBuild(c *check.C) {
	fc := labelTable(
		[]string{"A", "A_B", "A_A", "B", "C", "C_X", "D", "B_C"},
		[]float64{1, 2, 3, 4, 5, 6, 7, 8})
	pm, y, err := buildPredictor(fc, []string{"C", "A", "B", "E", "A"}, "_")
	c.Assert(err, check.IsNil)
	c.Check(pm.Rows, check.DeepEquals, []string{"A", "A_B", "B", "C", "B_C"})
	c.Check(pm.Genes, check.DeepEquals, []string{"C", "A", "B"})
	c.Check(y, check.DeepEquals, []float64{1, 2, 4, 5, 8})
	c.Check(mat.Equal(pm.X, mat.NewDense(5, 3, []float64{
		0, 1, 0,
		0, 1, 1,
		0, 0, 1,
		1, 0, 0,
		1, 0, 1,
	})), check.Equals, true, check.Commentf("%v", mat.Formatted(pm.X)))
}

func (s *predictorSuite) TestDelimiter(c *check.C) {
	fc := labelTable([]string{"A", "B", "A:B", "A_B"}, []float64{1, 2, 3, 4})
	pm, _, err := buildPredictor(fc, []string{"A", "B"}, ":")
	c.Assert(err, check.IsNil)
	c.Check(pm.Rows, check.DeepEquals, []string{"A", "B", "A:B"})
	c.Check(splitPair("A:B", ":"), check.DeepEquals, []string{"A", "B"})
	c.Check(splitPair("A_B", ":"), check.DeepEquals, []string{"A_B"})
}

func (s *predictorSuite) TestEmpty(c *check.C) {
	fc := labelTable([]string{"A", "B"}, []float64{1, 2})
	_, _, err := buildPredictor(fc, []string{"X", "Y"}, "_")
	c.Check(errors.Is(err, ErrData), check.Equals, true)
	_, _, err = buildPredictor(fc, nil, "_")
	c.Check(errors.Is(err, ErrData), check.Equals, true)
}
