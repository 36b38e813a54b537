// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io/ioutil"
	"strings"

	"gopkg.in/check.v1"
)

type readCountsSuite struct{}

var _ = check.Suite(&readCountsSuite{})

func (s *readCountsSuite) TestParse(c *check.C) {
	t, err := parseReadCounts(strings.NewReader("ID\tGENE\tT0\tR1\r\ng1\tA\t10\t30\n\ng2\tA_B\t20\t5\n"), "\t")
	c.Assert(err, check.IsNil)
	c.Check(t.IndexName, check.Equals, "ID")
	c.Check(t.TargetName, check.Equals, "GENE")
	c.Check(t.SampleNames, check.DeepEquals, []string{"T0", "R1"})
	c.Check(t.IDs, check.DeepEquals, []string{"g1", "g2"})
	c.Check(t.Targets, check.DeepEquals, []string{"A", "A_B"})
	c.Check(t.Counts, check.DeepEquals, [][]float64{{10, 20}, {30, 5}})
	c.Check(t.Rows(), check.Equals, 2)
}

func (s *readCountsSuite) TestParseErrors(c *check.C) {
	for _, trial := range []struct {
		input string
		match string
	}{
		{"", `data error: empty input`},
		{"ID\tGENE\n", `data error: header line has 2 fields.*`},
		{"ID\tGENE\tT0\ng1\tA\n", `data error: line 2: 2 fields, expected 3`},
		{"ID\tGENE\tT0\ng1\tA\t1\ng1\tB\t2\n", `data error: line 3: duplicate row ID "g1"`},
		{"ID\tGENE\tT0\ng1\t\t1\n", `data error: line 2: row "g1" has no target label`},
		{"ID\tGENE\tT0\ng1\tA\tabc\n", `data error: line 2: column "T0": .*invalid syntax`},
		{"ID\tGENE\tT0\ng1\tA\t-3\n", `data error: line 2: column "T0": invalid count -3`},
	} {
		_, err := parseReadCounts(strings.NewReader(trial.input), "\t")
		c.Check(err, check.ErrorMatches, trial.match, check.Commentf("input %q", trial.input))
		c.Check(errors.Is(err, ErrData), check.Equals, true)
	}
}

func (s *readCountsSuite) TestLoadCSVGzip(c *check.C) {
	tmpdir := c.MkDir()
	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	gzw.Write([]byte("ID,GENE,T0,R1\ng1,A,10,30\ng2,B,20,5\n"))
	gzw.Close()
	err := ioutil.WriteFile(tmpdir+"/counts.csv.gz", buf.Bytes(), 0644)
	c.Assert(err, check.IsNil)
	t, err := loadReadCounts(tmpdir + "/counts.csv.gz")
	c.Assert(err, check.IsNil)
	c.Check(t.SampleNames, check.DeepEquals, []string{"T0", "R1"})
	c.Check(t.Counts[1], check.DeepEquals, []float64{30, 5})

	_, err = loadReadCounts(tmpdir + "/missing.txt")
	c.Check(errors.Is(err, ErrConfiguration), check.Equals, true)
}

func (s *readCountsSuite) TestGeneLists(c *check.C) {
	tmpdir := c.MkDir()
	err := ioutil.WriteFile(tmpdir+"/genes.txt", []byte("A\r\nB\n\nC\n"), 0644)
	c.Assert(err, check.IsNil)
	genes, err := loadGeneList(tmpdir + "/genes.txt")
	c.Assert(err, check.IsNil)
	c.Check(genes, check.DeepEquals, []string{"A", "B", "C"})
	c.Check(unionGenes(genes, []string{"D", "B", "E", "D"}), check.DeepEquals, []string{"A", "B", "C", "D", "E"})
}
