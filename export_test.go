// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/check.v1"
)

type exportSuite struct{}

var _ = check.Suite(&exportSuite{})

func (s *exportSuite) TestOutputSuffix(c *check.C) {
	c.Check(outputSuffix(""), check.Equals, "")
	c.Check(outputSuffix("_"), check.Equals, "")
	c.Check(outputSuffix("run1"), check.Equals, "_run1")
	c.Check(outputSuffix("run1__"), check.Equals, "_run1")
	c.Check(joinOutputPath("s3://bucket/results/", "grape_pairs.txt"), check.Equals, "s3://bucket/results/grape_pairs.txt")
}

func (s *exportSuite) TestWritePairs(c *check.C) {
	var buf bytes.Buffer
	err := writePairs(&buf, []ZScoreRecord{{
		PairRecord: PairRecord{Pair: "A_B", FcObs: -3.90312, FcExp: -2.18, GIRaw: -1.72312, G1FC: -0.4177, G2FC: 0.081, DLFC: -3.5664},
		LocalStd:   0.6876,
		Z:          -2.4451,
		PvalSynth:  0.0072401,
		PadjSynth:  0.072401,
		PvalSupp:   0.99276,
		PadjSupp:   1,
	}})
	c.Assert(err, check.IsNil)
	c.Check(buf.String(), check.Equals,
		"GENE_PAIR\tfc_obs\tfc_exp\tGI_raw\tg1_fc\tg2_fc\tdLFC\tlocal_std\tGI_Zscore\tPval_synth\tPadj_synth\tPval_supp\tPadj_supp\n"+
			"A_B\t-3.903\t-2.180\t-1.723\t-0.418\t0.081\t-3.566\t0.688\t-2.445\t7.24e-03\t7.24e-02\t9.93e-01\t1.00e+00\n")
}

func (s *exportSuite) TestWriteFoldChange(c *check.C) {
	var buf bytes.Buffer
	err := writeFoldChange(&buf, replicateTable())
	c.Assert(err, check.IsNil)
	c.Check(buf.String(), check.Equals, "ID\tGENE\tR1\tR2\ng1\tB\t1.000\t3.000\ng2\tB\t3.000\t5.000\ng3\tA\t5.000\t7.000\n")

	buf.Reset()
	err = writeSingles(&buf, []SingleRecord{{Gene: "A", FcObs: 0.5, FcExp: -0.25}})
	c.Assert(err, check.IsNil)
	c.Check(buf.String(), check.Equals, "gene\tfc_obs\tfc_exp\nA\t0.500\t-0.250\n")
}

func (s *exportSuite) TestS3URI(c *check.C) {
	c.Check(isS3URI("s3://bucket/key"), check.Equals, true)
	c.Check(isS3URI("/tmp/s3://x"), check.Equals, false)
	bucket, key, err := splitS3URI("s3://bucket/dir/grape_pairs.txt")
	c.Check(err, check.IsNil)
	c.Check(bucket, check.Equals, "bucket")
	c.Check(key, check.Equals, "dir/grape_pairs.txt")
	for _, bad := range []string{"s3://bucket", "s3:///key", "s3://bucket/"} {
		_, _, err = splitS3URI(bad)
		c.Check(errors.Is(err, ErrConfiguration), check.Equals, true, check.Commentf("%q", bad))
	}
}

func (s *exportSuite) TestFailedWriteLeavesNoOutput(c *check.C) {
	failed := errors.New("disk on fire")
	partial := func(w io.Writer) error {
		io.WriteString(w, "GENE_PAIR\tfc_obs\n")
		return failed
	}
	tmpdir := c.MkDir()
	err := writeOutputFile(tmpdir, "grape_pairs.txt", partial)
	c.Check(errors.Is(err, failed), check.Equals, true)
	_, err = os.Stat(tmpdir + "/grape_pairs.txt")
	c.Check(os.IsNotExist(err), check.Equals, true, check.Commentf("%v", err))

	w := &s3Writer{uri: "s3://bucket/out/grape_pairs.txt"}
	c.Check(partial(w), check.Equals, failed)
	discardOutput(w.uri, w)
	c.Check(w.Len(), check.Equals, 0)
	c.Check(w.closed, check.Equals, true)
	// no upload is attempted after abort
	c.Check(w.Close(), check.IsNil)
}
