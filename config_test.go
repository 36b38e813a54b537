// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"errors"
	"flag"
	"io/ioutil"

	"gopkg.in/check.v1"
)

type configSuite struct{}

var _ = check.Suite(&configSuite{})

func parseConfig(c *check.C, args ...string) Config {
	cfg := DefaultConfig()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(ioutil.Discard)
	cfg.Flags(flags)
	c.Assert(flags.Parse(args), check.IsNil)
	return cfg
}

func (s *configSuite) TestDefaults(c *check.C) {
	cfg := parseConfig(c)
	c.Check(cfg.Pseudocount, check.Equals, 1)
	c.Check(cfg.MinReads, check.Equals, 0)
	c.Check(cfg.MeanReplicates, check.Equals, true)
	c.Check(cfg.GroupByTargets, check.Equals, true)
	c.Check(cfg.PairDelimiter, check.Equals, "_")
	c.Check(cfg.FitIntercept, check.Equals, false)
	c.Check(cfg.HalfWindowSize, check.Equals, 500)
	c.Check(cfg.MonotoneFilter, check.Equals, false)
	c.Check(cfg.Threads > 0, check.Equals, true)
	err := cfg.Check()
	c.Check(err, check.ErrorMatches, `configuration error: input file \(-i\) is required`)
}

func (s *configSuite) TestFlags(c *check.C) {
	cfg := parseConfig(c,
		"-i", "counts.txt", "-o", "out",
		"-c", "T0", "-c=T0b,T0c",
		"-t", "targets.txt",
		"-target-columns", "R1, R2",
		"-no-mean-replicates", "-no-groupby-targets=false",
		"-genepair-del=:", "-fit-intercept", "-half-window-size=0", "-monotone-filter",
		"-output-sqlite=grape.db")
	c.Check(cfg.ControlColumns, check.DeepEquals, []string{"T0", "T0b", "T0c"})
	c.Check(cfg.TargetColumns, check.DeepEquals, []string{"R1", "R2"})
	c.Check(cfg.MeanReplicates, check.Equals, false)
	c.Check(cfg.GroupByTargets, check.Equals, true)
	c.Check(cfg.PairDelimiter, check.Equals, ":")
	c.Check(cfg.FitIntercept, check.Equals, true)
	c.Check(cfg.HalfWindowSize, check.Equals, 0)
	c.Check(cfg.MonotoneFilter, check.Equals, true)
	c.Check(cfg.OutputSQLite, check.Equals, "grape.db")
	c.Check(cfg.Check(), check.IsNil)

	// Args reproduces the same config
	c.Check(parseConfig(c, cfg.Args()...), check.DeepEquals, cfg)
}

func (s *configSuite) TestCheck(c *check.C) {
	good := parseConfig(c, "-i=x", "-o=y", "-c=1", "-t=z")
	c.Check(good.Check(), check.IsNil)
	for _, trial := range []struct {
		modify func(*Config)
		match  string
	}{
		{func(cfg *Config) { cfg.OutputDirectory = "" }, `.*output directory.*`},
		{func(cfg *Config) { cfg.ControlColumns = nil }, `.*control columns.*`},
		{func(cfg *Config) { cfg.TargetGeneFile = "" }, `.*target gene file.*`},
		{func(cfg *Config) { cfg.MinReads = -1 }, `.*min reads -1 < 0`},
		{func(cfg *Config) { cfg.Pseudocount = -1 }, `.*pseudocount -1 < 0`},
		{func(cfg *Config) { cfg.HalfWindowSize = -1 }, `.*half window size -1 < 0`},
		{func(cfg *Config) { cfg.PairDelimiter = "" }, `.*delimiter is empty`},
	} {
		cfg := good
		trial.modify(&cfg)
		err := cfg.Check()
		c.Check(err, check.ErrorMatches, trial.match)
		c.Check(errors.Is(err, ErrConfiguration), check.Equals, true)
	}
}
