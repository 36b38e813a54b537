// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import (
	"flag"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Config holds every option recognized by RunPipeline. Use
// DefaultConfig to get the documented defaults.
type Config struct {
	InputPath       string   // read count file
	OutputDirectory string   // directory (or s3:// prefix) for result files
	ControlColumns  []string // column labels, or 0-based positions (0 is the target column)
	TargetGeneFile  string   // genes of interest, one per line
	OutputPrefix    string

	MinReads    int // drop rows whose summed control count is below this
	Pseudocount int

	TargetColumns  []string // replicate columns to average (default all)
	MeanReplicates bool
	GroupByTargets bool

	NonessentialGeneFile string // reference genes for median centering (default: mode centering)
	QueryGeneFile        string // unioned into the target gene list

	PairDelimiter  string
	FitIntercept   bool
	HalfWindowSize int
	MonotoneFilter bool

	Threads      int    // workers for the windowed variance scan
	OutputNumpy  bool   // also write grape_pairs*.npy
	OutputSQLite string // also write results to this SQLite database
	MetricsFile  string // write prometheus text-format metrics here
}

// DefaultConfig returns a Config with the default option values and
// no input/output paths.
func DefaultConfig() Config {
	return Config{
		MinReads:       0,
		Pseudocount:    1,
		MeanReplicates: true,
		GroupByTargets: true,
		PairDelimiter:  "_",
		FitIntercept:   false,
		HalfWindowSize: 500,
		MonotoneFilter: false,
		Threads:        runtime.GOMAXPROCS(0),
	}
}

// stringList is a flag.Value that accepts comma-separated values
// and/or repeated flags.
type stringList struct {
	list *[]string
	set  bool
}

func (sl *stringList) String() string {
	if sl.list == nil {
		return ""
	}
	return strings.Join(*sl.list, ",")
}

func (sl *stringList) Set(s string) error {
	if !sl.set {
		// first explicit value replaces the default
		*sl.list = nil
		sl.set = true
	}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*sl.list = append(*sl.list, v)
		}
	}
	return nil
}

// negatedBool is a boolean flag.Value that stores the opposite of
// its value, so "-no-x" can set an option that defaults to true.
type negatedBool struct{ b *bool }

func (nb negatedBool) IsBoolFlag() bool { return true }

func (nb negatedBool) String() string {
	if nb.b == nil {
		return "false"
	}
	return strconv.FormatBool(!*nb.b)
}

func (nb negatedBool) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*nb.b = !v
	return nil
}

// Flags registers command line flags for all pipeline options,
// using the current field values as defaults.
func (cfg *Config) Flags(flags *flag.FlagSet) {
	flags.StringVar(&cfg.InputPath, "i", cfg.InputPath, "input read count `file` (tab-delimited, or .csv; .gz ok)")
	flags.StringVar(&cfg.OutputDirectory, "o", cfg.OutputDirectory, "output `directory`")
	flags.Var(&stringList{list: &cfg.ControlColumns}, "c", "control (T0) column `labels` or positions, comma-separated or repeated")
	flags.StringVar(&cfg.TargetGeneFile, "t", cfg.TargetGeneFile, "target gene list `file` (do not include control genes)")
	flags.StringVar(&cfg.OutputPrefix, "p", cfg.OutputPrefix, "`prefix` for output files")
	flags.IntVar(&cfg.MinReads, "min-reads", cfg.MinReads, "drop rows with fewer than `N` reads summed over the control columns")
	flags.IntVar(&cfg.Pseudocount, "pseudocount", cfg.Pseudocount, "pseudocount added to read counts before taking ratios")
	flags.Var(&stringList{list: &cfg.TargetColumns}, "target-columns", "replicate column `labels` to average (default all)")
	flags.Var(negatedBool{&cfg.MeanReplicates}, "no-mean-replicates", "do not average across replicate columns")
	flags.Var(negatedBool{&cfg.GroupByTargets}, "no-groupby-targets", "do not group fold changes by target label")
	flags.StringVar(&cfg.NonessentialGeneFile, "nonessential-gene-file", cfg.NonessentialGeneFile, "center on the median of reference genes listed in `file` instead of the mode")
	flags.StringVar(&cfg.QueryGeneFile, "query-gene-file", cfg.QueryGeneFile, "query gene list `file`, added to the target genes")
	flags.StringVar(&cfg.PairDelimiter, "genepair-del", cfg.PairDelimiter, "`delimiter` separating gene names in pair labels")
	flags.BoolVar(&cfg.FitIntercept, "fit-intercept", cfg.FitIntercept, "fit an intercept in the regression")
	flags.IntVar(&cfg.HalfWindowSize, "half-window-size", cfg.HalfWindowSize, "half window `size` for local variance (0 = global)")
	flags.BoolVar(&cfg.MonotoneFilter, "monotone-filter", cfg.MonotoneFilter, "force local standard deviation to be non-decreasing")
	flags.IntVar(&cfg.Threads, "threads", cfg.Threads, "number of worker `threads` for the local variance scan")
	flags.BoolVar(&cfg.OutputNumpy, "output-numpy", cfg.OutputNumpy, "also write pair results as a numpy matrix")
	flags.StringVar(&cfg.OutputSQLite, "output-sqlite", cfg.OutputSQLite, "also write results to SQLite database `file`")
	flags.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write prometheus metrics to `file` when done")
}

// Args returns command line arguments that reproduce cfg.
func (cfg Config) Args() []string {
	args := []string{
		"-i=" + cfg.InputPath,
		"-o=" + cfg.OutputDirectory,
		"-c=" + strings.Join(cfg.ControlColumns, ","),
		"-t=" + cfg.TargetGeneFile,
		"-p=" + cfg.OutputPrefix,
		fmt.Sprintf("-min-reads=%d", cfg.MinReads),
		fmt.Sprintf("-pseudocount=%d", cfg.Pseudocount),
		fmt.Sprintf("-no-mean-replicates=%v", !cfg.MeanReplicates),
		fmt.Sprintf("-no-groupby-targets=%v", !cfg.GroupByTargets),
		"-genepair-del=" + cfg.PairDelimiter,
		fmt.Sprintf("-fit-intercept=%v", cfg.FitIntercept),
		fmt.Sprintf("-half-window-size=%d", cfg.HalfWindowSize),
		fmt.Sprintf("-monotone-filter=%v", cfg.MonotoneFilter),
		fmt.Sprintf("-threads=%d", cfg.Threads),
	}
	if len(cfg.TargetColumns) > 0 {
		args = append(args, "-target-columns="+strings.Join(cfg.TargetColumns, ","))
	}
	if cfg.NonessentialGeneFile != "" {
		args = append(args, "-nonessential-gene-file="+cfg.NonessentialGeneFile)
	}
	if cfg.QueryGeneFile != "" {
		args = append(args, "-query-gene-file="+cfg.QueryGeneFile)
	}
	if cfg.OutputNumpy {
		args = append(args, "-output-numpy=true")
	}
	if cfg.OutputSQLite != "" {
		args = append(args, "-output-sqlite="+cfg.OutputSQLite)
	}
	if cfg.MetricsFile != "" {
		args = append(args, "-metrics-file="+cfg.MetricsFile)
	}
	return args
}

// Check returns an error wrapping ErrConfiguration if a required
// option is missing or a value is out of range.
func (cfg Config) Check() error {
	if err := cfg.checkFoldChange(); err != nil {
		return err
	}
	switch {
	case cfg.TargetGeneFile == "":
		return fmt.Errorf("%w: target gene file (-t) is required", ErrConfiguration)
	case cfg.HalfWindowSize < 0:
		return fmt.Errorf("%w: half window size %d < 0", ErrConfiguration, cfg.HalfWindowSize)
	case cfg.PairDelimiter == "":
		return fmt.Errorf("%w: gene pair delimiter is empty", ErrConfiguration)
	}
	return nil
}

// checkFoldChange checks only the options needed to compute the
// centered fold change table.
func (cfg Config) checkFoldChange() error {
	switch {
	case cfg.InputPath == "":
		return fmt.Errorf("%w: input file (-i) is required", ErrConfiguration)
	case cfg.OutputDirectory == "":
		return fmt.Errorf("%w: output directory (-o) is required", ErrConfiguration)
	case len(cfg.ControlColumns) == 0:
		return fmt.Errorf("%w: control columns (-c) are required", ErrConfiguration)
	case cfg.MinReads < 0:
		return fmt.Errorf("%w: min reads %d < 0", ErrConfiguration, cfg.MinReads)
	case cfg.Pseudocount < 0:
		return fmt.Errorf("%w: pseudocount %d < 0", ErrConfiguration, cfg.Pseudocount)
	}
	return nil
}
