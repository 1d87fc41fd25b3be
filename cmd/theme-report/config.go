package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	InPath string
	OutDir string

	TargetKs      []int
	Seed          int64
	MaxIterations int

	StopPhrasesFile string
	Pretty          bool
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if len(c.TargetKs) == 0 {
		return errors.New("missing -k")
	}
	for _, k := range c.TargetKs {
		if k <= 0 {
			return fmt.Errorf("k must be > 0, got %d", k)
		}
	}
	if c.MaxIterations <= 0 {
		return errors.New("max-iterations must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		TargetKs:      []int{5, 10},
		Seed:          42,
		MaxIterations: 100,
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	var kList string
	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Path to raw_themes.jsonl")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Output directory for report.json + insights CSVs")
	fs.StringVar(&kList, "k", "5,10", "Comma-separated cluster counts to report (one partition each)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for reproducible clustering")
	fs.IntVar(&cfg.MaxIterations, "max-iterations", cfg.MaxIterations, "Clustering iteration cap per partition")
	fs.StringVar(&cfg.StopPhrasesFile, "stop-phrases", "", "Optional file with one stop phrase per line (default: built-in list)")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print report JSON")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.TargetKs = cfg.TargetKs[:0]
	for _, part := range strings.Split(kList, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, err := strconv.Atoi(part)
		if err != nil {
			return Config{}, fmt.Errorf("bad -k value %q", part)
		}
		cfg.TargetKs = append(cfg.TargetKs, k)
	}

	if cfg.InPath != "" {
		cfg.InPath = filepath.Clean(cfg.InPath)
	}
	if cfg.OutDir != "" {
		cfg.OutDir = filepath.Clean(cfg.OutDir)
	}
	if cfg.StopPhrasesFile != "" {
		cfg.StopPhrasesFile = filepath.Clean(cfg.StopPhrasesFile)
	}
	return cfg, nil
}
