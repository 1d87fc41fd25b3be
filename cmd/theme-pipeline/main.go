package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/theimaginaryfoundation/theme-o-tron/analysis/fileutils"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx := context.Background()

	stages := []string{"extract", "report"}
	if cfg.OnlyStage != "" {
		stages = []string{cfg.OnlyStage}
	}

	base := filepath.Clean(cfg.BaseDir)
	themesPath := filepath.Join(base, "raw_themes.jsonl")
	reportsDir := filepath.Join(base, "reports")

	for _, stage := range stages {
		switch stage {
		case "extract":
			if !cfg.Overwrite && fileutils.FileExists(themesPath) {
				fmt.Fprintln(os.Stdout, "skip extract: raw themes already exist")
				continue
			}
			args := []string{
				"run", "./cmd/theme-extract",
				"-in", cfg.CommentsPath,
				"-out", themesPath,
				"-model", cfg.Model,
				"-rpm", fmt.Sprintf("%d", cfg.RequestsPerMinute),
				"-concurrency", fmt.Sprintf("%d", cfg.Concurrency),
				"-max-issues", fmt.Sprintf("%d", cfg.MaxIssues),
			}
			if cfg.CreatedStart != "" {
				args = append(args,
					"-created-start", cfg.CreatedStart,
					"-created-end", cfg.CreatedEnd,
					"-resolved-start", cfg.ResolvedStart,
				)
			}
			if err := runGo(ctx, args...); err != nil {
				os.Exit(1)
			}
		case "report":
			args := []string{
				"run", "./cmd/theme-report",
				"-in", themesPath,
				"-out", reportsDir,
				"-k", cfg.TargetKs,
				"-seed", fmt.Sprintf("%d", cfg.Seed),
			}
			if cfg.Pretty {
				args = append(args, "-pretty")
			}
			if err := runGo(ctx, args...); err != nil {
				os.Exit(1)
			}
		default:
			fmt.Fprintln(os.Stderr, "unknown stage:", stage)
			os.Exit(2)
		}
	}
}

type Config struct {
	CommentsPath string
	BaseDir      string

	Model string

	CreatedStart  string
	CreatedEnd    string
	ResolvedStart string

	RequestsPerMinute int
	Concurrency       int
	MaxIssues         int

	TargetKs string
	Seed     int64

	OnlyStage string
	Pretty    bool
	Overwrite bool
}

func (c Config) Validate() error {
	if c.CommentsPath == "" {
		return fmt.Errorf("missing -comments")
	}
	if c.BaseDir == "" {
		return fmt.Errorf("missing -base-dir")
	}
	if c.Model == "" {
		return fmt.Errorf("missing -model")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		BaseDir:           filepath.FromSlash("out/delay-analysis"),
		Model:             "gpt-5-mini",
		RequestsPerMinute: 20,
		Concurrency:       4,
		TargetKs:          "5,10",
		Seed:              42,
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.CommentsPath, "comments", cfg.CommentsPath, "Path to issue-tracker CSV export")
	fs.StringVar(&cfg.BaseDir, "base-dir", cfg.BaseDir, "Base output directory")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model for theme extraction (uses OPENAI_API_KEY)")
	fs.StringVar(&cfg.CreatedStart, "created-start", "", "Delay window: issues created on/after (YYYY-MM-DD)")
	fs.StringVar(&cfg.CreatedEnd, "created-end", "", "Delay window: issues created on/before (YYYY-MM-DD)")
	fs.StringVar(&cfg.ResolvedStart, "resolved-start", "", "Delay window: issues resolved on/after, or unresolved (YYYY-MM-DD)")
	fs.IntVar(&cfg.RequestsPerMinute, "rpm", cfg.RequestsPerMinute, "Max model requests per minute")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Concurrent issue analyses")
	fs.IntVar(&cfg.MaxIssues, "max-issues", 0, "Limit number of issues analyzed (0 = all)")
	fs.StringVar(&cfg.TargetKs, "k", cfg.TargetKs, "Comma-separated cluster counts to report")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for reproducible clustering")
	fs.StringVar(&cfg.OnlyStage, "only-stage", "", "Run only one stage: extract|report")
	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Pretty-print report JSON")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Re-run extraction even when raw themes already exist")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.CommentsPath != "" {
		cfg.CommentsPath = filepath.Clean(cfg.CommentsPath)
	}
	return cfg, nil
}

func runGo(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "command failed:", "go "+strings.Join(args, " "))
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		return err
	}
	fmt.Fprintln(os.Stdout, "ok:", "go "+strings.Join(args, " "), "(", time.Since(start).Round(time.Millisecond).String()+")")
	return nil
}
