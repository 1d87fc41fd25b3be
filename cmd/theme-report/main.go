package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/theimaginaryfoundation/theme-o-tron/analysis"
)

func main() {
	_ = godotenv.Load()

	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	themes, err := analysis.LoadRawThemes(cfg.InPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	stopPhrases := analysis.DefaultStopPhrases
	if cfg.StopPhrasesFile != "" {
		stopPhrases, err = loadStopPhrases(cfg.StopPhrasesFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
	}

	runCfg := analysis.Config{
		TargetKs:      cfg.TargetKs,
		Seed:          cfg.Seed,
		MaxIterations: cfg.MaxIterations,
		StopPhrases:   stopPhrases,
	}

	result, err := analysis.Run(themes, runCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	log.Printf("analyzed %d themes across %d issues (seed=%d)", len(result.Themes), result.TotalIssues, result.Seed)

	for _, p := range result.Partitions {
		if !p.Converged {
			log.Printf("warning: clustering at k=%d hit the iteration cap before stabilizing; reporting best partition found", p.TargetK)
		}
	}

	report := analysis.BuildSummaryReport(result)

	reportPath := filepath.Join(cfg.OutDir, "report.json")
	if err := analysis.WriteSummaryReport(reportPath, report, cfg.Pretty); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	for _, section := range report.Sections {
		csvPath := filepath.Join(cfg.OutDir, fmt.Sprintf("insights_top%d.csv", section.TargetK))
		if err := analysis.WriteInsightsCSV(csvPath, section); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	fmt.Fprintf(os.Stdout, "themes=%d issues=%d report=%s\n", len(result.Themes), result.TotalIssues, reportPath)
}

func loadStopPhrases(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read -stop-phrases: %w", err)
	}
	var phrases []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		phrases = append(phrases, line)
	}
	return phrases, nil
}
