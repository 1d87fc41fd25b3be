package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/theimaginaryfoundation/theme-o-tron/analysis"
	"github.com/theimaginaryfoundation/theme-o-tron/extract"
	"github.com/theimaginaryfoundation/theme-o-tron/ingest"
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

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(cfg.InPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("open -in: %w", err).Error())
		os.Exit(2)
	}

	opts := ingest.DefaultOptions()
	opts.IssueKeyColumn = cfg.IssueKeyColumn
	opts.CommentColumn = cfg.CommentColumn
	opts.MinCommentLength = cfg.MinCommentLength

	rows, err := ingest.LoadComments(f, opts)
	_ = f.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	log.Printf("loaded %d comment rows from %s", len(rows), cfg.InPath)

	if cfg.hasWindow() {
		created, resolvedStart, err := cfg.window()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
		rows = ingest.FilterDelayed(rows, created[0], created[1], resolvedStart)
		log.Printf("kept %d rows in the delay window", len(rows))
	}

	rows = ingest.CleanComments(rows, cfg.MinCommentLength)

	issues := ingest.AggregateByIssue(rows)
	if len(issues) == 0 {
		fmt.Fprintln(os.Stderr, "no issues with usable comments")
		os.Exit(1)
	}
	if cfg.MaxIssues > 0 && len(issues) > cfg.MaxIssues {
		issues = issues[:cfg.MaxIssues]
	}
	log.Printf("analyzing %d issues with %s", len(issues), cfg.Model)

	client := openai.NewClient(option.WithAPIKey(apiKey))
	analyzer, err := extract.NewAnalyzer(&client, cfg.Model, cfg.RequestsPerMinute)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	inputs := make([]extract.Input, len(issues))
	for i, issue := range issues {
		inputs[i] = extract.Input{IssueID: issue.IssueKey, Text: issue.Blob}
	}

	themes, err := analyzer.AnalyzeIssues(ctx, inputs, cfg.Concurrency)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if err := analysis.SaveRawThemes(cfg.OutPath, themes); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "issues_analyzed=%d themes=%d out=%s\n", len(issues), len(themes), cfg.OutPath)
}
