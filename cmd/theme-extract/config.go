package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	InPath  string
	OutPath string
	Model   string
	APIKey  string

	CreatedStart  string
	CreatedEnd    string
	ResolvedStart string

	MinCommentLength  int
	MaxIssues         int
	RequestsPerMinute int
	Concurrency       int

	IssueKeyColumn string
	CommentColumn  string
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.OutPath == "" {
		return errors.New("missing -out")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.MinCommentLength < 0 {
		return errors.New("min-comment-len must be >= 0")
	}
	if c.MaxIssues < 0 {
		return errors.New("max-issues must be >= 0")
	}
	if c.RequestsPerMinute < 0 {
		return errors.New("rpm must be >= 0")
	}
	if c.Concurrency < 0 {
		return errors.New("concurrency must be >= 0")
	}
	if _, _, err := c.window(); err != nil {
		return err
	}
	return nil
}

// window parses the optional delay-window flags. All three must be set
// together or not at all.
func (c Config) window() (created [2]time.Time, resolvedStart time.Time, err error) {
	set := 0
	for _, s := range []string{c.CreatedStart, c.CreatedEnd, c.ResolvedStart} {
		if s != "" {
			set++
		}
	}
	if set == 0 {
		return created, resolvedStart, nil
	}
	if set != 3 {
		return created, resolvedStart, errors.New("set all of -created-start, -created-end, -resolved-start or none")
	}

	const layout = "2006-01-02"
	if created[0], err = time.Parse(layout, c.CreatedStart); err != nil {
		return created, resolvedStart, errors.New("bad -created-start (want YYYY-MM-DD)")
	}
	if created[1], err = time.Parse(layout, c.CreatedEnd); err != nil {
		return created, resolvedStart, errors.New("bad -created-end (want YYYY-MM-DD)")
	}
	if resolvedStart, err = time.Parse(layout, c.ResolvedStart); err != nil {
		return created, resolvedStart, errors.New("bad -resolved-start (want YYYY-MM-DD)")
	}
	return created, resolvedStart, nil
}

func (c Config) hasWindow() bool {
	return c.CreatedStart != "" || c.CreatedEnd != "" || c.ResolvedStart != ""
}

func defaultConfig() Config {
	return Config{
		Model:             "gpt-5-mini",
		MinCommentLength:  10,
		RequestsPerMinute: 20,
		Concurrency:       4,
		IssueKeyColumn:    "Issue key",
		CommentColumn:     "Comment",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Path to issue-tracker CSV export")
	fs.StringVar(&cfg.OutPath, "out", cfg.OutPath, "Output path for raw_themes.jsonl")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model to use (e.g. gpt-5-mini)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.StringVar(&cfg.CreatedStart, "created-start", "", "Keep issues created on/after this date (YYYY-MM-DD)")
	fs.StringVar(&cfg.CreatedEnd, "created-end", "", "Keep issues created on/before this date (YYYY-MM-DD)")
	fs.StringVar(&cfg.ResolvedStart, "resolved-start", "", "Keep issues resolved on/after this date, or unresolved (YYYY-MM-DD)")
	fs.IntVar(&cfg.MinCommentLength, "min-comment-len", cfg.MinCommentLength, "Drop comments shorter than N characters (0 disables)")
	fs.IntVar(&cfg.MaxIssues, "max-issues", 0, "Analyze only the first N issues (0 = all)")
	fs.IntVar(&cfg.RequestsPerMinute, "rpm", cfg.RequestsPerMinute, "Max model requests per minute (0 disables limiting)")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Max concurrent issue analyses")
	fs.StringVar(&cfg.IssueKeyColumn, "issue-column", cfg.IssueKeyColumn, "CSV column holding the issue key")
	fs.StringVar(&cfg.CommentColumn, "comment-column", cfg.CommentColumn, "CSV column holding the comment body")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.InPath != "" {
		cfg.InPath = filepath.Clean(cfg.InPath)
	}
	if cfg.OutPath != "" {
		cfg.OutPath = filepath.Clean(cfg.OutPath)
	}
	return cfg, nil
}
