package analysis

import "fmt"

// Config carries the knobs one analysis run needs and nothing else. It is
// passed explicitly into Run; there is no process-wide analysis state.
type Config struct {
	// TargetKs are the cluster counts to produce, one independent partition
	// per value. The coarse view is not a refinement of the fine one.
	TargetKs []int

	// Seed fixes clustering initialization so reports are reproducible and
	// auditable. The configured value is echoed in the Result.
	Seed int64

	// MaxIterations caps k-means refinement per partition.
	MaxIterations int

	// StopPhrases is the boilerplate list stripped by the normalizer.
	StopPhrases []string
}

// DefaultConfig returns the standard top-5/top-10 configuration.
func DefaultConfig() Config {
	return Config{
		TargetKs:      []int{5, 10},
		Seed:          42,
		MaxIterations: 100,
		StopPhrases:   DefaultStopPhrases,
	}
}

func (c Config) Validate() error {
	if len(c.TargetKs) == 0 {
		return fmt.Errorf("Config: no target K values: %w", ErrInvalidConfiguration)
	}
	for _, k := range c.TargetKs {
		if k <= 0 {
			return fmt.Errorf("Config: target K %d: %w", k, ErrInvalidConfiguration)
		}
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("Config: max iterations %d: %w", c.MaxIterations, ErrInvalidConfiguration)
	}
	return nil
}

// Partition is the clustering + ranking output for one target K.
type Partition struct {
	TargetK  int
	Clusters []*ThemeCluster
	Ranked   []RankedThemeEntry

	// Converged is false when the iteration cap was hit; the partition is
	// still the best assignment found and the run does not fail.
	Converged bool
}

// Result is the output of one analysis run.
type Result struct {
	Themes      []NormalizedTheme
	Partitions  []Partition
	TotalIssues int
	Seed        int64
}

// PartitionFor returns the partition produced for the given target K.
func (r *Result) PartitionFor(k int) (Partition, bool) {
	for _, p := range r.Partitions {
		if p.TargetK == k {
			return p, true
		}
	}
	return Partition{}, false
}

// Run executes the core pipeline: normalize and vectorize once, then cluster
// and rank independently per configured K. Empty input is a valid degenerate
// outcome: every partition comes back with no clusters and no ranked entries.
func Run(raws []RawTheme, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	themes := NormalizeAll(raws, cfg.StopPhrases)
	Vectorize(themes)

	totalIssues := 0
	{
		seen := make(map[string]struct{}, len(themes))
		for i := range themes {
			seen[themes[i].IssueID] = struct{}{}
		}
		totalIssues = len(seen)
	}

	result := &Result{
		Themes:      themes,
		TotalIssues: totalIssues,
		Seed:        cfg.Seed,
	}

	for _, k := range cfg.TargetKs {
		cr, err := Cluster(themes, k, cfg.Seed, cfg.MaxIterations)
		if err != nil {
			return nil, fmt.Errorf("Run: cluster at k=%d: %w", k, err)
		}
		result.Partitions = append(result.Partitions, Partition{
			TargetK:   k,
			Clusters:  cr.Clusters,
			Ranked:    Rank(cr.Clusters, totalIssues, k),
			Converged: cr.Converged,
		})
	}
	return result, nil
}
