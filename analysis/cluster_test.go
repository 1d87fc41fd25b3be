package analysis

import (
	"errors"
	"fmt"
	"testing"
)

// fixtureThemes builds count distinct themes drawn from a few vocabulary
// families so clustering has real structure to find. Each theme belongs to a
// unique issue.
func fixtureThemes(count int) []NormalizedTheme {
	families := []string{
		"technical debt refactoring",
		"resource constraints staffing",
		"blocked by dependencies",
		"unclear requirements scope",
		"testing qa bottleneck",
	}
	themes := make([]NormalizedTheme, count)
	for i := range themes {
		text := fmt.Sprintf("%s variant %d", families[i%len(families)], i)
		themes[i] = NormalizedTheme{
			RawTheme: RawTheme{
				IssueID:   fmt.Sprintf("PROJ-%d", i+1),
				Text:      text,
				Sentiment: SentimentNegative,
			},
			NormalizedText: text,
		}
	}
	Vectorize(themes)
	return themes
}

func memberTotal(clusters []*ThemeCluster) int {
	n := 0
	for _, c := range clusters {
		n += len(c.Members)
	}
	return n
}

func TestCluster_ThirtyNineThemesIntoFive(t *testing.T) {
	t.Parallel()

	themes := fixtureThemes(39)
	res, err := Cluster(themes, 5, 42, 100)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(res.Clusters) != 5 {
		t.Fatalf("clusters=%d, want 5", len(res.Clusters))
	}
	if got := memberTotal(res.Clusters); got != 39 {
		t.Fatalf("member total=%d, want 39", got)
	}
	for _, c := range res.Clusters {
		if len(c.Members) == 0 {
			t.Fatalf("cluster %d is empty", c.ClusterID)
		}
		if c.IssueCount > 39 {
			t.Fatalf("cluster %d issue count=%d", c.ClusterID, c.IssueCount)
		}
	}
}

func TestCluster_PartitionCompleteness(t *testing.T) {
	t.Parallel()

	themes := fixtureThemes(23)
	res, err := Cluster(themes, 5, 7, 100)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}

	seen := make(map[string]int)
	for _, c := range res.Clusters {
		for _, m := range c.Members {
			seen[m.IssueID]++
		}
	}
	if len(seen) != 23 {
		t.Fatalf("distinct members=%d, want 23", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("theme %s assigned %d times", id, n)
		}
	}
}

func TestCluster_FewerThemesThanK(t *testing.T) {
	t.Parallel()

	themes := fixtureThemes(3)
	res, err := Cluster(themes, 10, 42, 100)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(res.Clusters) != 3 {
		t.Fatalf("clusters=%d, want 3 (one per distinct theme)", len(res.Clusters))
	}
	if !res.Converged {
		t.Fatalf("degenerate partition should be converged")
	}
	for _, c := range res.Clusters {
		if len(c.Members) != 1 {
			t.Fatalf("cluster %d has %d members, want 1", c.ClusterID, len(c.Members))
		}
	}
}

func TestCluster_DuplicateTextsShareCluster(t *testing.T) {
	t.Parallel()

	themes := []NormalizedTheme{
		{RawTheme: RawTheme{IssueID: "A-1", Text: "Technical debt", Sentiment: SentimentNegative}, NormalizedText: "technical debt"},
		{RawTheme: RawTheme{IssueID: "A-2", Text: "Technical Debt", Sentiment: SentimentNegative}, NormalizedText: "technical debt"},
		{RawTheme: RawTheme{IssueID: "A-3", Text: "vendor delay", Sentiment: SentimentNeutral}, NormalizedText: "vendor delay"},
		{RawTheme: RawTheme{IssueID: "A-4", Text: "staffing gap", Sentiment: SentimentNegative}, NormalizedText: "staffing gap"},
	}
	Vectorize(themes)

	res, err := Cluster(themes, 3, 1, 100)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}

	var debt *ThemeCluster
	for _, c := range res.Clusters {
		for _, m := range c.Members {
			if m.NormalizedText == "technical debt" {
				if debt != nil && debt != c {
					t.Fatalf("identical normalized texts split across clusters %d and %d", debt.ClusterID, c.ClusterID)
				}
				debt = c
			}
		}
	}
	if debt == nil {
		t.Fatalf("technical debt cluster not found")
	}
	if debt.IssueCount != 2 {
		t.Fatalf("IssueCount=%d, want 2", debt.IssueCount)
	}
}

func TestCluster_EmptyInput(t *testing.T) {
	t.Parallel()

	res, err := Cluster(nil, 5, 42, 100)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(res.Clusters) != 0 {
		t.Fatalf("clusters=%d, want 0", len(res.Clusters))
	}
	if !res.Converged {
		t.Fatalf("empty input should be converged")
	}
}

func TestCluster_SingleDistinctTheme(t *testing.T) {
	t.Parallel()

	themes := []NormalizedTheme{
		{RawTheme: RawTheme{IssueID: "A-1", Text: "scope creep", Sentiment: SentimentNegative}, NormalizedText: "scope creep"},
		{RawTheme: RawTheme{IssueID: "A-2", Text: "scope creep", Sentiment: SentimentNegative}, NormalizedText: "scope creep"},
	}
	Vectorize(themes)

	res, err := Cluster(themes, 5, 42, 100)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(res.Clusters) != 1 {
		t.Fatalf("clusters=%d, want 1", len(res.Clusters))
	}
	if len(res.Clusters[0].Members) != 2 {
		t.Fatalf("members=%d, want 2", len(res.Clusters[0].Members))
	}
}

func TestCluster_DeterministicForFixedSeed(t *testing.T) {
	t.Parallel()

	run := func() []string {
		themes := fixtureThemes(30)
		res, err := Cluster(themes, 5, 1234, 100)
		if err != nil {
			t.Fatalf("Cluster: %v", err)
		}
		var out []string
		for _, c := range res.Clusters {
			line := c.Label + "|"
			for _, m := range c.Members {
				line += m.IssueID + ","
			}
			out = append(out, line)
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("cluster counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("run mismatch at cluster %d:\n  %s\n  %s", i, a[i], b[i])
		}
	}
}

func TestCluster_LabelIsMemberText(t *testing.T) {
	t.Parallel()

	themes := fixtureThemes(12)
	res, err := Cluster(themes, 4, 9, 100)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	for _, c := range res.Clusters {
		found := false
		for _, m := range c.Members {
			if c.Label == m.Text {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("cluster %d label %q is not a member text", c.ClusterID, c.Label)
		}
	}
}

func TestCluster_InvalidConfiguration(t *testing.T) {
	t.Parallel()

	themes := fixtureThemes(4)
	if _, err := Cluster(themes, 0, 42, 100); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("k=0 err=%v", err)
	}
	if _, err := Cluster(themes, 3, 42, 0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("maxIterations=0 err=%v", err)
	}

	themes[2].Vector = themes[2].Vector[:len(themes[2].Vector)-1]
	if _, err := Cluster(themes, 3, 42, 100); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("dimension mismatch err=%v", err)
	}
}

func TestCluster_SentimentBreakdownCounts(t *testing.T) {
	t.Parallel()

	themes := []NormalizedTheme{
		{RawTheme: RawTheme{IssueID: "A-1", Text: "ci flakiness", Sentiment: SentimentNegative}, NormalizedText: "ci flakiness"},
		{RawTheme: RawTheme{IssueID: "A-2", Text: "ci flakiness", Sentiment: SentimentNeutral}, NormalizedText: "ci flakiness"},
	}
	Vectorize(themes)

	res, err := Cluster(themes, 1, 42, 100)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	c := res.Clusters[0]
	if c.SentimentBreakdown[SentimentNegative] != 1 || c.SentimentBreakdown[SentimentNeutral] != 1 {
		t.Fatalf("breakdown=%v", c.SentimentBreakdown)
	}
}
