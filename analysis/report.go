package analysis

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/theimaginaryfoundation/theme-o-tron/analysis/fileutils"
)

// SummaryReport is the management-facing rollup for one run. It is the sole
// contract the presentation layer depends on; cluster internals stay private
// to the analysis package.
type SummaryReport struct {
	TotalThemes           int               `json:"total_themes"`
	TotalIssues           int               `json:"total_issues"`
	UniqueThemes          int               `json:"unique_themes"`
	Seed                  int64             `json:"random_seed"`
	SentimentDistribution map[Sentiment]int `json:"sentiment_distribution"`
	Sections              []ReportSection   `json:"sections"`
}

// ReportSection is the ranked output for one target K.
type ReportSection struct {
	TargetK   int                `json:"target_k"`
	Converged bool               `json:"converged"`
	Entries   []ReportThemeEntry `json:"entries"`
}

// ReportThemeEntry is one reported theme row.
type ReportThemeEntry struct {
	Rank              int               `json:"rank"`
	Label             string            `json:"label"`
	IssueCount        int               `json:"issue_count"`
	FrequencyPct      float64           `json:"frequency_pct"`
	DominantSentiment Sentiment         `json:"dominant_sentiment"`
	Sentiments        map[Sentiment]int `json:"sentiment_breakdown"`
	SampleIssueKeys   []string          `json:"sample_issue_keys,omitempty"`
	SampleReasoning   []string          `json:"sample_reasoning,omitempty"`
	RecommendedAction string            `json:"recommended_action"`
}

const (
	sampleIssueKeysMax = 5
	sampleReasoningMax = 3
)

// BuildSummaryReport creates the report artifact from a run result.
func BuildSummaryReport(result *Result) SummaryReport {
	report := SummaryReport{
		TotalThemes:           len(result.Themes),
		TotalIssues:           result.TotalIssues,
		Seed:                  result.Seed,
		SentimentDistribution: make(map[Sentiment]int),
	}

	unique := make(map[string]struct{}, len(result.Themes))
	for i := range result.Themes {
		report.SentimentDistribution[result.Themes[i].Sentiment]++
		unique[result.Themes[i].NormalizedText] = struct{}{}
	}
	report.UniqueThemes = len(unique)

	for _, p := range result.Partitions {
		section := ReportSection{TargetK: p.TargetK, Converged: p.Converged}
		for _, e := range p.Ranked {
			section.Entries = append(section.Entries, buildReportEntry(e))
		}
		report.Sections = append(report.Sections, section)
	}
	return report
}

func buildReportEntry(e RankedThemeEntry) ReportThemeEntry {
	var keys, reasoning []string
	for _, m := range e.Cluster.Members {
		keys = append(keys, m.IssueID)
		if r := strings.TrimSpace(m.Reasoning); r != "" {
			reasoning = append(reasoning, r)
		}
	}

	sentiments := make(map[Sentiment]int, len(e.Cluster.SentimentBreakdown))
	for s, c := range e.Cluster.SentimentBreakdown {
		sentiments[s] = c
	}

	return ReportThemeEntry{
		Rank:              e.Rank,
		Label:             e.Label,
		IssueCount:        e.IssueCount,
		FrequencyPct:      e.FrequencyPct,
		DominantSentiment: e.DominantSentiment,
		Sentiments:        sentiments,
		SampleIssueKeys:   limitStrings(dedupeStrings(keys), sampleIssueKeysMax),
		SampleReasoning:   limitStrings(dedupeStrings(reasoning), sampleReasoningMax),
		RecommendedAction: RecommendedAction(e.Label),
	}
}

// WriteSummaryReport writes the report JSON atomically.
func WriteSummaryReport(path string, report SummaryReport, pretty bool) error {
	if err := fileutils.WriteJSONFileAtomic(path, report, pretty); err != nil {
		return fmt.Errorf("WriteSummaryReport: %w", err)
	}
	return nil
}

// insightsHeader matches the actionable-insights sheet management already uses.
var insightsHeader = []string{
	"Rank", "Theme", "Issue_Count", "Percentage",
	"Negative_Sentiment_Count", "Dominant_Sentiment",
	"Sample_Issue_Keys", "Recommended_Action",
}

// WriteInsightsCSV writes one partition's ranked entries as an actionable
// insights sheet, atomically.
func WriteInsightsCSV(path string, section ReportSection) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(insightsHeader); err != nil {
		return fmt.Errorf("WriteInsightsCSV: header: %w", err)
	}
	for _, e := range section.Entries {
		row := []string{
			fmt.Sprintf("%d", e.Rank),
			e.Label,
			fmt.Sprintf("%d", e.IssueCount),
			fmt.Sprintf("%.1f", e.FrequencyPct),
			fmt.Sprintf("%d", e.Sentiments[SentimentNegative]),
			string(e.DominantSentiment),
			strings.Join(e.SampleIssueKeys, ", "),
			e.RecommendedAction,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("WriteInsightsCSV: row %d: %w", e.Rank, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("WriteInsightsCSV: flush: %w", err)
	}

	if err := fileutils.WriteFileAtomicSameDir(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("WriteInsightsCSV: write: %w", err)
	}
	return nil
}

// recommendations maps the canonical delay categories the extraction prompt
// steers toward onto standing management advice. Labels that drift from the
// canonical set get the generic fallback.
var recommendations = map[string]string{
	"technical debt":       "Schedule dedicated refactoring sprints; allocate a fixed share of capacity to debt reduction",
	"resource constraints": "Review team capacity planning; consider additional hiring or workload redistribution",
	"dependencies":         "Improve cross-team communication; establish clear SLAs with dependencies",
	"requirements issues":  "Implement stricter requirements review; involve stakeholders earlier",
	"testing/qa":           "Expand test automation; allocate more QA resources or improve test infrastructure",
	"environment issues":   "Invest in DevOps infrastructure; improve environment stability and tooling",
	"communication gaps":   "Establish regular sync meetings; improve documentation and handoff processes",
	"complexity":           "Break down large tasks into smaller units; improve estimation practices",
	"process issues":       "Review and streamline approval workflows; remove unnecessary bureaucracy",
	"external factors":     "Build in buffer time for external dependencies; improve vendor management",
}

const defaultRecommendation = "Review root causes and develop a targeted improvement plan"

// RecommendedAction returns the standing advice for a theme label.
func RecommendedAction(label string) string {
	if r, ok := recommendations[strings.ToLower(strings.TrimSpace(label))]; ok {
		return r
	}
	return defaultRecommendation
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func limitStrings(in []string, max int) []string {
	if max <= 0 || len(in) <= max {
		return in
	}
	return in[:max]
}
