package analysis

import "sort"

// Rank orders clusters into a top-K report. Sort key is IssueCount descending;
// ties break toward the cluster with the larger share of negative sentiment
// (pain points surface first), then toward the lower ClusterID. Output is
// truncated to k and never padded: fewer clusters than k yields fewer entries.
func Rank(clusters []*ThemeCluster, totalIssues int, k int) []RankedThemeEntry {
	if len(clusters) == 0 || k <= 0 {
		return nil
	}

	ordered := append([]*ThemeCluster(nil), clusters...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].IssueCount != ordered[j].IssueCount {
			return ordered[i].IssueCount > ordered[j].IssueCount
		}
		ni, nj := negativeShare(ordered[i]), negativeShare(ordered[j])
		if ni != nj {
			return ni > nj
		}
		return ordered[i].ClusterID < ordered[j].ClusterID
	})

	if len(ordered) > k {
		ordered = ordered[:k]
	}

	entries := make([]RankedThemeEntry, len(ordered))
	for i, c := range ordered {
		pct := 0.0
		if totalIssues > 0 {
			pct = float64(c.IssueCount) / float64(totalIssues) * 100
		}
		entries[i] = RankedThemeEntry{
			Rank:              i + 1,
			Cluster:           c,
			Label:             c.Label,
			IssueCount:        c.IssueCount,
			FrequencyPct:      pct,
			DominantSentiment: dominantSentiment(c.SentimentBreakdown),
		}
	}
	return entries
}
