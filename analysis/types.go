package analysis

import "strings"

// Sentiment is the closed sentiment label set produced by the extraction step.
type Sentiment string

const (
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentPositive Sentiment = "positive"
)

// ParseSentiment maps a raw model label onto the closed set. It returns false
// for anything outside the set so callers can reject malformed extractions.
func ParseSentiment(s string) (Sentiment, bool) {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentNegative:
		return SentimentNegative, true
	case SentimentNeutral:
		return SentimentNeutral, true
	case SentimentPositive:
		return SentimentPositive, true
	}
	return "", false
}

// RawTheme is one delay-theme label emitted by the LLM for one issue.
// One issue may yield multiple themes, so IssueID is not unique.
type RawTheme struct {
	IssueID   string    `json:"issue_id"`
	Text      string    `json:"text"`
	Sentiment Sentiment `json:"sentiment"`
	Reasoning string    `json:"reasoning,omitempty"`
}

// NormalizedTheme is a RawTheme after text canonicalization and vectorization.
// It corresponds one-to-one with its source RawTheme; Vector length is constant
// across all NormalizedThemes produced for one run.
type NormalizedTheme struct {
	RawTheme

	NormalizedText string `json:"normalized_text"`

	// Vector is the TF-IDF embedding of NormalizedText over the run's corpus.
	Vector []float64 `json:"-"`
}

// ThemeCluster is a group of NormalizedThemes judged semantically equivalent.
// Every NormalizedTheme in a run belongs to exactly one ThemeCluster.
type ThemeCluster struct {
	ClusterID int                `json:"cluster_id"`
	Members   []*NormalizedTheme `json:"-"`

	// Centroid is the mean of the members' vectors.
	Centroid []float64 `json:"-"`

	// Label is the original Text of the member closest to the centroid
	// (the medoid), so every reported theme name is traceable to actual
	// model output.
	Label string `json:"label"`

	// IssueCount counts distinct IssueIDs among members. An issue
	// contributes at most once even if several of its themes landed here.
	IssueCount int `json:"issue_count"`

	SentimentBreakdown map[Sentiment]int `json:"sentiment_breakdown"`
}

// RankedThemeEntry is one row of the final top-K output.
type RankedThemeEntry struct {
	Rank    int           `json:"rank"`
	Cluster *ThemeCluster `json:"-"`

	Label        string  `json:"label"`
	IssueCount   int     `json:"issue_count"`
	FrequencyPct float64 `json:"frequency_pct"`

	// DominantSentiment is the mode of the cluster's sentiment breakdown,
	// ties broken toward negative.
	DominantSentiment Sentiment `json:"dominant_sentiment"`
}

// dominantSentiment picks the most frequent sentiment in a breakdown.
// Ties go to negative first, then neutral, so a split never surfaces as positive.
func dominantSentiment(breakdown map[Sentiment]int) Sentiment {
	order := []Sentiment{SentimentNegative, SentimentNeutral, SentimentPositive}
	best := SentimentNeutral
	bestCount := -1
	for _, s := range order {
		if c := breakdown[s]; c > bestCount {
			best = s
			bestCount = c
		}
	}
	return best
}

// negativeShare returns the proportion of members carrying negative sentiment.
func negativeShare(c *ThemeCluster) float64 {
	if len(c.Members) == 0 {
		return 0
	}
	return float64(c.SentimentBreakdown[SentimentNegative]) / float64(len(c.Members))
}

// distinctIssueCount counts distinct IssueIDs among members.
func distinctIssueCount(members []*NormalizedTheme) int {
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		seen[m.IssueID] = struct{}{}
	}
	return len(seen)
}
