package analysis

import "strings"

// DefaultStopPhrases is the boilerplate framing the LLM tends to wrap around the
// semantic payload of a theme label. Stripping it keeps the clusterer from
// grouping by framing rather than cause.
var DefaultStopPhrases = []string{
	"the issue was",
	"the issue is",
	"the delay was caused by",
	"delay was caused by",
	"delayed due to",
	"delayed because of",
	"caused by",
	"due to",
	"related to",
	"issues with",
	"problems with",
}

// Normalize canonicalizes a RawTheme's text ahead of vectorization. It is total:
// if stripping removes everything, the original trimmed text is kept so the
// theme never degrades into a zero-information vector.
func Normalize(raw RawTheme, stopPhrases []string) NormalizedTheme {
	trimmed := strings.TrimSpace(raw.Text)

	s := strings.ToLower(trimmed)
	s = strings.Trim(s, `"'`+"`“”‘’ \t")
	s = strings.TrimFunc(s, func(r rune) bool {
		switch r {
		case '.', ',', ';', ':', '!', '?', '(', ')', '[', ']', '-', '–', '—':
			return true
		}
		return false
	})
	s = strings.TrimSpace(s)

	for _, phrase := range stopPhrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" {
			continue
		}
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(strings.TrimPrefix(s, p))
		}
	}

	s = strings.Join(strings.Fields(s), " ")

	if s == "" {
		s = strings.Join(strings.Fields(strings.ToLower(trimmed)), " ")
	}

	return NormalizedTheme{
		RawTheme:       raw,
		NormalizedText: s,
	}
}

// NormalizeAll applies Normalize to an input sequence, preserving order.
func NormalizeAll(raws []RawTheme, stopPhrases []string) []NormalizedTheme {
	out := make([]NormalizedTheme, len(raws))
	for i, r := range raws {
		out[i] = Normalize(r, stopPhrases)
	}
	return out
}
