package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"

	"github.com/theimaginaryfoundation/theme-o-tron/analysis"
)

func TestNewAnalyzer_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewAnalyzer(nil, "gpt-5-mini", 0); err == nil {
		t.Fatalf("nil client accepted")
	}

	client := openai.NewClient()
	if _, err := NewAnalyzer(&client, "", 0); err == nil {
		t.Fatalf("empty model accepted")
	}
	if _, err := NewAnalyzer(&client, "gpt-5-mini", 30); err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
}

func TestRawThemesFrom(t *testing.T) {
	t.Parallel()

	out := extractResponse{
		Themes:    []string{"Technical Debt", "  Dependencies  ", ""},
		Sentiment: "negative",
		Reasoning: "  Comments describe repeated blockers.  ",
	}

	themes, err := rawThemesFrom("PROJ-7", out)
	if err != nil {
		t.Fatalf("rawThemesFrom: %v", err)
	}
	if len(themes) != 2 {
		t.Fatalf("len=%d, want 2", len(themes))
	}
	if themes[0].IssueID != "PROJ-7" || themes[0].Text != "Technical Debt" {
		t.Fatalf("themes[0]=%+v", themes[0])
	}
	if themes[1].Text != "Dependencies" {
		t.Fatalf("themes[1].Text=%q", themes[1].Text)
	}
	for _, th := range themes {
		if th.Sentiment != analysis.SentimentNegative {
			t.Fatalf("Sentiment=%q", th.Sentiment)
		}
		if th.Reasoning != "Comments describe repeated blockers." {
			t.Fatalf("Reasoning=%q", th.Reasoning)
		}
	}
}

func TestRawThemesFrom_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		out  extractResponse
	}{
		{"bad sentiment", extractResponse{Themes: []string{"dependencies"}, Sentiment: "angry"}},
		{"no themes", extractResponse{Sentiment: "neutral"}},
		{"only blank themes", extractResponse{Themes: []string{"", "   "}, Sentiment: "neutral"}},
		{"over-length theme", extractResponse{Themes: []string{strings.Repeat("x", 300)}, Sentiment: "negative"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := rawThemesFrom("PROJ-1", tc.out); !errors.Is(err, ErrMalformedExtraction) {
				t.Fatalf("err=%v, want ErrMalformedExtraction", err)
			}
		})
	}
}

func TestDecodeModelJSON(t *testing.T) {
	t.Parallel()

	var out extractResponse
	clean := `{"themes":["technical debt"],"sentiment":"negative","reasoning":"legacy code"}`
	if err := decodeModelJSON(clean, &out); err != nil {
		t.Fatalf("clean JSON: %v", err)
	}
	if len(out.Themes) != 1 || out.Sentiment != "negative" {
		t.Fatalf("out=%+v", out)
	}

	wrapped := "Here is the result:\n```json\n" + clean + "\n```\nHope that helps."
	out = extractResponse{}
	if err := decodeModelJSON(wrapped, &out); err != nil {
		t.Fatalf("wrapped JSON: %v", err)
	}
	if out.Sentiment != "negative" {
		t.Fatalf("out=%+v", out)
	}
}

func TestDecodeModelJSON_Errors(t *testing.T) {
	t.Parallel()

	var out extractResponse
	if err := decodeModelJSON("", &out); err == nil {
		t.Fatalf("empty output accepted")
	}
	if err := decodeModelJSON("no json here at all", &out); err == nil {
		t.Fatalf("braceless output accepted")
	}
	if err := decodeModelJSON(`prefix {"themes": broken} suffix`, &out); err == nil {
		t.Fatalf("broken embedded JSON accepted")
	}
}

func TestExtractSchema_RequiredFields(t *testing.T) {
	t.Parallel()

	required, ok := extractSchema["required"].([]string)
	if !ok {
		t.Fatalf("schema required is %T", extractSchema["required"])
	}
	want := map[string]bool{"themes": false, "sentiment": false, "reasoning": false}
	for _, r := range required {
		if _, known := want[r]; !known {
			t.Fatalf("unexpected required field %q", r)
		}
		want[r] = true
	}
	for field, seen := range want {
		if !seen {
			t.Fatalf("field %q not required", field)
		}
	}
	if extractSchema["additionalProperties"] != false {
		t.Fatalf("additionalProperties=%v", extractSchema["additionalProperties"])
	}
}
