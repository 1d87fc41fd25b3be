// Package extract adapts the OpenAI Responses API into the RawTheme contract
// the analysis core consumes. Everything nondeterministic (model sampling,
// retries, rate limiting, concurrency) lives here; nothing malformed crosses
// the boundary into analysis.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/theimaginaryfoundation/theme-o-tron/analysis"
	"github.com/theimaginaryfoundation/theme-o-tron/extract/provider"
)

// ErrMalformedExtraction marks a model response that failed schema-level
// validation. Callers can errors.Is against it to separate bad model output
// from transport failures.
var ErrMalformedExtraction = errors.New("malformed extraction result")

// Input is one issue's aggregated comment blob.
type Input struct {
	IssueID string
	Text    string
}

// Analyzer extracts delay themes from per-issue comment blobs.
type Analyzer struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewAnalyzer builds an Analyzer. requestsPerMinute bounds the client-side
// call rate; 0 disables limiting.
func NewAnalyzer(client *openai.Client, model string, requestsPerMinute int) (*Analyzer, error) {
	if client == nil {
		return nil, errors.New("NewAnalyzer: client is nil")
	}
	if model == "" {
		return nil, errors.New("NewAnalyzer: model is empty")
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60.0)
	}
	return &Analyzer{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

type extractResponse struct {
	Themes    []string `json:"themes"`
	Sentiment string   `json:"sentiment"`
	Reasoning string   `json:"reasoning"`
}

var extractSchema = provider.GenerateSchema[extractResponse]()

// AnalyzeIssue sends one issue's comment blob to the model and returns one
// RawTheme per extracted label. The returned themes are already validated.
func (a *Analyzer) AnalyzeIssue(ctx context.Context, in Input) ([]analysis.RawTheme, error) {
	if strings.TrimSpace(in.IssueID) == "" {
		return nil, errors.New("AnalyzeIssue: empty issue ID")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "DelayThemes",
			Schema:      extractSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Delay theme extraction JSON"),
			Type:        "json_schema",
		},
	}

	input := fmt.Sprintf("Issue %s comments (timestamp order):\n\n%s", in.IssueID, in.Text)
	params := responses.ResponseNewParams{
		Model:           a.model,
		MaxOutputTokens: openai.Int(1000),
		Instructions:    openai.String(delayThemeInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := provider.CallWithRetry(ctx, a.client, params)
	if err != nil {
		return nil, fmt.Errorf("AnalyzeIssue %s: %w", in.IssueID, err)
	}

	var out extractResponse
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("AnalyzeIssue %s: %w: %v", in.IssueID, ErrMalformedExtraction, err)
	}

	themes, err := rawThemesFrom(in.IssueID, out)
	if err != nil {
		return nil, fmt.Errorf("AnalyzeIssue %s: %w", in.IssueID, err)
	}
	return themes, nil
}

// rawThemesFrom validates one model response into RawThemes. Any violation of
// the contract is a malformed extraction; partial salvage is not attempted.
func rawThemesFrom(issueID string, out extractResponse) ([]analysis.RawTheme, error) {
	sentiment, ok := analysis.ParseSentiment(out.Sentiment)
	if !ok {
		return nil, fmt.Errorf("%w: sentiment %q", ErrMalformedExtraction, out.Sentiment)
	}

	var themes []analysis.RawTheme
	for _, label := range out.Themes {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		t := analysis.RawTheme{
			IssueID:   issueID,
			Text:      label,
			Sentiment: sentiment,
			Reasoning: strings.TrimSpace(out.Reasoning),
		}
		if err := analysis.ValidateRawTheme(t); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedExtraction, err)
		}
		themes = append(themes, t)
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("%w: no themes returned", ErrMalformedExtraction)
	}
	return themes, nil
}

// AnalyzeIssues runs AnalyzeIssue over all inputs with bounded parallelism.
// Results come back in input order regardless of completion order; the first
// failure cancels the remaining calls.
func (a *Analyzer) AnalyzeIssues(ctx context.Context, inputs []Input, concurrency int) ([]analysis.RawTheme, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	perIssue := make(map[int][]analysis.RawTheme, len(inputs))

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			themes, err := a.AnalyzeIssue(ctx, in)
			if err != nil {
				return err
			}
			mu.Lock()
			perIssue[i] = themes
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	order := make([]int, 0, len(perIssue))
	for i := range perIssue {
		order = append(order, i)
	}
	sort.Ints(order)

	var all []analysis.RawTheme
	for _, i := range order {
		all = append(all, perIssue[i]...)
	}
	return all, nil
}

// decodeModelJSON unmarshals JSON from a model response, tolerating the model
// wrapping the object in extra text or whitespace.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}
