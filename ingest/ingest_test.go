package ingest

import (
	"strings"
	"testing"
	"time"
)

const sampleCSV = `Issue key,Created,Resolved,Comment,Comment Created
PROJ-1,2024-01-10 09:00:00,2024-03-01 17:00:00,"Blocked waiting on the platform team again",2024-01-15 10:00:00
PROJ-1,2024-01-10 09:00:00,2024-03-01 17:00:00,"Still blocked, escalating to management",2024-01-12 08:00:00
PROJ-2,2024-02-01 09:00:00,,"Regression suite keeps flaking on CI",2024-02-05 12:00:00
PROJ-3,2023-06-01 09:00:00,2023-07-01 17:00:00,"Old issue outside the window",2023-06-10 10:00:00
PROJ-4,2024-01-20 09:00:00,2024-01-25 17:00:00,"ok",2024-01-21 10:00:00
,2024-01-10 09:00:00,,"orphan comment with no key",2024-01-11 10:00:00
PROJ-5,2024-01-10 09:00:00,,,2024-01-11 10:00:00
`

func TestLoadComments(t *testing.T) {
	t.Parallel()

	rows, err := LoadComments(strings.NewReader(sampleCSV), DefaultOptions())
	if err != nil {
		t.Fatalf("LoadComments: %v", err)
	}
	// Empty-key and empty-comment rows are dropped at load time.
	if len(rows) != 5 {
		t.Fatalf("len=%d, want 5", len(rows))
	}
	if rows[0].IssueKey != "PROJ-1" {
		t.Fatalf("IssueKey=%q", rows[0].IssueKey)
	}
	want := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	if !rows[0].Created.Equal(want) {
		t.Fatalf("Created=%v, want %v", rows[0].Created, want)
	}
	if !rows[2].Resolved.IsZero() {
		t.Fatalf("unresolved row has Resolved=%v", rows[2].Resolved)
	}
}

func TestLoadComments_MissingColumn(t *testing.T) {
	t.Parallel()

	csv := "Summary,Comment\nfoo,bar\n"
	if _, err := LoadComments(strings.NewReader(csv), DefaultOptions()); err == nil {
		t.Fatalf("expected error for missing issue key column")
	}

	csv = "Issue key,Summary\nPROJ-1,foo\n"
	if _, err := LoadComments(strings.NewReader(csv), DefaultOptions()); err == nil {
		t.Fatalf("expected error for missing comment column")
	}
}

func TestLoadComments_EmptyFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadComments(strings.NewReader(""), DefaultOptions()); err == nil {
		t.Fatalf("expected error for empty file")
	}
}

func TestLoadComments_CustomColumns(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.IssueKeyColumn = "Key"
	opts.CommentColumn = "Body"

	csv := "Key,Body\nOPS-1,waiting on vendor hardware delivery\n"
	rows, err := LoadComments(strings.NewReader(csv), opts)
	if err != nil {
		t.Fatalf("LoadComments: %v", err)
	}
	if len(rows) != 1 || rows[0].IssueKey != "OPS-1" {
		t.Fatalf("rows=%+v", rows)
	}
	if !rows[0].Created.IsZero() {
		t.Fatalf("Created should be zero without a date column")
	}
}

func TestLoadComments_UnparseableDateIsZero(t *testing.T) {
	t.Parallel()

	csv := "Issue key,Created,Comment\nPROJ-1,not a date,still a perfectly good comment\n"
	rows, err := LoadComments(strings.NewReader(csv), DefaultOptions())
	if err != nil {
		t.Fatalf("LoadComments: %v", err)
	}
	if len(rows) != 1 || !rows[0].Created.IsZero() {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestFilterDelayed(t *testing.T) {
	t.Parallel()

	rows, err := LoadComments(strings.NewReader(sampleCSV), DefaultOptions())
	if err != nil {
		t.Fatalf("LoadComments: %v", err)
	}

	createdStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createdEnd := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	resolvedStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	got := FilterDelayed(rows, createdStart, createdEnd, resolvedStart)

	keys := make(map[string]int)
	for _, r := range got {
		keys[r.IssueKey]++
	}
	// PROJ-1 resolved after resolvedStart, PROJ-2 unresolved; PROJ-3 predates
	// the window, PROJ-4 was resolved before resolvedStart.
	if keys["PROJ-1"] != 2 || keys["PROJ-2"] != 1 {
		t.Fatalf("keys=%v", keys)
	}
	if keys["PROJ-3"] != 0 || keys["PROJ-4"] != 0 {
		t.Fatalf("filtered issues leaked: %v", keys)
	}
}

func TestCleanComments(t *testing.T) {
	t.Parallel()

	rows := []CommentRow{
		{IssueKey: "A-1", Comment: "short"},
		{IssueKey: "A-2", Comment: "long enough to keep around"},
	}

	got := CleanComments(rows, 10)
	if len(got) != 1 || got[0].IssueKey != "A-2" {
		t.Fatalf("got %+v", got)
	}

	if got := CleanComments(rows, 0); len(got) != 2 {
		t.Fatalf("minLength=0 must keep everything, got %d", len(got))
	}
}

func TestAggregateByIssue(t *testing.T) {
	t.Parallel()

	at := func(day int) time.Time {
		return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
	}
	rows := []CommentRow{
		{IssueKey: "B-2", Comment: "second issue comment", CommentedAt: at(3)},
		{IssueKey: "A-1", Comment: "later comment", CommentedAt: at(5)},
		{IssueKey: "A-1", Comment: "earlier comment", CommentedAt: at(1)},
	}

	got := AggregateByIssue(rows)
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].IssueKey != "A-1" || got[1].IssueKey != "B-2" {
		t.Fatalf("order: %q, %q", got[0].IssueKey, got[1].IssueKey)
	}
	if got[0].CommentCount != 2 {
		t.Fatalf("CommentCount=%d", got[0].CommentCount)
	}
	if got[0].Blob != "earlier comment\n\nlater comment" {
		t.Fatalf("Blob=%q", got[0].Blob)
	}
}

func TestAggregateByIssue_Empty(t *testing.T) {
	t.Parallel()

	if got := AggregateByIssue(nil); len(got) != 0 {
		t.Fatalf("got %+v", got)
	}
}
