// Package ingest loads issue-tracker CSV exports and aggregates comment rows
// into per-issue blobs for the extraction stage.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// CommentRow is one comment on one issue, as exported.
type CommentRow struct {
	IssueKey    string
	Created     time.Time
	Resolved    time.Time // zero when unresolved
	CommentedAt time.Time
	Comment     string
}

// Options maps export columns onto CommentRow fields. Jira renames these
// between export flavors, so they stay configurable.
type Options struct {
	IssueKeyColumn    string
	CreatedColumn     string
	ResolvedColumn    string
	CommentColumn     string
	CommentedAtColumn string

	// MinCommentLength drops comments too short to carry a delay cause.
	MinCommentLength int

	// DateLayouts are tried in order for every date cell.
	DateLayouts []string
}

func DefaultOptions() Options {
	return Options{
		IssueKeyColumn:    "Issue key",
		CreatedColumn:     "Created",
		ResolvedColumn:    "Resolved",
		CommentColumn:     "Comment",
		CommentedAtColumn: "Comment Created",
		MinCommentLength:  10,
		DateLayouts: []string{
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			time.RFC3339,
			"02/Jan/06 3:04 PM",
			"2006-01-02",
		},
	}
}

// LoadComments reads a CSV export. Rows with an empty issue key or an empty
// comment cell are dropped; a missing required column is an error. Unparseable
// dates are left as zero values rather than failing the whole export, matching
// how these exports actually arrive.
func LoadComments(r io.Reader, opts Options) ([]CommentRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("LoadComments: empty file")
		}
		return nil, fmt.Errorf("LoadComments: read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	keyIdx, ok := col[opts.IssueKeyColumn]
	if !ok {
		return nil, fmt.Errorf("LoadComments: missing column %q (have %s)", opts.IssueKeyColumn, strings.Join(header, ", "))
	}
	commentIdx, ok := col[opts.CommentColumn]
	if !ok {
		return nil, fmt.Errorf("LoadComments: missing column %q (have %s)", opts.CommentColumn, strings.Join(header, ", "))
	}
	createdIdx, hasCreated := col[opts.CreatedColumn]
	resolvedIdx, hasResolved := col[opts.ResolvedColumn]
	commentedIdx, hasCommented := col[opts.CommentedAtColumn]

	var rows []CommentRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("LoadComments: line %d: %w", line+1, err)
		}
		line++

		row := CommentRow{
			IssueKey: strings.TrimSpace(cell(rec, keyIdx)),
			Comment:  strings.TrimSpace(cell(rec, commentIdx)),
		}
		if row.IssueKey == "" || row.Comment == "" {
			continue
		}
		if hasCreated {
			row.Created = parseDate(cell(rec, createdIdx), opts.DateLayouts)
		}
		if hasResolved {
			row.Resolved = parseDate(cell(rec, resolvedIdx), opts.DateLayouts)
		}
		if hasCommented {
			row.CommentedAt = parseDate(cell(rec, commentedIdx), opts.DateLayouts)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func parseDate(s string, layouts []string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FilterDelayed keeps issues created inside [createdStart, createdEnd] that
// were resolved at or after resolvedStart, or not resolved at all. An
// unresolved issue still counts as delayed.
func FilterDelayed(rows []CommentRow, createdStart, createdEnd, resolvedStart time.Time) []CommentRow {
	var out []CommentRow
	for _, row := range rows {
		if row.Created.IsZero() || row.Created.Before(createdStart) || row.Created.After(createdEnd) {
			continue
		}
		if !row.Resolved.IsZero() && row.Resolved.Before(resolvedStart) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// CleanComments drops comments shorter than minLength characters.
func CleanComments(rows []CommentRow, minLength int) []CommentRow {
	if minLength <= 0 {
		return rows
	}
	var out []CommentRow
	for _, row := range rows {
		if len(row.Comment) >= minLength {
			out = append(out, row)
		}
	}
	return out
}

// IssueComments is one issue's comments concatenated into a single blob.
type IssueComments struct {
	IssueKey     string
	Blob         string
	CommentCount int
}

// AggregateByIssue groups comment rows by issue key. Comments are ordered by
// timestamp within each issue (ties keep export order) and joined with blank
// lines; issues come back sorted by key so downstream runs are stable.
func AggregateByIssue(rows []CommentRow) []IssueComments {
	byIssue := make(map[string][]CommentRow)
	for _, row := range rows {
		byIssue[row.IssueKey] = append(byIssue[row.IssueKey], row)
	}

	keys := make([]string, 0, len(byIssue))
	for k := range byIssue {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]IssueComments, 0, len(keys))
	for _, k := range keys {
		comments := byIssue[k]
		sort.SliceStable(comments, func(i, j int) bool {
			return comments[i].CommentedAt.Before(comments[j].CommentedAt)
		})

		parts := make([]string, len(comments))
		for i, c := range comments {
			parts[i] = c.Comment
		}
		out = append(out, IssueComments{
			IssueKey:     k,
			Blob:         strings.Join(parts, "\n\n"),
			CommentCount: len(comments),
		})
	}
	return out
}
