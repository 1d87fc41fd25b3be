package analysis

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theimaginaryfoundation/theme-o-tron/analysis/fileutils"
)

// maxThemeTextLen bounds a theme label; anything longer is not a label.
const maxThemeTextLen = 200

// ValidateRawTheme enforces the input contract the core assumes: non-empty
// issue ID, non-empty text after trimming (bounded length), and a sentiment
// from the closed set.
func ValidateRawTheme(t RawTheme) error {
	if strings.TrimSpace(t.IssueID) == "" {
		return errors.New("empty issue_id")
	}
	text := strings.TrimSpace(t.Text)
	if text == "" {
		return errors.New("empty text")
	}
	if len(text) > maxThemeTextLen {
		return fmt.Errorf("text too long (%d > %d)", len(text), maxThemeTextLen)
	}
	if _, ok := ParseSentiment(string(t.Sentiment)); !ok {
		return fmt.Errorf("unknown sentiment %q", t.Sentiment)
	}
	return nil
}

// LoadRawThemes reads a raw_themes.jsonl file, one RawTheme per line. Every
// line must validate; a bad line is an error, not a skip, since the clustering
// stage is only allowed to see already-validated input.
func LoadRawThemes(path string) ([]RawTheme, error) {
	if path == "" {
		return nil, errors.New("LoadRawThemes: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadRawThemes: read file: %w", err)
	}

	var themes []RawTheme
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var t RawTheme
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			return nil, fmt.Errorf("LoadRawThemes: line %d: unmarshal: %w", lineNo, err)
		}
		if err := ValidateRawTheme(t); err != nil {
			return nil, fmt.Errorf("LoadRawThemes: line %d: %w", lineNo, err)
		}
		t.Text = strings.TrimSpace(t.Text)
		themes = append(themes, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("LoadRawThemes: scan: %w", err)
	}
	return themes, nil
}

// SaveRawThemes writes themes as JSONL, atomically.
func SaveRawThemes(path string, themes []RawTheme) error {
	if path == "" {
		return errors.New("SaveRawThemes: path is empty")
	}
	var buf bytes.Buffer
	for i, t := range themes {
		line, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("SaveRawThemes: marshal theme %d: %w", i, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := fileutils.WriteFileAtomicSameDir(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("SaveRawThemes: write: %w", err)
	}
	return nil
}
