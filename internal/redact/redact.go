package redact

import (
	"sort"

	"github.com/dshills/redline/internal/stage"
)

// FileMatches records how many replacements were made in one file.
type FileMatches struct {
	Path    string `json:"path"`
	Matches int    `json:"matches"`
}

// Summary aggregates one redaction pass over a file set.
type Summary struct {
	TotalMatches     int           `json:"totalMatches"`
	FilesWithMatches int           `json:"filesWithMatches"`
	Patterns         []string      `json:"patterns"`
	Files            []FileMatches `json:"files,omitempty"`
}

// HasMatches reports whether anything was redacted.
func (s Summary) HasMatches() bool {
	return s.TotalMatches > 0
}

// maxPasses bounds the catalog passes in Text. Every pass that replaces
// something consumes secret text, so real input settles in two or three.
const maxPasses = 8

// Text redacts a single string and returns the result, the number of
// replacements, and the names of the patterns that fired in first-fired
// order.
//
// The catalog is applied repeatedly until a pass replaces nothing. A
// placeholder ends in "]", so replacing a later match can open a word
// boundary next to text an earlier pattern skipped on the previous pass.
func (c Catalog) Text(text string) (string, int, []string) {
	result := text
	total := 0
	var fired []string
	seen := make(map[string]bool)
	for pass := 0; pass < maxPasses; pass++ {
		replaced := 0
		for _, p := range c {
			placeholder := Placeholder(p.Name)
			n := 0
			result = p.Matcher.ReplaceAllStringFunc(result, func(string) string {
				n++
				return placeholder
			})
			if n == 0 {
				continue
			}
			replaced += n
			if !seen[p.Name] {
				seen[p.Name] = true
				fired = append(fired, p.Name)
			}
		}
		total += replaced
		if replaced == 0 {
			break
		}
	}
	return result, total, fired
}

// Scan redacts every file and returns new file values with a summary.
// Inputs are never modified.
func (c Catalog) Scan(files []stage.File) ([]stage.File, Summary) {
	out := make([]stage.File, len(files))
	seen := make(map[string]struct{})
	var sum Summary

	for i, f := range files {
		content, n, fired := c.Text(f.Content)
		out[i] = f.WithContent(content)
		if n == 0 {
			continue
		}
		sum.TotalMatches += n
		sum.FilesWithMatches++
		sum.Files = append(sum.Files, FileMatches{Path: f.Path, Matches: n})
		for _, name := range fired {
			seen[name] = struct{}{}
		}
	}

	sum.Patterns = make([]string, 0, len(seen))
	for name := range seen {
		sum.Patterns = append(sum.Patterns, name)
	}
	sort.Strings(sum.Patterns)
	return out, sum
}

// Scan redacts files with the default catalog.
func Scan(files []stage.File) ([]stage.File, Summary) {
	return defaultCatalog.Scan(files)
}

// Secrets redacts text with the default catalog.
func Secrets(text string) string {
	out, _, _ := defaultCatalog.Text(text)
	return out
}
