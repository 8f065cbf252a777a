package redact

import (
	"regexp"
	"strings"
)

// Pattern is a named secret detector. The name doubles as the placeholder
// label after normalization by [Label].
type Pattern struct {
	Name    string
	Matcher *regexp.Regexp
}

// Catalog is an ordered list of patterns. Order matters: earlier patterns
// replace their matches before later ones run.
type Catalog []Pattern

// defaultCatalog must keep the generic assignment heuristic last.
var defaultCatalog = Catalog{
	{
		Name: "Private Key",
		// An unterminated block is redacted to end of file.
		Matcher: regexp.MustCompile(`-----BEGIN[A-Z0-9 ]*PRIVATE KEY-----[\s\S]*?(?:-----END[A-Z0-9 ]*PRIVATE KEY-----|\z)`),
	},
	{
		Name:    "AWS Access Key ID",
		Matcher: regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}`),
	},
	{
		Name:    "Google API Key",
		Matcher: regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}`),
	},
	{
		Name:    "AWS Secret Key",
		Matcher: regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key["']?\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`),
	},
	{
		Name:    "Anthropic API Key",
		Matcher: regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_\-]{20,}`),
	},
	{
		Name:    "OpenAI API Key",
		Matcher: regexp.MustCompile(`\bsk-(?:proj-)?[A-Za-z0-9_\-]{20,}`),
	},
	{
		Name:    "GitHub Token",
		Matcher: regexp.MustCompile(`\b(?:gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,})`),
	},
	{
		Name:    "Slack Token",
		Matcher: regexp.MustCompile(`\bxox[abposr]-[A-Za-z0-9\-]{10,}`),
	},
	{
		Name:    "Stripe Live Secret Key",
		Matcher: regexp.MustCompile(`\b(?:sk|rk)_live_[A-Za-z0-9]{16,}`),
	},
	{
		Name:    "JWT",
		Matcher: regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]{8,}\.[A-Za-z0-9_\-]{8,}\.[A-Za-z0-9_\-]{8,}`),
	},
	{
		Name:    "Bearer Token",
		Matcher: regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/\-]{20,}=*`),
	},
	{
		Name: "Generic Secret Assignment",
		// The value must be quoted, which a placeholder never is.
		Matcher: regexp.MustCompile(`(?i)(?:api|secret|token|password)[_-]?(?:key|token|secret|pwd)?["']?\s*[:=]\s*["'][A-Za-z0-9_\-]{16,}["']`),
	},
}

// Default returns the built-in catalog.
func Default() Catalog {
	out := make(Catalog, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

// Names returns pattern names in evaluation order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Label converts a pattern name into its placeholder label: upper-cased,
// with each run of non-alphanumeric characters collapsed to one underscore.
func Label(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(name), "_")
}

// Placeholder returns the replacement text written for a pattern match.
func Placeholder(name string) string {
	return "[REDACTED:" + Label(name) + "]"
}
