package analysis

import "time"

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Category represents the type of finding.
type Category string

const (
	CategoryBug             Category = "bug"
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryCorrectness     Category = "correctness"
	CategoryStyle           Category = "style"
	CategoryMaintainability Category = "maintainability"
	CategoryTesting         Category = "testing"
	CategoryDocs            Category = "docs"
)

// LineRange represents a range of line numbers.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Location represents where a finding was detected.
type Location struct {
	Path  string    `json:"path"`
	Lines LineRange `json:"lines"`
}

// Finding is a single issue reported by the provider.
type Finding struct {
	ID         string     `json:"id"`
	Severity   Severity   `json:"severity"`
	Category   Category   `json:"category"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
	Confidence float64    `json:"confidence"`
	Locations  []Location `json:"locations"`
	Tags       []string   `json:"tags,omitempty"`
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summary provides an overview of findings.
type Summary struct {
	Counts          SeverityCounts `json:"counts"`
	HighestSeverity Severity       `json:"highestSeverity,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	LLMMs   int64 `json:"llmMs"`
	TotalMs int64 `json:"totalMs"`
}

// Report is the parsed result of one provider call.
type Report struct {
	RunID      string    `json:"runId"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Files      []string  `json:"files"`
	Cached     bool      `json:"cached"`
	TokensUsed int       `json:"tokensUsed"`
	Summary    Summary   `json:"summary"`
	Findings   []Finding `json:"findings"`
	Timing     Timing    `json:"timing"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ComputeSummary calculates the summary from findings.
func ComputeSummary(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityLow:
			s.Counts.Low++
		case SeverityMedium:
			s.Counts.Medium++
		case SeverityHigh:
			s.Counts.High++
		}
		if SeverityRank(f.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	return s
}
