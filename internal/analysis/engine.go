package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/dshills/redline/internal/cache"
	"github.com/dshills/redline/internal/gate"
	"github.com/dshills/redline/internal/providers"
)

// ErrNoPayload is returned when there is nothing to analyze.
var ErrNoPayload = errors.New("no files to analyze")

// rawFinding is the JSON structure returned by the LLM.
type rawFinding struct {
	Severity   string   `json:"severity"`
	Category   string   `json:"category"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion"`
	Confidence float64  `json:"confidence"`
	Path       string   `json:"path"`
	StartLine  int      `json:"startLine"`
	EndLine    int      `json:"endLine"`
	Tags       []string `json:"tags"`
}

// Options configure an Analyzer.
type Options struct {
	Model       string
	MaxFindings int
	MaxTokens   int
	// Cache may be nil.
	Cache  *cache.Cache
	Logger *zap.Logger
}

// Analyzer sends gate payloads to one provider.
type Analyzer struct {
	provider providers.Provider
	opts     Options
	logger   *zap.Logger
}

// New returns an Analyzer for provider.
func New(provider providers.Provider, opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 8192
	}
	return &Analyzer{provider: provider, opts: opts, logger: logger.Named("analysis")}
}

// Provider returns the provider name.
func (a *Analyzer) Provider() string { return a.provider.Name() }

// Analyze sends payloads as one request and parses the findings. The
// payloads are transmitted together or not at all.
func (a *Analyzer) Analyze(ctx context.Context, payloads []gate.Payload) (*Report, error) {
	if len(payloads) == 0 {
		return nil, ErrNoPayload
	}
	start := time.Now()

	files := make([]string, len(payloads))
	parts := make([]string, 0, 2*len(payloads))
	for i, p := range payloads {
		files[i] = p.Path
		parts = append(parts, p.Path, p.Content)
	}
	key := cache.BuildKey(a.provider.Name(), a.opts.Model, parts...)

	report := &Report{
		RunID:     uuid.NewString(),
		Provider:  a.provider.Name(),
		Model:     a.opts.Model,
		Files:     files,
		CreatedAt: start.UTC(),
	}
	log := a.logger.With(zap.String("runId", report.RunID), zap.Int("files", len(payloads)))

	if a.opts.Cache != nil {
		if content, ok := a.opts.Cache.Get(key); ok {
			if findings, err := parseFindings(content); err == nil {
				log.Debug("cache hit")
				report.Cached = true
				return a.finish(report, findings, start), nil
			}
		}
	}

	llmStart := time.Now()
	resp, err := a.provider.Analyze(ctx, providers.Request{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   BuildUserPrompt(payloads, a.opts.MaxFindings),
		MaxTokens:    a.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("provider analyze: %w", err)
	}
	report.TokensUsed = resp.TokensUsed

	content := resp.Content
	findings, err := parseFindings(content)
	if err != nil {
		log.Warn("invalid response, attempting repair", zap.Error(err))
		resp2, err2 := a.provider.Analyze(ctx, providers.Request{
			SystemPrompt: SystemPrompt(),
			UserPrompt:   repairPrompt(err, resp.Content),
			MaxTokens:    a.opts.MaxTokens,
		})
		if err2 != nil {
			return nil, fmt.Errorf("repair pass failed: %w (original error: %w)", err2, err)
		}
		report.TokensUsed += resp2.TokensUsed
		content = resp2.Content
		findings, err = parseFindings(content)
		if err != nil {
			return nil, fmt.Errorf("response validation failed after repair: %w", err)
		}
	}
	report.Timing.LLMMs = time.Since(llmStart).Milliseconds()

	if a.opts.Cache != nil {
		if err := a.opts.Cache.Put(key, content); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}

	log.Info("analysis complete",
		zap.Int("findings", len(findings)),
		zap.Int("tokens", report.TokensUsed),
	)
	return a.finish(report, findings, start), nil
}

func (a *Analyzer) finish(r *Report, findings []Finding, start time.Time) *Report {
	if a.opts.MaxFindings > 0 && len(findings) > a.opts.MaxFindings {
		findings = findings[:a.opts.MaxFindings]
	}
	r.Findings = findings
	r.Summary = ComputeSummary(findings)
	r.Timing.TotalMs = time.Since(start).Milliseconds()
	return r
}

func parseFindings(content string) ([]Finding, error) {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 2 {
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			content = strings.Join(lines[1:end], "\n")
		}
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	findings := make([]Finding, 0, len(raw))
	for _, r := range raw {
		f := Finding{
			Severity:   Severity(strings.ToLower(r.Severity)),
			Category:   Category(strings.ToLower(r.Category)),
			Title:      r.Title,
			Message:    r.Message,
			Suggestion: r.Suggestion,
			Confidence: r.Confidence,
			Tags:       r.Tags,
			Locations: []Location{
				{Path: r.Path, Lines: LineRange{Start: r.StartLine, End: r.EndLine}},
			},
		}
		f.ID = generateFindingID(f)
		findings = append(findings, f)
	}
	return findings, nil
}

func generateFindingID(f Finding) string {
	var p string
	var line int
	if len(f.Locations) > 0 {
		p = f.Locations[0].Path
		line = f.Locations[0].Lines.Start
	}
	h := blake3.Sum256([]byte(fmt.Sprintf("%s:%s:%d", p, f.Title, line)))
	return fmt.Sprintf("%x", h[:8])
}
